package models

import "time"

// Brand of a product.
type Brand struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Category of a product.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductItem is a color variant of a product with its own stock count.
type ProductItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id,omitempty"`
	Color     string    `json:"color"`
	Image     string    `json:"image,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Product is a catalog entry. NameEn/DescriptionEn hold the optional
// machine translation filled in at create/update time.
type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	NameEn        string        `json:"name_en,omitempty"`
	Description   string        `json:"description,omitempty"`
	DescriptionEn string        `json:"description_en,omitempty"`
	Price         float64       `json:"price"`
	Image         string        `json:"image,omitempty"`
	BrandID       *int          `json:"brand_id,omitempty"`
	CategoryID    *int          `json:"category_id,omitempty"`
	Items         []ProductItem `json:"items,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty"`
}

// CreateProductItemRequest is one color variant in a product payload.
type CreateProductItemRequest struct {
	Color    string `json:"color" validate:"required,max=100"`
	Image    string `json:"image" validate:"omitempty,max=500"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// CreateProductRequest creates or replaces a catalog entry.
type CreateProductRequest struct {
	Name        string                     `json:"name" validate:"required,max=255"`
	Description string                     `json:"description"`
	Price       float64                    `json:"price" validate:"gt=0"`
	Image       string                     `json:"image" validate:"omitempty,max=500"`
	BrandID     *int                       `json:"brand_id"`
	CategoryID  *int                       `json:"category_id"`
	Items       []CreateProductItemRequest `json:"items" validate:"omitempty,dive"`
	Translate   bool                       `json:"translate"`
}
