package seed

import (
	"database/sql"

	"veshop-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run fills an empty catalog with sample data for development.
// Tables come from migrations; existing data is never touched.
func Run(db *sql.DB) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		logger.Warn("Seed: products count failed", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("Seed: catalog already populated", zap.Int("products", count))
		return
	}

	brands := seedBrands(db)
	categories := seedCategories(db)
	seedProducts(db, brands, categories)
}

func seedBrands(db *sql.DB) map[string]int {
	names := []string{"Samsung", "Apple", "Xiaomi", "Sony"}
	ids := make(map[string]int, len(names))
	for _, name := range names {
		var id int
		err := db.QueryRow(`INSERT INTO brands (name) VALUES ($1) RETURNING id`, name).Scan(&id)
		if err != nil {
			logger.Warn("Seed: brand insert failed", zap.String("name", name), zap.Error(err))
			continue
		}
		ids[name] = id
	}
	logger.Info("✅ Seed: brands created", zap.Int("count", len(ids)))
	return ids
}

func seedCategories(db *sql.DB) map[string]int {
	names := []string{"Điện thoại", "Laptop", "Tai nghe", "Phụ kiện"}
	ids := make(map[string]int, len(names))
	for _, name := range names {
		var id int
		err := db.QueryRow(`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
		if err != nil {
			logger.Warn("Seed: category insert failed", zap.String("name", name), zap.Error(err))
			continue
		}
		ids[name] = id
	}
	logger.Info("✅ Seed: categories created", zap.Int("count", len(ids)))
	return ids
}

type productSeed struct {
	Name        string
	NameEn      string
	Description string
	Price       float64
	Brand       string
	Category    string
	Image       string
	Variants    []variantSeed
}

type variantSeed struct {
	Color    string
	Quantity int
}

func seedProducts(db *sql.DB, brands, categories map[string]int) {
	products := []productSeed{
		{
			Name:        "Điện thoại Samsung Galaxy S24",
			NameEn:      "Samsung Galaxy S24 Smartphone",
			Description: "Màn hình Dynamic AMOLED 6.2 inch, chip Snapdragon 8 Gen 3, camera 50MP.",
			Price:       18990000,
			Brand:       "Samsung",
			Category:    "Điện thoại",
			Image:       "https://images.unsplash.com/photo-1610945265064-0e34e5519bbf?w=800",
			Variants: []variantSeed{
				{Color: "Đen", Quantity: 25},
				{Color: "Tím", Quantity: 12},
			},
		},
		{
			Name:        "iPhone 15 Pro Max 256GB",
			NameEn:      "iPhone 15 Pro Max 256GB",
			Description: "Khung titan, chip A17 Pro, camera tele 5x, cổng USB-C.",
			Price:       29990000,
			Brand:       "Apple",
			Category:    "Điện thoại",
			Image:       "https://images.unsplash.com/photo-1695048133142-1a20484d2569?w=800",
			Variants: []variantSeed{
				{Color: "Titan tự nhiên", Quantity: 10},
				{Color: "Titan xanh", Quantity: 8},
			},
		},
		{
			Name:        "Laptop MacBook Air M3 13 inch",
			NameEn:      "MacBook Air M3 13-inch Laptop",
			Description: "Chip Apple M3, RAM 16GB, SSD 512GB, pin 18 giờ.",
			Price:       32490000,
			Brand:       "Apple",
			Category:    "Laptop",
			Image:       "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=800",
			Variants: []variantSeed{
				{Color: "Xám", Quantity: 15},
				{Color: "Bạc", Quantity: 9},
			},
		},
		{
			Name:        "Tai nghe Sony WH-1000XM5",
			NameEn:      "Sony WH-1000XM5 Headphones",
			Description: "Chống ồn chủ động hàng đầu, pin 30 giờ, sạc nhanh USB-C.",
			Price:       6990000,
			Brand:       "Sony",
			Category:    "Tai nghe",
			Image:       "https://images.unsplash.com/photo-1618366712010-f4ae9c647dcb?w=800",
			Variants: []variantSeed{
				{Color: "Đen", Quantity: 30},
				{Color: "Bạc", Quantity: 18},
			},
		},
		{
			Name:        "Sạc dự phòng Xiaomi 20000mAh",
			NameEn:      "Xiaomi 20000mAh Power Bank",
			Description: "Sạc nhanh 22.5W, hai cổng USB-A và một cổng USB-C.",
			Price:       590000,
			Brand:       "Xiaomi",
			Category:    "Phụ kiện",
			Image:       "https://images.unsplash.com/photo-1609592424038-38ccab45fc4c?w=800",
			Variants: []variantSeed{
				{Color: "Đen", Quantity: 50},
				{Color: "Trắng", Quantity: 40},
			},
		},
	}

	productQuery := `
		INSERT INTO products (id, name, name_en, description, price, brand_id, category_id, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	itemQuery := `
		INSERT INTO product_items (id, product_id, color, quantity)
		VALUES ($1, $2, $3, $4)
	`

	successCount := 0
	for _, p := range products {
		id := uuid.New().String()
		_, err := db.Exec(productQuery, id, p.Name, p.NameEn, p.Description, p.Price,
			brands[p.Brand], categories[p.Category], p.Image)
		if err != nil {
			logger.Warn("Seed: product insert failed", zap.String("name", p.Name), zap.Error(err))
			continue
		}
		for _, v := range p.Variants {
			if _, err := db.Exec(itemQuery, uuid.New().String(), id, v.Color, v.Quantity); err != nil {
				logger.Warn("Seed: product item insert failed", zap.String("product", p.Name), zap.Error(err))
			}
		}
		successCount++
	}

	logger.Info("✅ Seed: sample products created", zap.Int("count", successCount))
}
