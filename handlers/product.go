package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"veshop-backend/models"
	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/logger"
	"veshop-backend/pkg/response"
	"veshop-backend/pkg/translator"
	"veshop-backend/pkg/validator"

	"go.uber.org/zap"
)

// GetProducts lists the catalog, optionally filtered by brand or category.
func GetProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		query := `
			SELECT id, name, COALESCE(name_en, ''), COALESCE(description, ''), COALESCE(description_en, ''),
			       price, COALESCE(image, ''), brand_id, category_id, created_at, updated_at
			FROM products
		`
		args := []interface{}{}
		argIndex := 1

		if brandID := r.URL.Query().Get("brand_id"); brandID != "" {
			if id, err := strconv.Atoi(brandID); err == nil {
				query += " WHERE brand_id = $1"
				args = append(args, id)
				argIndex++
			}
		}
		if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
			if id, err := strconv.Atoi(categoryID); err == nil {
				if argIndex == 1 {
					query += " WHERE category_id = $1"
				} else {
					query += " AND category_id = $2"
				}
				args = append(args, id)
			}
		}
		query += " ORDER BY created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("products query", err))
			return
		}
		defer rows.Close()

		products := []models.Product{}
		for rows.Next() {
			var p models.Product
			if err := rows.Scan(&p.ID, &p.Name, &p.NameEn, &p.Description, &p.DescriptionEn,
				&p.Price, &p.Image, &p.BrandID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
				logger.Warn("Product scan failed", zap.Error(err))
				continue
			}
			products = append(products, p)
		}

		response.Success(w, products, "")
	}
}

// GetProductByID returns one product with its color variants.
func GetProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		productID, err := pathID(r, "/api/products/")
		if err != nil {
			response.Error(w, r, err)
			return
		}

		var p models.Product
		err = db.QueryRow(`
			SELECT id, name, COALESCE(name_en, ''), COALESCE(description, ''), COALESCE(description_en, ''),
			       price, COALESCE(image, ''), brand_id, category_id, created_at, updated_at
			FROM products WHERE id = $1
		`, productID).Scan(&p.ID, &p.Name, &p.NameEn, &p.Description, &p.DescriptionEn,
			&p.Price, &p.Image, &p.BrandID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy sản phẩm"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("product query", err))
			return
		}

		rows, err := db.Query(`
			SELECT id, color, COALESCE(image, ''), quantity, created_at
			FROM product_items WHERE product_id = $1
			ORDER BY created_at ASC
		`, productID)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("product items query", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var item models.ProductItem
			if err := rows.Scan(&item.ID, &item.Color, &item.Image, &item.Quantity, &item.CreatedAt); err != nil {
				logger.Warn("Product item scan failed", zap.Error(err))
				continue
			}
			p.Items = append(p.Items, item)
		}

		response.Success(w, p, "")
	}
}

// CreateProduct inserts a catalog entry with its variants. When the request
// asks for translation, the English name and description are generated
// before the insert so the row is complete from the start.
func CreateProduct(db *sql.DB, trans *translator.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateProductRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}

		var nameEn, descEn string
		if req.Translate && trans != nil && trans.Enabled() {
			nameEn, descEn = trans.TranslateProduct(r.Context(), req.Name, req.Description)
		}

		tx, err := db.Begin()
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("begin transaction", err))
			return
		}
		defer tx.Rollback()

		var p models.Product
		err = tx.QueryRow(`
			INSERT INTO products (name, name_en, description, description_en, price, image, brand_id, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, name, COALESCE(name_en, ''), COALESCE(description, ''), COALESCE(description_en, ''),
			          price, COALESCE(image, ''), brand_id, category_id, created_at, updated_at
		`, req.Name, nullIfEmpty(nameEn), nullIfEmpty(req.Description), nullIfEmpty(descEn),
			req.Price, nullIfEmpty(req.Image), req.BrandID, req.CategoryID,
		).Scan(&p.ID, &p.Name, &p.NameEn, &p.Description, &p.DescriptionEn,
			&p.Price, &p.Image, &p.BrandID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("product insert", err))
			return
		}

		for _, item := range req.Items {
			var created models.ProductItem
			err = tx.QueryRow(`
				INSERT INTO product_items (product_id, color, image, quantity)
				VALUES ($1, $2, $3, $4)
				RETURNING id, color, COALESCE(image, ''), quantity, created_at
			`, p.ID, item.Color, nullIfEmpty(item.Image), item.Quantity,
			).Scan(&created.ID, &created.Color, &created.Image, &created.Quantity, &created.CreatedAt)
			if err != nil {
				response.Error(w, r, apperror.NewDatabaseError("product item insert", err))
				return
			}
			p.Items = append(p.Items, created)
		}

		if err := tx.Commit(); err != nil {
			response.Error(w, r, apperror.NewDatabaseError("commit transaction", err))
			return
		}

		logger.Info("✅ Product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
		response.Created(w, p, "Tạo sản phẩm thành công")
	}
}

// UpdateProduct replaces a product's fields. Variants are left untouched;
// stock adjustments go through their own rows.
func UpdateProduct(db *sql.DB, trans *translator.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathID(r, "/api/products/")
		if err != nil {
			response.Error(w, r, err)
			return
		}

		var req models.CreateProductRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}

		var nameEn, descEn string
		if req.Translate && trans != nil && trans.Enabled() {
			nameEn, descEn = trans.TranslateProduct(r.Context(), req.Name, req.Description)
		}

		var p models.Product
		err = db.QueryRow(`
			UPDATE products
			SET name = $1, name_en = COALESCE($2, name_en), description = $3,
			    description_en = COALESCE($4, description_en), price = $5,
			    image = COALESCE($6, image), brand_id = $7, category_id = $8, updated_at = NOW()
			WHERE id = $9
			RETURNING id, name, COALESCE(name_en, ''), COALESCE(description, ''), COALESCE(description_en, ''),
			          price, COALESCE(image, ''), brand_id, category_id, created_at, updated_at
		`, req.Name, nullIfEmpty(nameEn), nullIfEmpty(req.Description), nullIfEmpty(descEn),
			req.Price, nullIfEmpty(req.Image), req.BrandID, req.CategoryID, productID,
		).Scan(&p.ID, &p.Name, &p.NameEn, &p.Description, &p.DescriptionEn,
			&p.Price, &p.Image, &p.BrandID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy sản phẩm"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("product update", err))
			return
		}

		logger.Info("✅ Product updated", zap.String("product_id", p.ID))
		response.Success(w, p, "Cập nhật sản phẩm thành công")
	}
}

// GetBrands lists all brands.
func GetBrands(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		rows, err := db.Query("SELECT id, name, created_at FROM brands ORDER BY name ASC")
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("brands query", err))
			return
		}
		defer rows.Close()

		brands := []models.Brand{}
		for rows.Next() {
			var b models.Brand
			if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
				continue
			}
			brands = append(brands, b)
		}

		response.Success(w, brands, "")
	}
}

// GetCategories lists all categories.
func GetCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		rows, err := db.Query("SELECT id, name, created_at FROM categories ORDER BY name ASC")
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("categories query", err))
			return
		}
		defer rows.Close()

		categories := []models.Category{}
		for rows.Next() {
			var c models.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
				continue
			}
			categories = append(categories, c)
		}

		response.Success(w, categories, "")
	}
}

// nullIfEmpty maps "" to NULL for optional text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
