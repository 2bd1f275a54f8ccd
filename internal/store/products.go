package store

import (
	"context"
	"fmt"
	"strings"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

const productColumns = `id, shop_id, name, description, price, stock, category, tags, images, options,
	rating_avg, rating_count, created_at, updated_at`

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (shop_id, name, description, price, stock, category, tags, images, options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		product.ShopID, product.Name, product.Description, product.Price, product.Stock,
		product.Category, product.Tags, product.Images, product.Options)
	return classify(row.Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt), "product")
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.get(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return nil, classify(err, "product")
	}
	return &product, nil
}

// GetProductForUpdate reads a product with a row lock held until the transaction ends
func (s *Store) GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.get(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, classify(err, "product")
	}
	return &product, nil
}

// FindOwnedProduct retrieves a product only if it belongs to the shop
func (s *Store) FindOwnedProduct(ctx context.Context, productID, shopID int64) (*models.Product, error) {
	var product models.Product
	err := s.get(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE id = $1 AND shop_id = $2", productID, shopID)
	if err != nil {
		return nil, classify(err, "product")
	}
	return &product, nil
}

// ListProducts lists products matching the filter, newest first
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ShopID != 0 {
		args = append(args, filter.ShopID)
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	products := []models.Product{}
	err := s.selectAll(ctx, &products, query, args...)
	return products, classify(err, "products")
}

// UpdateProduct updates the editable product fields
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products SET name = $1, description = $2, price = $3, stock = $4, category = $5,
			tags = $6, images = $7, options = $8, updated_at = NOW()
		WHERE id = $9 AND shop_id = $10
		RETURNING updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		product.Name, product.Description, product.Price, product.Stock, product.Category,
		product.Tags, product.Images, product.Options, product.ID, product.ShopID)
	return classify(row.Scan(&product.UpdatedAt), "product")
}

// DeleteProduct deletes a product owned by the shop
func (s *Store) DeleteProduct(ctx context.Context, productID, shopID int64) error {
	res, err := s.exec(ctx, "DELETE FROM products WHERE id = $1 AND shop_id = $2", productID, shopID)
	if err != nil {
		return classify(err, "product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

// DecrementStock deducts stock only when enough is available
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	res, err := s.exec(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if err != nil {
		return classify(err, "product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetProductByID(ctx, productID); err != nil {
			return err
		}
		return apperr.Conflict("insufficient stock for product %d", productID)
	}
	return nil
}

// IncrementStock returns stock to a product (order cancellation)
func (s *Store) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	_, err := s.exec(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		quantity, productID)
	return classify(err, "product")
}

// RefreshProductRating recomputes the rating aggregate from reviews
func (s *Store) RefreshProductRating(ctx context.Context, productID int64) error {
	_, err := s.exec(ctx, `
		UPDATE products p SET
			rating_avg = COALESCE(r.avg_rating, 0),
			rating_count = COALESCE(r.cnt, 0),
			updated_at = NOW()
		FROM (
			SELECT AVG(rating)::DOUBLE PRECISION AS avg_rating, COUNT(*) AS cnt
			FROM reviews WHERE product_id = $1
		) r
		WHERE p.id = $1`, productID)
	return classify(err, "product")
}
