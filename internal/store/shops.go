package store

import (
	"context"

	"marketplace-service/internal/models"
)

const shopSelect = `
	SELECT s.id, s.owner_id, s.name, s.description, s.email, s.phone, s.address, s.city,
		s.tags, s.profile_image, s.banner_image, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM follows f WHERE f.shop_id = s.id) AS follower_count
	FROM shops s`

// CreateShop creates a shop; a second shop for the same owner is a Conflict
func (s *Store) CreateShop(ctx context.Context, shop *models.Shop) error {
	query := `
		INSERT INTO shops (owner_id, name, description, email, phone, address, city, tags, profile_image, banner_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		shop.OwnerID, shop.Name, shop.Description, shop.Email, shop.Phone,
		shop.Address, shop.City, shop.Tags, shop.ProfileImage, shop.BannerImage)
	return classify(row.Scan(&shop.ID, &shop.CreatedAt, &shop.UpdatedAt), "shop")
}

// GetShopByID retrieves a shop by ID
func (s *Store) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	if err := s.get(ctx, &shop, shopSelect+" WHERE s.id = $1", id); err != nil {
		return nil, classify(err, "shop")
	}
	return &shop, nil
}

// GetShopByOwner retrieves the shop owned by a user
func (s *Store) GetShopByOwner(ctx context.Context, ownerID int64) (*models.Shop, error) {
	var shop models.Shop
	if err := s.get(ctx, &shop, shopSelect+" WHERE s.owner_id = $1", ownerID); err != nil {
		return nil, classify(err, "shop")
	}
	return &shop, nil
}

// UpdateShop updates the editable shop fields
func (s *Store) UpdateShop(ctx context.Context, shop *models.Shop) error {
	query := `
		UPDATE shops SET name = $1, description = $2, email = $3, phone = $4, address = $5,
			city = $6, tags = $7, profile_image = $8, banner_image = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		shop.Name, shop.Description, shop.Email, shop.Phone, shop.Address,
		shop.City, shop.Tags, shop.ProfileImage, shop.BannerImage, shop.ID)
	return classify(row.Scan(&shop.UpdatedAt), "shop")
}

// ListShops lists shops ordered by id
func (s *Store) ListShops(ctx context.Context, limit, offset int) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := s.selectAll(ctx, &shops, shopSelect+" ORDER BY s.id LIMIT $1 OFFSET $2", limit, offset)
	return shops, classify(err, "shops")
}
