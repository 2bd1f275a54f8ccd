package memory

import (
	"context"
	"sort"
	"strings"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// UpsertUser creates the user or refreshes the fields carried by the token.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	defer s.lock()()

	for id, existing := range s.data.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("user already exists")
		}
	}

	existing, ok := s.data.users[user.ID]
	if !ok {
		created := cloneUser(user)
		created.CreatedAt = now()
		created.UpdatedAt = created.CreatedAt
		s.data.users[user.ID] = created
		*user = *cloneUser(created)
		return nil
	}

	existing.Email = user.Email
	existing.Role = user.Role
	if existing.Name == "" {
		existing.Name = user.Name
	}
	existing.UpdatedAt = now()
	*user = *cloneUser(existing)
	return nil
}

// GetUserByID returns the user or NotFound.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	defer s.lock()()

	user, ok := s.data.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return cloneUser(user), nil
}

// UpdateUserProfile overwrites the profile fields with input.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, input models.ProfileInput) (*models.User, error) {
	defer s.lock()()

	user, ok := s.data.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	user.Name = input.Name
	user.Phone = input.Phone
	user.Address = input.Address
	user.AvatarURL = input.AvatarURL
	user.UpdatedAt = now()
	return cloneUser(user), nil
}

// ListUsers pages users by id.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	defer s.lock()()

	users := make([]models.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		users = append(users, *cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return paginate(users, limit, offset), nil
}

// DeleteUser removes the user and what they own, or Conflict when they placed orders.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	defer s.lock()()

	if _, ok := s.data.users[id]; !ok {
		return apperr.NotFound("user not found")
	}
	for _, order := range s.data.orders {
		if order.UserID == id {
			return apperr.Conflict("user %d has orders and cannot be deleted", id)
		}
	}

	for shopID, shop := range s.data.shops {
		if shop.OwnerID == id {
			s.deleteShopLocked(shopID)
		}
	}
	if cartID, ok := s.data.carts[id]; ok {
		s.clearCartLocked(cartID)
		delete(s.data.carts, id)
	}
	for key := range s.data.follows {
		if key.userID == id {
			delete(s.data.follows, key)
		}
	}
	for reviewID, review := range s.data.reviews {
		if review.UserID == id {
			delete(s.data.reviews, reviewID)
		}
	}
	delete(s.data.users, id)
	return nil
}

// CreateShop stores a shop. An owner can hold one shop.
func (s *Store) CreateShop(ctx context.Context, shop *models.Shop) error {
	defer s.lock()()

	if _, ok := s.data.users[shop.OwnerID]; !ok {
		return apperr.Conflict("shop is still referenced by other records")
	}
	for _, existing := range s.data.shops {
		if existing.OwnerID == shop.OwnerID {
			return apperr.Conflict("shop already exists")
		}
	}

	created := cloneShop(shop)
	created.ID = s.data.nextID("shop")
	created.CreatedAt = now()
	created.UpdatedAt = created.CreatedAt
	s.data.shops[created.ID] = created

	shop.ID = created.ID
	shop.CreatedAt = created.CreatedAt
	shop.UpdatedAt = created.UpdatedAt
	return nil
}

// GetShopByID returns the shop or NotFound.
func (s *Store) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	defer s.lock()()

	shop, ok := s.data.shops[id]
	if !ok {
		return nil, apperr.NotFound("shop not found")
	}
	return s.shopView(shop), nil
}

// GetShopByOwner returns the shop owned by ownerID or NotFound.
func (s *Store) GetShopByOwner(ctx context.Context, ownerID int64) (*models.Shop, error) {
	defer s.lock()()

	for _, shop := range s.data.shops {
		if shop.OwnerID == ownerID {
			return s.shopView(shop), nil
		}
	}
	return nil, apperr.NotFound("shop not found")
}

// UpdateShop overwrites the editable shop fields.
func (s *Store) UpdateShop(ctx context.Context, shop *models.Shop) error {
	defer s.lock()()

	existing, ok := s.data.shops[shop.ID]
	if !ok {
		return apperr.NotFound("shop not found")
	}

	updated := cloneShop(shop)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()
	s.data.shops[shop.ID] = updated
	shop.UpdatedAt = updated.UpdatedAt
	return nil
}

// ListShops pages shops by id.
func (s *Store) ListShops(ctx context.Context, limit, offset int) ([]models.Shop, error) {
	defer s.lock()()

	shops := make([]models.Shop, 0, len(s.data.shops))
	for _, shop := range s.data.shops {
		shops = append(shops, *s.shopView(shop))
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })
	return paginate(shops, limit, offset), nil
}

func (s *Store) shopView(shop *models.Shop) *models.Shop {
	view := cloneShop(shop)
	view.FollowerCount = 0
	for key := range s.data.follows {
		if key.shopID == shop.ID {
			view.FollowerCount++
		}
	}
	return view
}

func (s *Store) deleteShopLocked(shopID int64) {
	for productID, product := range s.data.products {
		if product.ShopID == shopID {
			s.deleteProductLocked(productID)
		}
	}
	for key := range s.data.follows {
		if key.shopID == shopID {
			delete(s.data.follows, key)
		}
	}
	delete(s.data.shops, shopID)
}

// CreateProduct stores a product and assigns its id.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	defer s.lock()()

	if _, ok := s.data.shops[product.ShopID]; !ok {
		return apperr.Conflict("product is still referenced by other records")
	}
	if product.Price <= 0 || product.Stock < 0 {
		return apperr.Conflict("product violates a data constraint")
	}

	created := cloneProduct(product)
	created.ID = s.data.nextID("product")
	created.CreatedAt = now()
	created.UpdatedAt = created.CreatedAt
	s.data.products[created.ID] = created

	product.ID = created.ID
	product.CreatedAt = created.CreatedAt
	product.UpdatedAt = created.UpdatedAt
	return nil
}

// GetProductByID returns the product or NotFound.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	defer s.lock()()

	product, ok := s.data.products[id]
	if !ok {
		return nil, apperr.NotFound("product not found")
	}
	return cloneProduct(product), nil
}

// GetProductForUpdate needs no row lock: transactions already run exclusively.
func (s *Store) GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return s.GetProductByID(ctx, id)
}

// FindOwnedProduct returns the product only when it belongs to shopID.
func (s *Store) FindOwnedProduct(ctx context.Context, productID, shopID int64) (*models.Product, error) {
	defer s.lock()()

	product, ok := s.data.products[productID]
	if !ok || product.ShopID != shopID {
		return nil, apperr.NotFound("product not found")
	}
	return cloneProduct(product), nil
}

// ListProducts applies the filter and pages the result.
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	defer s.lock()()

	query := strings.ToLower(filter.Query)
	products := make([]models.Product, 0)
	for _, p := range s.data.products {
		if filter.ShopID != 0 && p.ShopID != filter.ShopID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		products = append(products, *cloneProduct(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	return paginate(products, filter.Limit, filter.Offset), nil
}

// UpdateProduct overwrites the editable product fields.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	defer s.lock()()

	existing, ok := s.data.products[product.ID]
	if !ok || existing.ShopID != product.ShopID {
		return apperr.NotFound("product not found")
	}
	if product.Price <= 0 || product.Stock < 0 {
		return apperr.Conflict("product violates a data constraint")
	}

	updated := cloneProduct(product)
	updated.RatingAvg = existing.RatingAvg
	updated.RatingCount = existing.RatingCount
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now()
	s.data.products[product.ID] = updated
	product.UpdatedAt = updated.UpdatedAt
	return nil
}

// DeleteProduct removes a product owned by shopID.
func (s *Store) DeleteProduct(ctx context.Context, productID, shopID int64) error {
	defer s.lock()()

	product, ok := s.data.products[productID]
	if !ok || product.ShopID != shopID {
		return apperr.NotFound("product not found")
	}
	s.deleteProductLocked(productID)
	return nil
}

func (s *Store) deleteProductLocked(productID int64) {
	for itemID, item := range s.data.cartItems {
		if item.ProductID == productID {
			delete(s.data.cartItems, itemID)
		}
	}
	for reviewID, review := range s.data.reviews {
		if review.ProductID == productID {
			delete(s.data.reviews, reviewID)
		}
	}
	delete(s.data.products, productID)
}

// DecrementStock takes quantity from stock, or Conflict when stock is short.
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	defer s.lock()()

	product, ok := s.data.products[productID]
	if !ok {
		return apperr.NotFound("product not found")
	}
	if product.Stock < quantity {
		return apperr.Conflict("insufficient stock for product %d", productID)
	}
	product.Stock -= quantity
	product.UpdatedAt = now()
	return nil
}

// IncrementStock returns quantity to stock.
func (s *Store) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	defer s.lock()()

	if product, ok := s.data.products[productID]; ok {
		product.Stock += quantity
		product.UpdatedAt = now()
	}
	return nil
}

// RefreshProductRating recomputes the average rating from the product reviews.
func (s *Store) RefreshProductRating(ctx context.Context, productID int64) error {
	defer s.lock()()

	product, ok := s.data.products[productID]
	if !ok {
		return nil
	}

	var sum, count int
	for _, review := range s.data.reviews {
		if review.ProductID == productID {
			sum += review.Rating
			count++
		}
	}
	product.RatingCount = count
	product.RatingAvg = 0
	if count > 0 {
		product.RatingAvg = float64(sum) / float64(count)
	}
	product.UpdatedAt = now()
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
