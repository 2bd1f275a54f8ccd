// Package repository declares the storage contract the services depend on.
// Implementations live in internal/store (Postgres) and internal/store/memory.
//
// Lookups of a single missing row return an apperr NotFound error. Unique
// constraint violations surface as apperr Conflict errors.
package repository

import (
	"context"

	"marketplace-service/internal/models"
)

type UserRepository interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, input models.ProfileInput) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	// DeleteUser fails with Conflict while the user still has orders.
	DeleteUser(ctx context.Context, id int64) error
}

type ShopRepository interface {
	CreateShop(ctx context.Context, shop *models.Shop) error
	GetShopByID(ctx context.Context, id int64) (*models.Shop, error)
	GetShopByOwner(ctx context.Context, ownerID int64) (*models.Shop, error)
	UpdateShop(ctx context.Context, shop *models.Shop) error
	ListShops(ctx context.Context, limit, offset int) ([]models.Shop, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// GetProductForUpdate reads the product and, inside a transaction, locks it
	// until commit.
	GetProductForUpdate(ctx context.Context, id int64) (*models.Product, error)
	// FindOwnedProduct returns NotFound when the product is missing or is not
	// part of shopID.
	FindOwnedProduct(ctx context.Context, productID, shopID int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, productID, shopID int64) error
	// DecrementStock fails with Conflict when stock < quantity, leaving stock unchanged.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	IncrementStock(ctx context.Context, productID int64, quantity int) error
	RefreshProductRating(ctx context.Context, productID int64) error
}

type CartRepository interface {
	GetOrCreateCartID(ctx context.Context, userID int64) (int64, error)
	GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	// AddCartItem inserts a line or increments the existing (cart, product) line.
	AddCartItem(ctx context.Context, cartID, productID int64, quantity int) error
	// GetOwnedCartItem returns NotFound when the item is not in userID's cart.
	GetOwnedCartItem(ctx context.Context, itemID, userID int64) (*models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) error
	// DeleteOwnedCartItem is a no-op when nothing matches.
	DeleteOwnedCartItem(ctx context.Context, itemID, userID int64) error
	ClearCart(ctx context.Context, cartID int64) error
	// ConsumeCartLines subtracts checked-out quantities from their lines and
	// deletes lines that reach zero. Lines added or increased after the
	// snapshot keep the difference.
	ConsumeCartLines(ctx context.Context, cartID int64, lines []models.CartLine) error
}

type OrderRepository interface {
	// CreateOrder inserts the order and its items, filling in generated ids.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrdersByShopID(ctx context.Context, shopID int64) ([]models.Order, error)
	// UpdateOrderStatus moves the order from one status to another and fails
	// with Conflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) error
}

type FollowRepository interface {
	CreateFollow(ctx context.Context, userID, shopID int64) error
	// DeleteFollow reports whether a follow row was removed.
	DeleteFollow(ctx context.Context, userID, shopID int64) (bool, error)
	IsFollowing(ctx context.Context, userID, shopID int64) (bool, error)
	ListFollowers(ctx context.Context, shopID int64) ([]models.User, error)
	ListFollowedShops(ctx context.Context, userID int64) ([]models.Shop, error)
}

type ReviewRepository interface {
	// UpsertReview creates or replaces the review of (user, product).
	UpsertReview(ctx context.Context, review *models.Review) error
	ListReviewsByProduct(ctx context.Context, productID int64) ([]models.Review, error)
	IncrementHelpful(ctx context.Context, reviewID int64) (*models.Review, error)
}

type EventRepository interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Repository is the full storage contract.
type Repository interface {
	UserRepository
	ShopRepository
	ProductRepository
	CartRepository
	OrderRepository
	FollowRepository
	ReviewRepository
	EventRepository

	// RunInTx runs fn against a transactional view of the repository. The
	// transaction commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Ping(ctx context.Context) error
}
