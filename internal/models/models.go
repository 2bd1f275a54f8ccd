package models

import "time"

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a marketplace account. Credentials live with the identity provider.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Address   string    `db:"address" json:"address,omitempty"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PublicUser is what other users may see of an account.
type PublicUser struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Public drops contact details and role.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// Shop is a seller storefront, owned by exactly one user.
type Shop struct {
	ID            int64      `db:"id" json:"id"`
	OwnerID       int64      `db:"owner_id" json:"owner_id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description"`
	Email         string     `db:"email" json:"email,omitempty"`
	Phone         string     `db:"phone" json:"phone,omitempty"`
	Address       string     `db:"address" json:"address,omitempty"`
	City          string     `db:"city" json:"city,omitempty"`
	Tags          StringList `db:"tags" json:"tags"`
	ProfileImage  string     `db:"profile_image" json:"profile_image,omitempty"`
	BannerImage   string     `db:"banner_image" json:"banner_image,omitempty"`
	FollowerCount int        `db:"follower_count" json:"follower_count"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID          int64      `db:"id" json:"id"`
	ShopID      int64      `db:"shop_id" json:"shop_id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Price       int64      `db:"price" json:"price"`
	Stock       int        `db:"stock" json:"stock"`
	Category    string     `db:"category" json:"category"`
	Tags        StringList `db:"tags" json:"tags"`
	Images      StringList `db:"images" json:"images"`
	Options     OptionMap  `db:"options" json:"options"`
	RatingAvg   float64    `db:"rating_avg" json:"rating_avg"`
	RatingCount int        `db:"rating_count" json:"rating_count"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Query    string
	Category string
	ShopID   int64
	Limit    int
	Offset   int
}

// MaxCartQuantity caps a single cart line.
const MaxCartQuantity = 999

// CartItem is a stored cart line.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	CartID    int64     `db:"cart_id" json:"cart_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartLine is a cart item joined with the current product data.
type CartLine struct {
	ID          int64  `db:"id" json:"id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ShopID      int64  `db:"shop_id" json:"shop_id"`
	ProductName string `db:"product_name" json:"product_name"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
	Stock       int    `db:"stock" json:"stock"`
	Quantity    int    `db:"quantity" json:"quantity"`
}

// Subtotal is the line price at the current product price.
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is a user's pending purchase.
type Cart struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Items       []CartLine `json:"items"`
	ItemCount   int        `json:"item_count"`
	TotalAmount int64      `json:"total_amount"`
}

// NewCart builds a cart view and its totals.
func NewCart(id, userID int64, lines []CartLine) *Cart {
	if lines == nil {
		lines = []CartLine{}
	}
	cart := &Cart{ID: id, UserID: userID, Items: lines}
	for _, line := range lines {
		cart.ItemCount += line.Quantity
		cart.TotalAmount += line.Subtotal()
	}
	return cart
}

// Order represents a customer order
type Order struct {
	ID             int64        `db:"id" json:"id"`
	UserID         int64        `db:"user_id" json:"user_id"`
	Status         OrderStatus  `db:"status" json:"status"`
	TotalAmount    int64        `db:"total_amount" json:"total_amount"`
	ShippingInfo   ShippingInfo `db:"shipping_info" json:"shipping_info"`
	PaymentInfo    PaymentInfo  `db:"payment_info" json:"payment_info"`
	IdempotencyKey string       `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
	Items          []OrderItem  `db:"-" json:"items"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ShopID      int64  `db:"shop_id" json:"shop_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
}

// ItemsVisibleTo returns the items of the order that belong to shopID.
func (o *Order) ItemsVisibleTo(shopID int64) []OrderItem {
	visible := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.ShopID == shopID {
			visible = append(visible, item)
		}
	}
	return visible
}

// HasItemsFrom reports whether any item of the order belongs to shopID.
func (o *Order) HasItemsFrom(shopID int64) bool {
	for _, item := range o.Items {
		if item.ShopID == shopID {
			return true
		}
	}
	return false
}

// ForShop is the shop owner's projection of the order: only their items,
// with the total recomputed over those items.
func (o *Order) ForShop(shopID int64) *Order {
	projected := *o
	projected.Items = o.ItemsVisibleTo(shopID)
	projected.TotalAmount = 0
	for _, item := range projected.Items {
		projected.TotalAmount += item.UnitPrice * int64(item.Quantity)
	}
	projected.PaymentInfo = PaymentInfo{Method: o.PaymentInfo.Method}
	projected.IdempotencyKey = ""
	return &projected
}

// Review is one user's rating of a product.
type Review struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ProductID    int64     `db:"product_id" json:"product_id"`
	Rating       int       `db:"rating" json:"rating"`
	Comment      string    `db:"comment" json:"comment"`
	HelpfulCount int       `db:"helpful_count" json:"helpful_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Follow links a user to a shop.
type Follow struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	ShopID    int64     `db:"shop_id" json:"shop_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
