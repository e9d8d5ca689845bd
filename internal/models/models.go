package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCanceled  = "CANCELED"
)

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"uniqueIndex;not null"      json:"name"`
	Description string    `json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Currency    string    `gorm:"not null;default:EUR"      json:"currency"`
	Stock       int       `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive    bool      `gorm:"not null;default:true"     json:"isActive"`
	Category    string    `gorm:"index"                     json:"category"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:USER"    json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Orders       []Order   `gorm:"foreignKey:UserID"        json:"-"`
}

type Order struct {
	ID               uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber      string      `gorm:"uniqueIndex;not null"     json:"orderNumber"`
	UserID           uint        `gorm:"index;not null"           json:"userId"`
	Status           string      `gorm:"not null;default:PENDING" json:"status"`
	Total            float64     `gorm:"not null"                 json:"total"`
	Currency         string      `gorm:"not null;default:EUR"     json:"currency"`
	ShippingName     string      `gorm:"not null"                 json:"shippingName"`
	ShippingAddress1 string      `gorm:"not null"                 json:"shippingAddress1"`
	ShippingAddress2 string      `json:"shippingAddress2"`
	ShippingCity     string      `gorm:"not null"                 json:"shippingCity"`
	ShippingZip      string      `gorm:"not null"                 json:"shippingZip"`
	ShippingCountry  string      `gorm:"not null"                 json:"shippingCountry"`
	Note             string      `json:"note"`
	Items            []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// OrderItem keeps a frozen snapshot of the product at order time, so
// historical orders keep showing what the customer actually paid
// regardless of later catalog edits.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint      `gorm:"index;not null"              json:"orderId"`
	ProductID uint      `gorm:"not null"                    json:"productId"`
	Name      string    `gorm:"not null"                    json:"name"`
	Price     float64   `gorm:"not null"                    json:"price"`
	ImageURL  string    `json:"imageUrl"`
	Quantity  uint      `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	UserID    uint      `gorm:"index;not null"       json:"user_id"`
	Role      string    `gorm:"not null"             json:"role"`
	ExpiresAt time.Time `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
}
