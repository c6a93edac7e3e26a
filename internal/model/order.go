package model

import (
	"time"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderApproved  OrderStatus = "APPROVED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether s is a recognized order status
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderApproved, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is an immutable snapshot of a purchase. Total and item prices are
// captured at placement time and do not change with later product edits.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	User      *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one purchased product line. ProductID is nullable: deleting a
// product detaches it from historical order items instead of destroying the
// order history. ProductName and Price are snapshots taken at purchase.
type OrderItem struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	OrderID     uint     `json:"order_id" gorm:"index;not null"`
	ProductID   *uint    `json:"product_id" gorm:"index"`
	Product     *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ProductName string   `json:"product_name" gorm:"type:varchar(255)"`
	Quantity    int      `json:"quantity" gorm:"not null"`
	Price       float64  `json:"price" gorm:"not null"`
}
