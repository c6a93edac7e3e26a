package model

import (
	"time"
)

// ProductStatus is the moderation state of a product listing
type ProductStatus string

const (
	ProductPending  ProductStatus = "PENDING"
	ProductApproved ProductStatus = "APPROVED"
	ProductRejected ProductStatus = "REJECTED"
)

// Product represents a supplier's listing. New and edited products sit in
// PENDING until an admin approves or rejects them; only APPROVED products
// appear in public listings.
type Product struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Description string        `json:"description" gorm:"type:text"`
	Price       float64       `json:"price" gorm:"not null"`
	Stock       int           `json:"stock" gorm:"default:0"`
	Image       string        `json:"image" gorm:"type:varchar(255)"`
	CategoryID  uint          `json:"category_id" gorm:"index"`
	Category    *Category     `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	SupplierID  uint          `json:"supplier_id" gorm:"index;not null"`
	Supplier    *Supplier     `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Status      ProductStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
}
