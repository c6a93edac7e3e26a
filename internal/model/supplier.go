package model

import (
	"time"

	"gorm.io/gorm"
)

// SupplierStatus is the admin approval state of a supplier account
type SupplierStatus string

const (
	SupplierPending  SupplierStatus = "PENDING"
	SupplierApproved SupplierStatus = "APPROVED"
	SupplierRejected SupplierStatus = "REJECTED"
)

// Supplier represents a vendor account selling products on the marketplace.
// Status is the canonical approval state; Approved is a read-only projection
// of it kept for API compatibility.
type Supplier struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Email       string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	CompanyName string         `json:"company_name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Phone       string         `json:"phone" gorm:"type:varchar(20)"`
	Address     string         `json:"address" gorm:"type:text"`
	Password    string         `json:"-" gorm:"type:varchar(255)"`
	Status      SupplierStatus `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	Approved    bool           `json:"approved" gorm:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// AfterFind derives the approved projection from the canonical status
func (s *Supplier) AfterFind(tx *gorm.DB) error {
	s.Approved = s.Status == SupplierApproved
	return nil
}
