package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is a user's marketplace role
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	// RoleSupplier is never stored on a User row; it is the role carried by
	// supplier sessions.
	RoleSupplier Role = "SUPPLIER"
)

// UserStatus is the account status of a user
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInactive  UserStatus = "INACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User represents a buyer or administrator account
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100)"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Address   string         `json:"address" gorm:"type:text"`
	City      string         `json:"city" gorm:"type:varchar(50)"`
	Country   string         `json:"country" gorm:"type:varchar(50)"`
	Role      Role           `json:"role" gorm:"type:varchar(20);default:'USER'"`
	Status    UserStatus     `json:"status" gorm:"type:varchar(20);default:'ACTIVE'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
