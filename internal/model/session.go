package model

import (
	"time"

	"gorm.io/gorm"
)

// PrincipalKind distinguishes the two account types that can authenticate
type PrincipalKind string

const (
	PrincipalUser     PrincipalKind = "user"
	PrincipalSupplier PrincipalKind = "supplier"
)

// Session is a server-held login record keyed by an opaque cookie value.
// The token never appears in JSON responses; it travels only in the cookie.
type Session struct {
	ID            string         `gorm:"primaryKey" json:"id"`
	Token         string         `gorm:"uniqueIndex" json:"-"`
	PrincipalKind PrincipalKind  `gorm:"type:varchar(20);not null" json:"principal_kind"`
	PrincipalID   uint           `gorm:"index;not null" json:"principal_id"`
	Role          Role           `gorm:"type:varchar(20);not null" json:"role"`
	ExpiresAt     time.Time      `json:"expires_at"`
	Revoked       bool           `gorm:"default:false" json:"revoked"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook will be called before creating a new Session record
func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = generateSecureID("ses_")
	}
	if s.Token == "" {
		s.Token = generateSecureToken()
	}
	return nil
}

// IsExpired checks if the session is expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid checks if the session is valid (not expired and not revoked)
func (s *Session) IsValid() bool {
	return !s.Revoked && !s.IsExpired()
}
