package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shift is a cashier's working session. At most one shift per user has a nil CloseAt.
type Shift struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	OpenAt      time.Time           `gorm:"not null" json:"open_at"`
	CloseAt     *time.Time          `json:"close_at,omitempty"`
	OpeningCash decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"opening_cash"`
	ClosingCash decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"closing_cash"`
	Notes       *string             `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate generates a UUID before creating a new shift
func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Shift model
func (Shift) TableName() string {
	return "shifts"
}

func (s *Shift) IsOpen() bool {
	return s.CloseAt == nil
}
