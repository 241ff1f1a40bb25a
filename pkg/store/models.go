package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID         string `gorm:"primaryKey"`
	ExternalID string `gorm:"index"`
	Email      string `gorm:"uniqueIndex;not null"`
	Name       *string
	CreatedAt  time.Time `gorm:"not null"`
}

type PropertyModel struct {
	ID          string  `gorm:"primaryKey"`
	OwnerID     string  `gorm:"not null;index"`
	Title       string  `gorm:"not null"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"not null"`
	Bedrooms    int     `gorm:"not null"`
	Bathrooms   int     `gorm:"not null"`
	Address     string  `gorm:"not null"`
	City        string  `gorm:"not null"`
	State       string  `gorm:"not null"`
	ZipCode     string  `gorm:"not null"`
	Images      datatypes.JSON
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type TenantModel struct {
	ID         string  `gorm:"primaryKey"`
	OwnerID    string  `gorm:"not null;index"`
	PropertyID *string `gorm:"index"`
	Name       string  `gorm:"not null"`
	Email      string  `gorm:"not null"`
	Phone      string  `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type PropertyDocumentModel struct {
	ID         string    `gorm:"primaryKey"`
	PropertyID string    `gorm:"not null;index"`
	URL        string    `gorm:"not null"`
	Name       string    `gorm:"not null"`
	Type       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type ExpenseModel struct {
	ID          string    `gorm:"primaryKey"`
	PropertyID  string    `gorm:"not null;index"`
	Date        time.Time `gorm:"not null;index"`
	Category    *string
	Type        string  `gorm:"not null"`
	Amount      float64 `gorm:"not null"`
	Description *string
	CreatedAt   time.Time `gorm:"not null"`
}
