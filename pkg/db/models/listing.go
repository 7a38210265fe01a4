package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
)

// Listing is a marketplace item owned by a seller account.
type Listing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerName  string              `gorm:"column:seller_name;not null"`
	Title       string              `gorm:"column:title;not null"`
	Description string              `gorm:"column:description"`
	Price       float64             `gorm:"column:price;not null"`
	Location    string              `gorm:"column:location"`
	Condition   string              `gorm:"column:condition"`
	Category    string              `gorm:"column:category;index"`
	Images      dbtypes.StringArray `gorm:"column:images;type:text;not null;default:'[]'"`
	DatePosted  time.Time           `gorm:"column:date_posted;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
