package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
)

// User is the durable account record. Rows only exist after the email
// verification step commits a pending registration.
type User struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Username       string              `gorm:"column:username;not null;uniqueIndex"`
	Email          string              `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash   string              `gorm:"column:password_hash;not null"`
	Location       string              `gorm:"column:location"`
	ProfilePicture *string             `gorm:"column:profile_picture"`
	EmailVerified  bool                `gorm:"column:email_verified;not null;default:false"`
	Wishlist       dbtypes.StringArray `gorm:"column:wishlist;type:text;not null;default:'[]'"`
	Listings       dbtypes.StringArray `gorm:"column:listings;type:text;not null;default:'[]'"`
	Categories     dbtypes.StringArray `gorm:"column:categories;type:text;not null;default:'[]'"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
