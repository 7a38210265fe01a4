package profile

import (
	"time"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
)

// ProfileDTO is the sanitized user view. The password hash never
// leaves the service.
type ProfileDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Location       string    `json:"location,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	Categories     []string  `json:"categories"`
	Wishlist       []string  `json:"wishlist"`
	Listings       []string  `json:"listings"`
	CreatedAt      time.Time `json:"created_at"`
}

func toProfileDTO(user *models.User) *ProfileDTO {
	return &ProfileDTO{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		Location:       user.Location,
		ProfilePicture: user.ProfilePicture,
		Categories:     user.Categories,
		Wishlist:       user.Wishlist,
		Listings:       user.Listings,
		CreatedAt:      user.CreatedAt,
	}
}

// UpdateProfileRequest carries the editable profile fields. Only the
// fields present in the payload are written.
type UpdateProfileRequest struct {
	Username       *string   `json:"username" validate:"omitempty,min=3,max=40"`
	Location       *string   `json:"location" validate:"omitempty,max=120"`
	ProfilePicture *string   `json:"profile_picture" validate:"omitempty,url"`
	Categories     *[]string `json:"categories" validate:"omitempty,dive,max=60"`
}

// WishlistRequest names the listing to add.
type WishlistRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

// AttachListingRequest is the internal cross-service payload.
type AttachListingRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	ListingID string `json:"listing_id" validate:"required"`
}
