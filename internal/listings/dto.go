package listings

import (
	"io"
	"time"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
)

// Upload is a single inbound image from the multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// CreateListingRequest carries the multipart form fields. Seller
// identity comes from the bearer token, never from the form.
type CreateListingRequest struct {
	Title       string  `validate:"required,max=140"`
	Description string  `validate:"omitempty,max=4000"`
	Price       float64 `validate:"required,gte=0"`
	Location    string  `validate:"omitempty,max=120"`
	Condition   string  `validate:"omitempty,max=60"`
	Category    string  `validate:"required,max=60"`
	Files       []Upload
}

// UpdateListingRequest carries the editable fields. New images are
// appended to the existing set.
type UpdateListingRequest struct {
	Title       *string  `validate:"omitempty,max=140"`
	Description *string  `validate:"omitempty,max=4000"`
	Price       *float64 `validate:"omitempty,gte=0"`
	Location    *string  `validate:"omitempty,max=120"`
	Condition   *string  `validate:"omitempty,max=60"`
	Category    *string  `validate:"omitempty,max=60"`
	Files       []Upload
}

// ListingDTO is the public listing view.
type ListingDTO struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Location    string    `json:"location,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	DatePosted  time.Time `json:"date_posted"`
}

func toListingDTO(listing *models.Listing) *ListingDTO {
	return &ListingDTO{
		ID:          listing.ID.String(),
		SellerID:    listing.SellerID.String(),
		SellerName:  listing.SellerName,
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price,
		Location:    listing.Location,
		Condition:   listing.Condition,
		Category:    listing.Category,
		Images:      listing.Images,
		DatePosted:  listing.DatePosted,
	}
}

func toListingDTOs(rows []models.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toListingDTO(&rows[i]))
	}
	return out
}

// CreateResult reports the persisted listing and whether the seller
// profile attachment succeeded.
type CreateResult struct {
	Listing  *ListingDTO
	Attached bool
}
