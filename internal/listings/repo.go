package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
)

// ErrNotFound is returned when no listing row matches the lookup.
var ErrNotFound = errors.New("listing not found")

// Repository exposes listing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a listings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new listing row.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// FindByID loads a listing by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindAll returns every listing, newest first.
func (r *Repository) FindAll(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Order("date_posted DESC").
		Find(&listings).Error
	return listings, err
}

// FindBySeller returns a seller's listings, newest first.
func (r *Repository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("date_posted DESC").
		Find(&listings).Error
	return listings, err
}

// FindByCategory returns the listings filed under a category.
func (r *Repository) FindByCategory(ctx context.Context, category string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("date_posted DESC").
		Find(&listings).Error
	return listings, err
}

// Save persists the full listing row.
func (r *Repository) Save(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

// Delete removes the seller's listing. Deleting a row that does not
// belong to the seller affects nothing and returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id, sellerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Delete(&models.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
