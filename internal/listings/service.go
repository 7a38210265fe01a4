package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
	"github.com/secondhandhub/marketplace-backend/pkg/storage/s3"
)

const (
	listingNotFoundMessage = "Listing not found"
	categoryEmptyMessage   = "No listings found for this category"
	notListingOwnerMessage = "You are not allowed to modify this listing"
)

// Service owns the listing lifecycle, including media uploads and the
// cross-service attachment to the seller profile.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, sellerName string, req CreateListingRequest) (*CreateResult, error)
	GetAll(ctx context.Context) ([]ListingDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ListingDTO, error)
	GetBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingDTO, error)
	GetByCategory(ctx context.Context, category string) ([]ListingDTO, error)
	Update(ctx context.Context, sellerID, id uuid.UUID, req UpdateListingRequest) (*ListingDTO, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
}

type listingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindAll(ctx context.Context) ([]models.Listing, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error)
	FindByCategory(ctx context.Context, category string) ([]models.Listing, error)
	Save(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id, sellerID uuid.UUID) error
}

type service struct {
	repo           listingRepository
	uploader       s3.Uploader
	attach         AttachClient
	listingsBucket string
	logg           *logger.Logger
	now            func() time.Time
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Repo           listingRepository
	Uploader       s3.Uploader
	Attach         AttachClient
	ListingsBucket string
	Logger         *logger.Logger
	Now            func() time.Time
}

// NewService constructs the listings service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("listing repository is required")
	}
	if params.Attach == nil {
		return nil, fmt.Errorf("attach client is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:           params.Repo,
		uploader:       params.Uploader,
		attach:         params.Attach,
		listingsBucket: params.ListingsBucket,
		logg:           params.Logger,
		now:            params.Now,
	}, nil
}

// Create uploads images, persists the listing, then attaches it to the
// seller profile. An image or persistence failure aborts the whole
// operation; a failed attachment leaves the listing live and is
// reported to the caller via Attached=false. Nothing retries or rolls
// back the attachment.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, sellerName string, req CreateListingRequest) (*CreateResult, error) {
	images, err := s.uploadImages(ctx, req.Files)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "uploading listing images")
	}

	listing := &models.Listing{
		ID:          uuid.New(),
		SellerID:    sellerID,
		SellerName:  sellerName,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Condition:   req.Condition,
		Category:    req.Category,
		Images:      images,
		DatePosted:  s.now().UTC(),
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting listing")
	}

	attached := true
	if err := s.attach.Attach(ctx, sellerID.String(), listing.ID.String()); err != nil {
		attached = false
		if s.logg != nil {
			s.logg.Error(ctx, "attaching listing to seller profile", err)
		}
	}

	return &CreateResult{Listing: toListingDTO(listing), Attached: attached}, nil
}

func (s *service) GetAll(ctx context.Context) ([]ListingDTO, error) {
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading listings")
	}
	return toListingDTOs(rows), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ListingDTO, error) {
	listing, err := s.loadListing(ctx, id)
	if err != nil {
		return nil, err
	}
	return toListingDTO(listing), nil
}

func (s *service) GetBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingDTO, error) {
	rows, err := s.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seller listings")
	}
	return toListingDTOs(rows), nil
}

func (s *service) GetByCategory(ctx context.Context, category string) ([]ListingDTO, error) {
	rows, err := s.repo.FindByCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category listings")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, categoryEmptyMessage)
	}
	return toListingDTOs(rows), nil
}

// Update edits an owned listing. Newly uploaded images are appended to
// the existing set.
func (s *service) Update(ctx context.Context, sellerID, id uuid.UUID, req UpdateListingRequest) (*ListingDTO, error) {
	listing, err := s.loadListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, notListingOwnerMessage)
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.Condition != nil {
		listing.Condition = *req.Condition
	}
	if req.Category != nil {
		listing.Category = *req.Category
	}

	if len(req.Files) > 0 {
		newImages, err := s.uploadImages(ctx, req.Files)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "uploading listing images")
		}
		listing.Images = append(listing.Images, newImages...)
	}

	if err := s.repo.Save(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving listing")
	}
	return toListingDTO(listing), nil
}

// Delete removes an owned listing.
func (s *service) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id, sellerID)
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, listingNotFoundMessage)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting listing")
	}
	return nil
}

func (s *service) uploadImages(ctx context.Context, files []Upload) (dbtypes.StringArray, error) {
	images := dbtypes.StringArray{}
	for _, f := range files {
		if s.uploader == nil {
			return nil, fmt.Errorf("media storage is not configured")
		}
		key := s3.ObjectKey("listings", f.Filename)
		url, err := s.uploader.Upload(ctx, s.listingsBucket, key, f.Content, f.ContentType)
		if err != nil {
			return nil, err
		}
		images = append(images, url)
	}
	return images, nil
}

func (s *service) loadListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, listingNotFoundMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading listing")
	}
	return listing, nil
}
