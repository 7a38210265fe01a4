package profile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/secondhandhub/marketplace-backend/internal/users"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/storage/s3"
)

const (
	userNotFoundMessage    = "User not found"
	unverifiedEmailMessage = "Please verify your email to access this data"
)

// Service owns profile reads/writes, the wishlist, and the internal
// listing attachment used by the listings service.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, contentType string) (*ProfileDTO, error)
	AddToWishlist(ctx context.Context, userID uuid.UUID, listingID string) ([]string, error)
	RemoveFromWishlist(ctx context.Context, userID uuid.UUID, listingID string) ([]string, error)
	AttachListing(ctx context.Context, userID uuid.UUID, listingID string) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateWishlist(ctx context.Context, id uuid.UUID, wishlist dbtypes.StringArray) error
	AttachListing(ctx context.Context, userID uuid.UUID, listingID string) error
}

type service struct {
	users       userRepository
	uploader    s3.Uploader
	usersBucket string
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	UserRepo    userRepository
	Uploader    s3.Uploader
	UsersBucket string
}

// NewService constructs the profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{
		users:       params.UserRepo,
		uploader:    params.Uploader,
		usersBucket: params.UsersBucket,
	}, nil
}

// Get returns the sanitized profile for a verified account.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, unverifiedEmailMessage)
	}
	return toProfileDTO(user), nil
}

// Update writes the allow-listed profile fields and returns the fresh
// profile.
func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.users.UsernameTaken(ctx, *req.Username)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking username")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "User with this username already exists")
		}
		updates["username"] = *req.Username
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.ProfilePicture != nil {
		updates["profile_picture"] = *req.ProfilePicture
	}
	if req.Categories != nil {
		updates["categories"] = dbtypes.StringArray(*req.Categories)
	}

	if len(updates) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, updates); err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating profile")
		}
	}

	user, err = s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileDTO(user), nil
}

// UploadProfilePicture stores the image and records its public URL.
func (s *service) UploadProfilePicture(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, contentType string) (*ProfileDTO, error) {
	if s.uploader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "media storage is not configured")
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	key := s3.ObjectKey("users/"+userID.String(), filename)
	url, err := s.uploader.Upload(ctx, s.usersBucket, key, body, contentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading profile picture")
	}

	if err := s.users.UpdateProfile(ctx, userID, map[string]any{"profile_picture": url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing profile picture url")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileDTO(user), nil
}

// AddToWishlist adds the listing id once and returns the updated list.
func (s *service) AddToWishlist(ctx context.Context, userID uuid.UUID, listingID string) ([]string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Wishlist.Contains(listingID) {
		return user.Wishlist, nil
	}

	updated := append(user.Wishlist, listingID)
	if err := s.users.UpdateWishlist(ctx, userID, updated); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating wishlist")
	}
	return updated, nil
}

// RemoveFromWishlist drops the listing id and returns the updated list.
// Removing an id that is not present is a no-op success.
func (s *service) RemoveFromWishlist(ctx context.Context, userID uuid.UUID, listingID string) ([]string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := user.Wishlist.Without(listingID)
	if len(updated) == len(user.Wishlist) {
		return user.Wishlist, nil
	}

	if err := s.users.UpdateWishlist(ctx, userID, updated); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating wishlist")
	}
	return updated, nil
}

// AttachListing records listing ownership on the seller profile. The
// underlying update is idempotent, so the listings service can safely
// repeat the call.
func (s *service) AttachListing(ctx context.Context, userID uuid.UUID, listingID string) error {
	err := s.users.AttachListing(ctx, userID, listingID)
	if errors.Is(err, users.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching listing")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, userNotFoundMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}
