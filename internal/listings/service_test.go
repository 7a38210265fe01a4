package listings

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
)

type fakeListingRepo struct {
	listings  map[uuid.UUID]*models.Listing
	createErr error
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uuid.UUID]*models.Listing)}
}

func (f *fakeListingRepo) Create(_ context.Context, listing *models.Listing) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	if l, ok := f.listings[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (f *fakeListingRepo) FindAll(_ context.Context) ([]models.Listing, error) {
	out := make([]models.Listing, 0, len(f.listings))
	for _, l := range f.listings {
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeListingRepo) FindBySeller(_ context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range f.listings {
		if l.SellerID == sellerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) FindByCategory(_ context.Context, category string) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range f.listings {
		if l.Category == category {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeListingRepo) Save(_ context.Context, listing *models.Listing) error {
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) Delete(_ context.Context, id, sellerID uuid.UUID) error {
	l, ok := f.listings[id]
	if !ok || l.SellerID != sellerID {
		return ErrNotFound
	}
	delete(f.listings, id)
	return nil
}

type fakeUploader struct {
	uploads   int
	uploadErr error
}

func (f *fakeUploader) Upload(_ context.Context, _, key string, _ io.Reader, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return "https://cdn.example.com/" + key, nil
}

type fakeAttachClient struct {
	calls     [][2]string
	attachErr error
}

func (f *fakeAttachClient) Attach(_ context.Context, userID, listingID string) error {
	f.calls = append(f.calls, [2]string{userID, listingID})
	return f.attachErr
}

type listingsEnv struct {
	svc      Service
	repo     *fakeListingRepo
	uploader *fakeUploader
	attach   *fakeAttachClient
}

func newListingsEnv(t *testing.T) *listingsEnv {
	t.Helper()

	repo := newFakeListingRepo()
	uploader := &fakeUploader{}
	attach := &fakeAttachClient{}

	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Uploader:       uploader,
		Attach:         attach,
		ListingsBucket: "listing-media",
	})
	require.NoError(t, err)

	return &listingsEnv{svc: svc, repo: repo, uploader: uploader, attach: attach}
}

func createReq() CreateListingRequest {
	return CreateListingRequest{
		Title:    "Vintage desk lamp",
		Price:    25.50,
		Category: "furniture",
		Files: []Upload{
			{Filename: "lamp.jpg", ContentType: "image/jpeg", Content: strings.NewReader("img")},
		},
	}
}

func TestCreateListingFullSuccess(t *testing.T) {
	env := newListingsEnv(t)
	sellerID := uuid.New()

	res, err := env.svc.Create(context.Background(), sellerID, "ada", createReq())
	require.NoError(t, err)

	assert.True(t, res.Attached)
	assert.Equal(t, "Vintage desk lamp", res.Listing.Title)
	assert.Equal(t, "ada", res.Listing.SellerName)
	require.Len(t, res.Listing.Images, 1)
	assert.Contains(t, res.Listing.Images[0], "https://cdn.example.com/listings/")

	require.Len(t, env.attach.calls, 1)
	assert.Equal(t, sellerID.String(), env.attach.calls[0][0])
	assert.Equal(t, res.Listing.ID, env.attach.calls[0][1])
}

func TestCreateListingPartialSuccessOnAttachFailure(t *testing.T) {
	env := newListingsEnv(t)
	env.attach.attachErr = errors.New("users service timed out")

	res, err := env.svc.Create(context.Background(), uuid.New(), "ada", createReq())
	require.NoError(t, err)

	// listing persisted and visible despite the failed attachment
	assert.False(t, res.Attached)
	id := uuid.MustParse(res.Listing.ID)
	_, found := env.repo.listings[id]
	assert.True(t, found)
}

func TestCreateListingUploadFailureAborts(t *testing.T) {
	env := newListingsEnv(t)
	env.uploader.uploadErr = errors.New("s3 unavailable")

	_, err := env.svc.Create(context.Background(), uuid.New(), "ada", createReq())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInternal, appErr.Code())

	// nothing persisted, nothing attached
	assert.Empty(t, env.repo.listings)
	assert.Empty(t, env.attach.calls)
}

func TestCreateListingPersistFailureSkipsAttach(t *testing.T) {
	env := newListingsEnv(t)
	env.repo.createErr = errors.New("db down")

	_, err := env.svc.Create(context.Background(), uuid.New(), "ada", createReq())
	require.Error(t, err)
	assert.Empty(t, env.attach.calls)
}

func TestGetByID(t *testing.T) {
	env := newListingsEnv(t)

	res, err := env.svc.Create(context.Background(), uuid.New(), "ada", createReq())
	require.NoError(t, err)

	dto, err := env.svc.GetByID(context.Background(), uuid.MustParse(res.Listing.ID))
	require.NoError(t, err)
	assert.Equal(t, res.Listing.ID, dto.ID)

	_, err = env.svc.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
	assert.Equal(t, "Listing not found", appErr.Message())
}

func TestGetByCategory(t *testing.T) {
	env := newListingsEnv(t)

	_, err := env.svc.Create(context.Background(), uuid.New(), "ada", createReq())
	require.NoError(t, err)

	rows, err := env.svc.GetByCategory(context.Background(), "furniture")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = env.svc.GetByCategory(context.Background(), "vehicles")
	assert.Equal(t, "No listings found for this category", pkgerrors.As(err).Message())
}

func TestUpdateListingOwnerOnly(t *testing.T) {
	env := newListingsEnv(t)
	sellerID := uuid.New()

	res, err := env.svc.Create(context.Background(), sellerID, "ada", createReq())
	require.NoError(t, err)
	id := uuid.MustParse(res.Listing.ID)

	newTitle := "Restored desk lamp"
	dto, err := env.svc.Update(context.Background(), sellerID, id, UpdateListingRequest{
		Title: &newTitle,
		Files: []Upload{{Filename: "side.jpg", Content: strings.NewReader("img2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Restored desk lamp", dto.Title)
	assert.Len(t, dto.Images, 2)

	_, err = env.svc.Update(context.Background(), uuid.New(), id, UpdateListingRequest{Title: &newTitle})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestDeleteListingOwnerScoped(t *testing.T) {
	env := newListingsEnv(t)
	sellerID := uuid.New()

	res, err := env.svc.Create(context.Background(), sellerID, "ada", createReq())
	require.NoError(t, err)
	id := uuid.MustParse(res.Listing.ID)

	// another seller cannot delete it
	err = env.svc.Delete(context.Background(), uuid.New(), id)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, env.svc.Delete(context.Background(), sellerID, id))
	assert.Empty(t, env.repo.listings)
}
