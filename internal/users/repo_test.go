package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	return NewRepository(conn)
}

func seedUser(t *testing.T, repo *Repository, username, email string) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		PasswordHash:  "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		EmailVerified: true,
		Wishlist:      dbtypes.StringArray{},
		Listings:      dbtypes.StringArray{},
		Categories:    dbtypes.StringArray{},
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestFindByEmail(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo, "ada", "ada@example.com")

	found, err := repo.FindByEmail(context.Background(), "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUniquenessChecks(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "ada", "ada@example.com")

	taken, err := repo.UsernameTaken(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.UsernameTaken(context.Background(), "grace")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.EmailTaken(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUpdatePasswordHash(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo, "ada", "ada@example.com")

	require.NoError(t, repo.UpdatePasswordHash(context.Background(), "ada@example.com", "new-hash"))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(context.Background(), "nobody@example.com", "x"), ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo, "ada", "ada@example.com")

	err := repo.UpdateProfile(context.Background(), seeded.ID, map[string]any{
		"location":   "London",
		"categories": dbtypes.StringArray{"books"},
	})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "London", found.Location)
	assert.Equal(t, dbtypes.StringArray{"books"}, found.Categories)

	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), uuid.New(), map[string]any{"location": "x"}), ErrNotFound)
}

func TestAttachListingIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo, "ada", "ada@example.com")

	require.NoError(t, repo.AttachListing(context.Background(), seeded.ID, "listing-1"))
	require.NoError(t, repo.AttachListing(context.Background(), seeded.ID, "listing-1"))
	require.NoError(t, repo.AttachListing(context.Background(), seeded.ID, "listing-2"))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, dbtypes.StringArray{"listing-1", "listing-2"}, found.Listings)
}

func TestAttachListingUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.AttachListing(context.Background(), uuid.New(), "listing-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWishlist(t *testing.T) {
	repo := newTestRepo(t)
	seeded := seedUser(t, repo, "ada", "ada@example.com")

	require.NoError(t, repo.UpdateWishlist(context.Background(), seeded.ID, dbtypes.StringArray{"l1"}))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, dbtypes.StringArray{"l1"}, found.Wishlist)
}
