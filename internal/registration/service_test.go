package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhandhub/marketplace-backend/internal/users"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/mail"
	"github.com/secondhandhub/marketplace-backend/pkg/security"
	"github.com/secondhandhub/marketplace-backend/pkg/tokens"
)

type fakeUserRepo struct {
	byEmail    map[string]*models.User
	byUsername map[string]*models.User
	createErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:    make(map[string]*models.User),
		byUsername: make(map[string]*models.User),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byEmail[user.Email] = user
	f.byUsername[user.Username] = user
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[normalizeEmail(email)]; ok {
		return u, nil
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeUserRepo) EmailTaken(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[normalizeEmail(email)]
	return ok, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, email, hash string) error {
	u, ok := f.byEmail[normalizeEmail(email)]
	if !ok {
		return users.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeMailer struct {
	sent    []mail.Message
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func emailCfg() config.EmailTokenConfig {
	return config.EmailTokenConfig{Secret: "email-secret", MaxAge: time.Hour}
}

type testEnv struct {
	svc     Service
	repo    *fakeUserRepo
	pending *MemoryPendingStore
	mailer  *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeUserRepo()
	pending := NewMemoryPendingStore()
	mailer := &fakeMailer{}

	svc, err := NewService(ServiceParams{
		UserRepo:    repo,
		Pending:     pending,
		Mailer:      mailer,
		TokenCfg:    emailCfg(),
		PasswordCfg: config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		PublicURL:   "http://localhost:5005",
	})
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, pending: pending, mailer: mailer}
}

func preRegisterReq() PreRegisterRequest {
	return PreRegisterRequest{
		Username:   "ada",
		Email:      "Ada@Example.com",
		Password:   "correct horse battery",
		Location:   "London",
		Categories: []string{"books"},
	}
}

func TestPreRegisterStoresPendingAndMails(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.svc.PreRegister(context.Background(), preRegisterReq()))

	p, err := env.pending.Get(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.Equal(t, "correct horse battery", p.Password)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "ada@example.com", env.mailer.sent[0].To)
	assert.Contains(t, env.mailer.sent[0].Body, "/api/users/verify_email/")

	// no account until verification
	_, err = env.repo.FindByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestPreRegisterConflictMessages(t *testing.T) {
	env := newTestEnv(t)
	env.repo.byUsername["ada"] = &models.User{Username: "ada"}
	env.repo.byEmail["ada@example.com"] = &models.User{Email: "ada@example.com"}

	err := env.svc.PreRegister(context.Background(), preRegisterReq())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
	assert.Equal(t, "User with this username and email already exists", appErr.Message())

	req := preRegisterReq()
	req.Email = "other@example.com"
	err = env.svc.PreRegister(context.Background(), req)
	assert.Equal(t, "User with this username already exists", pkgerrors.As(err).Message())

	req = preRegisterReq()
	req.Username = "grace"
	err = env.svc.PreRegister(context.Background(), req)
	assert.Equal(t, "User with this email already exists", pkgerrors.As(err).Message())
}

func TestPreRegisterLastWriteWins(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.svc.PreRegister(context.Background(), preRegisterReq()))

	second := preRegisterReq()
	second.Password = "a different passphrase"
	require.NoError(t, env.svc.PreRegister(context.Background(), second))

	p, err := env.pending.Get(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a different passphrase", p.Password)
}

func TestPreRegisterMailFailureCleansPending(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.sendErr = errors.New("smtp down")

	err := env.svc.PreRegister(context.Background(), preRegisterReq())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())

	_, err = env.pending.Get(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestVerifyEmailCommitsAccount(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.PreRegister(context.Background(), preRegisterReq()))

	token, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposeEmailConfirm)
	require.NoError(t, err)

	res, err := env.svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ada", res.Username)
	assert.Equal(t, "ada@example.com", res.Email)
	assert.NotEmpty(t, res.UserID)

	user, err := env.repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	ok, err := security.VerifyPassword("correct horse battery", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = env.pending.Get(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestVerifyEmailRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.VerifyEmail(context.Background(), "not-a-token")
	assert.Equal(t, "Verification link is invalid or has expired", pkgerrors.As(err).Message())

	expired, err := tokens.MintEmailToken(emailCfg(), time.Now().Add(-2*time.Hour), "ada@example.com", tokens.PurposeEmailConfirm)
	require.NoError(t, err)
	_, err = env.svc.VerifyEmail(context.Background(), expired)
	assert.Equal(t, "Verification link is invalid or has expired", pkgerrors.As(err).Message())

	// password-reset tokens never verify an email
	reset, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposePasswordReset)
	require.NoError(t, err)
	_, err = env.svc.VerifyEmail(context.Background(), reset)
	assert.Equal(t, "Verification link is invalid or has expired", pkgerrors.As(err).Message())
}

func TestVerifyEmailWithoutPending(t *testing.T) {
	env := newTestEnv(t)

	token, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposeEmailConfirm)
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), token)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Equal(t, "Registration request not found or has expired", appErr.Message())
}

func TestVerifyEmailConflictsWithCommittedAccount(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.PreRegister(context.Background(), preRegisterReq()))

	// the email gets claimed while the registration sits pending
	env.repo.byEmail["ada@example.com"] = &models.User{Email: "ada@example.com"}

	token, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposeEmailConfirm)
	require.NoError(t, err)

	_, err = env.svc.VerifyEmail(context.Background(), token)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.ResendVerification(context.Background(), "ada@example.com")
	assert.Equal(t, "No pending registration for this email", pkgerrors.As(err).Message())

	require.NoError(t, env.svc.PreRegister(context.Background(), preRegisterReq()))
	require.NoError(t, env.svc.ResendVerification(context.Background(), "ada@example.com"))
	assert.Len(t, env.mailer.sent, 2)
}

func TestForgotPasswordIsEnumerationResistant(t *testing.T) {
	env := newTestEnv(t)

	// unknown email: silent success, no mail
	require.NoError(t, env.svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, env.mailer.sent)

	env.repo.byEmail["ada@example.com"] = &models.User{Email: "ada@example.com"}
	require.NoError(t, env.svc.ForgotPassword(context.Background(), "ada@example.com"))
	require.Len(t, env.mailer.sent, 1)
	assert.Contains(t, env.mailer.sent[0].Body, "reset_password?token=")
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.repo.byEmail["ada@example.com"] = &models.User{Email: "ada@example.com", PasswordHash: "old"}

	token, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposePasswordReset)
	require.NoError(t, err)

	require.NoError(t, env.svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: token, NewPassword: "a brand new passphrase"}))

	ok, err := security.VerifyPassword("a brand new passphrase", env.repo.byEmail["ada@example.com"].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetPasswordRejectsConfirmToken(t *testing.T) {
	env := newTestEnv(t)
	env.repo.byEmail["ada@example.com"] = &models.User{Email: "ada@example.com"}

	confirm, err := tokens.MintEmailToken(emailCfg(), time.Now(), "ada@example.com", tokens.PurposeEmailConfirm)
	require.NoError(t, err)

	err = env.svc.ResetPassword(context.Background(), ResetPasswordRequest{Token: confirm, NewPassword: "a brand new passphrase"})
	assert.Equal(t, "Reset link is invalid or has expired", pkgerrors.As(err).Message())
}
