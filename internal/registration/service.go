package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/secondhandhub/marketplace-backend/internal/users"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	dbtypes "github.com/secondhandhub/marketplace-backend/pkg/db/types"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
	"github.com/secondhandhub/marketplace-backend/pkg/mail"
	"github.com/secondhandhub/marketplace-backend/pkg/security"
	"github.com/secondhandhub/marketplace-backend/pkg/tokens"
)

const (
	msgBothTaken        = "User with this username and email already exists"
	msgUsernameTaken    = "User with this username already exists"
	msgEmailTaken       = "User with this email already exists"
	msgInvalidLink      = "Verification link is invalid or has expired"
	msgPendingGone      = "Registration request not found or has expired"
	msgNoPendingForMail = "No pending registration for this email"
	msgInvalidResetLink = "Reset link is invalid or has expired"
)

// Service drives the pre-register / verify / resend workflow plus the
// password-reset flow.
type Service interface {
	PreRegister(ctx context.Context, req PreRegisterRequest) error
	VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

type service struct {
	users     userRepository
	pending   PendingStore
	mailer    mail.Mailer
	tokenCfg  config.EmailTokenConfig
	pwdCfg    config.PasswordConfig
	publicURL string
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	UserRepo    userRepository
	Pending     PendingStore
	Mailer      mail.Mailer
	TokenCfg    config.EmailTokenConfig
	PasswordCfg config.PasswordConfig
	PublicURL   string
	Logger      *logger.Logger
	Now         func() time.Time
}

// NewService constructs the registration workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		users:     params.UserRepo,
		pending:   params.Pending,
		mailer:    params.Mailer,
		tokenCfg:  params.TokenCfg,
		pwdCfg:    params.PasswordCfg,
		publicURL: params.PublicURL,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

// PreRegister stores a pending registration and emails the
// confirmation link. A later PreRegister for the same email before
// verification simply overwrites the pending record.
func (s *service) PreRegister(ctx context.Context, req PreRegisterRequest) error {
	usernameTaken, err := s.users.UsernameTaken(ctx, req.Username)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking username")
	}
	emailTaken, err := s.users.EmailTaken(ctx, req.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}

	switch {
	case usernameTaken && emailTaken:
		return pkgerrors.New(pkgerrors.CodeConflict, msgBothTaken)
	case usernameTaken:
		return pkgerrors.New(pkgerrors.CodeConflict, msgUsernameTaken)
	case emailTaken:
		return pkgerrors.New(pkgerrors.CodeConflict, msgEmailTaken)
	}

	p := Pending{
		Username:   req.Username,
		Email:      normalizeEmail(req.Email),
		Password:   req.Password,
		Location:   req.Location,
		Categories: req.Categories,
		Wishlist:   req.Wishlist,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.pending.Put(ctx, p); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing pending registration")
	}

	if err := s.sendVerification(ctx, p.Email); err != nil {
		// A pending record nobody can verify is just noise.
		if delErr := s.pending.Delete(ctx, p.Email); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, "cleaning up pending registration after mail failure", delErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending verification email")
	}
	return nil
}

// VerifyEmail commits the pending registration named by the token.
// The user row is written before the pending record is deleted, so a
// crash in between only leaves a harmless stale pending entry.
func (s *service) VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error) {
	email, err := tokens.ParseEmailToken(s.tokenCfg, token, tokens.PurposeEmailConfirm)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidLink)
	}

	p, err := s.pending.Get(ctx, email)
	if errors.Is(err, ErrPendingNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgPendingGone)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pending registration")
	}

	// A verified account may have claimed the name while this
	// registration sat pending.
	usernameTaken, err := s.users.UsernameTaken(ctx, p.Username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking username")
	}
	emailTaken, err := s.users.EmailTaken(ctx, p.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}
	switch {
	case usernameTaken && emailTaken:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgBothTaken)
	case usernameTaken:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgUsernameTaken)
	case emailTaken:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgEmailTaken)
	}

	hash, err := security.HashPassword(p.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		ID:            uuid.New(),
		Username:      p.Username,
		Email:         p.Email,
		PasswordHash:  hash,
		Location:      p.Location,
		EmailVerified: true,
		Wishlist:      dbtypes.StringArray(p.Wishlist),
		Listings:      dbtypes.StringArray{},
		Categories:    dbtypes.StringArray(p.Categories),
	}
	if user.Wishlist == nil {
		user.Wishlist = dbtypes.StringArray{}
	}
	if user.Categories == nil {
		user.Categories = dbtypes.StringArray{}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	if err := s.pending.Delete(ctx, p.Email); err != nil && s.logg != nil {
		s.logg.Error(ctx, "deleting committed pending registration", err)
	}

	return &VerifyEmailResult{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// ResendVerification re-issues the confirmation mail for a pending
// registration.
func (s *service) ResendVerification(ctx context.Context, email string) error {
	_, err := s.pending.Get(ctx, email)
	if errors.Is(err, ErrPendingNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgNoPendingForMail)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pending registration")
	}

	if err := s.sendVerification(ctx, normalizeEmail(email)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending verification email")
	}
	return nil
}

// ForgotPassword emails a reset link. The response is identical
// whether or not the account exists.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if s.logg != nil && !errors.Is(err, users.ErrNotFound) {
			s.logg.Error(ctx, "forgot password lookup failed", err)
		}
		return nil
	}

	token, err := tokens.MintEmailToken(s.tokenCfg, s.now(), email, tokens.PurposePasswordReset)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting reset token")
	}

	if err := s.mailer.Send(ctx, mail.PasswordResetMessage(normalizeEmail(email), s.publicURL, token)); err != nil {
		// Stay quiet so delivery failures do not betray which
		// emails have accounts.
		if s.logg != nil {
			s.logg.Error(ctx, "sending password reset email", err)
		}
	}
	return nil
}

// ResetPassword replaces the stored hash for the account named by a
// password-reset token.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email, err := tokens.ParseEmailToken(s.tokenCfg, req.Token, tokens.PurposePasswordReset)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidResetLink)
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwdCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	if err := s.users.UpdatePasswordHash(ctx, email, hash); err != nil {
		// The account vanished between mint and reset; treat it
		// like any other dead link.
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidResetLink)
	}
	return nil
}

func (s *service) sendVerification(ctx context.Context, email string) error {
	token, err := tokens.MintEmailToken(s.tokenCfg, s.now(), email, tokens.PurposeEmailConfirm)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.VerificationMessage(email, s.publicURL, token))
}
