package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/secondhandhub/marketplace-backend/internal/users"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/security"
	"github.com/secondhandhub/marketplace-backend/pkg/tokens"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	unverifiedEmailMessage    = "Please verify your email to access this data"
)

// Service handles login and logout.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, claims *tokens.AccessTokenClaims) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type service struct {
	users     userRepository
	blocklist Blocklist
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	UserRepo  userRepository
	Blocklist Blocklist
	JWTConfig config.JWTConfig
	Now       func() time.Time
}

// NewService constructs the session service.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Blocklist == nil {
		return nil, fmt.Errorf("blocklist is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		users:     params.UserRepo,
		blocklist: params.Blocklist,
		jwtCfg:    params.JWTConfig,
		now:       params.Now,
	}, nil
}

// Login verifies the credential pair and mints a bearer token. Unknown
// email and wrong password return the same error so callers cannot
// probe which addresses have accounts.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, users.ErrNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, unverifiedEmailMessage)
	}

	token, err := tokens.MintAccessToken(s.jwtCfg, s.now(), tokens.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtCfg.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
// The middleware already rejected blocklisted tokens, so a second
// logout with the same token never reaches this path.
func (s *service) Logout(ctx context.Context, claims *tokens.AccessTokenClaims) error {
	if claims == nil || claims.ID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token id")
	}

	ttl := time.Duration(0)
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		// expired tokens are already unusable
		return nil
	}

	if err := s.blocklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking token")
	}
	return nil
}
