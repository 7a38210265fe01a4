package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/secondhandhub/marketplace-backend/api/controllers"
	"github.com/secondhandhub/marketplace-backend/api/middleware"
	"github.com/secondhandhub/marketplace-backend/internal/auth"
	"github.com/secondhandhub/marketplace-backend/internal/profile"
	"github.com/secondhandhub/marketplace-backend/internal/registration"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
)

// RateLimiterStore backs the fixed-window auth rate limits.
type RateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// UsersRouterParams bundles everything the users API serves.
type UsersRouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Registration registration.Service
	Auth         auth.Service
	Profile      profile.Service
	Blocklist    middleware.RevocationChecker
	RateLimits   RateLimiterStore
	HealthDeps   map[string]controllers.Pinger
}

// NewUsersRouter assembles the users-api HTTP surface.
func NewUsersRouter(p UsersRouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Get("/health", controllers.HealthReady(cfg, logg, p.HealthDeps))

	r.Route("/api/users", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.RateLimits, logg)).
			Post("/pre_register", controllers.PreRegister(p.Registration, logg))
		r.Get("/verify_email/{token}", controllers.VerifyEmail(p.Registration, logg))
		r.Post("/resend_verification", controllers.ResendVerification(p.Registration, logg))
		r.Post("/forgot_password", controllers.ForgotPassword(p.Registration, logg))
		r.Post("/reset_password", controllers.ResetPassword(p.Registration, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimits, logg)).
			Post("/login", controllers.Login(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Blocklist, logg))
			r.Post("/logout", controllers.Logout(p.Auth, logg))
			r.Get("/profile", controllers.ProfileGet(p.Profile, logg))
			r.Put("/profile", controllers.ProfileUpdate(p.Profile, logg))
			r.Post("/profile/picture", controllers.ProfileUploadPicture(p.Profile, logg))
			r.Get("/id", controllers.UserID())
			r.Post("/wishlist", controllers.WishlistAdd(p.Profile, logg))
			r.Delete("/wishlist/{listingId}", controllers.WishlistRemove(p.Profile, logg))
		})
	})

	// service-to-service surface, not exposed through the public gateway
	r.Post("/internal/add-listing", controllers.InternalAddListing(p.Profile, logg))

	return r
}
