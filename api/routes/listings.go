package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/secondhandhub/marketplace-backend/api/controllers"
	"github.com/secondhandhub/marketplace-backend/api/middleware"
	"github.com/secondhandhub/marketplace-backend/internal/listings"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
)

// ListingsRouterParams bundles everything the listings API serves.
type ListingsRouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Listings   listings.Service
	Blocklist  middleware.RevocationChecker
	HealthDeps map[string]controllers.Pinger
}

// NewListingsRouter assembles the listings-api HTTP surface.
func NewListingsRouter(p ListingsRouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/health", controllers.HealthReady(cfg, logg, p.HealthDeps))

	r.Route("/api/listings", func(r chi.Router) {
		r.Get("/health", controllers.HealthLive(cfg))
		r.Get("/all", controllers.ListingGetAll(p.Listings, logg))
		r.Get("/user/{sellerId}", controllers.ListingGetBySeller(p.Listings, logg))
		r.Get("/category/{category}", controllers.ListingGetByCategory(p.Listings, logg))
		r.Get("/{id}", controllers.ListingGetByID(p.Listings, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Blocklist, logg))
			r.Post("/create-listing", controllers.ListingCreate(p.Listings, logg))
			r.Put("/edit/{id}", controllers.ListingUpdate(p.Listings, logg))
			r.Delete("/delete/{id}", controllers.ListingDelete(p.Listings, logg))
		})
	})

	return r
}
