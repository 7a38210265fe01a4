package controllers

import (
	"net/http"

	"github.com/secondhandhub/marketplace-backend/api/middleware"
	"github.com/secondhandhub/marketplace-backend/api/responses"
	"github.com/secondhandhub/marketplace-backend/api/validators"
	"github.com/secondhandhub/marketplace-backend/internal/auth"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
)

// Login exchanges credentials for a bearer token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, res)
	}
}

// Logout revokes the presented token. Runs behind the Auth middleware,
// so a revoked or missing token never reaches this handler.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.Logout(r.Context(), claims); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "Successfully logged out"})
	}
}
