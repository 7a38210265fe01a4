package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/secondhandhub/marketplace-backend/api/responses"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
)

// Pinger is any dependency with a reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency reachability. A nil pinger is
// reported as skipped so the two services can share this handler.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				status[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health check failed: "+name, err)
				}
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, status)
	}
}
