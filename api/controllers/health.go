package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aydindemir/driftops-backend/api/responses"
	"github.com/aydindemir/driftops-backend/pkg/config"
	pkgerrors "github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

// Pinger is the health probe surface of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Driftops-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers a
// ping within the probe deadline.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Driftops-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "unreachable"
				responses.WriteError(r.Context(), logg,
					w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unreachable").WithDetails(status))
				return
			}
			status[name] = "ok"
		}

		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
