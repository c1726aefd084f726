package controllers

import (
	"net/http"
	"strings"

	"github.com/aydindemir/driftops-backend/api/responses"
	"github.com/aydindemir/driftops-backend/api/validators"
	"github.com/aydindemir/driftops-backend/internal/finance"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	pkgerrors "github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

// FinanceNetRevenue resolves net revenue for a period, optionally filtered to
// one service line.
func FinanceNetRevenue(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryTime(r, "from", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var serviceType enums.ServiceType
		if raw := strings.TrimSpace(r.URL.Query().Get("service_type")); raw != "" {
			serviceType, err = enums.ParseServiceType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown service type").WithDetails(map[string]any{"field": "service_type"}))
				return
			}
		}

		result, err := svc.ResolveNetRevenue(r.Context(), finance.Period{From: from, To: to}, serviceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
