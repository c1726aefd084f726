package middleware

import (
	"net/http"

	"github.com/aydindemir/driftops-backend/api/responses"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	pkgerrors "github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

// RequireDeleteRole guards the endpoints that destroy financial records.
func RequireDeleteRole(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if !role.CanDelete() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "deletion requires an admin or manager role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
