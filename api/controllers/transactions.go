package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aydindemir/driftops-backend/api/middleware"
	"github.com/aydindemir/driftops-backend/api/responses"
	"github.com/aydindemir/driftops-backend/api/validators"
	"github.com/aydindemir/driftops-backend/internal/transactions"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
)

// DeleteTransactionRequest is the deletion payload. An empty body is a plain
// soft delete with no cascade selections.
type DeleteTransactionRequest struct {
	Force      bool                         `json:"force"`
	HardDelete bool                         `json:"hard_delete"`
	Cascade    []transactions.CascadeOption `json:"cascade" validate:"omitempty,dive"`
	Reason     string                       `json:"reason" validate:"omitempty,max=500"`
}

// TransactionDependencies is the review step: what would a deletion touch.
func TransactionDependencies(coord *transactions.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := coord.Dependencies(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// TransactionDelete runs the deletion protocol.
func TransactionDelete(coord *transactions.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req DeleteTransactionRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := coord.Delete(r.Context(), id, transactions.DeleteOptions{
			Force:      req.Force,
			HardDelete: req.HardDelete,
			Cascade:    req.Cascade,
			Reason:     req.Reason,
			Actor:      actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func actorFromContext(r *http.Request) *outbox.ActorRef {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID: userID,
		Role:   middleware.RoleFromContext(r.Context()),
	}
}
