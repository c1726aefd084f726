package controllers

import (
	"net/http"
	"strings"

	"github.com/aydindemir/driftops-backend/api/responses"
	"github.com/aydindemir/driftops-backend/api/validators"
	"github.com/aydindemir/driftops-backend/internal/transactions"
	"github.com/aydindemir/driftops-backend/internal/wallet"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/pagination"
)

// TransactionPage is the cursor-paginated listing envelope.
type TransactionPage struct {
	Items      []models.Transaction `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func CustomerTransactions(repo transactions.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		items, next, err := repo.ListByCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := TransactionPage{Items: items}
		if next != nil {
			page.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, page)
	}
}

func CustomerWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// CustomerWalletResync recomputes the wallet from the ledger on demand.
func CustomerWalletResync(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Resync(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
