package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
	"github.com/aydindemir/driftops-backend/pkg/outbox/payloads"
)

// Service recomputes and serves customer wallets. It is the sole writer of
// current_balance and lifetime_value; every mutation path derives them from
// the transaction ledger rather than applying deltas.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	Resync(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	ResyncTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (*models.Wallet, error)
}

type service struct {
	repo   Repository
	events *outbox.Service
	logg   *logger.Logger
}

// NewService wires the balance sync engine. The outbox service is optional;
// without it resyncs are silent.
func NewService(repo Repository, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, events: events, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	if customerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	wallet, err := s.repo.Find(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "loading wallet")
	}
	if wallet == nil {
		return nil, errors.New(errors.CodeNotFound, "wallet not found")
	}
	return wallet, nil
}

// Resync recomputes the wallet outside any caller transaction.
func (s *service) Resync(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	return s.ResyncTx(ctx, nil, customerID)
}

// ResyncTx recomputes the wallet inside the caller's transaction when one is
// supplied. Safe to call repeatedly; the result depends only on the ledger.
func (s *service) ResyncTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (*models.Wallet, error) {
	if customerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}

	repo := s.repo.WithTx(tx)

	totals, err := repo.LedgerTotals(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "recomputing wallet totals")
	}

	wallet := &models.Wallet{
		CustomerID:     customerID,
		CurrentBalance: totals.Balance,
		LifetimeValue:  totals.LifetimeValue,
		LastPaymentAt:  totals.LastPaymentAt,
		UpdatedAt:      time.Now().UTC(),
	}
	if existing, err := repo.Find(ctx, customerID); err == nil && existing != nil {
		wallet.Currency = existing.Currency
	}

	if err := repo.Upsert(ctx, wallet); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "persisting wallet")
	}

	if s.events != nil && tx != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventWalletResynced,
			AggregateType: enums.AggregateWallet,
			AggregateID:   customerID,
			Data: payloads.WalletResyncedEvent{
				CustomerID:     customerID,
				CurrentBalance: wallet.CurrentBalance,
				LifetimeValue:  wallet.LifetimeValue,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			// event loss is tolerable, a broken resync is not
			s.logg.Warn(s.logg.WithCustomerID(ctx, customerID.String()), "wallet resync event not queued")
		}
	}

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"customer_id": customerID.String(),
		"balance":     wallet.CurrentBalance.String(),
	}), "wallet resynced")

	return wallet, nil
}
