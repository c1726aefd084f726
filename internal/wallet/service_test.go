package wallet

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

type fakeRepository struct {
	totals   LedgerTotals
	existing *models.Wallet
	upserted []*models.Wallet
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Find(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	return f.existing, nil
}

func (f *fakeRepository) LedgerTotals(ctx context.Context, customerID uuid.UUID) (LedgerTotals, error) {
	return f.totals, nil
}

func (f *fakeRepository) Upsert(ctx context.Context, wallet *models.Wallet) error {
	f.upserted = append(f.upserted, wallet)
	f.existing = wallet
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestResync_RecomputesFromLedger(t *testing.T) {
	repo := &fakeRepository{
		totals: LedgerTotals{
			Balance:       decimal.NewFromInt(-10),
			LifetimeValue: decimal.NewFromInt(300),
		},
	}
	svc, err := NewService(repo, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	customerID := uuid.New()
	wallet, err := svc.Resync(context.Background(), customerID)
	if err != nil {
		t.Fatalf("Resync error: %v", err)
	}

	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
	if !wallet.CurrentBalance.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("balance = %s, want -10", wallet.CurrentBalance)
	}
	if !wallet.LifetimeValue.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("lifetime = %s, want 300", wallet.LifetimeValue)
	}
}

func TestResync_Idempotent(t *testing.T) {
	repo := &fakeRepository{
		totals: LedgerTotals{Balance: decimal.NewFromInt(42), LifetimeValue: decimal.NewFromInt(42)},
	}
	svc, err := NewService(repo, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	customerID := uuid.New()
	first, err := svc.Resync(context.Background(), customerID)
	if err != nil {
		t.Fatalf("first Resync error: %v", err)
	}
	second, err := svc.Resync(context.Background(), customerID)
	if err != nil {
		t.Fatalf("second Resync error: %v", err)
	}

	if !first.CurrentBalance.Equal(second.CurrentBalance) || !first.LifetimeValue.Equal(second.LifetimeValue) {
		t.Fatalf("resync not idempotent: %+v vs %+v", first, second)
	}
}

func TestResync_PreservesCurrency(t *testing.T) {
	repo := &fakeRepository{
		existing: &models.Wallet{Currency: "TRY"},
		totals:   LedgerTotals{Balance: decimal.Zero, LifetimeValue: decimal.Zero},
	}
	svc, err := NewService(repo, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	wallet, err := svc.Resync(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resync error: %v", err)
	}
	if wallet.Currency != "TRY" {
		t.Fatalf("currency = %q, want TRY", wallet.Currency)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestValidation_RequiresCustomerID(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if _, err := svc.Resync(context.Background(), uuid.Nil); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.Nil); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
