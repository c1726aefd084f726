package finance

import (
	"context"
	stdErrors "errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

type fakeRepository struct {
	snapshot   *models.ServiceLedgerSnapshot
	snapshotFn func() (*models.ServiceLedgerSnapshot, error)
	aggregate  LedgerAggregate
	totals     TransactionTotals
	totalsErr  error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindSnapshot(ctx context.Context, period Period, serviceType enums.ServiceType) (*models.ServiceLedgerSnapshot, error) {
	if f.snapshotFn != nil {
		return f.snapshotFn()
	}
	return f.snapshot, nil
}

func (f *fakeRepository) FindLedgerAggregate(ctx context.Context, period Period) (LedgerAggregate, error) {
	return f.aggregate, nil
}

func (f *fakeRepository) TransactionTotals(ctx context.Context, period Period, serviceType enums.ServiceType) (TransactionTotals, error) {
	return f.totals, f.totalsErr
}

func testService(t *testing.T, repo Repository) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, NewEstimator(testFinanceConfig()), logg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func testPeriod() Period {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

func TestResolveNetRevenue_SnapshotPathRecomputesNet(t *testing.T) {
	repo := &fakeRepository{
		snapshot: &models.ServiceLedgerSnapshot{
			GrossTotal:      decimal.NewFromInt(500),
			CommissionTotal: decimal.NewFromInt(50),
			NetTotal:        decimal.NewFromInt(999), // must never be trusted
			ItemsCount:      2,
		},
	}
	svc := testService(t, repo)

	got, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}

	if got.Source != SourceSnapshot || !got.Supported {
		t.Fatalf("expected supported snapshot result, got %+v", got)
	}
	// 500 − 50 commission − 50 tax − 10 insurance − 25 equipment − 9.25 fee
	want := decimal.RequireFromString("355.75")
	if !got.Net.Equal(want) {
		t.Fatalf("net = %s, want %s", got.Net, want)
	}
	if got.Net.Equal(decimal.NewFromInt(999)) {
		t.Fatal("snapshot net_total leaked through unrecomputed")
	}
}

func TestResolveNetRevenue_LedgerAggregateFallback(t *testing.T) {
	repo := &fakeRepository{
		aggregate: LedgerAggregate{
			ExpectedByService: map[string]decimal.Decimal{
				"lessons": decimal.NewFromInt(300),
				"rentals": decimal.NewFromInt(200),
			},
			CommissionTotal: decimal.NewFromInt(40),
		},
		totals: TransactionTotals{Count: 3},
	}
	svc := testService(t, repo)

	got, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}
	if got.Source != SourceLedger || got.Supported {
		t.Fatalf("expected unsupported ledger result, got %+v", got)
	}
	if !got.Gross.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("gross = %s, want 500", got.Gross)
	}

	// filtering narrows gross to the single service's expected amount
	filtered, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), enums.ServiceTypeLessons)
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}
	if !filtered.Gross.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("filtered gross = %s, want 300", filtered.Gross)
	}
}

func TestResolveNetRevenue_RawTransactionFallback(t *testing.T) {
	repo := &fakeRepository{
		totals: TransactionTotals{
			Gross:   decimal.NewFromInt(120),
			Refunds: decimal.NewFromInt(20),
			Count:   5,
		},
	}
	svc := testService(t, repo)

	got, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}
	if got.Source != SourceTransactions || got.Supported {
		t.Fatalf("expected raw-transaction result, got %+v", got)
	}
	if !got.Gross.Equal(decimal.NewFromInt(120)) || !got.Refunds.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected totals: %+v", got)
	}
}

func TestResolveNetRevenue_AnomalousWhenRefundsExceedGross(t *testing.T) {
	repo := &fakeRepository{
		totals: TransactionTotals{
			Gross:   decimal.NewFromInt(50),
			Refunds: decimal.NewFromInt(120),
			Count:   2,
		},
	}
	svc := testService(t, repo)

	got, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}
	if !got.Anomalous {
		t.Fatal("expected anomalous flag when refunds exceed gross")
	}
	if !got.Net.IsNegative() {
		t.Fatalf("expected unclamped negative net, got %s", got.Net)
	}
}

func TestResolveNetRevenue_ZeroGrossZeroCommissionRate(t *testing.T) {
	svc := testService(t, &fakeRepository{})

	got, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if err != nil {
		t.Fatalf("ResolveNetRevenue error: %v", err)
	}
	if !got.CommissionRate.IsZero() {
		t.Fatalf("commission rate = %s, want 0 for zero gross", got.CommissionRate)
	}
}

func TestResolveNetRevenue_Validation(t *testing.T) {
	svc := testService(t, &fakeRepository{})

	_, err := svc.ResolveNetRevenue(context.Background(), Period{}, "")
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for empty period, got %v", err)
	}

	period := testPeriod()
	_, err = svc.ResolveNetRevenue(context.Background(), Period{From: period.To, To: period.From}, "")
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for inverted period, got %v", err)
	}

	_, err = svc.ResolveNetRevenue(context.Background(), period, enums.ServiceType("spa"))
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for unknown service type, got %v", err)
	}
}

func TestResolveNetRevenue_StorageErrorSurfaces(t *testing.T) {
	repo := &fakeRepository{totalsErr: stdErrors.New("connection refused")}
	svc := testService(t, repo)

	_, err := svc.ResolveNetRevenue(context.Background(), testPeriod(), "")
	if !errors.IsCode(err, errors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
