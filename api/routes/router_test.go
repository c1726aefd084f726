package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/internal/bookings"
	"github.com/aydindemir/driftops-backend/internal/finance"
	"github.com/aydindemir/driftops-backend/internal/locks"
	"github.com/aydindemir/driftops-backend/internal/packages"
	"github.com/aydindemir/driftops-backend/internal/rentals"
	"github.com/aydindemir/driftops-backend/internal/transactions"
	"github.com/aydindemir/driftops-backend/internal/wallet"
	pkgAuth "github.com/aydindemir/driftops-backend/pkg/auth"
	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/db"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// memoryLockStore is an in-process stand-in for the Redis lock client.
type memoryLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (s *memoryLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.values[key]; held {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryLockStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *memoryLockStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memoryLockStore) LockKey(scope, id string) string {
	return "driftops:lock:" + scope + ":" + id
}

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'EUR',
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'completed',
  payment_method TEXT,
  service_type TEXT,
  related_entity_id TEXT,
  related_entity_type TEXT,
  reverses_transaction_id TEXT,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  service_name TEXT NOT NULL,
  service_type TEXT NOT NULL DEFAULT 'lessons',
  starts_at DATETIME NOT NULL,
  duration_hours REAL NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'scheduled',
  instructor_id TEXT,
  package_id TEXT,
  payment_transaction_id TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS customer_packages (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  name TEXT NOT NULL,
  total_hours REAL NOT NULL DEFAULT 0,
  used_hours REAL NOT NULL DEFAULT 0,
  remaining_hours REAL,
  purchase_price NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'EUR',
  status TEXT NOT NULL DEFAULT 'active',
  payment_transaction_id TEXT,
  raw TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS rentals (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  equipment TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  total_price NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'EUR',
  status TEXT NOT NULL DEFAULT 'reserved',
  payment_transaction_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS wallets (
  customer_id TEXT PRIMARY KEY,
  current_balance NUMERIC NOT NULL DEFAULT 0,
  lifetime_value NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'EUR',
  last_payment_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS service_ledger_snapshots (
  id TEXT PRIMARY KEY,
  service_type TEXT,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  gross_total NUMERIC NOT NULL DEFAULT 0,
  net_total NUMERIC NOT NULL DEFAULT 0,
  refunded_total NUMERIC NOT NULL DEFAULT 0,
  commission_total NUMERIC NOT NULL DEFAULT 0,
  items_count INTEGER NOT NULL DEFAULT 0,
  expected_by_service TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

var routerJWT = config.JWTConfig{
	Secret:            "router-test-secret",
	Issuer:            "driftops-test",
	ExpirationMinutes: 60,
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	conn := setupRouterTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	cfg := &config.Config{JWT: routerJWT}
	cfg.App.Env = "test"
	cfg.App.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Finance.TaxRatePct = decimal.NewFromInt(10)

	txnRepo := transactions.NewRepository(conn)
	bookingRepo := bookings.NewRepository(conn)
	packageRepo := packages.NewRepository(conn)
	rentalRepo := rentals.NewRepository(conn)
	walletRepo := wallet.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	walletSvc, err := wallet.NewService(walletRepo, events, logg)
	require.NoError(t, err)

	inspector, err := transactions.NewInspector(txnRepo, bookingRepo, packageRepo, rentalRepo)
	require.NoError(t, err)

	locker, err := locks.NewCustomerLocker(newMemoryLockStore(), time.Second)
	require.NoError(t, err)

	coordinator, err := transactions.NewCoordinator(
		db.FromConn(conn), txnRepo, inspector,
		bookingRepo, packageRepo, rentalRepo,
		walletRepo, walletSvc, locker, events, logg,
	)
	require.NoError(t, err)

	financeSvc, err := finance.NewService(finance.NewRepository(conn), finance.NewEstimator(cfg.Finance), logg)
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, stubPinger{}, stubPinger{}, financeSvc, coordinator, txnRepo, walletSvc)
	return handler, conn
}

func bearerToken(t *testing.T, role enums.MemberRole) string {
	t.Helper()

	token, err := pkgAuth.MintAccessToken(routerJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func seedPayment(t *testing.T, conn *gorm.DB, customerID uuid.UUID, amount string) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		ID:         uuid.New(),
		CustomerID: customerID,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "EUR",
		Type:       enums.TransactionTypePayment,
		Status:     enums.TransactionStatusCompleted,
	}
	require.NoError(t, conn.Create(txn).Error)
	return txn
}

func TestRouterHealthEndpoints(t *testing.T) {
	handler, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterRequiresAuth(t *testing.T) {
	handler, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/finance/net-revenue", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterDeleteRequiresPrivilegedRole(t *testing.T) {
	handler, conn := newTestRouter(t)
	txn := seedPayment(t, conn, uuid.New(), "100")

	req := httptest.NewRequest(http.MethodDelete, "/v1/transactions/"+txn.ID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleStudent))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterDeleteTransaction(t *testing.T) {
	handler, conn := newTestRouter(t)
	customerID := uuid.New()
	seedPayment(t, conn, customerID, "50")
	txn := seedPayment(t, conn, customerID, "100")

	body := bytes.NewBufferString(`{"reason": "duplicate entry"}`)
	req := httptest.NewRequest(http.MethodDelete, "/v1/transactions/"+txn.ID.String(), body)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleAdmin))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data transactions.DeleteResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, txn.ID, envelope.Data.TransactionID)
	require.NotNil(t, envelope.Data.Wallet)
	assert.Equal(t, "50", envelope.Data.Wallet.CurrentBalance.String())
}

func TestRouterDeleteConflictSurfacesDependencies(t *testing.T) {
	handler, conn := newTestRouter(t)
	customerID := uuid.New()
	txn := seedPayment(t, conn, customerID, "100")

	booking := &models.Booking{
		ID:                   uuid.New(),
		CustomerID:           customerID,
		ServiceName:          "Windsurf Lesson",
		ServiceType:          enums.ServiceTypeLessons,
		StartsAt:             time.Now().Add(24 * time.Hour),
		DurationHours:        1,
		Status:               enums.BookingStatusScheduled,
		PaymentTransactionID: &txn.ID,
	}
	require.NoError(t, conn.Create(booking).Error)

	req := httptest.NewRequest(http.MethodDelete, "/v1/transactions/"+txn.ID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Dependencies struct {
					Bookings []models.Booking `json:"bookings"`
				} `json:"dependencies"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
	require.Len(t, envelope.Error.Details.Dependencies.Bookings, 1)
	assert.Equal(t, booking.ID, envelope.Error.Details.Dependencies.Bookings[0].ID)
}

func TestRouterDependenciesReview(t *testing.T) {
	handler, conn := newTestRouter(t)
	txn := seedPayment(t, conn, uuid.New(), "100")

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/"+txn.ID.String()+"/dependencies", nil)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleStudent))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// the review step is read-only; any authenticated role may call it
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterCustomerEndpoints(t *testing.T) {
	handler, conn := newTestRouter(t)
	customerID := uuid.New()
	seedPayment(t, conn, customerID, "100")
	token := bearerToken(t, enums.MemberRoleManager)

	resync := httptest.NewRequest(http.MethodPost, "/v1/customers/"+customerID.String()+"/wallet/resync", nil)
	resync.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, resync)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	walletReq := httptest.NewRequest(http.MethodGet, "/v1/customers/"+customerID.String()+"/wallet", nil)
	walletReq.Header.Set("Authorization", token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, walletReq)
	require.Equal(t, http.StatusOK, w.Code)

	var walletEnvelope struct {
		Data models.Wallet `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&walletEnvelope))
	assert.Equal(t, "100", walletEnvelope.Data.CurrentBalance.String())

	listReq := httptest.NewRequest(http.MethodGet, "/v1/customers/"+customerID.String()+"/transactions?limit=10", nil)
	listReq.Header.Set("Authorization", token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, listReq)
	require.Equal(t, http.StatusOK, w.Code)

	var listEnvelope struct {
		Data struct {
			Items []models.Transaction `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listEnvelope))
	assert.Len(t, listEnvelope.Data.Items, 1)
}

func TestRouterWalletNotFound(t *testing.T) {
	handler, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/"+uuid.NewString()+"/wallet", nil)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleStudent))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterNetRevenue(t *testing.T) {
	handler, conn := newTestRouter(t)
	customerID := uuid.New()
	txn := seedPayment(t, conn, customerID, "200")
	require.NoError(t, conn.Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Update("created_at", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)).Error)

	req := httptest.NewRequest(http.MethodGet, "/v1/finance/net-revenue?from=2026-02-01&to=2026-03-01", nil)
	req.Header.Set("Authorization", bearerToken(t, enums.MemberRoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data finance.NetRevenueResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "200", envelope.Data.Gross.String())
	assert.False(t, envelope.Data.Supported)
}
