package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aydindemir/driftops-backend/api/controllers"
	"github.com/aydindemir/driftops-backend/api/middleware"
	"github.com/aydindemir/driftops-backend/internal/finance"
	"github.com/aydindemir/driftops-backend/internal/transactions"
	"github.com/aydindemir/driftops-backend/internal/wallet"
	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	financeService finance.Service,
	coordinator *transactions.Coordinator,
	transactionRepo transactions.Repository,
	walletService wallet.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
		"db":    dbPinger,
		"redis": redisPinger,
	}))
	r.Get("/ping", controllers.PublicPing())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/finance/net-revenue", controllers.FinanceNetRevenue(financeService, logg))

		r.Route("/transactions/{id}", func(r chi.Router) {
			r.Get("/dependencies", controllers.TransactionDependencies(coordinator, logg))
			r.With(middleware.RequireDeleteRole(logg)).
				Delete("/", controllers.TransactionDelete(coordinator, logg))
		})

		r.Route("/customers/{id}", func(r chi.Router) {
			r.Get("/transactions", controllers.CustomerTransactions(transactionRepo, logg))
			r.Get("/wallet", controllers.CustomerWallet(walletService, logg))
			r.With(middleware.RequireDeleteRole(logg)).
				Post("/wallet/resync", controllers.CustomerWalletResync(walletService, logg))
		})
	})

	return r
}
