package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apotekcloud/pos-terminal/api/controllers"
	"github.com/apotekcloud/pos-terminal/api/middleware"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// Deps carries everything the router exposes over HTTP.
type Deps struct {
	DB           controllers.DBPinger
	Auth         controllers.LoginService
	Checkout     controllers.CheckoutService
	Transactions controllers.TransactionReader
	Sync         controllers.SyncRunner
	Monitor      controllers.OnlineChecker
	Tracker      controllers.BacklogCounter
	Reset        controllers.ResetRunner
	Backup       controllers.BackupService
	Metrics      http.Handler
}

// NewRouter builds the terminal's local HTTP surface.
func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Get("/healthz", controllers.Healthz(cfg, deps.DB, logg))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Get("/transactions", controllers.TransactionList(deps.Transactions, logg))
			r.Get("/transactions/{transactionId}", controllers.TransactionDetail(deps.Transactions, logg))
			r.Post("/sync", controllers.SyncNow(deps.Sync, logg))
			r.Get("/sync/status", controllers.SyncStatus(deps.Monitor, deps.Tracker, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Post("/reset", controllers.AdminReset(deps.Reset, logg))
				r.Get("/backup", controllers.BackupExport(deps.Backup, logg))
				r.Post("/backup", controllers.BackupImport(deps.Backup, logg))
			})
		})
	})

	return r
}
