package main

import (
	"net/http"

	"github.com/BohBOhTN/ELKOLLA-API/internal/config"
	"github.com/BohBOhTN/ELKOLLA-API/internal/db"
	"github.com/BohBOhTN/ELKOLLA-API/internal/handlers"
	"github.com/BohBOhTN/ELKOLLA-API/internal/httpx"
	"github.com/BohBOhTN/ELKOLLA-API/internal/invoicing"
	"github.com/BohBOhTN/ELKOLLA-API/internal/middleware"
	"github.com/BohBOhTN/ELKOLLA-API/internal/money"
	"github.com/BohBOhTN/ELKOLLA-API/internal/store"
	"github.com/BohBOhTN/ELKOLLA-API/internal/words"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	db      *gorm.DB
	log     *zap.Logger
	handler http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(conn *gorm.DB, cfg *config.Config, log *zap.Logger) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  conn,
		log: log,
	}
	st := store.New(conn)
	rates := money.Rates{TaxRate: cfg.Billing.TaxRate, StampFee: cfg.Billing.StampFee}
	asm := invoicing.NewAssembler(st, newConverter(cfg.Words, log), rates, log)
	svc := invoicing.NewService(st, asm, cfg.Billing.MaxAttempts, log)

	app.setupRoutes(handlers.NewInvoiceHandler(svc, log))
	app.handler = middleware.Chain(app.mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recover(log),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(ih *handlers.InvoiceHandler) {
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	ih.Register(a.mux)
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), a.db); err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newConverter uses the remote words service when one is configured and the
// built-in French converter otherwise.
func newConverter(cfg config.WordsConfig, log *zap.Logger) words.Converter {
	if cfg.ServiceURL == "" {
		return words.Dinars
	}
	log.Info("using remote amount-in-words service", zap.String("url", cfg.ServiceURL))
	return words.NewClient(cfg.ServiceURL, cfg.Timeout)
}
