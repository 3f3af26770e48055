package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	router    chi.Router
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	log       *zap.Logger
}

// NewApp creates a new application with all routes configured.
func NewApp(dbConn *gorm.DB, routerCfg *policy.RouterConfig, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	app := &App{
		router:    chi.NewRouter(),
		db:        dbConn,
		routerCfg: routerCfg,
		log:       log,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	r := a.router
	cfg := a.routerCfg

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	r.Use(cfg.Sessions.Middleware)

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", a.healthz)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	ah := cfg.AuthHandler
	r.Post("/login", ah.Login)
	r.Post("/logout", ah.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes
	// ─────────────────────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.RequireAuth)

		r.Get("/me", ah.Me)

		ih := cfg.InvoiceHandler
		r.Get("/next-invoice-number", ih.NextNumber)

		dh := cfg.DashboardHandler
		r.With(a.requirePermission(access.ResourceDashboard, access.ActionView)).Get("/dashboard", dh.Summary)
		r.With(a.requirePermission(access.ResourceDashboard, access.ActionView)).Get("/dashboard/{stat}", dh.Stat)

		company := cfg.CompanyHandler
		r.With(a.requirePermission(access.ResourceCompany, access.ActionView)).Get("/company", company.Get)
		r.With(a.requirePermission(access.ResourceCompany, access.ActionUpdate)).Put("/company", company.Update)

		a.crud(r, "/partners", access.ResourcePartner, cfg.PartnerHandler)
		a.crud(r, "/batches", access.ResourceBatch, cfg.BatchHandler)
		a.crud(r, "/interventions", access.ResourceIntervention, cfg.InterventionHandler)
		a.crud(r, "/fuel-logs", access.ResourceFuelLog, cfg.FuelLogHandler)

		r.With(a.requirePermission(access.ResourceInvoice, access.ActionCreate)).
			Post("/invoices/generate/{intervention_id}", ih.Generate)
		r.With(a.requirePermission(access.ResourceInvoice, access.ActionView)).
			Get("/invoices/{id}/download", ih.Download)
		a.crud(r, "/invoices", access.ResourceInvoice, ih)

		// ─────────────────────────────────────────────────────────────────────
		// Admin routes
		// ─────────────────────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthGate.RequireAdmin())

			r.Post("/upload", cfg.UploadHandler.Upload)
			r.Get("/export/{kind}", cfg.ExportHandler.Export)
			r.Get("/action-logs", cfg.ActionLogHandler.List)

			uh := cfg.AdminUserHandler
			r.Get("/admin/users", uh.List)
			r.Post("/admin/users", uh.Create)
			r.Put("/admin/users/{id}/profile", uh.AssignProfile)

			ph := cfg.AdminProfileHandler
			r.Get("/admin/permissions", ph.ListPermissions)
			r.Get("/admin/profiles", ph.List)
			r.Post("/admin/profiles", ph.Create)
			r.Put("/admin/profiles/{id}", ph.Update)
			r.Delete("/admin/profiles/{id}", ph.Delete)
			r.Put("/admin/profiles/{id}/permissions", ph.SetPermissions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
}

// crudHandler is the JSON resource surface shared by the ledger handlers.
type crudHandler interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

// crud mounts list/get/create/update/delete under prefix, each behind the
// matching resource permission.
func (a *App) crud(r chi.Router, prefix, resource string, h crudHandler) {
	perm := func(action access.Action) func(http.Handler) http.Handler {
		return a.requirePermission(resource, action)
	}
	r.With(perm(access.ActionList)).Get(prefix, h.List)
	r.With(perm(access.ActionCreate)).Post(prefix, h.Create)
	r.With(perm(access.ActionView)).Get(prefix+"/{id}", h.Get)
	r.With(perm(access.ActionUpdate)).Put(prefix+"/{id}", h.Update)
	r.With(perm(access.ActionDelete)).Delete(prefix+"/{id}", h.Delete)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action access.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), a.db); err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
