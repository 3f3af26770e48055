// Package policy wires the authorization gate, services and handlers into one
// RouterConfig that cmd/server mounts on its router.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/export"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/handlers"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/ingest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/metrics"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/pdf"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultCacheTTL is how long resolved profiles stay cached.
const DefaultCacheTTL = 5 * time.Minute

// Options configure NewRouterConfig. Zero values pick the defaults.
type Options struct {
	MediaDir      string
	SessionSecret string
	VATRate       decimal.Decimal
	CacheTTL      time.Duration
	// TempDir receives spooled uploads; empty means os.TempDir.
	TempDir string
}

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	AuthGate *access.AuthGate
	Sessions *auth.Sessions
	Audit    *audit.Recorder
	Metrics  *metrics.Metrics

	// Admin handlers
	AdminProfileHandler *handlers.AdminProfileHandler
	AdminUserHandler    *handlers.AdminUserHandler
	ActionLogHandler    *handlers.ActionLogHandler

	AuthHandler *handlers.AuthHandler

	// Business handlers
	PartnerHandler      *handlers.PartnerHandler
	BatchHandler        *handlers.BatchHandler
	InterventionHandler *handlers.InterventionHandler
	FuelLogHandler      *handlers.FuelLogHandler
	InvoiceHandler      *handlers.InvoiceHandler
	CompanyHandler      *handlers.CompanyHandler
	DashboardHandler    *handlers.DashboardHandler
	UploadHandler       *handlers.UploadHandler
	ExportHandler       *handlers.ExportHandler

	// Services shared with the CLI
	Numberer       *services.Numberer
	InvoiceService *services.InvoiceService
	Pipeline       *ingest.Pipeline
	Exporter       *export.Exporter
}

// NewRouterConfig builds every service and handler on top of db. m may be nil.
func NewRouterConfig(db *gorm.DB, m *metrics.Metrics, log *zap.Logger, opts Options) (*RouterConfig, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MediaDir == "" {
		opts.MediaDir = "media"
	}
	if opts.VATRate.IsZero() {
		opts.VATRate = billing.DefaultVATRate
	}

	store, err := storage.NewLocalStorage(opts.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	authGate := access.NewAuthGate(db, opts.CacheTTL, log)
	sessions := auth.NewSessions(opts.SessionSecret, userExists(db), log)
	rec := audit.NewRecorder(db, log)

	numberer := services.NewNumberer(db)
	company := services.NewCompanyService(db, rec)
	interventions := services.NewInterventionService(db, rec, store, log)
	invoices := services.NewInvoiceService(db, numberer, company, pdf.NewRenderer(), store, rec, m, log)
	invoices.SetVATRate(opts.VATRate)
	pipeline := ingest.New(db, rec, m, log, ingest.Options{TempDir: opts.TempDir, VATRate: opts.VATRate})
	exporter := export.New(db)

	return &RouterConfig{
		AuthGate: authGate,
		Sessions: sessions,
		Audit:    rec,
		Metrics:  m,

		AdminProfileHandler: handlers.NewAdminProfileHandler(db, authGate, rec, log),
		AdminUserHandler:    handlers.NewAdminUserHandler(db, authGate, rec, log),
		ActionLogHandler:    handlers.NewActionLogHandler(rec, authGate, log),
		AuthHandler:         handlers.NewAuthHandler(db, sessions, authGate, log),

		PartnerHandler:      handlers.NewPartnerHandler(services.NewPartnerService(db, rec), authGate, log),
		BatchHandler:        handlers.NewBatchHandler(services.NewBatchService(db, rec), authGate, log),
		InterventionHandler: handlers.NewInterventionHandler(interventions, authGate, opts.VATRate, log),
		FuelLogHandler:      handlers.NewFuelLogHandler(services.NewFuelLogService(db, rec), authGate, log),
		InvoiceHandler:      handlers.NewInvoiceHandler(invoices, numberer, interventions, authGate, log),
		CompanyHandler:      handlers.NewCompanyHandler(company, authGate, log),
		DashboardHandler:    handlers.NewDashboardHandler(services.NewDashboardService(db), authGate, log),
		UploadHandler:       handlers.NewUploadHandler(pipeline, authGate, log),
		ExportHandler:       handlers.NewExportHandler(exporter, authGate, log),

		Numberer:       numberer,
		InvoiceService: invoices,
		Pipeline:       pipeline,
		Exporter:       exporter,
	}, nil
}

// userExists drops sessions whose user has been deleted.
func userExists(db *gorm.DB) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	}
}
