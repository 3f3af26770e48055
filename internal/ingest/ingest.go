// Package ingest turns uploaded spreadsheets into intervention and fuel log rows.
// Invalid rows are reported by line and skipped; valid rows are bulk inserted
// with duplicate keys ignored.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/metrics"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/sheet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchSize is the number of rows per INSERT statement.
const BatchSize = 200

// Request is one upload.
type Request struct {
	Kind     string
	Filename string
	Body     io.Reader
	// Batch optionally tags imported interventions with a batch code.
	Batch string
	Actor access.Actor
}

// Result is returned even when nothing was created.
type Result struct {
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

// Options tune a Pipeline. Zero values pick the defaults.
type Options struct {
	TempDir string
	VATRate decimal.Decimal
}

// Pipeline is stateless between calls and safe for concurrent use.
type Pipeline struct {
	db      *gorm.DB
	audit   *audit.Recorder
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options
}

func New(db *gorm.DB, rec *audit.Recorder, m *metrics.Metrics, log *zap.Logger, opts Options) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = audit.NewRecorder(db, log)
	}
	if opts.VATRate.IsZero() {
		opts.VATRate = billing.DefaultVATRate
	}
	return &Pipeline{db: db, audit: rec, metrics: m, log: log, opts: opts}
}

// Ingest validates the request, reads the workbook and persists its rows.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (Result, error) {
	if !req.Actor.Admin {
		return Result{}, apperr.PermissionDenied("only administrators can upload spreadsheets")
	}
	if !sheet.Supported(req.Filename) {
		return Result{}, apperr.Validation("the file must be an Excel workbook (.xlsx or .xls)", map[string]string{"file": "unsupported_format"})
	}
	kind, ok := models.ParseSheetKind(req.Kind)
	if !ok {
		return Result{}, apperr.Validation("kind must be 'intervention' or 'fuel-log'", map[string]string{"kind": "invalid_choice"})
	}
	batchCode := strings.TrimSpace(req.Batch)
	if len([]rune(batchCode)) > 50 {
		return Result{}, apperr.Validation("batch code is too long", map[string]string{"batch": "too_long"})
	}

	rows, err := p.readUpload(req)
	if err != nil {
		return Result{}, err
	}

	log := p.log.With(zap.String("kind", string(kind)), zap.String("file", req.Filename), zap.Uint("actor_id", req.Actor.ID))
	log.Info("spreadsheet loaded", zap.Int("rows", len(rows)))

	var res Result
	switch kind {
	case models.SheetFuelLogs:
		res, err = p.ingestFuelLogs(ctx, rows, req.Actor)
	default:
		res, err = p.ingestInterventions(ctx, rows, req.Actor, batchCode)
	}
	if err != nil {
		log.Error("import failed", zap.Error(err))
		return Result{}, err
	}

	p.metrics.ObserveImport(string(kind), res.Created, len(res.Errors))
	log.Info("import finished", zap.Int("created", res.Created), zap.Int("rejected", len(res.Errors)))

	if err := p.audit.Record(ctx, req.Actor, audit.Entry{
		Action:   summary(kind, res.Created),
		Details:  fmt.Sprintf("fichier %s, %d ligne(s) rejetée(s)", filepath.Base(req.Filename), len(res.Errors)),
		Model:    string(kind),
		Severity: models.SeverityMedium,
	}); err != nil {
		// rows are already committed; the import itself succeeded
		log.Warn("import not recorded in action log", zap.Error(err))
	}
	return res, nil
}

func summary(kind models.SheetKind, created int) string {
	if kind == models.SheetFuelLogs {
		return fmt.Sprintf("Upload de %d entrées Suivi Carburant via Excel", created)
	}
	return fmt.Sprintf("Upload de %d interventions via Excel", created)
}

// readUpload spools the body to a temporary file that is removed on return.
func (p *Pipeline) readUpload(req Request) ([][]string, error) {
	if req.Body == nil {
		return nil, apperr.Validation("no file provided", map[string]string{"file": "required"})
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	tmp, err := os.CreateTemp(p.opts.TempDir, "upload-*"+ext)
	if err != nil {
		return nil, apperr.Unexpected("create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, req.Body); err != nil {
		tmp.Close()
		return nil, apperr.Validation("could not read the uploaded file", nil)
	}
	if err := tmp.Close(); err != nil {
		return nil, apperr.Unexpected("flush temp file", err)
	}

	rows, err := sheet.ReadFile(tmp.Name(), ext)
	if err != nil {
		p.log.Warn("unreadable workbook", zap.String("file", req.Filename), zap.Error(err))
		return nil, apperr.Validation("the file could not be read as an Excel workbook", nil)
	}
	return rows, nil
}

// insert bulk inserts rows, ignoring conflicts, and returns the number of rows written.
func insert[T any](ctx context.Context, db *gorm.DB, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, BatchSize)
	if res.Error != nil {
		return 0, apperr.Unexpected("bulk insert", res.Error)
	}
	return int(res.RowsAffected), nil
}

func lineError(line int, msg string) string {
	return fmt.Sprintf("line %d: %s", line, msg)
}
