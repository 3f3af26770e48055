package handlers

import (
	"net/http"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/ingest"
	"go.uber.org/zap"
)

// MaxUploadSize bounds one spreadsheet upload.
const MaxUploadSize = 32 << 20

// UploadHandler feeds multipart spreadsheet uploads to the ingestion pipeline.
type UploadHandler struct {
	base
	pipeline *ingest.Pipeline
}

func NewUploadHandler(pipeline *ingest.Pipeline, gate *access.AuthGate, log *zap.Logger) *UploadHandler {
	return &UploadHandler{base: newBase(gate, log), pipeline: pipeline}
}

// Upload expects the form fields file, kind and optionally batch. Rejected
// rows are reported in the body; the status is 201 even when none were created.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.fail(w, apperr.Validation("invalid multipart form", map[string]string{"file": "invalid"}))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, apperr.Validation("no file uploaded", map[string]string{"file": "required"}))
		return
	}
	defer file.Close()

	res, err := h.pipeline.Ingest(r.Context(), ingest.Request{
		Kind:     r.FormValue("kind"),
		Filename: header.Filename,
		Body:     file,
		Batch:    r.FormValue("batch"),
		Actor:    a,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	httpx.JSON(w, http.StatusCreated, res)
}
