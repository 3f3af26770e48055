package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// Error renders err with the status of its kind. Unexpected errors are logged
// and only their code reaches the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		JSONError(w, status, "internal_error", nil)
		return
	}
	resp := ErrorResponse{Error: "error"}
	if ae := asAppError(err); ae != nil {
		resp.Error = ae.Code()
		resp.Message = ae.Message()
		resp.Details = ae.Details()
	}
	JSON(w, status, resp)
}

// DecodeJSON decodes a JSON request body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") && r.Header.Get("Content-Type") != "" {
		return apperr.Validation("expected application/json body", nil)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.New(apperr.KindValidation, "invalid_json", "malformed JSON body")
	}
	return nil
}

func asAppError(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
