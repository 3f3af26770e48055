package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminProfileHandler manages authorization profiles and their permissions.
// Every change flushes the permission cache.
type AdminProfileHandler struct {
	base
	db    *gorm.DB
	audit *audit.Recorder
}

func NewAdminProfileHandler(db *gorm.DB, gate *access.AuthGate, rec *audit.Recorder, log *zap.Logger) *AdminProfileHandler {
	return &AdminProfileHandler{base: newBase(gate, log), db: db, audit: rec}
}

// List returns all profiles with their permissions.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.db.WithContext(r.Context()).Preload("Permissions").Order("name").Find(&profiles).Error; err != nil {
		h.fail(w, apperr.Unexpected("list profiles", err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

type profileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (p *profileRequest) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" {
		return apperr.Validation("name is required", map[string]string{"name": "required"})
	}
	if len(p.Name) > 100 {
		return apperr.Validation("name is too long", map[string]string{"name": "too_long"})
	}
	return nil
}

func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.normalize(); err != nil {
		h.fail(w, err)
		return
	}

	profile := models.Profile{Name: req.Name, Description: req.Description}
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return profileError(err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Création Profil", Details: profile.Name, Model: "profile", RecordID: profile.ID, Severity: models.SeverityMedium,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *AdminProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	profile, err := h.load(r, false)
	if err != nil {
		h.fail(w, err)
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.normalize(); err != nil {
		h.fail(w, err)
		return
	}
	if profile.IsSystem && req.Name != profile.Name {
		h.fail(w, apperr.PermissionDenied("system profiles cannot be renamed"))
		return
	}
	profile.Name, profile.Description = req.Name, req.Description

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(profile).Error; err != nil {
			return profileError(err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Modification Profil", Details: profile.Name, Model: "profile", RecordID: profile.ID, Severity: models.SeverityMedium,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.gate.CacheResolver.InvalidateProfile(profile.ID)
	httpx.JSON(w, http.StatusOK, profile)
}

// Delete removes a profile that is neither a system profile nor assigned to anyone.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	profile, err := h.load(r, true)
	if err != nil {
		h.fail(w, err)
		return
	}
	if profile.IsSystem {
		h.fail(w, apperr.PermissionDenied("system profiles cannot be deleted"))
		return
	}
	if len(profile.Users) > 0 {
		h.fail(w, apperr.Validation("profile is assigned to users", map[string]string{"users": "not_empty"}))
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(profile).Association("Permissions").Clear(); err != nil {
			return apperr.Unexpected("clear permissions", err)
		}
		if err := tx.Delete(profile).Error; err != nil {
			return apperr.Unexpected("delete profile", err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Suppression Profil", Details: profile.Name, Model: "profile", RecordID: profile.ID, Severity: models.SeverityHigh,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.gate.CacheResolver.InvalidateProfile(profile.ID)
	w.WriteHeader(http.StatusNoContent)
}

type permissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

// SetPermissions replaces the permissions of a profile.
func (h *AdminProfileHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	profile, err := h.load(r, false)
	if err != nil {
		h.fail(w, err)
		return
	}
	var req permissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}

	permissions := []models.Permission{}
	if len(req.PermissionIDs) > 0 {
		if err := h.db.WithContext(r.Context()).Where("id IN ?", req.PermissionIDs).Find(&permissions).Error; err != nil {
			h.fail(w, apperr.Unexpected("load permissions", err))
			return
		}
		if len(permissions) != len(uniq(req.PermissionIDs)) {
			h.fail(w, apperr.Validation("unknown permission", map[string]string{"permission_ids": "not_found"}))
			return
		}
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(profile).Association("Permissions").Replace(permissions); err != nil {
			return apperr.Unexpected("replace permissions", err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Modification Permissions Profil", Details: profile.Name, Model: "profile", RecordID: profile.ID, Severity: models.SeverityHigh,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.gate.CacheResolver.InvalidateProfile(profile.ID)
	profile.Permissions = permissions
	httpx.JSON(w, http.StatusOK, profile)
}

// ListPermissions returns every grantable permission.
func (h *AdminProfileHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var permissions []models.Permission
	if err := h.db.WithContext(r.Context()).Order("resource_type, action").Find(&permissions).Error; err != nil {
		h.fail(w, apperr.Unexpected("list permissions", err))
		return
	}
	httpx.JSON(w, http.StatusOK, permissions)
}

func (h *AdminProfileHandler) load(r *http.Request, withUsers bool) (*models.Profile, error) {
	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	tx := h.db.WithContext(r.Context())
	if withUsers {
		tx = tx.Preload("Users")
	}
	var profile models.Profile
	if err := tx.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("profile")
		}
		return nil, apperr.Unexpected("load profile", err)
	}
	return &profile, nil
}

func profileError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
		return apperr.Validation("name already exists", map[string]string{"name": "duplicate"})
	}
	return apperr.Unexpected("save profile", err)
}

func uniq(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
