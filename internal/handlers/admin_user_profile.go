package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminUserHandler lists and creates users and assigns their profile.
type AdminUserHandler struct {
	base
	db    *gorm.DB
	audit *audit.Recorder
}

func NewAdminUserHandler(db *gorm.DB, gate *access.AuthGate, rec *audit.Recorder, log *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{base: newBase(gate, log), db: db, audit: rec}
}

// List returns every user with its profile, plus the assignable profiles.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.WithContext(r.Context()).Preload("Profile").Order("id").Find(&users).Error; err != nil {
		h.fail(w, apperr.Unexpected("list users", err))
		return
	}
	var profiles []models.Profile
	if err := h.db.WithContext(r.Context()).Order("name").Find(&profiles).Error; err != nil {
		h.fail(w, apperr.Unexpected("list profiles", err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":    users,
		"profiles": profiles,
	})
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Name      string `json:"name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	ProfileID *uint  `json:"profile_id"`
}

// Create adds a user with a bcrypt hashed password.
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if v := validation.Struct(req); v != nil {
		h.fail(w, apperr.Validation("invalid input", v))
		return
	}
	if req.ProfileID != nil {
		if err := h.profileExists(r, *req.ProfileID); err != nil {
			h.fail(w, err)
			return
		}
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, apperr.Unexpected("hash password", err))
		return
	}

	user := models.User{Email: req.Email, Name: strings.TrimSpace(req.Name), Password: hash, ProfileID: req.ProfileID}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return apperr.Unexpected("check email", err)
		}
		if n > 0 {
			return apperr.Validation("email already exists", map[string]string{"email": "duplicate"})
		}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Unexpected("create user", err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Création Utilisateur", Details: user.Email, Model: "user", RecordID: user.ID, Severity: models.SeverityMedium,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

type assignProfileRequest struct {
	ProfileID *uint `json:"profile_id"`
}

// AssignProfile sets or clears the profile of a user. A nil profile removes all access.
func (h *AdminUserHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	var req assignProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if req.ProfileID != nil && *req.ProfileID == 0 {
		req.ProfileID = nil
	}
	if req.ProfileID != nil {
		if err := h.profileExists(r, *req.ProfileID); err != nil {
			h.fail(w, err)
			return
		}
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(w, apperr.NotFound("user"))
		} else {
			h.fail(w, apperr.Unexpected("load user", err))
		}
		return
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("profile_id", req.ProfileID).Error; err != nil {
			return apperr.Unexpected("assign profile", err)
		}
		return h.audit.RecordTx(tx, a, audit.Entry{
			Action: "Changement Profil Utilisateur", Details: user.Email, Model: "user", RecordID: user.ID, Severity: models.SeverityHigh,
		})
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	h.gate.InvalidateUser(user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    user.ID,
		"profile_id": req.ProfileID,
	})
}

func (h *AdminUserHandler) profileExists(r *http.Request, id uint) error {
	var n int64
	if err := h.db.WithContext(r.Context()).Model(&models.Profile{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Unexpected("load profile", err)
	}
	if n == 0 {
		return apperr.Validation("unknown profile", map[string]string{"profile_id": "not_found"})
	}
	return nil
}
