package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	base
	db       *gorm.DB
	sessions *auth.Sessions
}

func NewAuthHandler(db *gorm.DB, sessions *auth.Sessions, gate *access.AuthGate, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(gate, log), db: db, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.fail(w, apperr.Validation("email and password are required", map[string]string{"email": "required", "password": "required"}))
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Preload("Profile").Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(w, apperr.Unexpected("load user", err))
		return
	}
	if err != nil || !auth.CheckPassword(user.Password, req.Password) {
		h.log.Info("login refused", zap.String("email", email))
		h.fail(w, apperr.Unauthorized())
		return
	}

	h.sessions.Create(w, user.ID)
	h.log.Info("login", zap.Uint("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User  models.User `json:"user"`
	Admin bool        `json:"admin"`
}

// Me returns the current user with its profile and permissions.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).Preload("Profile.Permissions").First(&user, a.ID).Error; err != nil {
		h.fail(w, apperr.Unexpected("load user", err))
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: user, Admin: a.Admin})
}
