package access_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/dbtest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

func seedUsers(t *testing.T, d *gorm.DB) (admin, agent models.User) {
	t.Helper()
	if err := db.SeedProfiles(d); err != nil {
		t.Fatal(err)
	}
	var adminP, agentP models.Profile
	d.Where("name = ?", db.ProfileAdmin).First(&adminP)
	d.Where("name = ?", db.ProfileAgent).First(&agentP)
	admin = models.User{Email: "admin@example.com", Name: "Admin", Password: "x", ProfileID: &adminP.ID}
	agent = models.User{Email: "agent@example.com", Password: "x", ProfileID: &agentP.ID}
	if err := d.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}
	if err := d.Create(&agent).Error; err != nil {
		t.Fatal(err)
	}
	return admin, agent
}

func TestAuthGate_Actor(t *testing.T) {
	d := dbtest.Open(t)
	admin, agent := seedUsers(t, d)
	ag := access.NewAuthGate(d, time.Minute, nil)

	a, err := ag.Actor(auth.WithUserID(context.Background(), admin.ID))
	if err != nil || !a.Admin || a.Name != "Admin" {
		t.Fatalf("admin actor = %+v, %v", a, err)
	}
	a, err = ag.Actor(auth.WithUserID(context.Background(), agent.ID))
	if err != nil || a.Admin || a.Name != "agent@example.com" {
		t.Fatalf("agent actor = %+v, %v", a, err)
	}
	if _, err := ag.Actor(context.Background()); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("anonymous actor err = %v", err)
	}
}

func TestAuthGate_OwnershipOnInterventions(t *testing.T) {
	d := dbtest.Open(t)
	admin, agent := seedUsers(t, d)
	ag := access.NewAuthGate(d, time.Minute, nil)
	theirs := &models.Intervention{UserID: &admin.ID}

	agentCtx := auth.WithUserID(context.Background(), agent.ID)
	err := ag.Authorize(agentCtx, access.ActionUpdate, access.ResourceIntervention, theirs)
	if !apperr.Is(err, apperr.KindPermissionDenied) {
		t.Fatalf("agent on foreign intervention: %v", err)
	}
	mine := &models.Intervention{UserID: &agent.ID}
	if err := ag.Authorize(agentCtx, access.ActionUpdate, access.ResourceIntervention, mine); err != nil {
		t.Fatalf("agent on own intervention: %v", err)
	}
	adminCtx := auth.WithUserID(context.Background(), admin.ID)
	if err := ag.Authorize(adminCtx, access.ActionDelete, access.ResourceIntervention, mine); err != nil {
		t.Fatalf("admin bypass: %v", err)
	}
}

func TestAuthGate_RequireAdmin(t *testing.T) {
	d := dbtest.Open(t)
	admin, agent := seedUsers(t, d)
	ag := access.NewAuthGate(d, time.Minute, nil)
	h := ag.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		uid  uint
		want int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"agent", agent.ID, http.StatusForbidden},
		{"admin", admin.ID, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/export/fuel-log", nil)
			if tc.uid != 0 {
				req = req.WithContext(auth.WithUserID(req.Context(), tc.uid))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAuthGate_RequirePermission(t *testing.T) {
	d := dbtest.Open(t)
	_, agent := seedUsers(t, d)
	ag := access.NewAuthGate(d, time.Minute, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	ctx := auth.WithUserID(context.Background(), agent.ID)

	rec := httptest.NewRecorder()
	ag.RequirePermission(access.ResourcePartner, access.ActionList)(ok).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partners", nil).WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Fatalf("partner list status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ag.RequirePermission(access.ResourcePartner, access.ActionDelete)(ok).
		ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/partners/1", nil).WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("partner delete status = %d", rec.Code)
	}
}
