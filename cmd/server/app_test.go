package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/auth"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/db"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/dbtest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/export"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/metrics"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	adminEmail = "admin@dash.ma"
	agentEmail = "agent@dash.ma"
	password   = "s3cret-pass"
)

// newServer seeds an admin and an agent and serves the full application.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn := dbtest.Open(t)
	require.NoError(t, db.Seed(conn, adminEmail, password))

	var agent models.Profile
	require.NoError(t, conn.Where("name = ?", db.ProfileAgent).First(&agent).Error)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.User{Email: agentEmail, Name: "Agent", Password: hash, ProfileID: &agent.ID}).Error)

	cfg, err := policy.NewRouterConfig(conn, metrics.New(), nil, policy.Options{
		MediaDir:      t.TempDir(),
		SessionSecret: "test-secret",
		TempDir:       t.TempDir(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewApp(conn, cfg, nil))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func loggedIn(t *testing.T, srv *httptest.Server, email string) *client {
	c := newClient(t, srv)
	res := c.do(http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, res.StatusCode)
	return c
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) *http.Response {
	c.t.Helper()
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).StatusCode)

	res := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, res)["database"])

	res = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dash_http_requests_total")
}

func TestSessionLifecycle(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	res := c.do(http.MethodGet, "/interventions", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "unauthorized", decode[map[string]any](t, res)["error"])

	res = c.do(http.MethodPost, "/login", map[string]string{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = c.do(http.MethodPost, "/login", map[string]string{"email": "  ADMIN@dash.ma ", "password": password})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = c.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	me := decode[struct {
		User  models.User `json:"user"`
		Admin bool        `json:"admin"`
	}](t, res)
	assert.True(t, me.Admin)
	assert.Equal(t, adminEmail, me.User.Email)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/logout", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/me", nil).StatusCode)
}

func createIntervention(t *testing.T, c *client, ref string) models.Intervention {
	t.Helper()
	res := c.do(http.MethodPost, "/interventions", map[string]any{
		"reference":  ref,
		"date":       "05/02/2025",
		"event":      "accident",
		"plate":      "12345-A-6",
		"location":   "AGADIR",
		"gross_cost": "1200",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	return decode[models.Intervention](t, res)
}

func TestAgentsOnlyReachTheirOwnRecords(t *testing.T) {
	srv := newServer(t)
	admin := loggedIn(t, srv, adminEmail)
	agent := loggedIn(t, srv, agentEmail)

	theirs := createIntervention(t, admin, "D-1")
	// tax derived from the gross at the default 20% rate
	assert.Equal(t, "200", theirs.TaxAmount.String())

	mine := createIntervention(t, agent, "D-2")

	path := func(it models.Intervention) string { return fmt.Sprintf("/interventions/%d", it.ID) }
	assert.Equal(t, http.StatusForbidden, agent.do(http.MethodGet, path(theirs), nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, agent.do(http.MethodDelete, path(theirs), nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, agent.do(http.MethodPost, fmt.Sprintf("/invoices/generate/%d", theirs.ID), nil).StatusCode)
	assert.Equal(t, http.StatusOK, agent.do(http.MethodGet, path(mine), nil).StatusCode)
	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, path(mine), nil).StatusCode)

	res := agent.do(http.MethodGet, "/interventions", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	page := decode[struct {
		Items []models.Intervention `json:"items"`
		Total int64                 `json:"total"`
	}](t, res)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "D-2", page.Items[0].Reference)

	// profile permissions: agents may read partners but not create them
	assert.Equal(t, http.StatusOK, agent.do(http.MethodGet, "/partners", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, agent.do(http.MethodPost, "/partners", map[string]string{"name": "AXA"}).StatusCode)

	for _, p := range []string{"/action-logs", "/export/intervention", "/admin/users", "/admin/profiles"} {
		assert.Equal(t, http.StatusForbidden, agent.do(http.MethodGet, p, nil).StatusCode, p)
	}
}

func TestGenerateAndDownloadInvoice(t *testing.T) {
	srv := newServer(t)
	admin := loggedIn(t, srv, adminEmail)
	it := createIntervention(t, admin, "D-9")
	year := time.Now().Year()

	res := admin.do(http.MethodGet, "/next-invoice-number", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, fmt.Sprintf("1/%d", year), decode[map[string]string](t, res)["invoice_number"])

	res = admin.do(http.MethodPost, fmt.Sprintf("/invoices/generate/%d", it.ID), map[string]string{"billing_name": "AXA ASSURANCE"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("1/%d", year), res.Header.Get("X-Invoice-Number"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "inline")
	doc, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	res = admin.do(http.MethodGet, "/next-invoice-number", nil)
	assert.Equal(t, fmt.Sprintf("2/%d", year), decode[map[string]string](t, res)["invoice_number"])

	invoiceID := admin.do(http.MethodPost, fmt.Sprintf("/invoices/generate/%d", it.ID), nil).Header.Get("X-Invoice-Id")
	require.NotEmpty(t, invoiceID)

	res = admin.do(http.MethodGet, "/invoices/"+invoiceID+"/download", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")

	res = admin.do(http.MethodGet, "/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	inv := decode[models.Invoice](t, res)
	assert.Equal(t, fmt.Sprintf("1/%d", year), inv.Number)
	assert.Equal(t, "1000", inv.NetAmount.String())
	assert.Equal(t, "1200", inv.GrossAmount.String())

	res = admin.do(http.MethodPut, "/invoices/"+invoiceID, map[string]any{
		"net_amount": "1000", "tax_amount": "100", "gross_amount": "1200",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, "amount_mismatch", decode[map[string]any](t, res)["error"])
}

func fuelUpload(t *testing.T, kind string) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sh := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sh, "A4", &[]any{"DATE", "VEHICULE", "SERVICE", "POMPISTE", "PRIX DH"}))
	require.NoError(t, f.SetSheetRow(sh, "A5", &[]any{"02/01/2025", "12345-A-6", "Remorquage", "Said", 410}))
	xlsx, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", "carburant.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadExportAndActionLog(t *testing.T) {
	srv := newServer(t)
	admin := loggedIn(t, srv, adminEmail)

	body, ctype := fuelUpload(t, "fuel-log")
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ctype)
	res := admin.send(req)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	result := decode[struct {
		Created int      `json:"created"`
		Errors  []string `json:"errors"`
	}](t, res)
	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Errors)

	body, ctype = fuelUpload(t, "products")
	req, err = http.NewRequest(http.MethodPost, srv.URL+"/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ctype)
	assert.Equal(t, http.StatusBadRequest, admin.send(req).StatusCode)

	res = admin.do(http.MethodGet, "/export/fuel-log", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, export.ContentType, res.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Disposition"), `attachment; filename="fuel-log_export_`))
	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodGet, "/export/bogus", nil).StatusCode)

	res = admin.do(http.MethodGet, "/action-logs?severity=medium&limit=1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	logs := decode[struct {
		Items []models.ActionLog `json:"items"`
		Total int64              `json:"total"`
	}](t, res)
	require.Len(t, logs.Items, 1)
	assert.GreaterOrEqual(t, logs.Total, int64(1))
	assert.Contains(t, logs.Items[0].Action, "Upload de 1")

	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodGet, "/action-logs?severity=urgent", nil).StatusCode)
}

func TestDashboardStats(t *testing.T) {
	srv := newServer(t)
	admin := loggedIn(t, srv, adminEmail)
	createIntervention(t, admin, "D-1")

	res := admin.do(http.MethodGet, "/dashboard/profit-loss", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	pl := decode[map[string]any](t, res)
	assert.NotNil(t, pl)

	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/dashboard", nil).StatusCode)
	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/dashboard/top-locations?n=3", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, admin.do(http.MethodGet, "/dashboard/top-locations?n=0", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, admin.do(http.MethodGet, "/dashboard/unknown", nil).StatusCode)
}
