package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Seedgta1/N8/internal/application"
	appaccounts "github.com/Seedgta1/N8/internal/application/accounts"
	appbilling "github.com/Seedgta1/N8/internal/application/billing"
	appoutreach "github.com/Seedgta1/N8/internal/application/outreach"
	appscans "github.com/Seedgta1/N8/internal/application/scans"
	appscripts "github.com/Seedgta1/N8/internal/application/scripts"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/infra/ai/prompt"
	"github.com/Seedgta1/N8/internal/infra/auth"
	"github.com/Seedgta1/N8/internal/infra/db/memory"
	"github.com/Seedgta1/N8/internal/middleware"
)

const adminEmail = "admin@gdpr.example.it"

type env struct {
	handler  http.Handler
	accounts *appaccounts.Service
}

func newEnv(t *testing.T, opt Options) *env {
	t.Helper()
	catalog, err := compliance.DefaultCatalog()
	require.NoError(t, err)
	gen, err := compliance.NewGenerator(catalog, compliance.ThresholdStandard)
	require.NoError(t, err)

	clock := application.FixedClock(time.Date(2026, 10, 19, 10, 58, 0, 0, time.UTC))
	log := zap.NewNop()
	scanRepo := memory.NewScanRepository()
	profiles := memory.NewProfileRepository()

	acc := &appaccounts.Service{
		Users:      memory.NewUserRepository(),
		Profiles:   profiles,
		Tokens:     auth.NewIssuer("test-secret", time.Hour),
		Clock:      clock,
		Log:        log,
		AdminEmail: adminEmail,
		BcryptCost: bcrypt.MinCost,
	}
	svc := Services{
		Scans: &appscans.Service{
			Repo: scanRepo, Generator: gen, Clock: clock, Log: log,
			PublicHost: "gdpr.example.it", Location: time.UTC,
		},
		Accounts: acc,
		Billing:  &appbilling.Service{Accounts: acc, Log: log},
		Scripts: &appscripts.Service{
			Scans: scanRepo, Profiles: profiles, Repo: memory.NewScriptRepository(),
			Fallback: prompt.Template{}, Clock: clock, Log: log,
		},
		Outreach: &appoutreach.Service{
			Scans: scanRepo, Repo: memory.NewOfferRepository(), Clock: clock, Log: log,
		},
		Catalog: catalog,
	}
	return &env{handler: NewRouter(svc, opt), accounts: acc}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// login signs up (when needed) and returns a bearer token
func (e *env) login(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[map[string]any](t, rec)

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)["token"].(string), user["id"].(string)
}

type scanResponse struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	IsCompliant      bool   `json:"is_compliant"`
	IssuesCount      int    `json:"issues_count"`
	ScanDateLocale   string `json:"scan_date_locale"`
	UserID           string `json:"user_id"`
	PotentialFineEUR int    `json:"potential_fine_eur"`
	Saved            bool   `json:"saved"`
}

func TestHealthAndCatalog(t *testing.T) {
	e := newEnv(t, Options{})
	rec := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 14, decode[map[string]any](t, rec)["count"])
}

func TestAnonymousScan(t *testing.T) {
	e := newEnv(t, Options{})

	rec := e.do(t, http.MethodPost, "/v1/scans", "", map[string]string{"url": "example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[scanResponse](t, rec)
	assert.Equal(t, "https://example.com", res.URL)
	assert.False(t, res.IsCompliant)
	assert.Equal(t, 4, res.IssuesCount)
	assert.Equal(t, 28000, res.PotentialFineEUR)
	assert.True(t, res.Saved)
	assert.Equal(t, "lunedì 19 ottobre 2026 alle ore 10:58", res.ScanDateLocale)
	assert.Empty(t, res.UserID)

	rec = e.do(t, http.MethodGet, "/v1/scans/"+res.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// anonymous scans cannot be turned into scripts or offers
	rec = e.do(t, http.MethodPost, "/v1/scans/"+res.ID+"/script", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScanErrors(t *testing.T) {
	e := newEnv(t, Options{})
	tests := []struct {
		name string
		body any
		want int
	}{
		{"self scan", map[string]string{"url": "https://gdpr.example.it/privacy"}, http.StatusUnprocessableEntity},
		{"invalid url", map[string]string{"url": "http://%zz"}, http.StatusBadRequest},
		{"missing url", map[string]string{}, http.StatusBadRequest},
		{"unknown field", map[string]any{"url": "a.it", "mode": "x"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/v1/scans", "", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/v1/scans/not-a-uuid", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/v1/scans/0b6c4c3e-3c9b-4a55-9d0a-2b1f1d0c4e11", "", nil).Code)
}

func TestAccounts(t *testing.T) {
	e := newEnv(t, Options{})
	e.login(t, "mario@rossi.it")

	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "MARIO@rossi.it", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "luigi@rossi.it", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "mario@rossi.it", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/me/scans", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = e.do(t, http.MethodGet, "/v1/me/scans", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnedScanFlow(t *testing.T) {
	e := newEnv(t, Options{})
	token, userID := e.login(t, "mario@rossi.it")
	other, _ := e.login(t, "anna@bianchi.it")

	rec := e.do(t, http.MethodPost, "/v1/scans", token, map[string]string{"url": "https://example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	scan := decode[scanResponse](t, rec)
	assert.Equal(t, userID, scan.UserID)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/v1/scans/"+scan.ID, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/v1/scans/"+scan.ID, other, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/v1/scans/"+scan.ID, token, nil).Code)

	rec = e.do(t, http.MethodGet, "/v1/me/scans?q=EXAMPLE", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["totalItems"])

	// scripts need a subscription
	rec = e.do(t, http.MethodPost, "/v1/scans/"+scan.ID+"/script", token, nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, http.StatusPaymentRequired, e.do(t, http.MethodGet, "/v1/me/scripts/eligible", token, nil).Code)

	require.NoError(t, e.accounts.MarkSubscribed(context.Background(), accounts.UserID(userID), "cus_1"))

	rec = e.do(t, http.MethodPost, "/v1/scans/"+scan.ID+"/script", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	script := decode[map[string]any](t, rec)
	assert.Equal(t, "template", script["source"])
	assert.Contains(t, script["script"], "(function () {")

	rec = e.do(t, http.MethodGet, "/v1/me/scripts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = e.do(t, http.MethodGet, "/v1/me/scripts/eligible", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = e.do(t, http.MethodGet, "/v1/me/subscription", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["is_subscribed"])

	// offer preview + simulated delivery
	rec = e.do(t, http.MethodGet, "/v1/scans/"+scan.ID+"/offer", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Report Conformità GDPR per https://example.com - Azioni Urgenti Richieste",
		decode[map[string]any](t, rec)["subject"])

	rec = e.do(t, http.MethodPost, "/v1/scans/"+scan.ID+"/offer", token, map[string]string{"recipient": "bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodPost, "/v1/scans/"+scan.ID+"/offer", token, map[string]string{"recipient": " info@example.com "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "simulated", decode[map[string]any](t, rec)["status"])

	rec = e.do(t, http.MethodGet, "/v1/scans/"+scan.ID+"/offers", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	// payments are not configured in this env
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodPost, "/v1/billing/checkout", token, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodPost, "/v1/billing/webhook", "", map[string]string{}).Code)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, "/v1/me/scans/"+scan.ID, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/v1/me/scans/"+scan.ID, token, nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv(t, Options{})
	admin, _ := e.login(t, adminEmail)
	user, _ := e.login(t, "mario@rossi.it")

	for _, u := range []string{"example.com", "https://www.esempio.it", "http://test.com"} {
		require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/scans", user, map[string]string{"url": u}).Code)
	}

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/v1/admin/scans", user, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/v1/admin/scans", "", nil).Code)

	rec := e.do(t, http.MethodGet, "/v1/admin/scans?q=esempio&page_size=10", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, page["totalItems"])
	assert.EqualValues(t, 10, page["pageSize"])

	rec = e.do(t, http.MethodGet, "/v1/admin/summary?days=7", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]any](t, rec)["summary"].(map[string]any)
	assert.EqualValues(t, 3, summary["total_scans"])

	rec = e.do(t, http.MethodDelete, "/v1/admin/scans", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["deleted"])
}

func TestRateLimitAndMetrics(t *testing.T) {
	m := middleware.NewMetrics()
	e := newEnv(t, Options{Limiter: middleware.NewRateLimiter(0.001, 2), Metrics: m})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/v1/scans", "", map[string]string{"url": "a.it"}).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, "/v1/scans", "", map[string]string{"url": "a.it"}).Code)

	rec := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `status="429"`)
}

func TestRateLimit_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	proxies, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	e := newEnv(t, Options{Limiter: middleware.NewRateLimiter(0.001, 2), TrustedProxies: proxies})

	post := func(remote, forwarded string) int {
		raw, err := json.Marshal(map[string]string{"url": "a.it"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/v1/scans", bytes.NewReader(raw))
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	codes := map[int]int{}
	for i := 0; i < 20; i++ {
		codes[post("203.0.113.7:5555", fmt.Sprintf("198.51.100.%d", i))]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 2, http.StatusTooManyRequests: 18}, codes)

	// behind a trusted proxy each forwarded client has its own limiter
	assert.Equal(t, http.StatusCreated, post("10.0.0.2:443", "192.0.2.1"))
	assert.Equal(t, http.StatusCreated, post("10.0.0.2:443", "192.0.2.2"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusBadGateway, statusFor(appoutreach.ErrDeliveryFailed))
	assert.Equal(t, http.StatusConflict, statusFor(appbilling.ErrAlreadySubscribed))
}
