package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appaccounts "github.com/Seedgta1/N8/internal/application/accounts"
	appbilling "github.com/Seedgta1/N8/internal/application/billing"
	appoutreach "github.com/Seedgta1/N8/internal/application/outreach"
	appscans "github.com/Seedgta1/N8/internal/application/scans"
	appscripts "github.com/Seedgta1/N8/internal/application/scripts"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/domain/outreach"
	domain "github.com/Seedgta1/N8/internal/domain/scans"
	"github.com/Seedgta1/N8/internal/domain/scripts"
	"github.com/Seedgta1/N8/internal/middleware"
)

// Services yang dipakai router
type Services struct {
	Scans    *appscans.Service
	Accounts *appaccounts.Service
	Billing  *appbilling.Service
	Scripts  *appscripts.Service
	Outreach *appoutreach.Service
	Catalog  *compliance.Catalog
}

// Options for the ambient middleware stack; nil fields are skipped.
// Forwarding headers are honoured only from TrustedProxies.
type Options struct {
	Log            *zap.Logger
	Metrics        *middleware.Metrics
	Limiter        *middleware.RateLimiter
	Health         map[string]middleware.HealthChecker
	CORSOrigins    []string
	TrustedProxies []netip.Prefix
}

type Router struct {
	svc Services
	log *zap.Logger
}

func NewRouter(svc Services, opt Options) http.Handler {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID, middleware.RealIP(opt.TrustedProxies))
	mux.Use(middleware.RequestLogger(log))
	if opt.Metrics != nil {
		mux.Use(opt.Metrics.Middleware)
	}
	mux.Use(chimw.Recoverer)
	if len(opt.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opt.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	mux.Use(middleware.Authenticate(svc.Accounts))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opt.Health))
	mux.Get("/readyz", middleware.HealthHandler(opt.Health))
	if opt.Metrics != nil {
		mux.Handle("/metrics", opt.Metrics.Handler())
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/catalog", r.wrap(r.handleCatalog))
		rt.Post("/auth/signup", r.wrap(r.handleSignUp))
		rt.Post("/auth/login", r.wrap(r.handleLogin))
		rt.Post("/billing/webhook", r.wrap(r.handleWebhook))

		scan := r.wrap(r.handleScan)
		if opt.Limiter != nil {
			rt.With(opt.Limiter.Middleware).Post("/scans", scan)
		} else {
			rt.Post("/scans", scan)
		}
		rt.Get("/scans/{id}", r.wrap(r.handleGet))

		rt.Group(func(user chi.Router) {
			user.Use(middleware.RequireUser)
			user.Get("/me/scans", r.wrap(r.handleMyScans))
			user.Delete("/me/scans/{id}", r.wrap(r.handleDeleteMine))
			user.Get("/me/subscription", r.wrap(r.handleSubscription))
			user.Get("/me/scripts", r.wrap(r.handleScriptHistory))
			user.Get("/me/scripts/eligible", r.wrap(r.handleEligible))
			user.Post("/scans/{id}/script", r.wrap(r.handleGenerateScript))
			user.Get("/scans/{id}/offer", r.wrap(r.handleOfferPreview))
			user.Post("/scans/{id}/offer", r.wrap(r.handleOfferSend))
			user.Get("/scans/{id}/offers", r.wrap(r.handleOfferHistory))
			user.Post("/billing/checkout", r.wrap(r.handleCheckout))
		})

		rt.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			admin.Get("/scans", r.wrap(r.handleAdminScans))
			admin.Delete("/scans", r.wrap(r.handleAdminDeleteAll))
			admin.Delete("/scans/{id}", r.wrap(r.handleAdminDelete))
			admin.Get("/summary", r.wrap(r.handleSummary))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				http.Error(w, "internal error", code)
				return
			}
			http.Error(w, err.Error(), code)
		}
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, accounts.ErrInvalidEmail),
		errors.Is(err, accounts.ErrWeakPassword),
		errors.Is(err, outreach.ErrInvalidRecipient),
		errors.Is(err, appbilling.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrUnauthorized),
		errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, scripts.ErrSubscriptionRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, accounts.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, scripts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrEmailTaken),
		errors.Is(err, appbilling.ErrAlreadySubscribed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSelfScan),
		errors.Is(err, scripts.ErrCompliantScan),
		errors.Is(err, outreach.ErrCompliantScan):
		return http.StatusUnprocessableEntity
	case errors.Is(err, appoutreach.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, appbilling.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func scanIDParam(req *http.Request) (domain.ScanID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return "", err
	}
	return domain.ScanID(id), nil
}

func queryInt(req *http.Request, key string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(key))
	return n
}

func scanFilter(req *http.Request) domain.Filter {
	q := req.URL.Query()
	nonCompliant, _ := strconv.ParseBool(q.Get("non_compliant"))
	return domain.Filter{
		Query:            middleware.SanitizeString(q.Get("q")),
		OnlyNonCompliant: nonCompliant,
		Page:             queryInt(req, "page"),
		PageSize:         queryInt(req, "page_size"),
	}
}

// GET /v1/catalog
func (r *Router) handleCatalog(w http.ResponseWriter, _ *http.Request) error {
	records := r.svc.Catalog.Records()
	return writeJSON(w, http.StatusOK, map[string]any{"count": len(records), "issues": records})
}

// POST /v1/auth/signup
func (r *Router) handleSignUp(w http.ResponseWriter, req *http.Request) error {
	var cmd appaccounts.SignUpCommand
	if err := middleware.DecodeJSON(req, &cmd); err != nil {
		return err
	}
	u, err := r.svc.Accounts.SignUp(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, u)
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := middleware.DecodeJSON(req, &body); err != nil {
		return err
	}
	sess, err := r.svc.Accounts.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sess)
}

// POST /v1/scans
// Body: {"url": "example.com"}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url" validate:"required,max=2048"`
	}
	if err := middleware.DecodeJSON(req, &body); err != nil {
		return err
	}
	p := middleware.PrincipalFrom(req.Context())
	res, err := r.svc.Scans.Scan(req.Context(), appscans.SubmitCommand{URL: body.URL, UserID: string(p.UserID)})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, res)
}

// GET /v1/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	scan, err := r.svc.Scans.Get(req.Context(), middleware.PrincipalFrom(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, scan)
}

// GET /v1/me/scans?q=&page=&page_size=
func (r *Router) handleMyScans(w http.ResponseWriter, req *http.Request) error {
	page, err := r.svc.Scans.ListOwned(req.Context(), middleware.PrincipalFrom(req.Context()), scanFilter(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, page)
}

// DELETE /v1/me/scans/{id}
func (r *Router) handleDeleteMine(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	p := middleware.PrincipalFrom(req.Context())
	p.Admin = false // own scans only on this route
	if err := r.svc.Scans.Delete(req.Context(), p, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/me/subscription
func (r *Router) handleSubscription(w http.ResponseWriter, req *http.Request) error {
	prof, err := r.svc.Accounts.Profile(req.Context(), middleware.PrincipalFrom(req.Context()).UserID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, prof)
}

// GET /v1/me/scripts?limit=
func (r *Router) handleScriptHistory(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(queryInt(req, "limit"))
	list, err := r.svc.Scripts.History(req.Context(), middleware.PrincipalFrom(req.Context()), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*scripts.Script{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/me/scripts/eligible
func (r *Router) handleEligible(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.Scripts.Eligible(req.Context(), middleware.PrincipalFrom(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/scans/{id}/script
func (r *Router) handleGenerateScript(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	s, err := r.svc.Scripts.Generate(req.Context(), middleware.PrincipalFrom(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, s)
}

// GET /v1/scans/{id}/offer
func (r *Router) handleOfferPreview(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	email, err := r.svc.Outreach.Preview(req.Context(), middleware.PrincipalFrom(req.Context()), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, email)
}

// POST /v1/scans/{id}/offer
// Body: {"recipient": "info@example.com"}
func (r *Router) handleOfferSend(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	var body struct {
		Recipient string `json:"recipient" validate:"required"`
	}
	if err := middleware.DecodeJSON(req, &body); err != nil {
		return err
	}
	offer, err := r.svc.Outreach.Send(req.Context(), middleware.PrincipalFrom(req.Context()), id, body.Recipient)
	if errors.Is(err, appoutreach.ErrDeliveryFailed) && offer != nil {
		// attempt is recorded; client gets it with the failure status
		return writeJSON(w, http.StatusBadGateway, offer)
	}
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, offer)
}

// GET /v1/scans/{id}/offers?limit=
func (r *Router) handleOfferHistory(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	limit := middleware.ValidateLimit(queryInt(req, "limit"))
	list, err := r.svc.Outreach.History(req.Context(), middleware.PrincipalFrom(req.Context()), id, limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*outreach.Offer{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/billing/checkout
func (r *Router) handleCheckout(w http.ResponseWriter, req *http.Request) error {
	url, err := r.svc.Billing.Checkout(req.Context(), middleware.PrincipalFrom(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// POST /v1/billing/webhook
func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) error {
	payload, err := io.ReadAll(io.LimitReader(req.Body, 64<<10))
	if err != nil {
		return err
	}
	if err := r.svc.Billing.HandleWebhook(req.Context(), payload, req.Header.Get("Stripe-Signature")); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// GET /v1/admin/scans?q=&page=&page_size=&non_compliant=
func (r *Router) handleAdminScans(w http.ResponseWriter, req *http.Request) error {
	page, err := r.svc.Scans.List(req.Context(), middleware.PrincipalFrom(req.Context()), scanFilter(req))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, page)
}

// DELETE /v1/admin/scans/{id}
func (r *Router) handleAdminDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	if err := r.svc.Scans.Delete(req.Context(), middleware.PrincipalFrom(req.Context()), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DELETE /v1/admin/scans
func (r *Router) handleAdminDeleteAll(w http.ResponseWriter, req *http.Request) error {
	n, err := r.svc.Scans.DeleteAll(req.Context(), middleware.PrincipalFrom(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// GET /v1/admin/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days := middleware.ValidateDays(queryInt(req, "days"))
	summary, err := r.svc.Scans.Summary(req.Context(), middleware.PrincipalFrom(req.Context()), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"days": days, "summary": summary})
}
