package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"

	"go.uber.org/zap"

	"github.com/Seedgta1/N8/internal/application"
	appaccounts "github.com/Seedgta1/N8/internal/application/accounts"
	appbilling "github.com/Seedgta1/N8/internal/application/billing"
	appoutreach "github.com/Seedgta1/N8/internal/application/outreach"
	appscans "github.com/Seedgta1/N8/internal/application/scans"
	appscripts "github.com/Seedgta1/N8/internal/application/scripts"
	"github.com/Seedgta1/N8/internal/config"
	"github.com/Seedgta1/N8/internal/domain/accounts"
	"github.com/Seedgta1/N8/internal/domain/compliance"
	"github.com/Seedgta1/N8/internal/domain/outreach"
	"github.com/Seedgta1/N8/internal/domain/scans"
	"github.com/Seedgta1/N8/internal/domain/scripts"
	"github.com/Seedgta1/N8/internal/infra/ai/openai"
	"github.com/Seedgta1/N8/internal/infra/ai/prompt"
	"github.com/Seedgta1/N8/internal/infra/auth"
	"github.com/Seedgta1/N8/internal/infra/cache"
	"github.com/Seedgta1/N8/internal/infra/db/memory"
	mysqlp "github.com/Seedgta1/N8/internal/infra/db/mysql"
	"github.com/Seedgta1/N8/internal/infra/db/postgres"
	"github.com/Seedgta1/N8/internal/infra/httpserver"
	"github.com/Seedgta1/N8/internal/infra/mail"
	"github.com/Seedgta1/N8/internal/infra/payments"
	"github.com/Seedgta1/N8/internal/infra/storage"
	"github.com/Seedgta1/N8/internal/middleware"
)

type repositories struct {
	scans    scans.Repository
	users    accounts.UserRepository
	profiles accounts.ProfileRepository
	scripts  scripts.Repository
	offers   outreach.Repository
}

type app struct {
	services httpserver.Services
	metrics  *middleware.Metrics
	limiter  *middleware.RateLimiter
	health   map[string]middleware.HealthChecker
	proxies  []netip.Prefix
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// openRepositories pilih driver database dari config
func openRepositories(ctx context.Context, cfg *config.Config) (repositories, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN(), cfg.Database.Pool)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			scans:    mysqlp.NewScanRepository(db),
			users:    mysqlp.NewUserRepository(db),
			profiles: mysqlp.NewProfileRepository(db),
			scripts:  mysqlp.NewScriptRepository(db),
			offers:   mysqlp.NewOfferRepository(db),
		}, db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN(), cfg.Database.Pool)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			scans:    postgres.NewScanRepository(db),
			users:    postgres.NewUserRepository(db),
			profiles: postgres.NewProfileRepository(db),
			scripts:  postgres.NewScriptRepository(db),
			offers:   postgres.NewOfferRepository(db),
		}, db, nil
	default:
		return repositories{
			scans:    memory.NewScanRepository(),
			users:    memory.NewUserRepository(),
			profiles: memory.NewProfileRepository(),
			scripts:  memory.NewScriptRepository(),
			offers:   memory.NewOfferRepository(),
		}, nil, nil
	}
}

// wire builds every adapter and service. Optional integrations stay off
// when their section is empty.
func wire(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*app, error) {
	a := &app{
		metrics: middleware.NewMetrics(),
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		health:  map[string]middleware.HealthChecker{},
	}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fail(err)
	}
	a.proxies = proxies

	catalog, err := compliance.LoadCatalog(cfg.Scan.CatalogPath)
	if err != nil {
		return fail(fmt.Errorf("load catalog: %w", err))
	}
	gen, err := compliance.NewGenerator(catalog, cfg.Threshold())
	if err != nil {
		return fail(err)
	}

	repos, db, err := openRepositories(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if db != nil {
		a.closers = append(a.closers, db.Close)
		a.health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	var artifacts scans.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return fail(fmt.Errorf("minio init: %w", err))
		}
		artifacts = store
		a.health["storage"] = store
	}

	var scriptCache scripts.Cache
	if cfg.Redis.Address != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, client.Close)
		c := cache.NewScriptCache(client)
		scriptCache = c
		a.health["redis"] = c
	}

	clock := application.SystemClock{}
	acc := &appaccounts.Service{
		Users:      repos.users,
		Profiles:   repos.profiles,
		Tokens:     auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Expiry),
		Clock:      clock,
		Log:        zl.Named("accounts"),
		AdminEmail: cfg.Auth.AdminEmail,
	}

	billing := &appbilling.Service{Accounts: acc, Log: zl.Named("billing")}
	if cfg.Stripe.SecretKey != "" {
		gw, err := payments.NewGateway(payments.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			PriceID:       cfg.Stripe.PriceID,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		})
		if err != nil {
			return fail(fmt.Errorf("stripe init: %w", err))
		}
		billing.Gateway = gw
	} else {
		zl.Warn("stripe not configured, checkout disabled")
	}

	scriptSvc := &appscripts.Service{
		Scans:     repos.scans,
		Profiles:  repos.profiles,
		Repo:      repos.scripts,
		Cache:     scriptCache,
		Fallback:  prompt.Template{},
		Artifacts: artifacts,
		Clock:     clock,
		Log:       zl.Named("scripts"),
		Observer:  a.metrics,
		CacheTTL:  cfg.Redis.ScriptTTL,
	}
	if cfg.OpenAI.APIKey != "" {
		scriptSvc.AI = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	} else {
		zl.Info("openai not configured, using template scripts")
	}

	outreachSvc := &appoutreach.Service{
		Scans:    repos.scans,
		Repo:     repos.offers,
		Clock:    clock,
		Log:      zl.Named("outreach"),
		Observer: a.metrics,
	}
	if cfg.SMTP.Host != "" {
		m, err := mail.NewMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return fail(fmt.Errorf("smtp init: %w", err))
		}
		outreachSvc.Mailer = m
	} else {
		zl.Info("smtp not configured, offer emails are simulated")
	}

	scanSvc := &appscans.Service{
		Repo:       repos.scans,
		Generator:  gen,
		Clock:      clock,
		Log:        zl.Named("scans"),
		Observer:   a.metrics,
		Artifacts:  artifacts,
		PublicHost: cfg.Server.PublicHost,
		Location:   cfg.Location(),
	}

	a.services = httpserver.Services{
		Scans:    scanSvc,
		Accounts: acc,
		Billing:  billing,
		Scripts:  scriptSvc,
		Outreach: outreachSvc,
		Catalog:  catalog,
	}
	return a, nil
}
