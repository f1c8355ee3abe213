package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/auth"
	"github.com/example/crm-platform/internal/platform/config"
	"github.com/example/crm-platform/internal/platform/httpserver"
	"github.com/example/crm-platform/internal/platform/logging"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/internal/platform/run"
	"github.com/example/crm-platform/services/crm/internal/handlers"
	"github.com/example/crm-platform/services/crm/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	rs, ready, closeStore := initRecords(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	contacts := store.NewContactStore(rs)
	companies := store.NewCompanyStore(rs)
	deals := store.NewDealStore(rs)
	notifications := store.NewNotificationStore(rs)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: ready})

	// Public reads.
	r.Get("/v1/contacts", handlers.ListContacts(contacts))
	r.Get("/v1/contacts/{contact_id}", handlers.GetContact(contacts))
	r.Get("/v1/companies", handlers.ListCompanies(companies))
	r.Get("/v1/companies/{company_id}", handlers.GetCompany(companies))
	r.Get("/v1/deals", handlers.ListDeals(deals))
	r.Get("/v1/deals/{deal_id}", handlers.GetDeal(deals))

	// Writes and per-user data require auth.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/contacts", handlers.CreateContact(contacts))
		r.Put("/v1/contacts/{contact_id}", handlers.UpdateContact(contacts))
		r.Delete("/v1/contacts/{contact_id}", handlers.DeleteContact(contacts))
		r.Post("/v1/contacts/bulk-stage", handlers.BulkUpdateContactStage(contacts))
		r.With(auth.RequireAdmin).Post("/v1/contacts/bulk-delete", handlers.BulkDeleteContacts(contacts))

		r.Post("/v1/companies", handlers.CreateCompany(companies))
		r.Put("/v1/companies/{company_id}", handlers.UpdateCompany(companies))
		r.Delete("/v1/companies/{company_id}", handlers.DeleteCompany(companies))

		r.Post("/v1/deals", handlers.CreateDeal(deals))
		r.Put("/v1/deals/{deal_id}/stage", handlers.UpdateDealStage(deals))
		r.Delete("/v1/deals/{deal_id}", handlers.DeleteDeal(deals))

		r.Get("/v1/notifications", handlers.ListNotifications(notifications))
		r.Get("/v1/notifications/unread-count", handlers.UnreadCount(notifications))
		r.Post("/v1/notifications/{notification_id}/read", handlers.MarkNotificationRead(notifications))
		r.Post("/v1/notifications/read-all", handlers.MarkAllNotificationsRead(notifications))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initRecords selects the record store backend, requiring Postgres in
// production.
func initRecords(cfg config.AppConfig, log *zap.Logger) (record.Store, func() error, func()) {
	dsn := cfg.Records.DatabaseURL
	if dsn == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory record store (development only)")
		return record.NewMemory(), func() error { return nil }, nil
	}

	pg, err := record.OpenPostgres(context.Background(), dsn)
	if err == nil {
		err = pg.EnsureSchema(context.Background())
	}
	if err != nil {
		if pg != nil {
			pg.Close()
		}
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory record store", zap.Error(err))
		return record.NewMemory(), func() error { return nil }, nil
	}

	log.Info("record store: postgres")
	ready := func() error { return pg.Ping(context.Background()) }
	return pg, ready, pg.Close
}
