package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/activity"
	"github.com/example/crm-platform/internal/platform/auth"
	"github.com/example/crm-platform/internal/platform/config"
	"github.com/example/crm-platform/internal/platform/httpserver"
	"github.com/example/crm-platform/internal/platform/logging"
	"github.com/example/crm-platform/internal/platform/natsconn"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/internal/platform/run"
	"github.com/example/crm-platform/services/collab/internal/handlers"
	"github.com/example/crm-platform/services/collab/internal/thread"
	"github.com/example/crm-platform/services/collab/internal/worker"
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

	js := initJetStream(cfg, log)
	events := activity.New(js, logging.Named(log, "activity"))
	svc := thread.NewService(rs, events, logging.Named(log, "thread"))

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: ready})

	// Thread routes (public read, auth required for write).
	r.Get("/v1/deals/{deal_id}/comments", handlers.GetThread(svc))
	r.Get("/v1/comments/{comment_id}/reactions", handlers.GetReactions(svc))
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/deals/{deal_id}/comments", handlers.CreateComment(svc))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(svc))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(svc))
		r.Post("/v1/comments/{comment_id}/replies", handlers.CreateReply(svc))
		r.Put("/v1/comments/{comment_id}/replies/{reply_id}", handlers.UpdateReply(svc))
		r.Delete("/v1/comments/{comment_id}/replies/{reply_id}", handlers.DeleteReply(svc))
		r.Post("/v1/comments/{comment_id}/reactions", handlers.React(svc))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if js != nil {
			consumer := worker.NewMentionsConsumer(rs, logging.Named(log, "mentions_consumer"))
			if err := consumer.Start(ctx, js); err != nil {
				log.Warn("mentions consumer disabled", zap.Error(err))
			}
		}

		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initRecords selects the record store backend. In production it requires a
// working Postgres connection and terminates the process otherwise.
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

// initJetStream connects to NATS; absence is non-fatal, events are dropped.
func initJetStream(cfg config.AppConfig, log *zap.Logger) nats.JetStreamContext {
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
	if err != nil {
		log.Warn("nats unavailable, activity events disabled", zap.Error(err))
		return nil
	}
	js, err := nc.JetStream()
	if err != nil {
		log.Warn("jetstream unavailable, activity events disabled", zap.Error(err))
		nc.Close()
		return nil
	}
	return js
}
