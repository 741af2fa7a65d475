package api

import (
	"os"

	"firewatch/internal/allocator"
	"firewatch/internal/config"
	"firewatch/internal/escalation"
	"firewatch/internal/signals"
	"firewatch/internal/store"
	"firewatch/internal/triage"
	"firewatch/internal/webhooks"
)

type Server struct {
	Cfg       config.Config
	Store     store.Store
	Engine    *triage.Engine
	Allocator *allocator.Allocator
	Predictor *escalation.Predictor
	Pub       *webhooks.Publisher
	Broker    EventBroker
}

// NewServer wires the pipeline. With no DATABASE_URL the in-memory store is
// used; with no REDIS_URL the in-process broker is used.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if os.Getenv("DB_MIGRATE") != "false" {
			if err := sp.MigrateDir("db/migrations"); err != nil {
				return nil, err
			}
		}
		s = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	gatherers := signals.New(s)
	gatherers.Timeout = cfg.GathererTimeout

	engine := triage.NewEngine(gatherers, cfg.Weights)

	return &Server{
		Cfg:       cfg,
		Store:     s,
		Engine:    engine,
		Allocator: allocator.New(cfg.Weights),
		Predictor: escalation.New(gatherers),
		Pub:       webhooks.NewPublisher(s),
		Broker:    broker,
	}, nil
}

// NewWebhookWorker creates the background delivery worker.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}
