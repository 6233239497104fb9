package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/spotmap/internal/adapters/nats"
	"github.com/samirrijal/spotmap/internal/adapters/postgres"
	"github.com/samirrijal/spotmap/internal/adapters/valkey"
	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/core/ports"
	"github.com/samirrijal/spotmap/internal/core/usecases"
	"github.com/samirrijal/spotmap/internal/pkg/config"
	"github.com/samirrijal/spotmap/internal/pkg/logging"
	"github.com/samirrijal/spotmap/internal/workflows"
)

func main() {
	cfg, err := config.Load("spotmap-tagsweeper")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, cache warming disabled", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	tagSvc := usecases.NewTagService(
		postgres.NewTagRepo(db),
		postgres.NewUserActionRepo(db),
		postgres.NewSpotTagRepo(db),
	)
	spotSvc := usecases.NewSpotService(postgres.NewSpotRepo(db), tagSvc, cacheSvc, nil, cfg.Spots.MaxDistanceKm)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Sweeper.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReconcileTagsWorkflow)
	w.RegisterActivity(&workflows.TagActivities{Sweeper: tagSvc})

	starter := &workflows.Starter{Client: c, TaskQueue: cfg.Sweeper.TaskQueue}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, relying on periodic sweeps only", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeSpotDeleted(ctx, starter.OnSpotDeleted); err != nil {
			log.Fatalf("subscribe spot deleted: %v", err)
		}
		if cacheSvc != nil {
			warm := func(ctx context.Context, ev *domain.SpotEvent) error {
				_, err := spotSvc.GetWithTags(ctx, ev.SpotID)
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return err
			}
			if err := sub.SubscribeSpotCreated(ctx, warm); err != nil {
				log.Fatalf("subscribe spot created: %v", err)
			}
		}
	}

	if cfg.Sweeper.IntervalMinutes > 0 {
		go starter.RunPeriodic(ctx, time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute)
	}

	slog.Info("tag sweeper started", "task_queue", cfg.Sweeper.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
