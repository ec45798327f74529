// taskgraph-worker — сервис выполнения pipelines.
//
// Worker:
//   - Получает запросы run.requested из RabbitMQ и выполняет pipelines
//   - Запускает pipelines по cron-расписаниям (TASKGRAPH_SCHEDULES)
//   - Сохраняет runs в memory, PostgreSQL или Redis
//   - Публикует события run.* и task.*
//   - Отдаёт REST API (/api/v1), /healthz и /metrics
//
// При нескольких worker с PostgreSQL расписания выполняет только лидер
// (pg_try_advisory_lock).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/taskgraph/internal/api"
	"github.com/shaiso/taskgraph/internal/config"
	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/mq"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/runner"
	"github.com/shaiso/taskgraph/internal/scheduler"
	"github.com/shaiso/taskgraph/internal/telemetry"
)

const (
	schedLockKey   int64 = 424242
	mqConnectLimit       = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting taskgraph-worker", "store", cfg.Store)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Каталог pipelines
	catalog := pipeline.Builtin()
	if cfg.PipelinesPath != "" {
		n, err := pipeline.LoadInto(catalog, cfg.PipelinesPath)
		if err != nil {
			logger.Error("failed to load pipelines", "path", cfg.PipelinesPath, "error", err)
			os.Exit(1)
		}
		logger.Info("pipelines loaded", "path", cfg.PipelinesPath, "count", n)
	}

	// Хранилище runs
	opened, err := repo.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer opened.Close()
	logger.Info("store opened", "store", cfg.Store)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	if cfg.RabbitMQURL != "" {
		connCtx, connCancel := context.WithTimeout(ctx, mqConnectLimit)
		mqConn, err = mq.NewConnection(connCtx, cfg.RabbitMQURL, logger)
		connCancel()
		if err != nil {
			logger.Warn("RabbitMQ not available, running without message queue", "error", err)
			mqConn = nil
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			// Создаём топологию
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}

			publisher = mq.NewPublisher(mqConn, logger)
		}
	}

	var events runner.EventPublisher
	if publisher != nil {
		events = publisher
	}

	r := runner.New(runner.Config{
		Catalog:     catalog,
		Store:       opened.Store,
		Publisher:   events,
		Metrics:     telemetry.NewMetrics(nil),
		Conn:        mqConn,
		Strategy:    cfg.Strategy(),
		MaxParallel: cfg.Engine.MaxParallel,
		Validate:    cfg.Engine.Validate,
		TaskTimeout: cfg.Engine.TaskTimeout,
		Out:         os.Stdout,
		Logger:      logger,
	})

	if err := r.Start(ctx); err != nil {
		logger.Error("failed to start runner", "error", err)
		os.Exit(1)
	}

	// Расписания
	var schedWG sync.WaitGroup
	var lock *repo.AdvisoryLock
	var schedules func() []domain.Schedule
	entries, err := scheduler.ParseEntries(cfg.Schedules)
	if err != nil {
		logger.Error("invalid schedules", "error", err)
		os.Exit(1)
	}
	if len(entries) > 0 {
		schedCfg := scheduler.Config{
			Schedules: entries,
			Trigger:   cronTrigger(r, publisher),
			Logger:    logger,
		}
		if opened.Pool != nil {
			lock = repo.NewAdvisoryLock(opened.Pool, schedLockKey)
			schedCfg.Leader = lock.TryAcquire
		}

		sched, err := scheduler.New(schedCfg, time.Now())
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}

		schedules = sched.Schedules

		schedWG.Add(1)
		go func() {
			defer schedWG.Done()
			_ = sched.Run(ctx)
		}()
	}

	// HTTP mux: /healthz + /metrics + /api/v1
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if mqConn != nil && !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("mq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok active_runs=%d", r.ActiveRunsCount())
	})
	mux.Handle("/metrics", promhttp.Handler())

	// REST API
	api.NewHandler(api.Config{
		Catalog:   catalog,
		Runs:      opened.Store,
		Runner:    r,
		Schedules: schedules,
		Logger:    logger,
	}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.WorkerAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	schedWG.Wait()
	if lock != nil {
		if err := lock.Release(shutdownCtx); err != nil {
			logger.Warn("failed to release scheduler lock", "error", err)
		}
	}

	// Останавливаем runner
	r.Stop()
	logger.Info("taskgraph-worker stopped")
}

// cronTrigger запускает pipeline по расписанию.
// С RabbitMQ запрос идёт через очередь, иначе run выполняется в этом процессе.
func cronTrigger(r *runner.Runner, publisher *mq.Publisher) scheduler.TriggerFunc {
	return func(ctx context.Context, sched *domain.Schedule) (uuid.UUID, error) {
		if publisher != nil {
			return uuid.Nil, publisher.PublishRunRequested(ctx, mq.RunRequestedPayload{
				Pipeline: sched.Pipeline,
				Strategy: string(sched.Strategy),
				Trigger:  string(domain.TriggerCron),
			})
		}
		return uuid.Nil, r.Submit(ctx, runner.Request{
			Pipeline: sched.Pipeline,
			Strategy: sched.Strategy,
			Trigger:  domain.TriggerCron,
		})
	}
}
