// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"ria-hunter/internal/app"
	"ria-hunter/internal/common/camunda"
	"ria-hunter/internal/common/config"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/observability"
	"ria-hunter/pkg/registry"

	// Data Access Workers (2)
	qe "ria-hunter/internal/workers/data-access/query-elasticsearch"
	qp "ria-hunter/internal/workers/data-access/query-postgresql"

	// RIA Search Workers (6)
	dql "ria-hunter/internal/workers/ria-search/decompose-query-llm"
	dqr "ria-hunter/internal/workers/ria-search/decompose-query-rules"
	er "ria-hunter/internal/workers/ria-search/execute-retrieval"
	mrc "ria-hunter/internal/workers/ria-search/merge-rank-candidates"
	sr "ria-hunter/internal/workers/ria-search/search-rias"
	ss "ria-hunter/internal/workers/ria-search/select-strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})
	log.Info("Starting worker manager...", nil)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintext,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Stores ---
	stores, err := app.Connect(ctx, cfg, app.RetryPolicy{Attempts: 15, Delay: 2 * time.Second}, log)
	if err != nil {
		zapLog.Fatal("store connection failed", zap.Error(err))
	}
	defer stores.Close()

	searchDeps, err := app.NewSearchDependencies(cfg, stores, obs, log)
	if err != nil {
		zapLog.Fatal("failed to wire search pipeline", zap.Error(err))
	}

	// --- Workers ---
	pool := camunda.NewWorkerPool(zeebe.GetClient(), log)
	start := func(taskType string, handler worker.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		err := pool.Start(taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler)
		if err != nil {
			zapLog.Fatal("failed to start worker", zap.String("taskType", taskType), zap.Error(err))
		}
	}

	// Orchestrated search
	start(sr.TaskType, sr.NewHandler(app.SearchConfig(cfg), searchDeps, log).Handle)

	// Staged search
	start(dqr.TaskType, dqr.NewHandler(app.RulesConfig(cfg), &rulesLoggerAdapter{log}).Handle)

	if config.IsWorkerEnabled(cfg, dql.TaskType) {
		backend, err := app.NewLLMBackend(cfg)
		switch {
		case err != nil:
			zapLog.Fatal("failed to create llm backend", zap.Error(err))
		case backend == nil:
			log.Info("llm backend disabled, skipping worker", map[string]interface{}{"taskType": dql.TaskType})
		default:
			start(dql.TaskType, dql.NewHandler(app.LLMConfig(cfg), backend, &llmLoggerAdapter{log}).Handle)
		}
	}

	start(ss.TaskType, ss.NewHandler(app.SelectConfig(cfg), &selectLoggerAdapter{log}).Handle)

	index, err := app.NewVectorIndex(cfg, stores)
	if err != nil {
		zapLog.Fatal("failed to create vector index", zap.Error(err))
	}
	start(er.TaskType, er.NewHandler(app.RetrievalConfig(cfg), searchRepository(stores), index, log).Handle)

	start(mrc.TaskType, mrc.NewHandler(app.MergeConfig(cfg), &mergeLoggerAdapter{log}).Handle)

	// Data access
	start(qp.TaskType, qp.NewHandler(app.PostgresWorkerConfig(cfg), stores.Postgres.DB, log).Handle)
	if stores.Elastic != nil {
		start(qe.TaskType, qe.NewHandler(app.ElasticsearchWorkerConfig(cfg), stores.Elastic.Client, log).Handle)
	}

	served := pool.TaskTypes()
	log.Info("workers registered", map[string]interface{}{"taskTypes": served, "count": len(served)})

	// --- Activity Registry ---
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": cfg.Registry.Path, "error": err.Error()})
	} else if err := reg.Validate(served); err != nil {
		zapLog.Fatal("activity registry does not match served workers", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr: cfg.App.HTTPAddress,
		Handler: newHealthMux(func(ctx context.Context) map[string]error {
			checks := stores.HealthCheck(ctx)
			checks["zeebe"] = zeebe.HealthCheck(ctx)
			return checks
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}
