// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"formgen-workers/internal/common/camunda"
	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/database"
	"formgen-workers/internal/common/logger"
	"formgen-workers/internal/common/observability"
	"formgen-workers/internal/forms/generator"
	"formgen-workers/pkg/registry"

	cr "formgen-workers/internal/workers/form-generation/chat-reply"
	gcc "formgen-workers/internal/workers/form-generation/generate-custom-component"
	gf "formgen-workers/internal/workers/form-generation/generate-form"
)

type workerHandler interface {
	Register() error
	Close()
	GetTaskType() string
	HealthCheck(ctx context.Context) error
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.Tracing, cfg.App.Name)
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis result cache ---
	var cache *database.RedisClient
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			cache, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return cache.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer cache.Close()
		zapLog.Info("Redis connected successfully", zap.String("address", cfg.Database.Redis.Address))
	}

	// --- Generation pipeline ---
	gen := generator.NewFromConfig(cfg.LLM, log, obs)
	if !gen.IsConfigured() {
		log.Warn("GROQ_API_KEY not configured, form generation will use keyword matching and custom components are unavailable", map[string]interface{}{
			"model": cfg.LLM.Model,
		})
	} else {
		log.Info("AI generation enabled", map[string]interface{}{
			"model":       cfg.LLM.Model,
			"visionModel": cfg.LLM.VisionModel,
			"maxRetries":  cfg.LLM.MaxRetries,
		})
	}

	// --- Workers ---
	formHandler, err := gf.NewHandler(gf.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Logger:        log,
		Generator:     gen,
		Cache:         cache,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create generate-form handler", zap.Error(err))
	}

	componentHandler, err := gcc.NewHandler(gcc.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Logger:        log,
		Generator:     gen,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create generate-custom-component handler", zap.Error(err))
	}

	chatHandler, err := cr.NewHandler(cr.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Logger:        log,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("failed to create chat-reply handler", zap.Error(err))
	}

	handlers := []workerHandler{formHandler, componentHandler, chatHandler}
	for _, h := range handlers {
		if err := h.Register(); err != nil {
			zapLog.Fatal("failed to register worker", zap.String("taskType", h.GetTaskType()), zap.Error(err))
		}
	}
	logRegistry(cfg, zapLog)
	zapLog.Info("All workers registered successfully", zap.Int("count", len(handlers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		for _, h := range handlers {
			if err := h.HealthCheck(checkCtx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"worker": h.GetTaskType(),
					"error":  err.Error(),
				})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.App.HTTPAddress, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.App.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, h := range handlers {
		h.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// logRegistry prints the built-in catalog and checks a deployed registry file
// against it when one is configured.
func logRegistry(cfg *config.Config, log *zap.Logger) {
	catalog := registry.Catalog()
	for _, a := range catalog.Activities {
		log.Info("registered activity",
			zap.String("id", a.ID),
			zap.String("taskType", a.TaskType),
			zap.String("timeout", a.Timeout),
			zap.Bool("enabled", config.IsWorkerEnabled(cfg, a.ID)),
		)
	}

	if cfg.Registry.Path == "" {
		return
	}
	if err := registry.ValidateFile(cfg.Registry.Path); err != nil {
		log.Warn("activity registry file is invalid", zap.String("path", cfg.Registry.Path), zap.Error(err))
		return
	}
	deployed, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry file could not be loaded", zap.String("path", cfg.Registry.Path), zap.Error(err))
		return
	}
	for _, a := range catalog.Activities {
		if _, ok := deployed.Find(a.TaskType); !ok {
			log.Warn("task type missing from activity registry", zap.String("taskType", a.TaskType))
		}
	}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
