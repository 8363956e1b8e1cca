// Package httpapi wires the orchestration engine behind HTTP: one endpoint
// that runs tasks through the fallback chain, settings CRUD for provider
// connections, and a health check. All tenant-scoped routes sit behind the
// JWT tenant middleware.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"ai_orchestrator/internal/config"
	"ai_orchestrator/internal/middleware"
	"ai_orchestrator/internal/orchestrator"
	"ai_orchestrator/internal/providers"
	"ai_orchestrator/internal/queue"
	"ai_orchestrator/internal/registry"
	"ai_orchestrator/internal/storage"
	"ai_orchestrator/internal/usage"
	"ai_orchestrator/internal/utils"
)

// Dependencies holds everything the router builds, exposed so main can shut
// it down in order.
type Dependencies struct {
	DB          *storage.DB
	Vault       *storage.Vault
	Cache       *storage.ProviderCache
	Registry    *registry.Service
	Queue       queue.Queue
	DLQ         queue.DeadLetterQueue
	UsageWorker *usage.Worker
}

// Close releases resources in reverse dependency order.
func (d *Dependencies) Close() error {
	if d.UsageWorker != nil {
		if err := d.UsageWorker.Stop(); err != nil {
			return err
		}
	}
	if d.Queue != nil {
		d.Queue.Close()
	}
	if d.DLQ != nil {
		d.DLQ.Close()
	}
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// NewRouter builds the HTTP mux and all services behind it. The usage
// worker is started here; the caller stops it through Dependencies.Close.
func NewRouter(ctx context.Context, cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	logger := utils.NewLogger("router")

	db, err := storage.NewDB(storage.DBConfig{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}

	vault, err := storage.NewVault(cfg.CredentialKey)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	cache := storage.NewProviderCache(cfg.ProviderCache.MaxTenants, cfg.ProviderCache.TTL, time.Now)
	providerRepo := db.NewProviderRepository()
	reg := registry.NewService(providerRepo, cache)

	queueConfig := queue.DefaultConfig(cfg.Usage.QueueName)
	queueConfig.BatchSize = cfg.Usage.BatchSize
	queueConfig.BatchTimeout = cfg.Usage.BatchTimeout
	queueConfig.MaxRetries = cfg.Usage.MaxRetries
	if cfg.Redis.Address != "" {
		queueConfig.UseRedis = true
		queueConfig.RedisAddr = cfg.Redis.Address
		queueConfig.RedisPassword = cfg.Redis.Password
		queueConfig.RedisDB = cfg.Redis.DB
	}

	usageQueue, dlq, err := queue.New(queueConfig)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	usageRepo := db.NewUsageRepository()
	usageWorker := usage.NewWorker(usageQueue, dlq, usageRepo, queueConfig)
	usageWorker.Start(ctx)

	factory := providers.NewFactory(cfg.Provider.RequestTimeout)
	runner := orchestrator.NewRunner()

	taskHandler := NewTaskHandler(reg, vault, factory, runner, usageWorker)
	providersHandler := NewProvidersHandler(providerRepo, vault, reg)
	usageHandler := NewUsageHandler(usageRepo)

	tenantOnly := middleware.TenantMiddleware(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.Handle("/ai/tasks", tenantOnly(http.HandlerFunc(taskHandler.Run)))
	mux.Handle("/ai/providers", tenantOnly(http.HandlerFunc(providersHandler.HandleCollection)))
	mux.Handle("/ai/providers/", tenantOnly(http.HandlerFunc(providersHandler.HandleItem)))
	mux.Handle("/ai/usage", tenantOnly(http.HandlerFunc(usageHandler.Summary)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Health(ctx); err != nil {
			utils.RespondWithError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	logger.Info("Router initialized",
		"redis_queue", queueConfig.UseRedis,
		"cache_ttl", cfg.ProviderCache.TTL,
		"provider_timeout", cfg.Provider.RequestTimeout)

	deps := &Dependencies{
		DB:          db,
		Vault:       vault,
		Cache:       cache,
		Registry:    reg,
		Queue:       usageQueue,
		DLQ:         dlq,
		UsageWorker: usageWorker,
	}

	return mux, deps, nil
}
