package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/constants"
	"github.com/akeren/waitlist-api/pkg/docstore"
	"github.com/akeren/waitlist-api/pkg/emailjs"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultWaitlistFile         = "data/waitlist.json"
	DefaultContactCountCacheTTL = 60 * time.Second
)

type ApplicationConfig struct {
	// DocumentStore is nil when MONGO_URL is not set.
	DocumentStore   docstore.Store
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	EmailJS         emailjs.Config
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	WaitlistFile          string
	FetchLimit            int64
	StrictEmailValidation bool
	ContactCountCacheTTL  time.Duration
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests:     constants.DefaultRateLimitRequests,
		RateLimitWindow:       constants.DefaultRateLimitWindow(),
		RequestTimeout:        30 * time.Second,
		WaitlistFile:          DefaultWaitlistFile,
		FetchLimit:            docstore.DefaultFetchLimit,
		StrictEmailValidation: GetBoolFromEnv("STRICT_EMAIL_VALIDATION", true),
		ContactCountCacheTTL:  GetDurationFromEnv("CONTACT_COUNT_CACHE_TTL", DefaultContactCountCacheTTL),
	}

	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			config.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			config.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			config.RequestTimeout = parsed
		}
	}

	if file := sanitizeEnv(os.Getenv("WAITLIST_FILE")); file != "" {
		config.WaitlistFile = file
	}

	return config
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DocumentStore != nil {
		CloseDocumentStore(ac.DocumentStore, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// LoadApplicationConfiguration builds every shared dependency once. The router is
// skipped when withRouter is false so the CLI can reuse the same wiring.
func LoadApplicationConfiguration(ctx context.Context, logger *log.Logger, withRouter bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	tracingCfg := NewTracingConfig()
	tp, err := SetupTracing(tracingCfg, logger)
	if err != nil {
		return nil, err
	}

	var tracingShutdown func(context.Context) error
	var tracerProvider trace.TracerProvider
	if tp != nil {
		tracingShutdown = tp.Shutdown
		tracerProvider = tp
	}

	storeCfg := NewDocumentStoreConfig()
	store, err := storeCfg.NewDocumentStoreOrNil(ctx, tracerProvider, logger)
	if err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()
	appConfig.FetchLimit = storeCfg.FetchLimit

	cache := NewCacheConfig().NewCacheOrNil(logger)

	var routerService *router.RouterService
	if withRouter {
		routerService = router.CreateRouterService(logger, cache, &router.RouterConfig{
			RateLimitRequests:  appConfig.RateLimitRequests,
			RateLimitWindow:    appConfig.RateLimitWindow,
			RequestTimeout:     appConfig.RequestTimeout,
			TracingServiceName: tracingCfg.MiddlewareServiceName(),
		})
	}

	logger.Info("Application configuration loaded successfully",
		"document_store", store != nil,
		"cache", cache != nil,
		"waitlist_file", appConfig.WaitlistFile,
	)

	return &ApplicationConfig{
		DocumentStore:   store,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		EmailJS:         NewEmailJSConfig(),
		TracingShutdown: tracingShutdown,
	}, nil
}
