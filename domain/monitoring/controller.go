package monitoring

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Database int    `json:"database"` // 1 = healthy, 0 = unhealthy/not configured
	Cache    int    `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Backend  string `json:"backend"`  // active waitlist backend
	Uptime   int    `json:"uptime"`   // uptime in seconds
}

type MonitoringController struct {
	database  Pinger
	cache     Pinger
	backend   string
	logger    *log.Logger
	startTime time.Time
}

// NewMonitoringController accepts nil database and cache; both then report 0.
func NewMonitoringController(database Pinger, cache Pinger, backend string, logger *log.Logger) *router.RESTController {
	ctrl := &MonitoringController{
		database:  database,
		cache:     cache,
		backend:   backend,
		logger:    logger,
		startTime: time.Now(),
	}

	return router.NewAPIController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			monitoringRateLimiter := createMonitoringRateLimiter(routerService)

			routerService.AddGetHandler(controller, nil, "/", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.greet(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func createMonitoringRateLimiter(routerService *router.RouterService) ratelimit.RateLimiter {

	const monitoringRequestsPerMinute = 10

	config := &ratelimit.RateLimitConfig{
		Requests:  monitoringRequestsPerMinute,
		Window:    time.Minute,
		Redis:     routerService.RedisClient(),
		KeyPrefix: "ratelimit:monitoring:",
	}

	return ratelimit.NewRateLimiter(config)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Debug("Health check endpoint called")
	healthStatus := ctrl.performHealthChecks(c.Request.Context(), logger)

	return router.OKResult(healthStatus, "waitlist-api health check completed")
}

func (ctrl *MonitoringController) greet(
	c *router.RequestContext,
) *router.ServiceResult {
	return router.OKResult(nil, "Hello World")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return HealthStatus{
		Database: pingStatus(ctx, "Database", ctrl.database, logger),
		Cache:    pingStatus(ctx, "Cache", ctrl.cache, logger),
		Backend:  ctrl.backend,
		Uptime:   int(time.Since(ctrl.startTime).Seconds()),
	}
}

func pingStatus(ctx context.Context, name string, target Pinger, logger *log.Logger) int {
	if target == nil {
		logger.Debug(name + " not configured, health check skipped")
		return 0
	}

	if err := target.Ping(ctx); err != nil {
		logger.Error(name+" health check failed", "error", err)
		return 0
	}

	return 1
}
