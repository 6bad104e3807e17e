package waitlist

import (
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

func NewWaitlistController(
	service WaitlistService,
	logger *log.Logger,
) *router.RESTController {

	return router.NewAPIController(
		"WaitlistController",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			waitlistCreationLimiter := createWaitlistCreationRateLimiter(rs, logger)

			rs.AddPostHandler(c, waitlistCreationLimiter, "", createWaitlistEntryHandler(service))
			rs.AddGetHandler(c, nil, "", listWaitlistEntriesHandler(service))
			rs.AddDeleteHandler(c, nil, "", clearWaitlistHandler(service))
			rs.AddGetHandler(c, nil, "/count", countWaitlistEntriesHandler(service))
			rs.AddGetHandler(c, nil, "/contacts/count", contactCountHandler(service))
		},
	)
}

func createWaitlistCreationRateLimiter(routerService *router.RouterService, logger *log.Logger) ratelimit.RateLimiter {
	const waitlistCreationRequestsPerMinute = 30

	config := &ratelimit.RateLimitConfig{
		Requests:  waitlistCreationRequestsPerMinute,
		Window:    time.Minute,
		Redis:     routerService.RedisClient(),
		KeyPrefix: "ratelimit:waitlist:create:",
		Logger:    logger,
	}

	return ratelimit.NewRateLimiter(config)
}

func createWaitlistEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req CreateWaitlistEntryRequest

		if result := router.BindJSON(ctx, &req); result != nil {
			return result
		}

		response, err := service.Create(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist entry created successfully")
	}
}

func listWaitlistEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.List(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist entries retrieved successfully")
	}
}

func countWaitlistEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Count(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist count retrieved successfully")
	}
}

func clearWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.ClearAll(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Waitlist cleared successfully")
	}
}

func contactCountHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.ExternalContactCount(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Contact count retrieved successfully")
	}
}
