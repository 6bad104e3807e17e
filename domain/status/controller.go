package status

import (
	"github.com/akeren/waitlist-api/config/router"
)

func NewStatusController(service StatusService) *router.RESTController {
	return router.NewAPIController(
		"StatusController",
		"/",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, nil, "status", recordStatusCheckHandler(service))
			rs.AddGetHandler(c, nil, "status", listStatusChecksHandler(service))
			rs.AddGetHandler(c, nil, "db/ping", pingHandler(service))
		},
	)
}

func recordStatusCheckHandler(service StatusService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		// An unconfigured store answers 503 whatever the body holds.
		if !service.Available() {
			return router.ServiceUnavailableResult(msgDatabaseNotConfigured)
		}

		var req CreateStatusCheckRequest

		if result := router.BindJSON(ctx, &req); result != nil {
			return result
		}

		response, err := service.Record(ctx.Request.Context(), &req)
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Status check recorded successfully")
	}
}

func listStatusChecksHandler(service StatusService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.ListAll(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Status checks retrieved successfully")
	}
}

func pingHandler(service StatusService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Ping(ctx.Request.Context())
		if err != nil {
			return router.AppErrorResult(err)
		}

		return router.OKResult(response, "Document store reachable")
	}
}
