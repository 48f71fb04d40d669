package app

import (
	"github.com/gin-gonic/gin"

	"github.com/stridehq/stride-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:      cfg.ServiceName,
		AllowOrigins:     cfg.AllowOrigins,
		AuthMiddleware:   middleware.Auth,
		LinkHandler:      handlers.Link,
		DataPointHandler: handlers.DataPoint,
		PlanViewHandler:  handlers.PlanView,
		ReplanHandler:    handlers.Replan,
		ImpactHandler:    handlers.Impact,
	})
}
