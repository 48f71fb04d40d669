package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/stridehq/stride-backend/internal/handlers"
	"github.com/stridehq/stride-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName      string
	AllowOrigins     []string
	AuthMiddleware   *middleware.AuthMiddleware
	LinkHandler      *handlers.LinkHandler
	DataPointHandler *handlers.DataPointHandler
	PlanViewHandler  *handlers.PlanViewHandler
	ReplanHandler    *handlers.ReplanHandler
	ImpactHandler    *handlers.ImpactHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Links
	api.POST("/links", cfg.LinkHandler.CreateLink)
	api.GET("/links", cfg.LinkHandler.ListLinks)
	api.GET("/links/:linkID", cfg.LinkHandler.GetLink)
	api.PATCH("/links/:linkID", cfg.LinkHandler.UpdateMetadata)
	api.DELETE("/links/:linkID", cfg.LinkHandler.Unlink)
	api.POST("/links/:linkID/primary", cfg.LinkHandler.SetPrimary)

	// Data points
	api.POST("/links/:linkID/targets", cfg.DataPointHandler.CreateTarget)
	api.PUT("/links/:linkID/targets", cfg.DataPointHandler.BatchUpsertTargets)
	api.POST("/links/:linkID/actuals", cfg.DataPointHandler.RecordActual)
	api.GET("/links/:linkID/series", cfg.DataPointHandler.GetSeries)
	api.PATCH("/targets/:pointID", cfg.DataPointHandler.UpdateTarget)
	api.PATCH("/actuals/:pointID", cfg.DataPointHandler.UpdateActual)

	// Plan view
	api.GET("/links/:linkID/plan", cfg.PlanViewHandler.GetPlanView)

	// Replanning
	api.POST("/links/:linkID/replan", cfg.ReplanHandler.Adjust)
	api.POST("/links/:linkID/replan/dismiss", cfg.ReplanHandler.Dismiss)
	api.GET("/links/:linkID/replan/history", cfg.ReplanHandler.History)

	// Cross-context impact
	api.GET("/measures/:measureID/impact", cfg.ImpactHandler.GetImpact)

	return router
}
