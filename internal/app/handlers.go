package app

import (
	"github.com/stridehq/stride-backend/internal/handlers"
	"github.com/stridehq/stride-backend/internal/logger"
)

type Handlers struct {
	Link      *handlers.LinkHandler
	DataPoint *handlers.DataPointHandler
	PlanView  *handlers.PlanViewHandler
	Replan    *handlers.ReplanHandler
	Impact    *handlers.ImpactHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Link:      handlers.NewLinkHandler(log, services.Link),
		DataPoint: handlers.NewDataPointHandler(log, services.DataPoint),
		PlanView:  handlers.NewPlanViewHandler(log, services.PlanView),
		Replan:    handlers.NewReplanHandler(log, services.Replan),
		Impact:    handlers.NewImpactHandler(log, services.Impact),
	}
}
