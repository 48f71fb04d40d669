package app

import (
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/realtime/bus"
	"github.com/stridehq/stride-backend/internal/services"
	"github.com/stridehq/stride-backend/internal/utils"
)

type Services struct {
	Auth      services.AuthService
	Link      services.LinkService
	DataPoint services.DataPointService
	PlanView  services.PlanViewService
	Replan    services.ReplanService
	Impact    services.ImpactService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, bus.Bus) {
	log.Info("Wiring services...")

	eventBus := wireBus(log)
	notifier := services.NewPlanNotifier(eventBus)
	lookup := services.NewAllowAllLookup()

	return Services{
		Auth:      services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Link:      services.NewLinkService(db, log, r.MeasureLink, lookup, notifier),
		DataPoint: services.NewDataPointService(db, log, r.MeasureLink, r.MeasureDataPoint, notifier),
		PlanView:  services.NewPlanViewService(db, log, r.MeasureLink, r.MeasureDataPoint),
		Replan:    services.NewReplanService(db, log, r.MeasureLink, r.MeasureDataPoint, r.ReplanAdjustment, notifier),
		Impact:    services.NewImpactService(db, log, r.MeasureLink, r.MeasureDataPoint, cfg.ImpactBands),
	}, eventBus
}

// wireBus prefers Redis when REDIS_ADDR is configured so that plan
// events fan out across instances; otherwise events stay in-process.
func wireBus(log *logger.Logger) bus.Bus {
	if addr := utils.GetEnv("REDIS_ADDR", "", log); addr == "" {
		log.Info("REDIS_ADDR not set, using noop event bus")
		return bus.NewNoopBus()
	}
	b, err := bus.NewRedisBus(log)
	if err != nil {
		log.Warn("Redis bus init failed, falling back to noop bus", "error", err)
		return bus.NewNoopBus()
	}
	return b
}
