package app

import (
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/repos"
)

type Repos struct {
	MeasureLink      repos.MeasureLinkRepo
	MeasureDataPoint repos.MeasureDataPointRepo
	ReplanAdjustment repos.ReplanAdjustmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		MeasureLink:      repos.NewMeasureLinkRepo(db, log),
		MeasureDataPoint: repos.NewMeasureDataPointRepo(db, log),
		ReplanAdjustment: repos.NewReplanAdjustmentRepo(db, log),
	}
}
