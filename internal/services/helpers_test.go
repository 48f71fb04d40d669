package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/realtime/bus"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/types"
)

type testEnv struct {
	db        *gorm.DB
	links     LinkService
	points    DataPointService
	plan      PlanViewService
	replan    ReplanService
	impact    ImpactService
	linkRepo  repos.MeasureLinkRepo
	pointRepo repos.MeasureDataPointRepo
	adjRepo   repos.ReplanAdjustmentRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A second pooled connection to :memory: would be a second,
	// empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&types.MeasureLink{}, &types.MeasureDataPoint{}, &types.ReplanAdjustment{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	linkRepo := repos.NewMeasureLinkRepo(db, log)
	pointRepo := repos.NewMeasureDataPointRepo(db, log)
	adjRepo := repos.NewReplanAdjustmentRepo(db, log)
	notifier := NewPlanNotifier(bus.NewNoopBus())
	lookup := NewAllowAllLookup()

	return &testEnv{
		db:        db,
		links:     NewLinkService(db, log, linkRepo, lookup, notifier),
		points:    NewDataPointService(db, log, linkRepo, pointRepo, notifier),
		plan:      NewPlanViewService(db, log, linkRepo, pointRepo),
		replan:    NewReplanService(db, log, linkRepo, pointRepo, adjRepo, notifier),
		impact:    NewImpactService(db, log, linkRepo, pointRepo, planning.DefaultImpactBands()),
		linkRepo:  linkRepo,
		pointRepo: pointRepo,
		adjRepo:   adjRepo,
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return ts
}

func fp(v float64) *float64 { return &v }

func idp() *uuid.UUID {
	id := uuid.New()
	return &id
}
