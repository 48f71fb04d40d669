package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
)

func TestLoadImpactBands(t *testing.T) {
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	writeBands := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "bands.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write bands file: %v", err)
		}
		return path
	}

	t.Run("defaults when unset", func(t *testing.T) {
		t.Setenv("IMPACT_BANDS_PATH", "")
		if got := loadImpactBands(log); got != planning.DefaultImpactBands() {
			t.Fatalf("want defaults, got %+v", got)
		}
	})

	t.Run("reads configured cutoffs", func(t *testing.T) {
		t.Setenv("IMPACT_BANDS_PATH", writeBands(t, "high_min: 20\nmedium_min: 5\n"))
		got := loadImpactBands(log)
		if got.HighMin != 20 || got.MediumMin != 5 {
			t.Fatalf("want {20 5}, got %+v", got)
		}
	})

	t.Run("missing file falls back", func(t *testing.T) {
		t.Setenv("IMPACT_BANDS_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
		if got := loadImpactBands(log); got != planning.DefaultImpactBands() {
			t.Fatalf("want defaults, got %+v", got)
		}
	})

	t.Run("out of order falls back", func(t *testing.T) {
		t.Setenv("IMPACT_BANDS_PATH", writeBands(t, "high_min: 2\nmedium_min: 5\n"))
		if got := loadImpactBands(log); got != planning.DefaultImpactBands() {
			t.Fatalf("want defaults, got %+v", got)
		}
	})
}
