package app

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/utils"
)

type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowOrigins   []string
	ImpactBands    planning.ImpactBands
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		ServiceName:    utils.GetEnv("SERVICE_NAME", "stride-backend", log),
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		Version:        utils.GetEnv("SERVICE_VERSION", "dev", log),
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		AllowOrigins:   origins,
		ImpactBands:    loadImpactBands(log),
	}
}

// loadImpactBands reads the impact classification cutoffs from the
// yaml file named by IMPACT_BANDS_PATH, falling back to the built-in
// defaults when the file is absent or malformed.
func loadImpactBands(log *logger.Logger) planning.ImpactBands {
	path := utils.GetEnv("IMPACT_BANDS_PATH", "", log)
	if path == "" {
		return planning.DefaultImpactBands()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read impact bands file, using defaults", "path", path, "error", err)
		return planning.DefaultImpactBands()
	}
	bands := planning.DefaultImpactBands()
	if err := yaml.Unmarshal(raw, &bands); err != nil {
		log.Warn("Could not parse impact bands file, using defaults", "path", path, "error", err)
		return planning.DefaultImpactBands()
	}
	if bands.HighMin <= bands.MediumMin || bands.MediumMin <= 0 {
		log.Warn("Impact bands out of order, using defaults", "path", path)
		return planning.DefaultImpactBands()
	}
	return bands
}
