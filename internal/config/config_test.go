package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)

	assert.False(t, cfg.Engine.AssumeStandardRate)
	assert.Equal(t, "18", cfg.Engine.StandardRate.String())
	assert.Equal(t, 3, cfg.Engine.TimeBarMonths)
	assert.Equal(t, 12, cfg.Engine.StalePeriodMonths)
	assert.Equal(t, "18", cfg.Engine.InterestRatePercent.String())

	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, int64(3600), cfg.S3.PresignExpiry)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GSTFILING_DB_HOST", "db.internal")
	t.Setenv("GSTFILING_DB_PORT", "6543")
	t.Setenv("GSTFILING_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GSTFILING_ENGINE_ASSUME_STANDARD_RATE", "true")
	t.Setenv("GSTFILING_ENGINE_STANDARD_RATE", "12")
	t.Setenv("GSTFILING_ENGINE_TIME_BAR_MONTHS", "6")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Engine.AssumeStandardRate)
	assert.Equal(t, "12", cfg.Engine.StandardRate.String())

	tbl := cfg.Engine.Table()
	assert.Equal(t, 6, tbl.TimeBarMonths())
	assert.Equal(t, "12", tbl.StandardRate().String())
}

func TestLoad_S3Archive(t *testing.T) {
	t.Setenv("GSTFILING_S3_BUCKET", "gst-exports")
	t.Setenv("GSTFILING_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("GSTFILING_S3_PRESIGN_EXPIRY", "600")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "gst-exports", cfg.S3.Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, int64(600), cfg.S3.PresignExpiry)
}

func TestLoad_PortOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GSTFILING_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_ExplicitPortWins(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GSTFILING_SERVER_PORT", ":7000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Port)
}

func TestLoad_InvalidRate(t *testing.T) {
	t.Setenv("GSTFILING_ENGINE_STANDARD_RATE", "eighteen")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", c.DSN())
}
