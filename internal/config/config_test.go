package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despesify/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DB.Driver)
	assert.Equal(t, []string{"nifpt", "registry"}, cfg.NIF.Providers)
	assert.Equal(t, 15*time.Second, cfg.NIF.Timeout)
	assert.Equal(t, "gross", cfg.QR.AmountPolicy)
	assert.Equal(t, "por+eng", cfg.OCR.Languages)
	assert.Equal(t, int64(10*1024*1024), cfg.OCR.MaxFileSizeBytes())
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DESPESIFY_DB_DRIVER", "sqlite")
	t.Setenv("DESPESIFY_DB_SQLITE_PATH", "/tmp/cache.db")
	t.Setenv("DESPESIFY_NIF_PROVIDERS", " registry , ")
	t.Setenv("DESPESIFY_NIF_TIMEOUT", "3s")
	t.Setenv("DESPESIFY_QR_AMOUNT_POLICY", "NET")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/cache.db", cfg.DB.DSN())
	assert.Equal(t, "sqlite:///tmp/cache.db", cfg.DB.MigrateURL())
	assert.Equal(t, []string{"registry"}, cfg.NIF.Providers)
	assert.Equal(t, 3*time.Second, cfg.NIF.Timeout)
	assert.Equal(t, "net", cfg.QR.AmountPolicy)
}

func TestLoad_PortFromPlatform(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoad_RejectsUnknownAmountPolicy(t *testing.T) {
	t.Setenv("DESPESIFY_QR_AMOUNT_POLICY", "rounded")

	_, err := config.Load()
	assert.ErrorContains(t, err, "qr.amount_policy")
}

func TestDBConfig_PostgresDSN(t *testing.T) {
	d := config.DBConfig{Driver: "pgx", User: "u", Password: "p", Host: "db", Port: 5432, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", d.DSN())
	assert.Equal(t, d.DSN(), d.MigrateURL())
}
