package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedgta1/N8/internal/domain/compliance"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
server:
  port: 9090
  publicHost: gdpr.example.it
database:
  driver: postgres
  host: db
  port: 5432
  user: app
  password: secret
  name: gdpr
auth:
  jwtSecret: from-file
  adminEmail: admin@example.com
`

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCAN_MODE", "")
	t.Setenv("JWT_SECRET", "")
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Scan.Mode)
	assert.Equal(t, compliance.ThresholdStandard, cfg.Threshold())
	assert.Equal(t, 24*time.Hour, cfg.Auth.Expiry)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SCAN_MODE", "development")
	t.Setenv("DB_PASSWORD", "p@ss")
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, compliance.ThresholdStrict, cfg.Threshold())
	assert.Equal(t, "p@ss", cfg.Database.Password)
}

func TestLoad_ExplicitThreshold(t *testing.T) {
	t.Setenv("SCAN_MODE", "")
	cfg, err := Load(writeConfig(t, minimal+"scan:\n  complianceThreshold: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, compliance.Threshold(5), cfg.Threshold())

	zero, err := Load(writeConfig(t, minimal+"scan:\n  complianceThreshold: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, compliance.Threshold(0), zero.Threshold())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SCAN_MODE", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(writeConfig(t, minimal+"scan:\n  complianceThreshold: 10\n"))
	assert.ErrorIs(t, err, compliance.ErrInvalidThreshold)

	_, err = Load(writeConfig(t, minimal+"scan:\n  mode: staging\n"))
	assert.ErrorIs(t, err, ErrInvalidScanMode)

	_, err = Load(writeConfig(t, "database:\n  driver: sqlite\nauth:\n  jwtSecret: x\n"))
	assert.ErrorIs(t, err, ErrInvalidDriver)

	_, err = Load(writeConfig(t, "server:\n  port: 1\n"))
	assert.ErrorIs(t, err, ErrMissingJWTSecret)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db:5432)/gdpr?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
	assert.Equal(t, "postgres://app:secret@db:5432/gdpr?sslmode=disable", cfg.PostgresDSN())
}

func TestLocation(t *testing.T) {
	var cfg Config
	cfg.Server.TimeZone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_Pool(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SCAN_MODE", "")
	doc := "database:\n  driver: memory\n  pool:\n    maxOpenConns: 5\n    connMaxLifetime: 2m\nauth:\n  jwtSecret: x\n"
	cfg, err := Load(writeConfig(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Database.Pool.MaxOpenConns)
	assert.Equal(t, 2*time.Minute, cfg.Database.Pool.ConnMaxLifetime)
}
