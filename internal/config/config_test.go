package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"30m", 30 * time.Minute},
		{"3600s", time.Hour},
		{"3600", time.Hour},
		{"250ms", 250 * time.Millisecond},
		{"2w", 14 * 24 * time.Hour},
		{" 12H ", 12 * time.Hour},
		{"", config.DefaultRefreshTokenExpiry},
		{"soon", config.DefaultRefreshTokenExpiry},
		{"0", config.DefaultRefreshTokenExpiry},
		{"-5", config.DefaultRefreshTokenExpiry},
		{"0d", config.DefaultRefreshTokenExpiry},
		{"1.5h", config.DefaultRefreshTokenExpiry},
		{"9223372036854775807", config.DefaultRefreshTokenExpiry},
		{"99999999999999999999", config.DefaultRefreshTokenExpiry},
		{"200000000d", config.DefaultRefreshTokenExpiry},
		{"20000000000000000ms", config.DefaultRefreshTokenExpiry},
		{"9223372036854775807ms", config.DefaultRefreshTokenExpiry},
		{"9223372036854ms", 9223372036854 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, config.ParseDuration(tt.in))
		})
	}
}

func TestParseDurationOr(t *testing.T) {
	require.Equal(t, 24*time.Hour, config.ParseDurationOr("nope", 24*time.Hour))
	require.Equal(t, 5*time.Minute, config.ParseDurationOr("5m", 24*time.Hour))
}

func TestDefaults(t *testing.T) {
	config.ResetFile()
	for _, k := range []string{"PORT", "ENV", "JWT_USER_EXPIRES_IN", "REFRESH_TOKEN_EXPIRES_IN", "DATABASE_DRIVER", "REFRESH_STORE", "EXPOSE_EMPLOYEE_PIN"} {
		t.Setenv(k, "")
	}

	cfg := config.New()
	require.Equal(t, ":3000", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.False(t, cfg.IsProduction())
	require.Equal(t, 24*time.Hour, cfg.GetUserAccessTokenExpiry())
	require.Equal(t, 24*time.Hour, cfg.GetEmployeeAccessTokenExpiry())
	require.Equal(t, "7d", cfg.GetRefreshTokenExpiresIn())
	require.Equal(t, 7*24*time.Hour, cfg.GetRefreshTokenExpiry())
	require.Equal(t, config.DriverSQLite, cfg.GetDatabaseDriver())
	require.Equal(t, config.RefreshStoreSQL, cfg.GetRefreshStore())
	require.True(t, cfg.GetExposeEmployeePin())
}

func TestEnvironmentOverrides(t *testing.T) {
	config.ResetFile()
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_EMPLOYEE_EXPIRES_IN", "8h")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("REFRESH_STORE", "bolt")
	t.Setenv("EXPOSE_EMPLOYEE_PIN", "false")
	t.Setenv("LOG_FORMAT", "")

	cfg := config.New()
	require.Equal(t, ":8080", cfg.GetPort())
	require.True(t, cfg.IsProduction())
	require.Equal(t, "json", cfg.GetLogFormat())
	require.Equal(t, 8*time.Hour, cfg.GetEmployeeAccessTokenExpiry())
	require.Equal(t, config.RefreshStoreMemory, cfg.GetRefreshStore())
	require.False(t, cfg.GetExposeEmployeePin())
}

func TestLoadFile(t *testing.T) {
	t.Cleanup(config.ResetFile)
	t.Setenv("JWT_USER_SECRET", "")
	t.Setenv("JWT_EMPLOYEE_SECRET", "from-env")
	t.Setenv("PIN_MAX_FAILURES", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	path := filepath.Join(t.TempDir(), "storeauth.yaml")
	yaml := `
jwt:
  user_secret: from-file
  employee_secret: also-from-file
  refresh_expires_in: 12h
security:
  pin_max_failures: 3
cors:
  allowed_origins:
    - https://a.example.com
    - https://b.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	require.NoError(t, config.LoadFile(path))

	cfg := config.New()
	require.Equal(t, "from-file", cfg.GetUserSecret())
	require.Equal(t, "from-env", cfg.GetEmployeeSecret(), "environment wins over the file")
	require.Equal(t, 3, cfg.GetPinMaxFailures())

	origins := cfg.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}

func TestLoadFileMissing(t *testing.T) {
	err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
