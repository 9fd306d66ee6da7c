package config

import "time"

const (
	userSecretEnvVar         = "JWT_USER_SECRET"
	employeeSecretEnvVar     = "JWT_EMPLOYEE_SECRET"
	userExpiresInEnvVar      = "JWT_USER_EXPIRES_IN"
	employeeExpiresInEnvVar  = "JWT_EMPLOYEE_EXPIRES_IN"
	refreshExpiresInEnvVar   = "REFRESH_TOKEN_EXPIRES_IN"
	defaultAccessTokenExpiry = 24 * time.Hour
)

type TokenConfig interface {
	GetUserSecret() string
	GetEmployeeSecret() string
	GetUserAccessTokenExpiry() time.Duration
	GetEmployeeAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiresIn() string
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetUserSecret() string {
	return GetEnv(userSecretEnvVar, "")
}

func (Tokens) GetEmployeeSecret() string {
	return GetEnv(employeeSecretEnvVar, "")
}

func (Tokens) GetUserAccessTokenExpiry() time.Duration {
	return ParseDurationOr(GetEnv(userExpiresInEnvVar, "1d"), defaultAccessTokenExpiry)
}

func (Tokens) GetEmployeeAccessTokenExpiry() time.Duration {
	return ParseDurationOr(GetEnv(employeeExpiresInEnvVar, "1d"), defaultAccessTokenExpiry)
}

// GetRefreshTokenExpiresIn returns the raw configured lifetime string.
func (Tokens) GetRefreshTokenExpiresIn() string {
	return GetEnv(refreshExpiresInEnvVar, "7d")
}

func (t Tokens) GetRefreshTokenExpiry() time.Duration {
	return ParseDuration(t.GetRefreshTokenExpiresIn())
}

func (Tokens) GetRefreshTokenLength() int {
	return 64 // 64 bytes = 512 bits
}
