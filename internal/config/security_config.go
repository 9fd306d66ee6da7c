package config

import "time"

const (
	exposePinEnvVar       = "EXPOSE_EMPLOYEE_PIN"
	pinRateLimitEnvVar    = "PIN_RATE_LIMIT"
	pinMaxFailuresEnvVar  = "PIN_MAX_FAILURES"
	pinLockoutEnvVar      = "PIN_LOCKOUT"
	passwordHashEnvVar    = "PASSWORD_HASH"
	defaultPinLockout     = time.Minute
	defaultPinMaxFailures = 5
)

type SecurityConfig interface {
	GetExposeEmployeePin() bool
	GetEnablePinRateLimiting() bool
	GetPinMaxFailures() int
	GetPinLockout() time.Duration
	GetPasswordHashAlgorithm() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetExposeEmployeePin controls whether the employee PIN is echoed in
// principal views. The frontend relies on it for the lock screen.
func (Security) GetExposeEmployeePin() bool {
	return GetBool(exposePinEnvVar, true)
}

func (Security) GetEnablePinRateLimiting() bool {
	return GetBool(pinRateLimitEnvVar, true)
}

func (Security) GetPinMaxFailures() int {
	n := GetInt(pinMaxFailuresEnvVar, defaultPinMaxFailures)
	if n <= 0 {
		return defaultPinMaxFailures
	}
	return n
}

func (Security) GetPinLockout() time.Duration {
	return ParseDurationOr(GetEnv(pinLockoutEnvVar, ""), defaultPinLockout)
}

func (Security) GetPasswordHashAlgorithm() string {
	return GetEnv(passwordHashEnvVar, "bcrypt")
}
