package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	folderEnvVar    = "FOLDER"
	envEnvVar       = "ENV"
	logLevelEnvVar  = "LOG_LEVEL"
	logFormatEnvVar = "LOG_FORMAT"

	envDev        = "DEV"
	envProduction = "PRODUCTION"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "3000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Store Auth")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envEnvVar, envDev))
}

// IsProduction drives the Secure flag on the refresh cookie.
func (e EnvVars) IsProduction() bool {
	env := e.GetEnv()
	return env == envProduction || env == "PROD"
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (e EnvVars) GetLogFormat() string {
	if e.GetEnv() == envDev {
		return GetEnv(logFormatEnvVar, "console")
	}
	return GetEnv(logFormatEnvVar, "json")
}

// GetEnv looks a key up in the environment, then in the loaded config file.
func GetEnv(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := fileValue(envVar); ok && value != "" {
		return value
	}
	return defaultValue
}

// GetBool parses a boolean value. Unparseable values yield the default.
func GetBool(envVar string, defaultValue bool) bool {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

// GetInt parses an integer value. Unparseable values yield the default.
func GetInt(envVar string, defaultValue int) int {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return i
}
