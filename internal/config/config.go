package config

type Config interface {
	EnvConfig
	TokenConfig
	StoreConfig
	SecurityConfig
	CorsConfig
	BootstrapConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	IsProduction() bool
	GetLogLevel() string
	GetLogFormat() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Tokens
	Store
	Security
	Cors
	Bootstrap
}

// New returns the process configuration. Values are resolved on every call
// from the environment, then any file loaded with Load, then defaults.
func New() Config {
	return mainConfig{}
}
