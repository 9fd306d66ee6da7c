package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileEnvVar = "CONFIG_FILE"

// File mirrors the optional YAML configuration file. Every field maps onto
// one environment key; the environment always wins over the file.
type File struct {
	Server struct {
		Port    string `yaml:"port"`
		AppName string `yaml:"app_name"`
		Env     string `yaml:"env"`
		Folder  string `yaml:"data_folder"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	JWT struct {
		UserSecret        string `yaml:"user_secret"`
		EmployeeSecret    string `yaml:"employee_secret"`
		UserExpiresIn     string `yaml:"user_expires_in"`
		EmployeeExpiresIn string `yaml:"employee_expires_in"`
		RefreshExpiresIn  string `yaml:"refresh_expires_in"`
	} `yaml:"jwt"`
	Store struct {
		DatabaseDriver string `yaml:"database_driver"`
		DatabaseDSN    string `yaml:"database_dsn"`
		RefreshStore   string `yaml:"refresh_store"`
		BoltPath       string `yaml:"bolt_path"`
	} `yaml:"store"`
	Security struct {
		ExposeEmployeePin *bool  `yaml:"expose_employee_pin"`
		PinRateLimit      *bool  `yaml:"pin_rate_limit"`
		PinMaxFailures    int    `yaml:"pin_max_failures"`
		PinLockout        string `yaml:"pin_lockout"`
		PasswordHash      string `yaml:"password_hash"`
	} `yaml:"security"`
	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Bootstrap struct {
		AdminEmail       string `yaml:"admin_email"`
		AdminPassword    string `yaml:"admin_password"`
		EmployeeEmail    string `yaml:"employee_email"`
		EmployeePassword string `yaml:"employee_password"`
		EmployeePin      string `yaml:"employee_pin"`
	} `yaml:"bootstrap"`
}

var (
	fileValues   map[string]string
	fileValuesMu sync.RWMutex
)

// Load reads a .env file from the working directory (if present) into the
// process environment, then the YAML file named by CONFIG_FILE (if set).
func Load() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	path := os.Getenv(configFileEnvVar)
	if path == "" {
		return nil
	}
	return LoadFile(path)
}

// LoadFile parses a YAML config file and installs its values beneath the environment.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	fileValuesMu.Lock()
	fileValues = f.values()
	fileValuesMu.Unlock()
	return nil
}

// ResetFile forgets any values installed by LoadFile.
func ResetFile() {
	fileValuesMu.Lock()
	fileValues = nil
	fileValuesMu.Unlock()
}

func fileValue(key string) (string, bool) {
	fileValuesMu.RLock()
	defer fileValuesMu.RUnlock()
	v, ok := fileValues[key]
	return v, ok
}

func (f File) values() map[string]string {
	v := map[string]string{
		portEnvVar:              f.Server.Port,
		appNameVar:              f.Server.AppName,
		envEnvVar:               f.Server.Env,
		folderEnvVar:            f.Server.Folder,
		logLevelEnvVar:          f.Logging.Level,
		logFormatEnvVar:         f.Logging.Format,
		userSecretEnvVar:        f.JWT.UserSecret,
		employeeSecretEnvVar:    f.JWT.EmployeeSecret,
		userExpiresInEnvVar:     f.JWT.UserExpiresIn,
		employeeExpiresInEnvVar: f.JWT.EmployeeExpiresIn,
		refreshExpiresInEnvVar:  f.JWT.RefreshExpiresIn,
		databaseDriverEnvVar:    f.Store.DatabaseDriver,
		databaseDSNEnvVar:       f.Store.DatabaseDSN,
		refreshStoreEnvVar:      f.Store.RefreshStore,
		boltPathEnvVar:          f.Store.BoltPath,
		pinLockoutEnvVar:        f.Security.PinLockout,
		passwordHashEnvVar:      f.Security.PasswordHash,
		allowedOriginsEnvVar:    strings.Join(f.Cors.AllowedOrigins, ","),

		bootstrapAdminEmailEnvVar:       f.Bootstrap.AdminEmail,
		bootstrapAdminPasswordEnvVar:    f.Bootstrap.AdminPassword,
		bootstrapEmployeeEmailEnvVar:    f.Bootstrap.EmployeeEmail,
		bootstrapEmployeePasswordEnvVar: f.Bootstrap.EmployeePassword,
		bootstrapEmployeePinEnvVar:      f.Bootstrap.EmployeePin,
	}
	if f.Security.ExposeEmployeePin != nil {
		v[exposePinEnvVar] = strconv.FormatBool(*f.Security.ExposeEmployeePin)
	}
	if f.Security.PinRateLimit != nil {
		v[pinRateLimitEnvVar] = strconv.FormatBool(*f.Security.PinRateLimit)
	}
	if f.Security.PinMaxFailures > 0 {
		v[pinMaxFailuresEnvVar] = strconv.Itoa(f.Security.PinMaxFailures)
	}
	return v
}
