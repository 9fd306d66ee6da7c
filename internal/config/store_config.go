package config

import "path/filepath"

const (
	databaseDriverEnvVar = "DATABASE_DRIVER"
	databaseDSNEnvVar    = "DATABASE_DSN"
	refreshStoreEnvVar   = "REFRESH_STORE"
	boltPathEnvVar       = "BOLT_PATH"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	RefreshStoreSQL    = "sql"
	RefreshStoreBolt   = "bolt"
	RefreshStoreMemory = "memory"
)

type StoreConfig interface {
	GetDatabaseDriver() string
	GetDatabaseDSN() string
	GetRefreshStore() string
	GetBoltPath() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetDatabaseDriver() string {
	return GetEnv(databaseDriverEnvVar, DriverSQLite)
}

func (s Store) GetDatabaseDSN() string {
	return GetEnv(databaseDSNEnvVar, filepath.Join(EnvVars{}.GetDataFolder(), "storeauth.db"))
}

// GetRefreshStore selects the refresh-token backend. The memory database
// driver forces the memory store since there is no SQL connection.
func (s Store) GetRefreshStore() string {
	if s.GetDatabaseDriver() == DriverMemory {
		return RefreshStoreMemory
	}
	return GetEnv(refreshStoreEnvVar, RefreshStoreSQL)
}

func (Store) GetBoltPath() string {
	return GetEnv(boltPathEnvVar, filepath.Join(EnvVars{}.GetDataFolder(), "refresh.db"))
}
