package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/logger"
)

// Store drivers the service can run against.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger"`
	Store      StoreConfig         `mapstructure:"store"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	MySQL      MySQLConfig         `mapstructure:"mysql"`
	DynamoDB   DynamoDBConfig      `mapstructure:"dynamodb"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Version         string        `mapstructure:"version"`
	Env             string        `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres mysql dynamodb memory"`
	// FetchTimeout bounds a single page fetch; expiry surfaces as store unavailable.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	// SeedRecords fills the memory driver with generated exams on start.
	SeedRecords int `mapstructure:"seed_records" validate:"min=0"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db_name"`
	SSLMode           string `mapstructure:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"min=1"`
	MinConns          int32  `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`   // seconds
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`  // seconds
	HealthCheckPeriod int    `mapstructure:"health_check_period"` // seconds
}

type MySQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type DynamoDBConfig struct {
	Table    string `mapstructure:"table" validate:"required"`
	Region   string `mapstructure:"region" validate:"required"`
	Endpoint string `mapstructure:"endpoint"`
}

type PaginationConfig struct {
	DefaultSize int    `mapstructure:"default_size" validate:"min=1,ltefield=MaxSize"`
	MaxSize     int    `mapstructure:"max_size" validate:"min=1"`
	TokenSecret string `mapstructure:"token_secret"`
	// TokenTTL rejects page tokens older than this; zero disables expiry.
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"min=0"`
}

const minTokenSecretLen = 16

// Validate checks rules that span fields: credentials are only required for
// the selected driver.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" {
			errs = append(errs, errors.New("postgres host, user, password and db_name are required"))
		}
	case DriverMySQL:
		if c.MySQL.Host == "" || c.MySQL.User == "" || c.MySQL.DBName == "" {
			errs = append(errs, errors.New("mysql host, user and db_name are required"))
		}
	}
	if len(c.Pagination.TokenSecret) < minTokenSecretLen {
		errs = append(errs, fmt.Errorf("pagination.token_secret must be at least %d bytes", minTokenSecretLen))
	}
	return errors.Join(errs...)
}
