package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// defaults lists every key so APP_* variables can override values the YAML
// file does not mention.
var defaults = map[string]any{
	"app.name":             "poc-paginacao-multibanco",
	"app.version":          "0.1.0",
	"app.env":              "dev",
	"app.port":             8080,
	"app.shutdown_timeout": "10s",

	"logger.level":           "",
	"logger.format":          "",
	"logger.output_target":   "",
	"logger.file_path":       "",
	"logger.time_field":      "ts",
	"logger.time_format":     "rfc3339nano",
	"logger.service_name":    "",
	"logger.service_version": "",
	"logger.env":             "",
	"logger.with_caller":     false,
	"logger.stacktrace":      false,

	"store.driver":        DriverPostgres,
	"store.fetch_timeout": "3s",
	"store.seed_records":  0,

	"postgres.host":                "localhost",
	"postgres.port":                5432,
	"postgres.user":                "",
	"postgres.password":            "",
	"postgres.db_name":             "",
	"postgres.sslmode":             "disable",
	"postgres.max_conns":           10,
	"postgres.min_conns":           1,
	"postgres.max_conn_lifetime":   3600,
	"postgres.max_conn_idle_time":  300,
	"postgres.health_check_period": 30,

	"mysql.host":              "localhost",
	"mysql.port":              3306,
	"mysql.user":              "",
	"mysql.password":          "",
	"mysql.db_name":           "",
	"mysql.max_open_conns":    25,
	"mysql.max_idle_conns":    10,
	"mysql.conn_max_lifetime": "30m",

	"dynamodb.table":    "exams",
	"dynamodb.region":   "us-east-1",
	"dynamodb.endpoint": "",

	"pagination.default_size": 10,
	"pagination.max_size":     100,
	"pagination.token_secret": "",
	"pagination.token_ttl":    "0s",
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// the logger inherits app identity unless configured on its own
	if config.Logger.Env == "" {
		config.Logger.Env = config.App.Env
	}
	if config.Logger.ServiceName == "" {
		config.Logger.ServiceName = config.App.Name
	}
	if config.Logger.ServiceVersion == "" {
		config.Logger.ServiceVersion = config.App.Version
	}

	if err := validator.New().StructExcept(&config, "Logger"); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}
