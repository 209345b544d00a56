package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rs/zerolog"
)

const startupPingTimeout = 5 * time.Second

// DSN renders cfg for go-sql-driver. Times are parsed and written in UTC.
func DSN(cfg config.MySQLConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN()
}

// Connect opens the pool and pings it before handing it out.
func Connect(ctx context.Context, cfg config.MySQLConfig, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, repository.Unavailable(fmt.Errorf("failed to ping mysql: %w", err))
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("user", cfg.User).
		Str("db", cfg.DBName).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Successfully connected to MySQL")
	return db, nil
}
