package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/presupuestalo/marketplace-be/internal/shared/config"
)

// DB carries the GORM handle used by repositories and the raw pool used for
// health checks
type DB struct {
	*sql.DB
	GORM *gorm.DB
}

// Open connects to postgres and verifies the connection before returning
func Open(ctx context.Context, cfg *config.Config) (*DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// unique violations come back as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.DBMaxOpenConns)
	pool.SetMaxIdleConns(max(cfg.DBMaxOpenConns/5, 2))
	pool.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Int("max_open_conns", cfg.DBMaxOpenConns).Msg("✅ Database connected")
	return &DB{DB: pool, GORM: gdb}, nil
}

func (db *DB) Close() error {
	log.Info().Msg("🔌 Closing database connection")
	return db.DB.Close()
}
