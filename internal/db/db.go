package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/charter-scheduling/internal/config"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			// always UTC; callers convert to local zones themselves
			return time.Now().UTC()
		},
	}
}

// Open picks the driver configured in cfg.
func Open(cfg *config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath)
	default:
		return NewGormDB(cfg)
	}
}

// postgresDSN renders cfg as a libpq keyword/value string. Values are quoted
// so passwords with spaces or quotes survive.
func postgresDSN(cfg *config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		dsnValue(cfg.Host),
		cfg.Port,
		dsnValue(cfg.User),
		dsnValue(cfg.Password),
		dsnValue(cfg.Name),
		dsnValue(cfg.SSLMode),
		dsnValue(cfg.TimeZone),
	)
}

func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// NewGormDB connects to Postgres and applies the pool limits from cfg.
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("gorm open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	applyPool(sqlDB, cfg)

	return gdb, nil
}

// applyPool sets only the limits that are configured; zero keeps the driver default.
func applyPool(sqlDB *sql.DB, cfg *config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeTime) * time.Minute)
	}
}

// NewSQLiteDB opens a single-connection SQLite database. SQLite serialises
// writers anyway; one connection also keeps ":memory:" databases alive.
func NewSQLiteDB(path string) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	gdb, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("gorm open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}
