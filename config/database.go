package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Location returns the civil timezone that sign-in days and quest weeks are computed in.
func Location() *time.Location {
	loc, err := time.LoadLocation(Get().Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, falling back to UTC: %v", Get().Timezone, err)
		return time.UTC
	}
	return loc
}

// InitDatabase opens the configured database and performs additive migrations for the given models.
func InitDatabase(modelDefs ...interface{}) *gorm.DB {
	if db != nil {
		return db
	}

	cfg := Get()
	driver, dsn, err := resolveDSN(cfg)
	if err != nil {
		log.Fatalf("invalid database configuration: %v", err)
	}

	// Derive level from app LogLevel and raise slow-sql threshold to reduce noise
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	loc := Location()
	gormCfg := &gorm.Config{
		Logger:                                   gLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().In(loc) },
	}

	db, err = gorm.Open(dialectorFor(driver, dsn), gormCfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	if driver == "sqlite" {
		// one writer at a time; keeps claim transactions serialized
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// Surface network/auth problems at boot instead of on the first query
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	if err := Migrate(db, modelDefs...); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	return db
}

// Migrate runs gorm's additive auto-migration for each model.
func Migrate(conn *gorm.DB, modelDefs ...interface{}) error {
	for _, model := range modelDefs {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto migration failed for %T: %w", model, err)
		}
	}
	return nil
}

// resolveDSN turns the configuration into a driver name and a driver specific DSN.
// DatabaseURI accepts mysql://, postgres://, postgresql:// and sqlite:// URLs as well as raw DSNs.
func resolveDSN(cfg AppConfig) (string, string, error) {
	tz := url.QueryEscape(cfg.Timezone)
	uri := strings.TrimSpace(cfg.DatabaseURI)

	if uri == "" {
		switch cfg.DBDriver {
		case "mysql":
			return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=%s",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, tz), nil
		case "postgres":
			return "postgres", fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.Timezone), nil
		case "sqlite":
			return "sqlite", cfg.DBName + ".db", nil
		default:
			return "", "", fmt.Errorf("unsupported DB driver %q", cfg.DBDriver)
		}
	}

	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return "postgres", uri, nil
	case strings.HasPrefix(uri, "sqlite://"):
		return "sqlite", strings.TrimPrefix(uri, "sqlite://"), nil
	case strings.HasPrefix(uri, "mysql://"):
		u, err := url.Parse(uri)
		if err != nil {
			return "", "", err
		}
		pass, _ := u.User.Password()
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=%s",
			u.User.Username(), pass, u.Hostname(), port, strings.TrimPrefix(u.Path, "/"), tz), nil
	default:
		// raw DSN for the configured driver
		return cfg.DBDriver, uri, nil
	}
}

func dialectorFor(driver, dsn string) gorm.Dialector {
	switch driver {
	case "postgres":
		return postgres.Open(dsn)
	case "sqlite":
		return sqlite.Open(dsn)
	default:
		return mysql.Open(dsn)
	}
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
