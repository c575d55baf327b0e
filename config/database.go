package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// OpenDatabaseWithRetry opens the store handle described by s, retrying with backoff
// until the database answers or maxAttempts is reached (0 = retry forever).
// The caller owns the returned handle and must close it (see CloseDatabase).
func OpenDatabaseWithRetry(s DatabaseSettings, maxAttempts int) (*gorm.DB, error) {
	var attempt int
	for {
		attempt++
		db, err := gorm.Open(dialector(s), initConfig())
		if err == nil {
			tunePool(db, s)
			if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
				log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
			}
			log.Printf("connected to database (dialect=%s attempt=%d)", s.Dialect, attempt)
			return db, nil
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return nil, fmt.Errorf("connect database after %d attempts: %w", attempt, err)
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

// CloseDatabase releases the pool behind db. Safe on nil.
func CloseDatabase(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func dialector(s DatabaseSettings) gorm.Dialector {
	if s.Dialect == DialectPostgres {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			s.Host, s.Port, s.User, s.Password, s.Name)
		return postgres.Open(dsn)
	}

	network := "tcp"
	address := fmt.Sprintf("%s:%s", s.Host, s.Port)
	// Cloud SQL: DB_HOST=/cloudsql/<CONNECTION_NAME> means a unix socket from the auth proxy.
	if strings.HasPrefix(s.Host, "/cloudsql/") {
		network = "unix"
		address = s.Host
	}
	dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		s.User,
		s.Password,
		network,
		address,
		s.Name,
	)
	return mysql.Open(dsn)
}

func tunePool(db *gorm.DB, s DatabaseSettings) {
	sqlDB, err := db.DB()
	if err != nil || sqlDB == nil {
		return
	}
	if s.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(s.MaxIdleConns)
	}
	if s.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(s.ConnMaxLifetimeSeconds) * time.Second)
	}
	if s.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(s.ConnMaxIdleTimeSeconds) * time.Second)
	}
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		// Loads run inside one explicit transaction per call.
		SkipDefaultTransaction: true,
	}
}

func initLog() logger.Interface {
	level := logger.Error
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GORM_LOG")), "info") {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  level,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
