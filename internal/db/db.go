package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the shared gorm handle used by the map service.
func Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is empty")
	}

	d, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger()})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	// The service only reads during table loads.
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = d
	log.Println("Connected to database")
	return nil
}

// Wrap builds a gorm handle on an existing database/sql pool so raw SQL
// (advisory locks) and gorm share one connection set.
func Wrap(sqlDB *sql.DB) (*gorm.DB, error) {
	d, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: newLogger()})
	if err != nil {
		return nil, fmt.Errorf("wrap sql.DB: %w", err)
	}
	return d, nil
}

func newLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
