package db

import (
	"fmt"

	"gorm.io/gorm"
)

// EnsureSchema creates a Postgres schema if it is missing.
func EnsureSchema(d *gorm.DB, schema string) error {
	if err := d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}
