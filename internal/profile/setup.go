package profile

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/rahal-app/rahal-backend/internal/db"
)

const Schema = "rahal_auth"

// Init ensures the schema and migrates the profile table.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return fmt.Errorf("profile: ensure schema %s: %w", Schema, err)
	}
	if err := d.AutoMigrate(&Profile{}); err != nil {
		return fmt.Errorf("profile: auto-migrate: %w", err)
	}
	return nil
}
