package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/rahal-app/rahal-backend/internal/db"
	"github.com/rahal-app/rahal-backend/internal/identity"
)

const Schema = "rahal_auth"

// Init ensures the auth schema and migrates the provider account table.
func Init(d *gorm.DB) error {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return fmt.Errorf("auth: ensure schema %s: %w", Schema, err)
	}
	if err := d.AutoMigrate(&identity.Account{}); err != nil {
		return fmt.Errorf("auth: auto-migrate: %w", err)
	}
	return nil
}
