package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migration runs SetupSQL, AutoMigrate on Models, then PostSQL. Setup and post statements must be idempotent.
type Migration struct {
	SetupSQL []string
	Models   []interface{}
	PostSQL  []string
}

func (m Migration) Run(db *gorm.DB) error {
	for _, stmt := range m.SetupSQL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("setup sql: %w", err)
		}
	}

	if err := db.AutoMigrate(m.Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range m.PostSQL {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("post-migration sql: %w", err)
		}
	}
	return nil
}
