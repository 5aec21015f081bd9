package migration

import (
	"fmt"

	"github.com/damoang/angple-wiki/internal/domain"
	"gorm.io/gorm"
)

// Run creates the node table, the history table and one secondary index
// table per indexed type. Safe to run multiple times (AutoMigrate is idempotent).
func Run(db *gorm.DB) error {
	models := []interface{}{
		&domain.NodeRow{},
		&domain.NodeHistory{},
	}
	for _, spec := range domain.IndexSpecs() {
		models = append(models, spec.Model)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
