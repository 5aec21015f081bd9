package migration

import (
	"fmt"

	"github.com/damoang/angple-wiki/internal/domain"
	"gorm.io/gorm"
)

// Report node store integrity summary
type Report struct {
	NodesByType map[string]int64
	// BadPositions nodes whose lb is not below rb
	BadPositions int64
	// IndexMismatch indexed type -> node count minus index row count
	IndexMismatch map[string]int64
}

// OK reports whether no problem was found
func (r *Report) OK() bool {
	return r.BadPositions == 0 && len(r.IndexMismatch) == 0
}

// Verify checks position markers and that every indexed node has exactly
// one index row
func Verify(db *gorm.DB) (*Report, error) {
	report := &Report{
		NodesByType:   map[string]int64{},
		IndexMismatch: map[string]int64{},
	}

	var counts []struct {
		Type  string
		Total int64
	}
	if err := db.Model(&domain.NodeRow{}).
		Select("type, COUNT(*) AS total").
		Group("type").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	for _, c := range counts {
		report.NodesByType[c.Type] = c.Total
	}

	if err := db.Model(&domain.NodeRow{}).Where("lb >= rb").Count(&report.BadPositions).Error; err != nil {
		return nil, fmt.Errorf("check positions: %w", err)
	}

	for _, spec := range domain.IndexSpecs() {
		var rows int64
		if err := db.Table(spec.Table).Count(&rows).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", spec.Table, err)
		}
		if diff := report.NodesByType[string(spec.Type)] - rows; diff != 0 {
			report.IndexMismatch[string(spec.Type)] = diff
		}
	}
	return report, nil
}
