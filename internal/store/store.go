package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/voterpower-map/internal/db"
	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

// Migrate creates the redistricting schema and tables.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, Schema); err != nil {
		return err
	}
	if err := d.AutoMigrate(&Result{}, &Boundary{}, &StateSummary{}); err != nil {
		return fmt.Errorf("auto-migrate %s tables: %w", Schema, err)
	}
	if err := d.Exec(`
		CREATE INDEX IF NOT EXISTS idx_boundaries_lookup
		ON redistricting.boundaries (chamber, feature_id, ordinal);
	`).Error; err != nil {
		return fmt.Errorf("create idx_boundaries_lookup: %w", err)
	}
	return nil
}

// Source reads the tables written by cmd/import. States, when set,
// restricts every table to those postal codes.
type Source struct {
	DB     *gorm.DB
	States []string
}

func NewSource(d *gorm.DB, states []string) *Source {
	up := make([]string, 0, len(states))
	for _, s := range states {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			up = append(up, s)
		}
	}
	return &Source{DB: d, States: up}
}

func (s *Source) Name() string { return "postgres" }

func (s *Source) scoped(ctx context.Context, col string) *gorm.DB {
	q := s.DB.WithContext(ctx)
	if len(s.States) > 0 {
		q = q.Where(col+" = ANY(?)", pq.Array(s.States))
	}
	return q
}

func (s *Source) Boundaries(ctx context.Context) ([]districts.BoundaryRecord, error) {
	var rows []Boundary
	if err := s.scoped(ctx, "state").Order("chamber, ordinal").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query boundaries: %w", err)
	}
	out := make([]districts.BoundaryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

func (s *Source) Results(ctx context.Context) ([]districts.ResultRecord, error) {
	var rows []Result
	if err := s.scoped(ctx, "state").Order("geoid, chamber").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	out := make([]districts.ResultRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

func (s *Source) Summaries(ctx context.Context) ([]districts.StateSummary, error) {
	var rows []StateSummary
	if err := s.scoped(ctx, "state_po").Order("state_po").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query state summaries: %w", err)
	}
	out := make([]districts.StateSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	log.Printf("[store] summaries rows=%d states_filter=%d", len(out), len(s.States))
	return out, nil
}
