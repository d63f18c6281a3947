package tableimport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/voterpower-map/internal/db"
	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/store"
	"github.com/EmpoweredVote/voterpower-map/internal/tables"
)

// lockKey serializes concurrent imports against one database.
const lockKey int64 = 0x766f746572

const batchSize = 500

var ErrImportRunning = errors.New("another import holds the lock")

type Config struct {
	ResultsPath   string
	BoundaryPath  string // boundary lookup JSON
	LowerShapes   string // optional SLDL shapefile, replaces lower-chamber boundaries from BoundaryPath
	UpperShapes   string // optional SLDU shapefile
	GeoIDField    string
	SummariesPath string
	DatabaseURL   string
	Namespace     string

	// Confirm must be set: the import replaces every row in the
	// redistricting tables.
	Confirm bool
}

// Tables is everything one import writes.
type Tables struct {
	Results    []districts.ResultRecord
	Boundaries []districts.BoundaryRecord
	Summaries  []districts.StateSummary
}

// Read loads every configured input. Paths may also be URLs.
func Read(ctx context.Context, cfg Config, f *tables.Fetcher) (Tables, error) {
	var t Tables

	if cfg.ResultsPath == "" {
		return t, errors.New("results path is required")
	}
	r, err := f.Fetch(ctx, cfg.ResultsPath)
	if err != nil {
		return t, err
	}
	if t.Results, err = tables.DecodeResults(r); err != nil {
		return t, err
	}

	if cfg.BoundaryPath != "" {
		r, err := f.Fetch(ctx, cfg.BoundaryPath)
		if err != nil {
			return t, err
		}
		if t.Boundaries, err = tables.DecodeBoundaries(r); err != nil {
			return t, err
		}
	}
	for ch, path := range map[districts.Chamber]string{
		districts.ChamberLower: cfg.LowerShapes,
		districts.ChamberUpper: cfg.UpperShapes,
	} {
		if path == "" {
			continue
		}
		recs, err := ParseBoundaryShapefile(path, ch, cfg.GeoIDField)
		if err != nil {
			return t, err
		}
		t.Boundaries = append(dropChamber(t.Boundaries, ch), recs...)
	}
	if len(t.Boundaries) == 0 {
		return t, errors.New("no boundary input: set a boundary lookup or shapefile")
	}

	if cfg.SummariesPath != "" {
		r, err := f.Fetch(ctx, cfg.SummariesPath)
		if err != nil {
			return t, err
		}
		if t.Summaries, err = tables.DecodeSummaries(r); err != nil {
			return t, err
		}
	}
	return t, nil
}

func dropChamber(recs []districts.BoundaryRecord, ch districts.Chamber) []districts.BoundaryRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.Chamber != ch {
			out = append(out, r)
		}
	}
	return out
}

// DedupeResults keeps the last record for each (geoid, chamber) at the
// position of its first occurrence. Rows the index would skip are dropped.
func DedupeResults(recs []districts.ResultRecord) (out []districts.ResultRecord, duplicates int) {
	pos := make(map[districts.ResultKey]int, len(recs))
	for _, r := range recs {
		ch, err := districts.ParseChamber(string(r.Chamber))
		if err != nil || r.GeoID == "" {
			continue
		}
		r.Chamber = ch
		r.GeoID = districts.NormalizeUnitCode(r.GeoID)
		key := districts.NewResultKey(r.GeoID, ch)
		if i, ok := pos[key]; ok {
			out[i] = r
			duplicates++
			continue
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	return out, duplicates
}

// Rows converts the decoded tables into store rows with deterministic ids.
func Rows(ns uuid.UUID, t Tables) ([]store.Result, []store.Boundary, []store.StateSummary, int) {
	results, dups := DedupeResults(t.Results)
	resultRows := make([]store.Result, 0, len(results))
	for _, r := range results {
		row := store.ResultFromRecord(ResultID(ns, r.GeoID, r.Chamber), r)
		if row.State == "" {
			row.State, _ = districts.StateForCode(r.GeoID)
		}
		resultRows = append(resultRows, row)
	}

	seen := make(map[uuid.UUID]bool, len(t.Boundaries))
	boundaryRows := make([]store.Boundary, 0, len(t.Boundaries))
	for i, b := range t.Boundaries {
		if b.FeatureID == "" {
			continue
		}
		id := BoundaryID(ns, b.Chamber, b.FeatureID)
		// later duplicates would lose at lookup time anyway
		if seen[id] {
			continue
		}
		seen[id] = true
		state, _ := districts.StateForCode(b.UnitCode)
		boundaryRows = append(boundaryRows, store.Boundary{
			ID:        id,
			Chamber:   string(b.Chamber),
			FeatureID: string(b.FeatureID),
			UnitCode:  string(b.UnitCode),
			State:     state,
			Ordinal:   i,
		})
	}

	byState := make(map[string]store.StateSummary, len(t.Summaries))
	var order []string
	for _, s := range t.Summaries {
		po := strings.ToUpper(strings.TrimSpace(s.StatePO))
		if po == "" {
			continue
		}
		if _, ok := byState[po]; !ok {
			order = append(order, po)
		}
		s.StatePO = po
		byState[po] = store.SummaryFromRecord(s)
	}
	summaryRows := make([]store.StateSummary, 0, len(order))
	for _, po := range order {
		summaryRows = append(summaryRows, byState[po])
	}

	return resultRows, boundaryRows, summaryRows, dups
}

// Run replaces the redistricting tables with the configured inputs in one
// transaction, holding a Postgres advisory lock for the duration.
func Run(ctx context.Context, cfg Config) error {
	if !cfg.Confirm {
		return errors.New("refusing to run: set Confirm=true (this importer replaces the redistricting tables)")
	}

	ns, err := uuid.Parse(cfg.Namespace)
	if err != nil {
		return fmt.Errorf("invalid namespace uuid: %w", err)
	}

	in, err := Read(ctx, cfg, tables.NewFetcher(0, 2, 0))
	if err != nil {
		return err
	}
	results, boundaries, summaries, dups := Rows(ns, in)
	if dups > 0 {
		log.Printf("[tableimport] WARNING: %d duplicate result keys, later rows win", dups)
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	var locked bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockKey).Scan(&locked); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if !locked {
		return ErrImportRunning
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockKey); err != nil {
			log.Printf("[tableimport] advisory unlock: %v", err)
		}
	}()

	gdb, err := db.Wrap(sqlDB)
	if err != nil {
		return err
	}
	if err := store.Migrate(gdb); err != nil {
		return err
	}

	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			TRUNCATE TABLE
				redistricting.results,
				redistricting.boundaries,
				redistricting.state_summaries;
		`).Error; err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		if len(results) > 0 {
			if err := tx.CreateInBatches(&results, batchSize).Error; err != nil {
				return fmt.Errorf("insert results: %w", err)
			}
		}
		if len(boundaries) > 0 {
			if err := tx.CreateInBatches(&boundaries, batchSize).Error; err != nil {
				return fmt.Errorf("insert boundaries: %w", err)
			}
		}
		if len(summaries) > 0 {
			if err := tx.CreateInBatches(&summaries, batchSize).Error; err != nil {
				return fmt.Errorf("insert state summaries: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[tableimport] imported results=%d boundaries=%d summaries=%d", len(results), len(boundaries), len(summaries))
	return nil
}
