package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/EmpoweredVote/voterpower-map/internal/db"
	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/store"
)

func TestResultFromRecord_NormalizesGeoID(t *testing.T) {
	row := store.ResultFromRecord(uuid.Nil, districts.ResultRecord{GeoID: "7123", Chamber: "HD", VoterPower: 80})
	if row.GeoID != "07123" {
		t.Errorf("expected normalized geoid, got %q", row.GeoID)
	}
	if rec := row.Record(); rec.VoterPower != 80 || rec.Chamber != districts.ChamberLower {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestSummaryRecord_KeepsFieldOrder(t *testing.T) {
	in := districts.StateSummary{StatePO: "CT", Fields: []districts.SummaryField{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	}}
	out := store.SummaryFromRecord(in).Record()
	if len(out.Fields) != 2 || out.Fields[0].Name != "b" || out.Field("a") != "1" {
		t.Errorf("field order not kept: %+v", out.Fields)
	}
}

func TestSummaryRecord_ShortValues(t *testing.T) {
	s := store.StateSummary{StatePO: "MN", FieldNames: []string{"x", "y"}, FieldValues: []string{"1"}}
	if got := s.Record().Field("y"); got != "" {
		t.Errorf("missing value should be empty, got %q", got)
	}
}

// TestSource_Postgres round-trips rows through a real database. It is
// skipped unless DATABASE_URL is set.
func TestSource_Postgres(t *testing.T) {
	_ = godotenv.Load("../../.env.local")
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := db.Connect(dsn); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := store.Migrate(db.DB); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	tx := db.DB.Begin()
	defer tx.Rollback()

	id := uuid.New()
	if err := tx.Create(&store.Result{ID: id, GeoID: "99001", Chamber: "HD", State: "ZZ", VoterPower: 3}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	src := store.NewSource(tx, []string{"zz"})
	recs, err := src.Results(context.Background())
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(recs) != 1 || recs[0].GeoID != "99001" {
		t.Errorf("expected the inserted row only, got %+v", recs)
	}
}
