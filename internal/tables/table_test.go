package tables_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/tables"
)

func TestTable_Lifecycle(t *testing.T) {
	tbl := tables.New[int]("numbers")

	if tbl.State() != tables.Uninitialized {
		t.Fatalf("expected uninitialized, got %s", tbl.State())
	}
	if _, err := tbl.Get(); !errors.Is(err, tables.ErrTableNotLoaded) {
		t.Fatalf("expected ErrTableNotLoaded before load, got %v", err)
	}

	if !tbl.Begin() {
		t.Fatal("first Begin should succeed")
	}
	if tbl.Begin() {
		t.Error("second Begin while loading should be refused")
	}
	if !tbl.InFlight() {
		t.Error("expected a load in flight")
	}
	if tbl.State() != tables.Loading {
		t.Errorf("expected loading, got %s", tbl.State())
	}

	tbl.Publish(7)
	if tbl.InFlight() {
		t.Error("publish should end the load")
	}
	v, err := tbl.Get()
	if err != nil || v != 7 {
		t.Fatalf("expected 7, got %d / %v", v, err)
	}
	if tbl.Version() != 1 {
		t.Errorf("expected version 1, got %d", tbl.Version())
	}

	// a failed reload keeps serving the previous value
	if !tbl.Begin() {
		t.Fatal("reload Begin should succeed")
	}
	tbl.Fail(errors.New("boom"))
	if v, err := tbl.Get(); err != nil || v != 7 {
		t.Errorf("expected previous value after failed reload, got %d / %v", v, err)
	}
	if st := tbl.Status(); st.State != tables.Ready || st.Error != "boom" {
		t.Errorf("unexpected status %+v", st)
	}

	tbl.Begin()
	tbl.Publish(8)
	if v, _ := tbl.Get(); v != 8 || tbl.Version() != 2 {
		t.Errorf("expected 8 at version 2, got %d at %d", v, tbl.Version())
	}
}

func TestTable_FailedFirstLoad(t *testing.T) {
	tbl := tables.New[string]("words")
	tbl.Begin()
	tbl.Fail(errors.New("network down"))

	if tbl.State() != tables.Failed {
		t.Fatalf("expected failed, got %s", tbl.State())
	}
	_, err := tbl.Get()
	if !errors.Is(err, tables.ErrTableNotLoaded) {
		t.Errorf("expected ErrTableNotLoaded, got %v", err)
	}
	if !tbl.Begin() {
		t.Error("a failed table should accept a new load")
	}
}

func TestTable_Wait(t *testing.T) {
	tbl := tables.New[int]("numbers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := tbl.Wait(ctx); !errors.Is(err, tables.ErrTableNotLoaded) {
		t.Fatalf("expected ErrTableNotLoaded on timeout, got %v", err)
	}

	done := make(chan int, 1)
	go func() {
		v, _ := tbl.Wait(context.Background())
		done <- v
	}()
	tbl.Begin()
	tbl.Publish(3)

	select {
	case v := <-done:
		if v != 3 {
			t.Errorf("expected 3, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Publish")
	}
}

func TestStore_ResolveBeforeLoad(t *testing.T) {
	s := tables.NewStore()

	s.Boundaries.Begin()
	s.Boundaries.Publish(districts.BuildBoundaryIndex([]districts.BoundaryRecord{
		{FeatureID: "42", UnitCode: "7123", Chamber: districts.ChamberLower},
	}))

	_, err := s.Resolve("42", districts.ChamberLower)
	if !errors.Is(err, tables.ErrTableNotLoaded) {
		t.Fatalf("expected ErrTableNotLoaded while results are missing, got %v", err)
	}
	if errors.Is(err, districts.ErrNotFound) {
		t.Fatal("a missing table must not look like a lookup miss")
	}

	s.Results.Begin()
	s.Results.Publish(districts.BuildResultIndex([]districts.ResultRecord{
		{GeoID: "07123", Chamber: "HD", VoterPower: 80, IncumbentParty: "R"},
	}))

	rec, err := s.Resolve("42", districts.ChamberLower)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rec.GeoID != "07123" {
		t.Errorf("unexpected record %+v", rec)
	}
	if _, err := s.Resolve("99", districts.ChamberLower); !errors.Is(err, districts.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ResolveWait(t *testing.T) {
	s := tables.NewStore()

	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Results.Begin()
		s.Results.Publish(districts.BuildResultIndex([]districts.ResultRecord{
			{GeoID: "09059", Chamber: "HD", VoterPower: 2},
		}))
		s.Boundaries.Begin()
		s.Boundaries.Publish(districts.BuildBoundaryIndex([]districts.BoundaryRecord{
			{FeatureID: "1", UnitCode: "09059", Chamber: districts.ChamberLower},
		}))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rec, err := s.ResolveWait(ctx, "1", districts.ChamberLower)
	if err != nil {
		t.Fatalf("ResolveWait: %v", err)
	}
	if rec.GeoID != "09059" {
		t.Errorf("unexpected record %+v", rec)
	}
}
