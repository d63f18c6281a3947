package tableimport_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonas-p/go-shp"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/tableimport"
	"github.com/EmpoweredVote/voterpower-map/internal/tables"
)

var ns = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func TestIDs_Deterministic(t *testing.T) {
	a := tableimport.ResultID(ns, "7123", districts.ChamberLower)
	b := tableimport.ResultID(ns, "07123", "hd")
	if a != b {
		t.Errorf("normalized code and chamber case should give one id: %s vs %s", a, b)
	}
	if a == tableimport.ResultID(ns, "07123", districts.ChamberUpper) {
		t.Error("chambers should give different ids")
	}
	if tableimport.BoundaryID(ns, districts.ChamberLower, "42") != tableimport.BoundaryID(ns, districts.ChamberLower, "42") {
		t.Error("boundary ids should be stable")
	}
}

func TestDedupeResults_LastWins(t *testing.T) {
	out, dups := tableimport.DedupeResults([]districts.ResultRecord{
		{GeoID: "1234", Chamber: "HD", VoterPower: 1},
		{GeoID: "05000", Chamber: "SD", VoterPower: 9},
		{GeoID: "01234", Chamber: "hd", VoterPower: 2},
		{GeoID: "", Chamber: "HD"},
		{GeoID: "01111", Chamber: "congress"},
	})
	if dups != 1 {
		t.Errorf("expected 1 duplicate, got %d", dups)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %+v", out)
	}
	if out[0].GeoID != "01234" || out[0].VoterPower != 2 {
		t.Errorf("later record should win at the first position, got %+v", out[0])
	}
}

func TestRows(t *testing.T) {
	in := tableimport.Tables{
		Results: []districts.ResultRecord{{GeoID: "9059", Chamber: "HD"}},
		Boundaries: []districts.BoundaryRecord{
			{FeatureID: "1", UnitCode: "09059", Chamber: districts.ChamberLower},
			{FeatureID: "1", UnitCode: "09060", Chamber: districts.ChamberLower},
			{FeatureID: "", UnitCode: "09061", Chamber: districts.ChamberLower},
		},
		Summaries: []districts.StateSummary{
			{StatePO: "ct", Fields: []districts.SummaryField{{Name: "a", Value: "old"}}},
			{StatePO: "CT", Fields: []districts.SummaryField{{Name: "a", Value: "new"}}},
		},
	}
	results, boundaries, summaries, _ := tableimport.Rows(ns, in)

	if len(results) != 1 || results[0].State != "CT" || results[0].GeoID != "09059" {
		t.Errorf("unexpected results %+v", results)
	}
	if len(boundaries) != 1 || boundaries[0].UnitCode != "09059" || boundaries[0].State != "CT" {
		t.Errorf("first boundary per feature should be kept: %+v", boundaries)
	}
	if len(summaries) != 1 || summaries[0].Record().Field("a") != "new" {
		t.Errorf("last summary per state should be kept: %+v", summaries)
	}
}

func writeShapefile(t *testing.T, geoids ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sldl.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField("GEOID", 5)}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	for i, g := range geoids {
		x := float64(i * 10)
		points := []shp.Point{{X: x, Y: 0}, {X: x, Y: 1}, {X: x + 1, Y: 1}, {X: x + 1, Y: 0}, {X: x, Y: 0}}
		n := w.Write(&shp.Polygon{
			Box:       shp.BBoxFromPoints(points),
			NumParts:  1,
			NumPoints: int32(len(points)),
			Parts:     []int32{0},
			Points:    points,
		})
		if err := w.WriteAttribute(int(n), 0, g); err != nil {
			t.Fatalf("write attribute: %v", err)
		}
	}
	w.Close()

	// go-shp's writer names the attribute file "<base>dbf"; the reader
	// opens "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			t.Fatalf("rename dbf: %v", err)
		}
	}
	if _, err := os.Stat(base + ".dbf"); err != nil {
		t.Fatalf("attribute file missing: %v", err)
	}
	return path
}

func TestParseBoundaryShapefile(t *testing.T) {
	path := writeShapefile(t, "09059", "09060")

	recs, err := tableimport.ParseBoundaryShapefile(path, districts.ChamberLower, "")
	if err != nil {
		t.Fatalf("ParseBoundaryShapefile: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].FeatureID != "0" || recs[1].FeatureID != "1" {
		t.Errorf("feature ids should be record ordinals: %+v", recs)
	}
	if recs[1].UnitCode != "09060" || recs[1].Chamber != districts.ChamberLower {
		t.Errorf("unexpected record %+v", recs[1])
	}

	if _, err := tableimport.ParseBoundaryShapefile(path, districts.ChamberLower, "SLDLST"); err == nil {
		t.Error("expected missing field error")
	}
}

func TestRead_ShapefileReplacesChamber(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results.json")
	boundaries := filepath.Join(dir, "boundary_lookup.json")
	if err := os.WriteFile(results, []byte(`[{"geoid":"09059","chamber":"HD","voter_power":2}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := `{"sldl":{"data":{"all":[{"feature_id":99,"unit_code":"09001"}]}},
	         "sldu":{"data":{"all":[{"feature_id":7,"unit_code":"09002"}]}}}`
	if err := os.WriteFile(boundaries, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := tableimport.Read(context.Background(), tableimport.Config{
		ResultsPath:  results,
		BoundaryPath: boundaries,
		LowerShapes:  writeShapefile(t, "09059"),
	}, tables.NewFetcher(0, 0, 0))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	idx := districts.BuildBoundaryIndex(in.Boundaries)
	if _, ok := idx.Lookup(districts.ChamberLower, "99"); ok {
		t.Error("lower boundaries from json should be replaced by the shapefile")
	}
	if code, ok := idx.Lookup(districts.ChamberLower, "0"); !ok || code != "09059" {
		t.Errorf("expected shapefile boundary, got %q %v", code, ok)
	}
	if _, ok := idx.Lookup(districts.ChamberUpper, "7"); !ok {
		t.Error("upper boundaries from json should be kept")
	}
}

func TestRun_RequiresConfirm(t *testing.T) {
	err := tableimport.Run(context.Background(), tableimport.Config{Namespace: ns.String()})
	if err == nil || !strings.Contains(err.Error(), "Confirm") {
		t.Errorf("expected refusal without Confirm, got %v", err)
	}
}

func TestRun_BadNamespace(t *testing.T) {
	err := tableimport.Run(context.Background(), tableimport.Config{Confirm: true, Namespace: "nope"})
	if err == nil || !strings.Contains(err.Error(), "namespace") {
		t.Errorf("expected namespace error, got %v", err)
	}
}
