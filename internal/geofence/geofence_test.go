package geofence_test

import (
	"strings"
	"testing"

	"github.com/EmpoweredVote/voterpower-map/internal/geofence"
)

// Two unit squares side by side; the first has a hole in its middle.
const squares = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 42, "properties": {"GEOID": "07123"},
     "geometry": {"type": "Polygon", "coordinates": [
        [[0,0],[4,0],[4,4],[0,4],[0,0]],
        [[1,1],[3,1],[3,3],[1,3],[1,1]]
     ]}},
    {"type": "Feature", "id": "43", "properties": {"GEOID": "07124"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[10,0],[14,0],[14,4],[10,4],[10,0]]],
        [[[20,0],[24,0],[24,4],[20,4],[20,0]]]
     ]}},
    {"type": "Feature", "properties": {"GEOID": "07125"},
     "geometry": {"type": "Point", "coordinates": [50, 50]}}
  ]
}`

func TestLocate(t *testing.T) {
	idx, err := geofence.Load(strings.NewReader(squares), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 2 || idx.Skipped() != 1 {
		t.Fatalf("expected 2 shapes and 1 skipped, got %d / %d", idx.Len(), idx.Skipped())
	}

	cases := []struct {
		name     string
		lat, lng float64
		want     string
		ok       bool
	}{
		{"inside outer ring", 0.5, 0.5, "42", true},
		{"inside hole", 2, 2, "", false},
		{"first part of multipolygon", 2, 12, "43", true},
		{"second part of multipolygon", 2, 22, "43", true},
		{"outside everything", 40, 40, "", false},
	}
	for _, tc := range cases {
		got, ok := idx.Locate(tc.lat, tc.lng)
		if ok != tc.ok || string(got) != tc.want {
			t.Errorf("%s: Locate(%v, %v) = %q, %v; want %q, %v", tc.name, tc.lat, tc.lng, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLoad_IDProperty(t *testing.T) {
	idx, err := geofence.Load(strings.NewReader(squares), "GEOID")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, _ := idx.Locate(0.5, 0.5); got != "07123" {
		t.Errorf("expected id from GEOID property, got %q", got)
	}
}

func TestLoad_Rejects(t *testing.T) {
	if _, err := geofence.Load(strings.NewReader(`{"type":"Feature"}`), ""); err == nil {
		t.Error("expected error for non-collection")
	}
	if _, err := geofence.Load(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), ""); err == nil {
		t.Error("expected error for empty collection")
	}
}

func TestLocate_NilIndex(t *testing.T) {
	var idx *geofence.Index
	if _, ok := idx.Locate(1, 1); ok {
		t.Error("nil index should never locate")
	}
}
