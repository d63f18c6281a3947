// Package geofence resolves a coordinate to the district polygon that
// contains it, for clicks and deep links that arrive as lat/lng.
package geofence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// polygon is one part of a district: outer ring first, holes after.
type polygon struct {
	layout geom.Layout
	rings  [][]float64
	bbox   [4]float64 // minLng, minLat, maxLng, maxLat
}

type shape struct {
	id    districts.FeatureID
	polys []polygon
}

// Index is a read-only set of district shapes for one chamber.
type Index struct {
	shapes  []shape
	skipped int
}

type rawFeature struct {
	ID         districts.FeatureID `json:"id"`
	Properties map[string]any      `json:"properties"`
	Geometry   json.RawMessage     `json:"geometry"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// Load decodes a GeoJSON FeatureCollection of Polygon/MultiPolygon
// districts. The feature id is the top-level "id" unless idProperty names a
// property to use instead. Features without an id or with other geometry
// types are skipped.
func Load(r io.Reader, idProperty string) (*Index, error) {
	var fc rawCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	idx := &Index{}
	for _, f := range fc.Features {
		id := f.ID
		if idProperty != "" {
			id = propertyID(f.Properties[idProperty])
		}
		if id == "" || len(f.Geometry) == 0 {
			idx.skipped++
			continue
		}
		var g geom.T
		if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
			idx.skipped++
			continue
		}
		s := shape{id: id}
		switch t := g.(type) {
		case *geom.Polygon:
			s.polys = append(s.polys, toPolygon(t))
		case *geom.MultiPolygon:
			for i := 0; i < t.NumPolygons(); i++ {
				s.polys = append(s.polys, toPolygon(t.Polygon(i)))
			}
		default:
			idx.skipped++
			continue
		}
		idx.shapes = append(idx.shapes, s)
	}
	if len(idx.shapes) == 0 {
		return nil, errors.New("geojson has no usable district polygons")
	}
	return idx, nil
}

func propertyID(v any) districts.FeatureID {
	switch x := v.(type) {
	case string:
		return districts.FeatureID(x)
	case float64:
		return districts.FeatureID(strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		return districts.FeatureID(x.String())
	}
	return ""
}

func toPolygon(p *geom.Polygon) polygon {
	out := polygon{layout: p.Layout(), bbox: [4]float64{180, 90, -180, -90}}
	stride := p.Layout().Stride()
	for i := 0; i < p.NumLinearRings(); i++ {
		flat := p.LinearRing(i).FlatCoords()
		out.rings = append(out.rings, flat)
		if i > 0 {
			continue
		}
		for j := 0; j+1 < len(flat); j += stride {
			lng, lat := flat[j], flat[j+1]
			if lng < out.bbox[0] {
				out.bbox[0] = lng
			}
			if lat < out.bbox[1] {
				out.bbox[1] = lat
			}
			if lng > out.bbox[2] {
				out.bbox[2] = lng
			}
			if lat > out.bbox[3] {
				out.bbox[3] = lat
			}
		}
	}
	return out
}

func (p polygon) contains(pt geom.Coord) bool {
	if len(p.rings) == 0 {
		return false
	}
	if pt[0] < p.bbox[0] || pt[0] > p.bbox[2] || pt[1] < p.bbox[1] || pt[1] > p.bbox[3] {
		return false
	}
	if !xy.IsPointInRing(p.layout, pt, p.rings[0]) {
		return false
	}
	for _, hole := range p.rings[1:] {
		if xy.IsPointInRing(p.layout, pt, hole) {
			return false
		}
	}
	return true
}

// Locate returns the first district whose polygons contain (lat, lng).
func (x *Index) Locate(lat, lng float64) (districts.FeatureID, bool) {
	if x == nil {
		return "", false
	}
	pt := geom.Coord{lng, lat}
	for _, s := range x.shapes {
		for _, p := range s.polys {
			if p.contains(pt) {
				return s.id, true
			}
		}
	}
	return "", false
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.shapes)
}

func (x *Index) Skipped() int {
	if x == nil {
		return 0
	}
	return x.skipped
}
