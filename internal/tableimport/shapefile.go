package tableimport

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

// DefaultGeoIDField is the TIGER SLDL/SLDU attribute holding state FIPS +
// district.
const DefaultGeoIDField = "GEOID"

// ParseBoundaryShapefile reads a TIGER state legislative district
// shapefile. The feature id is the record ordinal, which is what tile
// builders assign when they convert the file; the unit code is the GEOID
// attribute.
func ParseBoundaryShapefile(path string, chamber districts.Chamber, geoidField string) ([]districts.BoundaryRecord, error) {
	if geoidField == "" {
		geoidField = DefaultGeoIDField
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	idx := fieldIndex(reader, geoidField)
	if idx < 0 {
		return nil, fmt.Errorf("shapefile %s: missing field %s", path, geoidField)
	}

	var out []districts.BoundaryRecord
	skipped := 0
	for reader.Next() {
		n, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}
		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		if code == "" {
			skipped++
			continue
		}
		out = append(out, districts.BoundaryRecord{
			FeatureID: districts.FeatureID(strconv.Itoa(n)),
			UnitCode:  districts.UnitCode(code),
			Chamber:   chamber,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	if skipped > 0 {
		log.Printf("[tableimport] %s: skipped %d records without shape or %s", path, skipped, geoidField)
	}
	return out, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
