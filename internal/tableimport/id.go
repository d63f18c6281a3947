package tableimport

import (
	"strings"

	"github.com/google/uuid"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

func v5(ns uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(name))
}

// ResultID is stable across imports for the same (geoid, chamber).
func ResultID(ns uuid.UUID, code districts.UnitCode, chamber districts.Chamber) uuid.UUID {
	return v5(ns, "result:"+string(districts.NormalizeUnitCode(code))+":"+strings.ToUpper(string(chamber)))
}

func BoundaryID(ns uuid.UUID, chamber districts.Chamber, featureID districts.FeatureID) uuid.UUID {
	return v5(ns, "boundary:"+strings.ToUpper(string(chamber))+":"+string(featureID))
}
