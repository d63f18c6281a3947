package districts

import (
	"fmt"
	"strings"
)

type stateInfo struct {
	Name string
	FIPS int
}

var states = map[string]stateInfo{
	"AL": {"Alabama", 1}, "AK": {"Alaska", 2}, "AZ": {"Arizona", 4}, "AR": {"Arkansas", 5},
	"CA": {"California", 6}, "CO": {"Colorado", 8}, "CT": {"Connecticut", 9}, "DE": {"Delaware", 10},
	"DC": {"District of Columbia", 11}, "FL": {"Florida", 12}, "GA": {"Georgia", 13}, "HI": {"Hawaii", 15},
	"ID": {"Idaho", 16}, "IL": {"Illinois", 17}, "IN": {"Indiana", 18}, "IA": {"Iowa", 19},
	"KS": {"Kansas", 20}, "KY": {"Kentucky", 21}, "LA": {"Louisiana", 22}, "ME": {"Maine", 23},
	"MD": {"Maryland", 24}, "MA": {"Massachusetts", 25}, "MI": {"Michigan", 26}, "MN": {"Minnesota", 27},
	"MS": {"Mississippi", 28}, "MO": {"Missouri", 29}, "MT": {"Montana", 30}, "NE": {"Nebraska", 31},
	"NV": {"Nevada", 32}, "NH": {"New Hampshire", 33}, "NJ": {"New Jersey", 34}, "NM": {"New Mexico", 35},
	"NY": {"New York", 36}, "NC": {"North Carolina", 37}, "ND": {"North Dakota", 38}, "OH": {"Ohio", 39},
	"OK": {"Oklahoma", 40}, "OR": {"Oregon", 41}, "PA": {"Pennsylvania", 42}, "RI": {"Rhode Island", 44},
	"SC": {"South Carolina", 45}, "SD": {"South Dakota", 46}, "TN": {"Tennessee", 47}, "TX": {"Texas", 48},
	"UT": {"Utah", 49}, "VT": {"Vermont", 50}, "VA": {"Virginia", 51}, "WA": {"Washington", 53},
	"WV": {"West Virginia", 54}, "WI": {"Wisconsin", 55}, "WY": {"Wyoming", 56}, "PR": {"Puerto Rico", 72},
}

// StateFIPS returns the two-digit FIPS code for a postal code.
func StateFIPS(postal string) (string, bool) {
	s, ok := states[strings.ToUpper(strings.TrimSpace(postal))]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d", s.FIPS), true
}

// StateName returns the full state name for a postal code.
func StateName(postal string) (string, bool) {
	s, ok := states[strings.ToUpper(strings.TrimSpace(postal))]
	return s.Name, ok
}

// StateForCode returns the postal code whose FIPS prefixes a normalized
// unit code ("09059" -> "CT").
func StateForCode(code UnitCode) (string, bool) {
	code = NormalizeUnitCode(code)
	if len(code) < 2 {
		return "", false
	}
	prefix := string(code[:2])
	for postal, s := range states {
		if fmt.Sprintf("%02d", s.FIPS) == prefix {
			return postal, true
		}
	}
	return "", false
}

// ValidState reports whether postal is a known two-letter code.
func ValidState(postal string) bool {
	_, ok := states[strings.ToUpper(strings.TrimSpace(postal))]
	return ok
}

// DistrictCode is a parsed model district string such as "CT-HD-59".
type DistrictCode struct {
	State    string
	Chamber  Chamber
	District string
}

// ParseDistrictCode splits "ST-CH-NUM". The district token may carry a
// letter suffix ("MN-HD-13A").
func ParseDistrictCode(s string) (DistrictCode, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return DistrictCode{}, fmt.Errorf("%w: %q", ErrBadDistrictCode, s)
	}
	state := strings.ToUpper(parts[0])
	if !ValidState(state) {
		return DistrictCode{}, fmt.Errorf("%w: unknown state in %q", ErrBadDistrictCode, s)
	}
	ch, err := ParseChamber(parts[1])
	if err != nil {
		return DistrictCode{}, fmt.Errorf("%w: %v", ErrBadDistrictCode, err)
	}
	dist := strings.ToUpper(strings.TrimSpace(parts[2]))
	if dist == "" {
		return DistrictCode{}, fmt.Errorf("%w: empty district in %q", ErrBadDistrictCode, s)
	}
	return DistrictCode{State: state, Chamber: ch, District: dist}, nil
}

// Named reports whether the district token is a name rather than a number,
// as Massachusetts uses ("MA-HD-FirstBarnstable"). Named districts have no
// unit code.
func (d DistrictCode) Named() bool {
	if len(d.District) < 4 {
		return false
	}
	for _, c := range d.District {
		if c < '0' || c > '9' {
			return true
		}
	}
	return false
}

// GeoID builds the unit code: state FIPS followed by the district token
// zero-padded to three characters ("CT-HD-59" -> "09059"). It is
// meaningless for named districts.
func (d DistrictCode) GeoID() UnitCode {
	fips, _ := StateFIPS(d.State)
	dist := d.District
	for len(dist) < 3 {
		dist = "0" + dist
	}
	return UnitCode(fips + dist)
}

func (d DistrictCode) String() string {
	return d.State + "-" + string(d.Chamber) + "-" + d.District
}
