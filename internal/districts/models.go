package districts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("district not found")
	ErrDuplicateResult = errors.New("duplicate result record")
	ErrUnknownChamber  = errors.New("unknown chamber")
	ErrBadDistrictCode = errors.New("malformed district code")
)

// Chamber is a state legislative body. The codes match the district
// strings published with the voter power model ("CT-HD-59").
type Chamber string

const (
	ChamberLower Chamber = "HD" // state house / SLDL
	ChamberUpper Chamber = "SD" // state senate / SLDU
)

// Chambers lists every chamber in display order.
var Chambers = []Chamber{ChamberLower, ChamberUpper}

// ParseChamber accepts the chamber code as well as the aliases used by the
// map layers and the Census boundary files.
func ParseChamber(s string) (Chamber, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hd", "lower", "house", "sldl", "state-house":
		return ChamberLower, nil
	case "sd", "upper", "senate", "sldu", "state-senate":
		return ChamberUpper, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChamber, s)
}

func (c Chamber) Valid() bool {
	return c == ChamberLower || c == ChamberUpper
}

// Label is the human name used in popups.
func (c Chamber) Label() string {
	switch c {
	case ChamberLower:
		return "State House"
	case ChamberUpper:
		return "State Senate"
	}
	return string(c)
}

// FeatureID is the identifier the tile provider assigns to one polygon.
// Tile sources emit numeric ids while lookup tables often carry strings,
// so both JSON forms decode to the same decimal text.
type FeatureID string

func (f *FeatureID) UnmarshalJSON(b []byte) error {
	s, err := scalarString(b)
	if err != nil {
		return fmt.Errorf("feature_id: %w", err)
	}
	*f = FeatureID(s)
	return nil
}

// UnitCode is the state FIPS + district number joining boundaries to
// results. Use NormalizeUnitCode before comparing two codes.
type UnitCode string

func (u *UnitCode) UnmarshalJSON(b []byte) error {
	s, err := scalarString(b)
	if err != nil {
		return fmt.Errorf("unit code: %w", err)
	}
	*u = UnitCode(s)
	return nil
}

func scalarString(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// BoundaryRecord ties one district polygon to its unit code.
type BoundaryRecord struct {
	FeatureID FeatureID `json:"feature_id"`
	UnitCode  UnitCode  `json:"unit_code"`
	Chamber   Chamber   `json:"chamber,omitempty"`
}

// ResultRecord is one district-chamber row of the voter power model.
type ResultRecord struct {
	GeoID                   UnitCode `json:"geoid"`
	Chamber                 Chamber  `json:"chamber"`
	State                   string   `json:"state"`
	District                string   `json:"district"`
	VoterPower              float64  `json:"voter_power"`
	Favored                 string   `json:"favored"`
	Confidence              string   `json:"confidence"`
	IncumbentParty          string   `json:"incumbent_party"`
	Incumbent               string   `json:"incumbent,omitempty"`
	DemNominee              string   `json:"dem_nominee"`
	RepNominee              string   `json:"rep_nominee"`
	AntiGerrymanderingParty string   `json:"anti_gerrymandering_party,omitempty"`
}

// StateSummary holds the redistricting narrative for one state. Fields keep
// the column order of the source sheet.
type StateSummary struct {
	StatePO string         `json:"state_po"`
	Fields  []SummaryField `json:"fields"`
}

type SummaryField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Field returns the named narrative column, or "" when absent.
func (s StateSummary) Field(name string) string {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}
