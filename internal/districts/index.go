package districts

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// NormalizeUnitCode left-pads 4-digit codes (single-digit state FIPS with
// the leading zero dropped) to 5 characters. Every other length is returned
// as-is.
func NormalizeUnitCode(code UnitCode) UnitCode {
	if len(code) == 4 {
		return "0" + code
	}
	return code
}

// ResultKey identifies a result record. Code is always normalized.
type ResultKey struct {
	Code    UnitCode
	Chamber Chamber
}

func NewResultKey(code UnitCode, chamber Chamber) ResultKey {
	return ResultKey{Code: NormalizeUnitCode(code), Chamber: chamber}
}

// ResultIndex maps (unit code, chamber) to a result record.
type ResultIndex struct {
	byKey      map[ResultKey]ResultRecord
	byDistrict map[string]ResultKey
	duplicates int
	skipped    int
}

// BuildResultIndex indexes the flat results table in one pass. When two
// records share a key the later one wins; Duplicates reports how often that
// happened. Records without a geoid or with an unknown chamber are skipped.
func BuildResultIndex(records []ResultRecord) ResultIndex {
	idx, _ := buildResultIndex(records, false)
	return idx
}

// BuildResultIndexStrict is BuildResultIndex with duplicate keys rejected.
func BuildResultIndexStrict(records []ResultRecord) (ResultIndex, error) {
	return buildResultIndex(records, true)
}

func buildResultIndex(records []ResultRecord, strict bool) (ResultIndex, error) {
	idx := ResultIndex{
		byKey:      make(map[ResultKey]ResultRecord, len(records)),
		byDistrict: make(map[string]ResultKey, len(records)),
	}
	for i, r := range records {
		if r.GeoID == "" {
			idx.skipped++
			continue
		}
		ch, err := ParseChamber(string(r.Chamber))
		if err != nil {
			idx.skipped++
			continue
		}
		r.GeoID = NormalizeUnitCode(r.GeoID)
		r.Chamber = ch
		key := ResultKey{Code: r.GeoID, Chamber: ch}
		if _, ok := idx.byKey[key]; ok {
			if strict {
				return ResultIndex{}, fmt.Errorf("%w: geoid=%s chamber=%s (row %d)", ErrDuplicateResult, key.Code, key.Chamber, i+1)
			}
			idx.duplicates++
		}
		idx.byKey[key] = r
		if d := districtKey(r.District); d != "" {
			idx.byDistrict[d] = key
		}
	}
	return idx, nil
}

func districtKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (x ResultIndex) Lookup(code UnitCode, chamber Chamber) (ResultRecord, bool) {
	r, ok := x.byKey[NewResultKey(code, chamber)]
	return r, ok
}

// LookupDistrict finds a record by its model district string. Numbered
// districts go through the unit code; named ones (Massachusetts) match the
// record's district field.
func (x ResultIndex) LookupDistrict(dc DistrictCode) (ResultRecord, bool) {
	if !dc.Named() {
		return x.Lookup(dc.GeoID(), dc.Chamber)
	}
	key, ok := x.byDistrict[districtKey(dc.String())]
	if !ok || key.Chamber != dc.Chamber {
		return ResultRecord{}, false
	}
	r, ok := x.byKey[key]
	return r, ok
}

func (x ResultIndex) Len() int        { return len(x.byKey) }
func (x ResultIndex) Duplicates() int { return x.duplicates }
func (x ResultIndex) Skipped() int    { return x.skipped }

// ByState returns every record for a postal code and chamber, highest
// voter power first. An empty chamber matches both.
func (x ResultIndex) ByState(state string, chamber Chamber) []ResultRecord {
	state = strings.ToUpper(strings.TrimSpace(state))
	var out []ResultRecord
	for _, r := range x.byKey {
		if !strings.EqualFold(r.State, state) {
			continue
		}
		if chamber != "" && r.Chamber != chamber {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b ResultRecord) int {
		if c := cmp.Compare(b.VoterPower, a.VoterPower); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Chamber, b.Chamber); c != 0 {
			return c
		}
		return cmp.Compare(a.GeoID, b.GeoID)
	})
	return out
}

// BoundaryIndex maps chamber -> feature id -> unit code.
type BoundaryIndex struct {
	byChamber map[Chamber]map[FeatureID]UnitCode
}

// BuildBoundaryIndex keeps the first record seen for each (chamber, feature
// id), matching a front-to-back scan of the lookup table.
func BuildBoundaryIndex(records []BoundaryRecord) BoundaryIndex {
	idx := BoundaryIndex{byChamber: make(map[Chamber]map[FeatureID]UnitCode, len(Chambers))}
	for _, r := range records {
		if r.FeatureID == "" {
			continue
		}
		m, ok := idx.byChamber[r.Chamber]
		if !ok {
			m = make(map[FeatureID]UnitCode)
			idx.byChamber[r.Chamber] = m
		}
		if _, seen := m[r.FeatureID]; seen {
			continue
		}
		m[r.FeatureID] = r.UnitCode
	}
	return idx
}

func (x BoundaryIndex) Lookup(chamber Chamber, id FeatureID) (UnitCode, bool) {
	code, ok := x.byChamber[chamber][id]
	return code, ok
}

// Len counts boundary records for one chamber.
func (x BoundaryIndex) Len(chamber Chamber) int {
	return len(x.byChamber[chamber])
}

// SummaryIndex maps an upper-case postal code to its summary.
type SummaryIndex struct {
	byState    map[string]StateSummary
	duplicates int
}

// BuildSummaryIndex keeps the last row for each postal code.
func BuildSummaryIndex(rows []StateSummary) SummaryIndex {
	idx := SummaryIndex{byState: make(map[string]StateSummary, len(rows))}
	for _, r := range rows {
		po := strings.ToUpper(strings.TrimSpace(r.StatePO))
		if po == "" {
			continue
		}
		if _, ok := idx.byState[po]; ok {
			idx.duplicates++
		}
		r.StatePO = po
		idx.byState[po] = r
	}
	return idx
}

func (x SummaryIndex) Lookup(postal string) (StateSummary, bool) {
	s, ok := x.byState[strings.ToUpper(strings.TrimSpace(postal))]
	return s, ok
}

func (x SummaryIndex) Len() int        { return len(x.byState) }
func (x SummaryIndex) Duplicates() int { return x.duplicates }
