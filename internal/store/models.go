package store

import (
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

const Schema = "redistricting"

type Result struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	GeoID                   string    `gorm:"column:geoid;not null;uniqueIndex:idx_results_key" json:"geoid"`
	Chamber                 string    `gorm:"column:chamber;not null;uniqueIndex:idx_results_key" json:"chamber"`
	State                   string    `gorm:"column:state;index" json:"state"`
	District                string    `gorm:"column:district" json:"district"`
	VoterPower              float64   `gorm:"column:voter_power" json:"voter_power"`
	Favored                 string    `gorm:"column:favored" json:"favored"`
	Confidence              string    `gorm:"column:confidence" json:"confidence"`
	IncumbentParty          string    `gorm:"column:incumbent_party" json:"incumbent_party"`
	Incumbent               string    `gorm:"column:incumbent" json:"incumbent"`
	DemNominee              string    `gorm:"column:dem_nominee" json:"dem_nominee"`
	RepNominee              string    `gorm:"column:rep_nominee" json:"rep_nominee"`
	AntiGerrymanderingParty string    `gorm:"column:anti_gerrymandering_party" json:"anti_gerrymandering_party"`
}

func (Result) TableName() string { return Schema + ".results" }

// Boundary rows keep the source order in Ordinal so the first record for a
// feature id still wins after a round trip through Postgres.
type Boundary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Chamber   string    `gorm:"column:chamber;not null;index:idx_boundaries_chamber" json:"chamber"`
	FeatureID string    `gorm:"column:feature_id;not null" json:"feature_id"`
	UnitCode  string    `gorm:"column:unit_code" json:"unit_code"`
	State     string    `gorm:"column:state;index" json:"state"`
	Ordinal   int       `gorm:"column:ordinal" json:"ordinal"`
}

func (Boundary) TableName() string { return Schema + ".boundaries" }

type StateSummary struct {
	StatePO     string         `gorm:"primaryKey;column:state_po" json:"state_po"`
	FieldNames  pq.StringArray `gorm:"type:text[];column:field_names" json:"field_names"`
	FieldValues pq.StringArray `gorm:"type:text[];column:field_values" json:"field_values"`
}

func (StateSummary) TableName() string { return Schema + ".state_summaries" }

func (r Result) Record() districts.ResultRecord {
	return districts.ResultRecord{
		GeoID:                   districts.UnitCode(r.GeoID),
		Chamber:                 districts.Chamber(r.Chamber),
		State:                   r.State,
		District:                r.District,
		VoterPower:              r.VoterPower,
		Favored:                 r.Favored,
		Confidence:              r.Confidence,
		IncumbentParty:          r.IncumbentParty,
		Incumbent:               r.Incumbent,
		DemNominee:              r.DemNominee,
		RepNominee:              r.RepNominee,
		AntiGerrymanderingParty: r.AntiGerrymanderingParty,
	}
}

func ResultFromRecord(id uuid.UUID, rec districts.ResultRecord) Result {
	return Result{
		ID:                      id,
		GeoID:                   string(districts.NormalizeUnitCode(rec.GeoID)),
		Chamber:                 string(rec.Chamber),
		State:                   rec.State,
		District:                rec.District,
		VoterPower:              rec.VoterPower,
		Favored:                 rec.Favored,
		Confidence:              rec.Confidence,
		IncumbentParty:          rec.IncumbentParty,
		Incumbent:               rec.Incumbent,
		DemNominee:              rec.DemNominee,
		RepNominee:              rec.RepNominee,
		AntiGerrymanderingParty: rec.AntiGerrymanderingParty,
	}
}

func (b Boundary) Record() districts.BoundaryRecord {
	return districts.BoundaryRecord{
		FeatureID: districts.FeatureID(b.FeatureID),
		UnitCode:  districts.UnitCode(b.UnitCode),
		Chamber:   districts.Chamber(b.Chamber),
	}
}

func (s StateSummary) Record() districts.StateSummary {
	out := districts.StateSummary{StatePO: s.StatePO}
	for i, name := range s.FieldNames {
		val := ""
		if i < len(s.FieldValues) {
			val = s.FieldValues[i]
		}
		out.Fields = append(out.Fields, districts.SummaryField{Name: name, Value: val})
	}
	return out
}

func SummaryFromRecord(rec districts.StateSummary) StateSummary {
	s := StateSummary{
		StatePO:     rec.StatePO,
		FieldNames:  make(pq.StringArray, 0, len(rec.Fields)),
		FieldValues: make(pq.StringArray, 0, len(rec.Fields)),
	}
	for _, f := range rec.Fields {
		s.FieldNames = append(s.FieldNames, f.Name)
		s.FieldValues = append(s.FieldValues, f.Value)
	}
	return s
}
