package districts

import (
	"fmt"
	"strings"
)

// DisplayCategory selects which popup fields are shown and emphasized.
type DisplayCategory int

const (
	NotTracked DisplayCategory = iota
	ImportantRepublicanIncumbent
	ImportantDemocraticIncumbent
	ImportantOpenSeat
)

func (c DisplayCategory) String() string {
	switch c {
	case ImportantRepublicanIncumbent:
		return "important_republican_incumbent"
	case ImportantDemocraticIncumbent:
		return "important_democratic_incumbent"
	case ImportantOpenSeat:
		return "important_open_seat"
	}
	return "not_tracked"
}

func (c DisplayCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *DisplayCategory) UnmarshalText(b []byte) error {
	for _, cat := range []DisplayCategory{NotTracked, ImportantRepublicanIncumbent, ImportantDemocraticIncumbent, ImportantOpenSeat} {
		if cat.String() == string(b) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown display category %q", b)
}

// Important reports whether the district matters for redistricting.
func (c DisplayCategory) Important() bool {
	return c != NotTracked
}

// importantThreshold is inclusive: a voter power of exactly 1 is important.
const importantThreshold = 1.0

// ClassifyDistrict buckets a result for presentation.
//
//   - voter power >= 1, incumbent R      -> ImportantRepublicanIncumbent
//   - voter power >= 1, incumbent D      -> ImportantDemocraticIncumbent
//   - voter power >= 1, no incumbent     -> ImportantOpenSeat
//   - anything else                      -> NotTracked
//
// An incumbent party other than R or D on an important seat is NotTracked.
func ClassifyDistrict(r ResultRecord) DisplayCategory {
	if !(r.VoterPower >= importantThreshold) {
		return NotTracked
	}
	switch party := strings.ToUpper(strings.TrimSpace(r.IncumbentParty)); party {
	case "R":
		return ImportantRepublicanIncumbent
	case "D":
		return ImportantDemocraticIncumbent
	case "", "NONE":
		return ImportantOpenSeat
	}
	return NotTracked
}

// Lean is the popup "Rating" cell: "Toss-Up", or the confidence followed by
// the favored party ("Likely D").
func Lean(r ResultRecord) string {
	conf := strings.TrimSpace(r.Confidence)
	fav := strings.TrimSpace(r.Favored)
	if strings.EqualFold(conf, "Toss-Up") {
		return "Toss-Up"
	}
	if conf == "" && fav == "" {
		return "no data"
	}
	return strings.TrimSpace(conf + " " + fav)
}

// CleanNominee blanks the FALSE placeholder the model writes for races
// without a nominee.
func CleanNominee(name string) string {
	name = strings.TrimSpace(name)
	if name == "FALSE" {
		return ""
	}
	return name
}

// PowerBand returns the map color bucket (0-4) for a voter power score.
// The lowest bucket starts at 5 for house districts and 3 for senate
// districts.
func PowerBand(voterPower float64, chamber Chamber) int {
	floor := 5.0
	if chamber == ChamberUpper {
		floor = 3.0
	}
	switch {
	case voterPower >= 75:
		return 4
	case voterPower >= 45:
		return 3
	case voterPower >= 25:
		return 2
	case voterPower >= floor:
		return 1
	}
	return 0
}
