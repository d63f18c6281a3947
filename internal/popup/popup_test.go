package popup_test

import (
	"strings"
	"testing"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/popup"
)

func sample() districts.ResultRecord {
	return districts.ResultRecord{
		GeoID:          "07123",
		Chamber:        districts.ChamberLower,
		State:          "CT",
		District:       "CT-HD-123",
		VoterPower:     80,
		Favored:        "R",
		Confidence:     "Lean",
		IncumbentParty: "R",
		DemNominee:     "Sam Poe",
		RepNominee:     "Jane Roe",
	}
}

func TestFields_Important(t *testing.T) {
	r := sample()
	fields := popup.Fields(districts.ImportantRepublicanIncumbent, r)

	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label)
	}
	if got := strings.Join(labels, "|"); got != "District|Rating|Dem. Cand.|Rep. Cand.|Voter Power" {
		t.Fatalf("unexpected labels %s", got)
	}
	if fields[1].Value != "Lean R" {
		t.Errorf("unexpected rating %q", fields[1].Value)
	}
	if fields[2].Emphasis || !fields[3].Emphasis {
		t.Errorf("only the republican nominee should be emphasized: %+v", fields)
	}
	if fields[4].Value != "80.0" {
		t.Errorf("unexpected voter power %q", fields[4].Value)
	}
}

func TestFields_OpenSeatHasNoEmphasis(t *testing.T) {
	r := sample()
	r.IncumbentParty = ""
	for _, f := range popup.Fields(districts.ImportantOpenSeat, r) {
		if f.Emphasis {
			t.Errorf("open seat should not emphasize %s", f.Label)
		}
	}
}

func TestFields_NotTracked(t *testing.T) {
	r := sample()
	r.District = ""
	fields := popup.Fields(districts.NotTracked, r)
	if len(fields) != 2 {
		t.Fatalf("expected district and note, got %+v", fields)
	}
	if fields[0].Value != "07123" {
		t.Errorf("district should fall back to geoid, got %q", fields[0].Value)
	}
}

func TestRenderPopup(t *testing.T) {
	r := sample()
	r.RepNominee = "<b>Jane</b>"

	html, err := popup.RenderPopup(r)
	if err != nil {
		t.Fatalf("RenderPopup: %v", err)
	}
	if !strings.Contains(html, "important_republican_incumbent") {
		t.Errorf("missing category class: %s", html)
	}
	if !strings.Contains(html, "<u>&lt;b&gt;Jane&lt;/b&gt;</u>") {
		t.Errorf("nominee should be escaped and underlined: %s", html)
	}
	if !strings.Contains(html, "<th>Dem. Cand.</th><td>Sam Poe</td>") {
		t.Errorf("missing dem row: %s", html)
	}
}

func TestFormatPower(t *testing.T) {
	if got := popup.FormatPower(1234.56); got != "1,234.6" {
		t.Errorf("FormatPower(1234.56) = %q", got)
	}
}

func TestRenderSidebar(t *testing.T) {
	s := districts.StateSummary{StatePO: "CT", Fields: []districts.SummaryField{
		{Name: "who_controls", Value: "Commission"},
		{Name: "Notes", Value: ""},
	}}
	html, err := popup.RenderSidebar(s)
	if err != nil {
		t.Fatalf("RenderSidebar: %v", err)
	}
	if !strings.Contains(html, "<h2>Connecticut</h2>") {
		t.Errorf("missing state heading: %s", html)
	}
	if !strings.Contains(html, "<h3>Who Controls</h3><p>Commission</p>") {
		t.Errorf("missing field: %s", html)
	}
	if strings.Contains(html, "Notes") {
		t.Errorf("empty fields should be skipped: %s", html)
	}
}
