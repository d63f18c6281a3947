// Package popup renders the HTML fragments shown when a district is clicked
// and when a state is selected.
package popup

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

const notTrackedNote = "Not a redistricting priority this cycle"

// Field is one row of the popup table.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	// Emphasis marks the incumbent party's nominee.
	Emphasis bool `json:"emphasis,omitempty"`
}

var printer = message.NewPrinter(language.English)

// Fields decides which rows a popup shows for a category.
func Fields(category districts.DisplayCategory, r districts.ResultRecord) []Field {
	district := Field{Label: "District", Value: r.District}
	if district.Value == "" {
		district.Value = string(r.GeoID)
	}
	if !category.Important() {
		return []Field{district, {Label: "Note", Value: notTrackedNote}}
	}

	dem := Field{Label: "Dem. Cand.", Value: r.DemNominee}
	rep := Field{Label: "Rep. Cand.", Value: r.RepNominee}
	switch category {
	case districts.ImportantDemocraticIncumbent:
		dem.Emphasis = dem.Value != ""
	case districts.ImportantRepublicanIncumbent:
		rep.Emphasis = rep.Value != ""
	}
	return []Field{
		district,
		{Label: "Rating", Value: districts.Lean(r)},
		dem,
		rep,
		{Label: "Voter Power", Value: FormatPower(r.VoterPower)},
	}
}

// FormatPower prints a voter power score with one decimal and grouping.
func FormatPower(vp float64) string {
	if math.IsNaN(vp) || math.IsInf(vp, 0) {
		return "n/a"
	}
	return printer.Sprintf("%.1f", vp)
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<table class="district-popup {{.Category}}">` +
		`{{range .Fields}}<tr><th>{{.Label}}</th><td>{{if .Emphasis}}<u>{{.Value}}</u>{{else}}{{.Value}}{{end}}</td></tr>{{end}}` +
		`</table>`))

// RenderPopup classifies r and renders its popup table.
func RenderPopup(r districts.ResultRecord) (string, error) {
	cat := districts.ClassifyDistrict(r)
	var buf bytes.Buffer
	err := popupTmpl.Execute(&buf, struct {
		Category string
		Fields   []Field
	}{cat.String(), Fields(cat, r)})
	if err != nil {
		return "", fmt.Errorf("render popup: %w", err)
	}
	return buf.String(), nil
}

var sidebarTmpl = template.Must(template.New("sidebar").Parse(
	`<section class="state-sidebar" data-state="{{.Postal}}">` +
		`<h2>{{.Heading}}</h2>` +
		`{{range .Fields}}{{if .Value}}<h3>{{.Name}}</h3><p>{{.Value}}</p>{{end}}{{end}}` +
		`</section>`))

var titler = cases.Title(language.English)

// FieldLabel turns a snake_case sheet column into a heading. Columns that
// are already prose are returned unchanged.
func FieldLabel(name string) string {
	if !strings.Contains(name, "_") || strings.Contains(name, " ") {
		return name
	}
	return titler.String(strings.ReplaceAll(strings.ToLower(name), "_", " "))
}

// RenderSidebar renders a state's narrative fields. Empty fields are left out.
func RenderSidebar(s districts.StateSummary) (string, error) {
	heading, ok := districts.StateName(s.StatePO)
	if !ok {
		heading = s.StatePO
	}
	fields := make([]districts.SummaryField, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, districts.SummaryField{Name: FieldLabel(f.Name), Value: f.Value})
	}

	var buf bytes.Buffer
	err := sidebarTmpl.Execute(&buf, struct {
		Postal  string
		Heading string
		Fields  []districts.SummaryField
	}{s.StatePO, heading, fields})
	if err != nil {
		return "", fmt.Errorf("render sidebar: %w", err)
	}
	return buf.String(), nil
}
