package tables

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
)

type boundaryEnvelope struct {
	Data struct {
		All []districts.BoundaryRecord `json:"all"`
	} `json:"data"`
}

// DecodeBoundaries reads the boundary lookup document:
//
//	{ "<chamber-key>": { "data": { "all": [ {"feature_id": .., "unit_code": ..}, .. ] } } }
//
// Chamber keys go through districts.ParseChamber; unknown keys are skipped.
func DecodeBoundaries(r io.Reader) ([]districts.BoundaryRecord, error) {
	var doc map[string]boundaryEnvelope
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode boundary lookup: %w", err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []districts.BoundaryRecord
	for _, k := range keys {
		ch, err := districts.ParseChamber(k)
		if err != nil {
			log.Printf("[tables] boundaries: skipping chamber key %q", k)
			continue
		}
		for _, rec := range doc[k].Data.All {
			rec.Chamber = ch
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("boundary lookup has no records")
	}
	return out, nil
}

// DecodeResults reads the flat JSON array of per-district results.
func DecodeResults(r io.Reader) ([]districts.ResultRecord, error) {
	var recs []districts.ResultRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	for i := range recs {
		recs[i].DemNominee = districts.CleanNominee(recs[i].DemNominee)
		recs[i].RepNominee = districts.CleanNominee(recs[i].RepNominee)
	}
	return recs, nil
}

// DecodeSummaries reads the state summary sheet. state_po is required;
// every other column becomes a narrative field in header order.
func DecodeSummaries(r io.Reader) ([]districts.StateSummary, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read state summaries: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("state summary csv has no data rows")
	}

	header := records[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	poCol := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "state_po" {
			poCol = i
		}
	}
	if poCol < 0 {
		return nil, errors.New("missing required column: state_po")
	}

	var out []districts.StateSummary
	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		if poCol >= len(rec) || strings.TrimSpace(rec[poCol]) == "" {
			log.Printf("[tables] summaries: row %d has no state_po, skipping", rowIdx+1)
			continue
		}
		s := districts.StateSummary{StatePO: strings.ToUpper(strings.TrimSpace(rec[poCol]))}
		for i, name := range header {
			if i == poCol || name == "" {
				continue
			}
			val := ""
			if i < len(rec) {
				val = strings.TrimSpace(rec[i])
			}
			s.Fields = append(s.Fields, districts.SummaryField{Name: name, Value: val})
		}
		out = append(out, s)
	}
	return out, nil
}
