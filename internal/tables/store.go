package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/geofence"
)

// Shapes is the per-chamber geofence used by coordinate lookups.
type Shapes map[districts.Chamber]*geofence.Index

// Store is the process-wide set of tables behind the resolver.
type Store struct {
	Boundaries *Table[districts.BoundaryIndex]
	Results    *Table[districts.ResultIndex]
	Summaries  *Table[districts.SummaryIndex]
	Shapes     *Table[Shapes]
}

func NewStore() *Store {
	return &Store{
		Boundaries: New[districts.BoundaryIndex]("boundaries"),
		Results:    New[districts.ResultIndex]("results"),
		Summaries:  New[districts.SummaryIndex]("summaries"),
		Shapes:     New[Shapes]("shapes"),
	}
}

// Resolve looks up a clicked feature without blocking. It returns
// ErrTableNotLoaded while either dependency is still loading.
func (s *Store) Resolve(featureID districts.FeatureID, chamber districts.Chamber) (districts.ResultRecord, error) {
	b, err := s.Boundaries.Get()
	if err != nil {
		return districts.ResultRecord{}, err
	}
	r, err := s.Results.Get()
	if err != nil {
		return districts.ResultRecord{}, err
	}
	return districts.ResolveFeature(b, r, featureID, chamber)
}

// ResolveWait is Resolve after waiting for both tables, bounded by ctx.
func (s *Store) ResolveWait(ctx context.Context, featureID districts.FeatureID, chamber districts.Chamber) (districts.ResultRecord, error) {
	b, err := s.Boundaries.Wait(ctx)
	if err != nil {
		return districts.ResultRecord{}, err
	}
	r, err := s.Results.Wait(ctx)
	if err != nil {
		return districts.ResultRecord{}, err
	}
	return districts.ResolveFeature(b, r, featureID, chamber)
}

// LookupDistrict finds a result by its model district string, including
// the named Massachusetts districts.
func (s *Store) LookupDistrict(dc districts.DistrictCode) (districts.ResultRecord, error) {
	r, err := s.Results.Get()
	if err != nil {
		return districts.ResultRecord{}, err
	}
	rec, ok := r.LookupDistrict(dc)
	if !ok {
		return districts.ResultRecord{}, districts.ErrNotFound
	}
	return rec, nil
}

// Locate maps a coordinate to a feature id in the chamber's geofence.
func (s *Store) Locate(chamber districts.Chamber, lat, lng float64) (districts.FeatureID, error) {
	shapes, err := s.Shapes.Get()
	if err != nil {
		return "", err
	}
	idx, ok := shapes[chamber]
	if !ok {
		return "", fmt.Errorf("%w: no geofence for chamber %s", districts.ErrNotFound, chamber)
	}
	id, ok := idx.Locate(lat, lng)
	if !ok {
		return "", districts.ErrNotFound
	}
	return id, nil
}

// Summary returns the state summary for a postal code.
func (s *Store) Summary(postal string) (districts.StateSummary, error) {
	idx, err := s.Summaries.Get()
	if err != nil {
		return districts.StateSummary{}, err
	}
	sum, ok := idx.Lookup(postal)
	if !ok {
		return districts.StateSummary{}, districts.ErrNotFound
	}
	return sum, nil
}

// StateResults lists a state's results for one chamber (or both when empty).
func (s *Store) StateResults(postal string, chamber districts.Chamber) ([]districts.ResultRecord, error) {
	r, err := s.Results.Get()
	if err != nil {
		return nil, err
	}
	return r.ByState(postal, chamber), nil
}

// Version combines the table versions the popup depends on, so cached
// popups from an older load are never served.
func (s *Store) Version() string {
	return fmt.Sprintf("b%d.r%d", s.Boundaries.Version(), s.Results.Version())
}

// InFlight names the tables with a load still running.
func (s *Store) InFlight() []string {
	var out []string
	if s.Boundaries.InFlight() {
		out = append(out, s.Boundaries.Name())
	}
	if s.Results.InFlight() {
		out = append(out, s.Results.Name())
	}
	if s.Summaries.InFlight() {
		out = append(out, s.Summaries.Name())
	}
	if s.Shapes.InFlight() {
		out = append(out, s.Shapes.Name())
	}
	return out
}

func (s *Store) Status() []Status {
	return []Status{
		s.Boundaries.Status(),
		s.Results.Status(),
		s.Summaries.Status(),
		s.Shapes.Status(),
	}
}

// IsNotLoaded reports whether err means "try again later".
func IsNotLoaded(err error) bool {
	return errors.Is(err, ErrTableNotLoaded)
}
