package tables

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/geofence"
	"github.com/EmpoweredVote/voterpower-map/internal/metrics"
)

// Source supplies the raw tables. FileSource reads the published static
// files; the Postgres store implements it for imported data.
type Source interface {
	Name() string
	Boundaries(ctx context.Context) ([]districts.BoundaryRecord, error)
	Results(ctx context.Context) ([]districts.ResultRecord, error)
	Summaries(ctx context.Context) ([]districts.StateSummary, error)
}

// FileSource reads each table from a URL or path.
type FileSource struct {
	Fetcher      *Fetcher
	BoundaryLoc  string
	ResultsLoc   string
	SummariesLoc string
}

func (f FileSource) Name() string { return "files" }

func (f FileSource) Boundaries(ctx context.Context) ([]districts.BoundaryRecord, error) {
	r, err := f.Fetcher.Fetch(ctx, f.BoundaryLoc)
	if err != nil {
		return nil, err
	}
	return DecodeBoundaries(r)
}

func (f FileSource) Results(ctx context.Context) ([]districts.ResultRecord, error) {
	r, err := f.Fetcher.Fetch(ctx, f.ResultsLoc)
	if err != nil {
		return nil, err
	}
	return DecodeResults(r)
}

func (f FileSource) Summaries(ctx context.Context) ([]districts.StateSummary, error) {
	r, err := f.Fetcher.Fetch(ctx, f.SummariesLoc)
	if err != nil {
		return nil, err
	}
	return DecodeSummaries(r)
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// StrictUnique rejects a results table with duplicate (geoid, chamber)
	// keys instead of letting the later row win.
	StrictUnique bool

	// ShapeLocs maps a chamber to its GeoJSON URL or path. A chamber with no
	// entry publishes no geofence, so coordinate lookups for it miss.
	ShapeLocs map[districts.Chamber]string

	// ShapeIDProperty names the GeoJSON property holding the feature id.
	ShapeIDProperty string
}

// Loader fills a Store from a Source. Each table loads on its own
// goroutine and publishes independently.
type Loader struct {
	store   *Store
	src     Source
	fetcher *Fetcher
	opts    LoaderOptions
}

func NewLoader(store *Store, src Source, fetcher *Fetcher, opts LoaderOptions) *Loader {
	return &Loader{store: store, src: src, fetcher: fetcher, opts: opts}
}

// Start kicks off every load in the background and returns immediately.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		if err := l.LoadAll(ctx); err != nil {
			LogError("all", "load", err)
		}
	}()
}

// LoadAll loads every table concurrently and waits for all of them. A
// table that is already loading is left alone. The returned error joins
// the per-table failures.
func (l *Loader) LoadAll(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	run(l.loadBoundaries)
	run(l.loadResults)
	run(l.loadSummaries)
	run(l.loadShapes)
	wg.Wait()
	return errors.Join(errs...)
}

// Reload re-reads every table. Ready tables keep serving until their
// replacement is published. A table whose previous load is still running
// is not re-read and its name comes back wrapped in ErrLoadInFlight.
func (l *Loader) Reload(ctx context.Context) error {
	LogReload(l.src.Name())
	return l.LoadAll(ctx)
}

func load[T any](t *Table[T], fn func() (T, int, int, error)) error {
	if !t.Begin() {
		return fmt.Errorf("%s: %w", t.Name(), ErrLoadInFlight)
	}
	t0 := time.Now()
	v, records, indexed, err := fn()
	dur := time.Since(t0)
	metrics.TableLoadDurationMs.WithLabelValues(t.Name()).Observe(float64(dur.Milliseconds()))
	if err != nil {
		t.Fail(err)
		metrics.TableLoadsTotal.WithLabelValues(t.Name(), "error").Inc()
		LogError(t.Name(), "load", err)
		return fmt.Errorf("%s: %w", t.Name(), err)
	}
	t.Publish(v)
	metrics.TableLoadsTotal.WithLabelValues(t.Name(), "ok").Inc()
	metrics.TableRecords.WithLabelValues(t.Name()).Set(float64(indexed))
	LogLoad(t.Name(), records, indexed, dur)
	return nil
}

func (l *Loader) loadBoundaries(ctx context.Context) error {
	return load(l.store.Boundaries, func() (districts.BoundaryIndex, int, int, error) {
		recs, err := l.src.Boundaries(ctx)
		if err != nil {
			return districts.BoundaryIndex{}, 0, 0, err
		}
		idx := districts.BuildBoundaryIndex(recs)
		n := 0
		for _, ch := range districts.Chambers {
			n += idx.Len(ch)
		}
		return idx, len(recs), n, nil
	})
}

func (l *Loader) loadResults(ctx context.Context) error {
	return load(l.store.Results, func() (districts.ResultIndex, int, int, error) {
		recs, err := l.src.Results(ctx)
		if err != nil {
			return districts.ResultIndex{}, 0, 0, err
		}
		if l.opts.StrictUnique {
			idx, err := districts.BuildResultIndexStrict(recs)
			if err != nil {
				return districts.ResultIndex{}, 0, 0, err
			}
			return idx, len(recs), idx.Len(), nil
		}
		idx := districts.BuildResultIndex(recs)
		LogDuplicates("results", idx.Duplicates())
		return idx, len(recs), idx.Len(), nil
	})
}

func (l *Loader) loadSummaries(ctx context.Context) error {
	return load(l.store.Summaries, func() (districts.SummaryIndex, int, int, error) {
		rows, err := l.src.Summaries(ctx)
		if err != nil {
			return districts.SummaryIndex{}, 0, 0, err
		}
		idx := districts.BuildSummaryIndex(rows)
		LogDuplicates("summaries", idx.Duplicates())
		return idx, len(rows), idx.Len(), nil
	})
}

func (l *Loader) loadShapes(ctx context.Context) error {
	return load(l.store.Shapes, func() (Shapes, int, int, error) {
		// No locations publishes an empty set so coordinate lookups answer
		// NotFound instead of waiting forever.
		out := make(Shapes, len(l.opts.ShapeLocs))
		total := 0
		for ch, loc := range l.opts.ShapeLocs {
			r, err := l.fetcher.Fetch(ctx, loc)
			if err != nil {
				return nil, 0, 0, err
			}
			idx, err := geofence.Load(r, l.opts.ShapeIDProperty)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("%s geojson: %w", ch, err)
			}
			out[ch] = idx
			total += idx.Len()
		}
		return out, total, total, nil
	})
}
