package redistricting

import (
	"context"
	"fmt"
	"log"

	"github.com/EmpoweredVote/voterpower-map/internal/config"
	"github.com/EmpoweredVote/voterpower-map/internal/db"
	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/popupcache"
	"github.com/EmpoweredVote/voterpower-map/internal/store"
	"github.com/EmpoweredVote/voterpower-map/internal/tables"
)

// Reloader re-reads every table.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Store holds the tables the handlers read. Init replaces it; tests may
// publish into it directly.
var Store = tables.NewStore()

// Loader is nil until Init runs; the reload route answers 503 without it.
var Loader Reloader

// Cache is the optional rendered-popup cache. Nil disables it.
var Cache *popupcache.Cache

// Init wires the table source, starts loading in the background and
// returns without waiting for any table.
func Init(ctx context.Context, cfg config.Config) error {
	fetcher := tables.NewFetcher(cfg.FetchTimeout, cfg.FetchRetries, cfg.FetchBackoff)

	var src tables.Source
	switch cfg.Source {
	case config.SourceDatabase:
		if db.DB == nil {
			if err := db.Connect(cfg.DatabaseURL); err != nil {
				return err
			}
		}
		if err := store.Migrate(db.DB); err != nil {
			return err
		}
		src = store.NewSource(db.DB, cfg.States)
	case config.SourceFiles:
		src = tables.FileSource{
			Fetcher:      fetcher,
			BoundaryLoc:  cfg.BoundaryLookupURL,
			ResultsLoc:   cfg.ResultsURL,
			SummariesLoc: cfg.StateSummaryURL,
		}
	default:
		return fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}

	shapes := map[districts.Chamber]string{}
	if cfg.LowerGeoJSONURL != "" {
		shapes[districts.ChamberLower] = cfg.LowerGeoJSONURL
	}
	if cfg.UpperGeoJSONURL != "" {
		shapes[districts.ChamberUpper] = cfg.UpperGeoJSONURL
	}

	if cfg.CacheEnabled() {
		c, err := popupcache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PopupCacheTTL)
		if err != nil {
			log.Printf("[redistricting] WARNING: popup cache disabled: %v", err)
		}
		Cache = c
	}

	Store = tables.NewStore()
	loader := tables.NewLoader(Store, src, fetcher, tables.LoaderOptions{
		StrictUnique:    cfg.StrictUnique,
		ShapeLocs:       shapes,
		ShapeIDProperty: cfg.FeatureIDProperty,
	})
	Loader = loader
	loader.Start(ctx)

	log.Printf("[redistricting] Initialized source=%s strict_unique=%t geofence_chambers=%d popup_cache=%t",
		src.Name(), cfg.StrictUnique, len(shapes), Cache != nil)
	return nil
}
