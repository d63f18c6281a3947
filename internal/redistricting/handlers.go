package redistricting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/metrics"
	"github.com/EmpoweredVote/voterpower-map/internal/popup"
	"github.com/EmpoweredVote/voterpower-map/internal/popupcache"
	"github.com/EmpoweredVote/voterpower-map/internal/tables"
)

const (
	loadingRetryAfter = "3"
	maxWait           = 10 * time.Second
	cdnTTL            = 300
)

// DistrictResponse is a resolved district with its presentation hints.
type DistrictResponse struct {
	FeatureID    districts.FeatureID       `json:"feature_id,omitempty"`
	ChamberLabel string                    `json:"chamber_label"`
	Category     districts.DisplayCategory `json:"category"`
	Lean         string                    `json:"lean"`
	PowerBand    int                       `json:"power_band"`
	Fields       []popup.Field             `json:"fields"`
	Result       districts.ResultRecord    `json:"result"`
}

func newDistrictResponse(id districts.FeatureID, rec districts.ResultRecord) DistrictResponse {
	cat := districts.ClassifyDistrict(rec)
	return DistrictResponse{
		FeatureID:    id,
		ChamberLabel: rec.Chamber.Label(),
		Category:     cat,
		Lean:         districts.Lean(rec),
		PowerBand:    districts.PowerBand(rec.VoterPower, rec.Chamber),
		Fields:       popup.Fields(cat, rec),
		Result:       rec,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func addCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Data-Status", "ready")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", cdnTTL))
}

// writeLoading tells the client a table is still loading and when to retry.
func writeLoading(w http.ResponseWriter) {
	w.Header().Set("X-Data-Status", "loading")
	w.Header().Set("Retry-After", loadingRetryAfter)
	w.Header().Set("Cache-Control", "no-store")
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
}

// writeLookupError maps resolver errors to responses. A miss is a normal
// answer and is not logged.
func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case tables.IsNotLoaded(err):
		writeLoading(w)
	case errors.Is(err, districts.ErrNotFound):
		writeJSONStatus(w, http.StatusNotFound, map[string]string{"error": "district not found"})
	default:
		log.Printf("[redistricting] %s %s error: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeResolved
	case tables.IsNotLoaded(err):
		return metrics.OutcomeNotLoaded
	default:
		return metrics.OutcomeNotFound
	}
}

func chamberParam(w http.ResponseWriter, r *http.Request) (districts.Chamber, bool) {
	ch, err := districts.ParseChamber(chi.URLParam(r, "chamber"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return ch, true
}

func wantsWait(r *http.Request) bool {
	v := r.URL.Query().Get("wait")
	return v == "1" || strings.EqualFold(v, "true")
}

// resolve looks a feature up without blocking, or waits for the tables
// (bounded by maxWait and the request) when the client asked to.
func resolve(r *http.Request, id districts.FeatureID, ch districts.Chamber) (districts.ResultRecord, error) {
	var (
		rec districts.ResultRecord
		err error
	)
	if wantsWait(r) {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		rec, err = Store.ResolveWait(ctx, id, ch)
	} else {
		rec, err = Store.Resolve(id, ch)
	}
	metrics.ResolveTotal.WithLabelValues(string(ch), outcome(err)).Inc()
	return rec, err
}

// GetStatus reports every table's load state.
func GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	writeJSON(w, map[string]any{
		"tables":  Store.Status(),
		"version": Store.Version(),
	})
}

// GetFeature resolves a clicked map feature.
func GetFeature(w http.ResponseWriter, r *http.Request) {
	ch, ok := chamberParam(w, r)
	if !ok {
		return
	}
	id := districts.FeatureID(strings.TrimSpace(chi.URLParam(r, "featureID")))

	rec, err := resolve(r, id, ch)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	addCacheHeaders(w)
	writeJSON(w, newDistrictResponse(id, rec))
}

// GetFeaturePopup renders the popup for a clicked feature. A feature with
// no data answers 204 so the map shows nothing.
func GetFeaturePopup(w http.ResponseWriter, r *http.Request) {
	ch, ok := chamberParam(w, r)
	if !ok {
		return
	}
	id := districts.FeatureID(strings.TrimSpace(chi.URLParam(r, "featureID")))

	// The version is read before resolving so a reload in between can
	// only make the cache entry stale, never mislabel it as current.
	version := Store.Version()
	rec, err := resolve(r, id, ch)
	if errors.Is(err, districts.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	key := popupcache.Key(ch, id, version)
	html, err := Cache.GetOrRender(r.Context(), key, func() (string, error) {
		return popup.RenderPopup(rec)
	})
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	w.Header().Set("ETag", `"`+version+`"`)
	addCacheHeaders(w)
	writeHTML(w, html)
}

// LocateDistrict resolves the district containing a coordinate.
func LocateDistrict(w http.ResponseWriter, r *http.Request) {
	ch, ok := chamberParam(w, r)
	if !ok {
		return
	}
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		http.Error(w, "lat and lng must be valid coordinates", http.StatusBadRequest)
		return
	}

	id, err := Store.Locate(ch, lat, lng)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	rec, err := resolve(r, id, ch)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	addCacheHeaders(w)
	writeJSON(w, newDistrictResponse(id, rec))
}

// GetDistrictByCode serves deep links such as /districts/code/CT-HD-59.
func GetDistrictByCode(w http.ResponseWriter, r *http.Request) {
	dc, err := districts.ParseDistrictCode(chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := Store.LookupDistrict(dc)
	metrics.ResolveTotal.WithLabelValues(string(dc.Chamber), outcome(err)).Inc()
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	addCacheHeaders(w)
	writeJSON(w, newDistrictResponse("", rec))
}

// StateResponse is a state's narrative plus how many of its districts are
// in each display category.
type StateResponse struct {
	State      string                 `json:"state"`
	Name       string                 `json:"name"`
	Summary    districts.StateSummary `json:"summary"`
	Categories CategoryCounts         `json:"categories,omitempty"`
}

// CategoryCounts is chamber -> display category -> district count.
type CategoryCounts map[districts.Chamber]map[districts.DisplayCategory]int

func stateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	postal := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "state")))
	if !districts.ValidState(postal) {
		http.Error(w, "unknown state", http.StatusBadRequest)
		return "", false
	}
	return postal, true
}

// GetStateSummary serves a state's redistricting summary.
func GetStateSummary(w http.ResponseWriter, r *http.Request) {
	postal, ok := stateParam(w, r)
	if !ok {
		return
	}
	sum, err := Store.Summary(postal)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	resp := StateResponse{State: postal, Summary: sum}
	resp.Name, _ = districts.StateName(postal)

	// Category counts are extra; a results table that is still loading
	// just leaves them out.
	if recs, err := Store.StateResults(postal, ""); err == nil && len(recs) > 0 {
		resp.Categories = CategoryCounts{}
		for _, rec := range recs {
			m, ok := resp.Categories[rec.Chamber]
			if !ok {
				m = map[districts.DisplayCategory]int{}
				resp.Categories[rec.Chamber] = m
			}
			m[districts.ClassifyDistrict(rec)]++
		}
	}

	addCacheHeaders(w)
	writeJSON(w, resp)
}

// StateDistrictsResponse lists a state's districts, highest voter power
// first.
type StateDistrictsResponse struct {
	State     string             `json:"state"`
	Name      string             `json:"name"`
	Chamber   districts.Chamber  `json:"chamber,omitempty"`
	Districts []DistrictResponse `json:"districts"`
}

// GetStateDistricts serves the per-state voter power table. ?chamber=
// narrows it to one chamber.
func GetStateDistricts(w http.ResponseWriter, r *http.Request) {
	postal, ok := stateParam(w, r)
	if !ok {
		return
	}
	var ch districts.Chamber
	if v := r.URL.Query().Get("chamber"); v != "" {
		parsed, err := districts.ParseChamber(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ch = parsed
	}

	recs, err := Store.StateResults(postal, ch)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}

	resp := StateDistrictsResponse{State: postal, Chamber: ch, Districts: make([]DistrictResponse, 0, len(recs))}
	resp.Name, _ = districts.StateName(postal)
	for _, rec := range recs {
		resp.Districts = append(resp.Districts, newDistrictResponse("", rec))
	}
	addCacheHeaders(w)
	writeJSON(w, resp)
}

// GetStateSidebar renders a state's summary as an HTML fragment.
func GetStateSidebar(w http.ResponseWriter, r *http.Request) {
	postal, ok := stateParam(w, r)
	if !ok {
		return
	}
	sum, err := Store.Summary(postal)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	html, err := popup.RenderSidebar(sum)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	addCacheHeaders(w)
	writeHTML(w, html)
}

// ReloadTables re-reads every table in the background. Ready tables keep
// serving until their replacements are published. While any table is
// still loading it answers 409 and starts nothing.
func ReloadTables(w http.ResponseWriter, r *http.Request) {
	if Loader == nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"error": "loader not initialized"})
		return
	}
	if busy := Store.InFlight(); len(busy) > 0 {
		writeJSONStatus(w, http.StatusConflict, map[string]any{"error": "load already in flight", "tables": busy})
		return
	}
	go func(l Reloader) {
		if err := l.Reload(context.Background()); err != nil {
			log.Printf("[redistricting] reload error: %v", err)
		}
	}(Loader)
	writeJSONStatus(w, http.StatusAccepted, map[string]any{"status": "reloading", "tables": Store.Status()})
}
