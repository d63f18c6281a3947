package redistricting

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/voterpower-map/internal/middleware"
)

func SetupRoutes(adminKeyHash string) http.Handler {
	r := chi.NewRouter()

	r.Get("/status", GetStatus)

	r.Get("/districts/code/{code}", GetDistrictByCode)
	r.Get("/districts/{chamber}/locate", LocateDistrict)
	r.Get("/districts/{chamber}/features/{featureID}", GetFeature)
	r.Get("/districts/{chamber}/features/{featureID}/popup", GetFeaturePopup)

	r.Get("/states/{state}", GetStateSummary)
	r.Get("/states/{state}/sidebar", GetStateSidebar)
	r.Get("/states/{state}/districts", GetStateDistricts)

	r.With(middleware.AdminKey(adminKeyHash)).Post("/admin/reload", ReloadTables)

	return r
}
