package http

import (
	"encoding/json"
	"net/http"

	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/course"
	"github.com/yehyu2004/cosmo/internal/rbac"
)

// GET /dashboard: staff see per-assignment grading progress, students see
// their own scores and running total.
func DashboardHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rbac.IsStaff(rbac.RoleFromContext(r.Context())) {
			rows, err := store.StaffDashboard(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": rows})
			return
		}

		d, err := store.StudentDashboard(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": d})
	}
}
