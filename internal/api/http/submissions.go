package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/course"
)

type submitReportReq struct {
	AssignmentID string `json:"assignment_id"`
	FileURL      string `json:"file_url"`
	FileName     string `json:"file_name"`
}

// POST /submissions: upsert the caller's one submission per assignment.
// Resubmission is allowed until graded; it clears AI fields.
func SubmitReportHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReportReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.AssignmentID == "" || req.FileURL == "" {
			http.Error(w, "assignment_id and file_url required", http.StatusBadRequest)
			return
		}

		sub, err := store.UpsertSubmission(r.Context(), req.AssignmentID,
			authmw.SubjectFromContext(r.Context()), req.FileURL, req.FileName)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": sub})
	}
}

// GET /assignments/{assignmentID}/submissions (staff)
func ListAssignmentSubmissionsHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assignmentID")
		subs, err := store.ListSubmissionsForAssignment(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": subs})
	}
}

// GET /grades: the caller's submissions joined with assignment info.
func ListGradesHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.ListGradesForUser(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": rows})
	}
}
