package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/course"
	"github.com/yehyu2004/cosmo/internal/rbac"
)

type createAssignmentReq struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ReportNumber int      `json:"report_number"`
	DueDate      *string  `json:"due_date"` // RFC3339
	TotalPoints  *float64 `json:"total_points"`
	Rubric       string   `json:"rubric"`
	PDFURL       string   `json:"pdf_url"`
	Published    bool     `json:"published"`
}

func CreateAssignmentHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssignmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		if req.ReportNumber < 1 || req.ReportNumber > 10 {
			http.Error(w, "report_number must be 1-10", http.StatusBadRequest)
			return
		}
		points := 100.0
		if req.TotalPoints != nil {
			points = *req.TotalPoints
		}
		if points < 0 || points > 10000 {
			http.Error(w, "total_points out of range", http.StatusBadRequest)
			return
		}

		a := course.Assignment{
			Title:        req.Title,
			Description:  req.Description,
			ReportNumber: req.ReportNumber,
			TotalPoints:  points,
			Rubric:       req.Rubric,
			PDFURL:       req.PDFURL,
			Published:    req.Published,
			CreatedBy:    authmw.SubjectFromContext(r.Context()),
		}
		if req.DueDate != nil && *req.DueDate != "" {
			t, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				http.Error(w, "due_date must be RFC3339", http.StatusBadRequest)
				return
			}
			ts := t.Unix()
			a.DueDate = &ts
		}

		created, err := store.CreateAssignment(r.Context(), a)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": created})
	}
}

func ListAssignmentsHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListAssignments(r.Context(), course.ListOpts{
			ViewerID:   authmw.SubjectFromContext(r.Context()),
			ViewerRole: rbac.RoleFromContext(r.Context()),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": out})
	}
}

// GET /assignments/{assignmentID}: the assignment plus the viewer's own
// submission, if any. Unpublished assignments are hidden from students.
func GetAssignmentHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assignmentID")
		a, err := store.GetAssignment(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if !a.Published && !rbac.IsStaff(role) {
			http.Error(w, "assignment not found", http.StatusNotFound)
			return
		}

		resp := map[string]interface{}{"assignment": a}
		sub, err := store.GetSubmissionForUser(r.Context(), id, authmw.SubjectFromContext(r.Context()))
		switch {
		case err == nil:
			resp["submission"] = sub
		case errors.Is(err, course.ErrNotFound):
			resp["submission"] = nil
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": resp})
	}
}

type updateAssignmentReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	DueDate     *string  `json:"due_date"` // RFC3339, "" clears
	TotalPoints *float64 `json:"total_points"`
	Rubric      *string  `json:"rubric"`
	PDFURL      *string  `json:"pdf_url"`
	Published   *bool    `json:"published"`
}

func UpdateAssignmentHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assignmentID")
		var req updateAssignmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		p := course.AssignmentPatch{
			Title:       req.Title,
			Description: req.Description,
			TotalPoints: req.TotalPoints,
			Rubric:      req.Rubric,
			PDFURL:      req.PDFURL,
			Published:   req.Published,
		}
		if req.DueDate != nil {
			if *req.DueDate == "" {
				zero := int64(0)
				p.DueDate = &zero
			} else {
				t, err := time.Parse(time.RFC3339, *req.DueDate)
				if err != nil {
					http.Error(w, "due_date must be RFC3339", http.StatusBadRequest)
					return
				}
				ts := t.Unix()
				p.DueDate = &ts
			}
		}

		a, err := store.UpdateAssignment(r.Context(), id, p)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": a})
	}
}

func DeleteAssignmentHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assignmentID")
		if err := store.DeleteAssignment(r.Context(), id); err != nil {
			writeStoreErr(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]bool{"deleted": true}})
	}
}

func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, course.ErrAlreadyGraded):
		http.Error(w, "cannot resubmit: assignment has been graded. ask your ta to return it", http.StatusForbidden)
	case errors.Is(err, course.ErrScoreOutOfRange):
		http.Error(w, "score out of range", http.StatusBadRequest)
	case errors.Is(err, course.ErrNotGraded):
		http.Error(w, "submission is not graded", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
