package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yehyu2004/cosmo/internal/audit"
	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/course"
	"github.com/yehyu2004/cosmo/internal/grading"
)

type applyGradeReq struct {
	SubmissionID string  `json:"submission_id"`
	TotalScore   float64 `json:"total_score"`
	Feedback     string  `json:"feedback"`
}

// POST /grading: record a manual grade.
func ApplyGradeHandler(store course.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.SubmissionID == "" {
			http.Error(w, "submission_id required", http.StatusBadRequest)
			return
		}
		if len(req.Feedback) > 10000 {
			http.Error(w, "feedback too long", http.StatusBadRequest)
			return
		}

		actor := authmw.ActorFromContext(r.Context())
		sub, err := store.ApplyGrade(r.Context(), req.SubmissionID, req.TotalScore, req.Feedback, actor)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		events.Record(r.Context(), audit.TypeGradeApplied, req.SubmissionID, actor,
			map[string]interface{}{"score": req.TotalScore})
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": sub})
	}
}

type returnSubmissionReq struct {
	SubmissionID string `json:"submission_id"`
}

// DELETE /grading: return a submission to the student, clearing all grades.
func ReturnSubmissionHandler(store course.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req returnSubmissionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmissionID == "" {
			http.Error(w, "submission_id required", http.StatusBadRequest)
			return
		}

		actor := authmw.ActorFromContext(r.Context())
		sub, err := store.ReturnSubmission(r.Context(), req.SubmissionID)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		events.Record(r.Context(), audit.TypeGradeReturned, req.SubmissionID, actor, nil)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": sub})
	}
}

type aiGradeReq struct {
	SubmissionID string `json:"submission_id"`
}

// PUT /grading/ai: run the AI grading workflow for a submission.
func AIGradeHandler(svc *grading.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req aiGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubmissionID == "" {
			http.Error(w, "submission_id required", http.StatusBadRequest)
			return
		}

		result, err := svc.GradeSubmission(r.Context(), req.SubmissionID,
			authmw.ActorFromContext(r.Context()))
		switch {
		case err == nil:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": result})
		case errors.Is(err, grading.ErrRateLimited):
			http.Error(w, "too many ai grading requests. please wait a minute", http.StatusTooManyRequests)
		case errors.Is(err, grading.ErrNoFile), errors.Is(err, grading.ErrNoText):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, grading.ErrNoResult):
			http.Error(w, "ai grading failed", http.StatusBadGateway)
		case errors.Is(err, course.ErrNotFound):
			http.Error(w, "submission not found", http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
