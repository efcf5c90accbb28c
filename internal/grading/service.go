package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/yehyu2004/cosmo/internal/audit"
	"github.com/yehyu2004/cosmo/internal/course"
	"github.com/yehyu2004/cosmo/internal/ratelimit"
	"github.com/yehyu2004/cosmo/internal/storage"
)

var (
	ErrRateLimited = errors.New("too many ai grading requests")
	ErrNoFile      = errors.New("no file uploaded for this submission")
	ErrNoText      = errors.New("could not extract text from pdf; the file may be scanned or image-only")
	ErrNoResult    = errors.New("ai grading failed")
)

const maxRenderPages = 25

// PDFConverter is the report-artifact collaborator: text out for the
// prompt, page images for vision grading (empty on failure, never fatal).
type PDFConverter interface {
	ExtractText(data []byte) (string, error)
	RenderPages(data []byte, maxPages int) [][]byte
}

// Service runs the AI grading workflow end to end: rate limit, extract,
// render, prompt, oracle, normalize, persist. Request-scoped; the oracle
// round-trip is the only blocking step.
type Service struct {
	store   course.Store
	blobs   storage.BlobStore
	pdf     PDFConverter
	oracle  Oracle
	limiter ratelimit.Limiter
	events  *audit.EventRepo
}

func NewService(store course.Store, blobs storage.BlobStore, pdf PDFConverter,
	oracle Oracle, limiter ratelimit.Limiter, events *audit.EventRepo) *Service {
	return &Service{store: store, blobs: blobs, pdf: pdf, oracle: oracle,
		limiter: limiter, events: events}
}

// GradeSubmission grades one submission as actorID. Re-running is safe;
// the last write wins. The returned result is what was persisted.
func (s *Service) GradeSubmission(ctx context.Context, submissionID, actorID string) (*GradingResult, error) {
	if !s.limiter.Allow(actorID) {
		return nil, ErrRateLimited
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.FileURL == "" {
		return nil, ErrNoFile
	}
	a, err := s.store.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}

	rc, err := s.blobs.Get(sub.FileURL)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	text, err := s.pdf.ExtractText(data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if len(text) == 0 || allWhitespace(text) {
		return nil, ErrNoText
	}

	images := s.pdf.RenderPages(data, maxRenderPages)

	prompt := BuildPrompt(PromptInput{
		AssignmentTitle:       a.Title,
		AssignmentDescription: a.Description,
		RubricOverride:        a.Rubric,
		MaxPoints:             a.TotalPoints,
		ReportText:            text,
		PageImages:            images,
	})

	raw, err := s.oracle.Score(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	if raw == nil {
		return nil, ErrNoResult
	}

	result := Normalize(raw)

	stored, err := json.Marshal(struct {
		Categories map[string]CategoryScore `json:"categories"`
		Feedback   string                   `json:"feedback"`
	}{result.Categories, result.Feedback})
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveAIResult(ctx, submissionID, float64(result.Score), string(stored)); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Record(ctx, audit.TypeAIGradeRequested, submissionID, actorID,
			map[string]interface{}{"score": result.Score, "pages": len(images)})
	}
	return &result, nil
}

func allWhitespace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' && r != '\f' && r != '\v' {
			return false
		}
	}
	return true
}
