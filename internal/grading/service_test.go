package grading

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/yehyu2004/cosmo/internal/course"
)

/* ---- in-memory fakes satisfying course.Store, storage.BlobStore, PDFConverter, Oracle, ratelimit.Limiter ---- */

type fakeStore struct {
	sub course.Submission
	asg course.Assignment

	savedID    string
	savedScore float64
	savedJSON  string
}

func (s *fakeStore) GetSubmission(_ context.Context, id string) (course.Submission, error) {
	if id != s.sub.ID {
		return course.Submission{}, course.ErrNotFound
	}
	return s.sub, nil
}

func (s *fakeStore) GetAssignment(_ context.Context, id string) (course.Assignment, error) {
	if id != s.asg.ID {
		return course.Assignment{}, course.ErrNotFound
	}
	return s.asg, nil
}

func (s *fakeStore) SaveAIResult(_ context.Context, id string, score float64, feedbackJSON string) error {
	s.savedID, s.savedScore, s.savedJSON = id, score, feedbackJSON
	return nil
}

func (s *fakeStore) CreateAssignment(context.Context, course.Assignment) (course.Assignment, error) {
	return course.Assignment{}, nil
}
func (s *fakeStore) UpdateAssignment(context.Context, string, course.AssignmentPatch) (course.Assignment, error) {
	return course.Assignment{}, nil
}
func (s *fakeStore) DeleteAssignment(context.Context, string) error { return nil }
func (s *fakeStore) ListAssignments(context.Context, course.ListOpts) ([]course.AssignmentSummary, error) {
	return nil, nil
}
func (s *fakeStore) UpsertSubmission(context.Context, string, string, string, string) (course.Submission, error) {
	return course.Submission{}, nil
}
func (s *fakeStore) GetSubmissionForUser(context.Context, string, string) (course.Submission, error) {
	return course.Submission{}, course.ErrNotFound
}
func (s *fakeStore) ListSubmissionsForAssignment(context.Context, string) ([]course.Submission, error) {
	return nil, nil
}
func (s *fakeStore) ListGradesForUser(context.Context, string) ([]course.GradeRow, error) {
	return nil, nil
}
func (s *fakeStore) ApplyGrade(context.Context, string, float64, string, string) (course.Submission, error) {
	return course.Submission{}, nil
}
func (s *fakeStore) ReturnSubmission(context.Context, string) (course.Submission, error) {
	return course.Submission{}, nil
}
func (s *fakeStore) StudentDashboard(context.Context, string) (course.StudentDashboard, error) {
	return course.StudentDashboard{}, nil
}
func (s *fakeStore) StaffDashboard(context.Context) ([]course.StaffDashboardRow, error) {
	return nil, nil
}

type fakeBlob struct{ files map[string][]byte }

func (b *fakeBlob) Put(key string, r io.Reader) (string, error) { return key, nil }
func (b *fakeBlob) Get(key string) (io.ReadCloser, error) {
	data, ok := b.files[key]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
func (b *fakeBlob) SignedURL(key string) (string, error) { return "file://" + key, nil }

type fakePDF struct {
	text    string
	textErr error
	images  [][]byte
}

func (p *fakePDF) ExtractText([]byte) (string, error) { return p.text, p.textErr }
func (p *fakePDF) RenderPages([]byte, int) [][]byte { return p.images }

type fakeOracle struct {
	raw    *RawResult
	err    error
	prompt Prompt
	calls  int
}

func (o *fakeOracle) Score(_ context.Context, p Prompt) (*RawResult, error) {
	o.calls++
	o.prompt = p
	return o.raw, o.err
}

type fakeLimiter struct{ allow bool }

func (l fakeLimiter) Allow(string) bool { return l.allow }

/* ---- tests ---- */

func newTestService(store *fakeStore, oracle *fakeOracle, pdf *fakePDF, allow bool) *Service {
	blob := &fakeBlob{files: map[string][]byte{"uploads/report.pdf": []byte("%PDF-fake")}}
	return NewService(store, blob, pdf, oracle, fakeLimiter{allow: allow}, nil)
}

func testFixtures() (*fakeStore, *fakeOracle, *fakePDF) {
	store := &fakeStore{
		sub: course.Submission{ID: "sub-1", AssignmentID: "asg-1", FileURL: "uploads/report.pdf"},
		asg: course.Assignment{ID: "asg-1", Title: "Report 1", TotalPoints: 100},
	}
	oracle := &fakeOracle{raw: &RawResult{
		Score: 999,
		Categories: map[string]RawCategoryScore{
			"animeIntroduction":        {Score: 8, Rationale: "good intro"},
			"cosmologyAnimeConnection": {Score: 27, Rationale: "two scenes"},
			"cosmologicalConcepts":     {Score: 20, Rationale: "basic but correct"},
			"references":               {Score: 12, Rationale: "two credible"},
			"writingQuality":           {Score: 10, Rationale: "readable"},
		},
		Feedback: "solid work",
	}}
	pdf := &fakePDF{text: "the report text", images: [][]byte{{0xff, 0xd8}}}
	return store, oracle, pdf
}

func TestGradeSubmissionHappyPath(t *testing.T) {
	store, oracle, pdf := testFixtures()
	svc := newTestService(store, oracle, pdf, true)

	res, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	// 8 + 25 (27 snapped down) + 20 + 12 + 9 (10 snapped down) = 74
	if res.Score != 74 {
		t.Fatalf("score = %d, want 74", res.Score)
	}
	if store.savedID != "sub-1" || store.savedScore != 74 {
		t.Fatalf("persisted (%s, %v), want (sub-1, 74)", store.savedID, store.savedScore)
	}
	if store.savedJSON == "" {
		t.Fatal("structured feedback not persisted")
	}
	if len(oracle.prompt.Images) != 1 {
		t.Fatalf("oracle got %d images, want 1", len(oracle.prompt.Images))
	}
}

func TestGradeSubmissionRateLimited(t *testing.T) {
	store, oracle, pdf := testFixtures()
	svc := newTestService(store, oracle, pdf, false)

	_, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if oracle.calls != 0 {
		t.Fatal("oracle called despite rate limit")
	}
}

func TestGradeSubmissionEmptyText(t *testing.T) {
	store, oracle, pdf := testFixtures()
	pdf.text = "   \n\t "
	svc := newTestService(store, oracle, pdf, true)

	_, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
	if oracle.calls != 0 {
		t.Fatal("oracle called with empty report text")
	}
}

func TestGradeSubmissionNoFile(t *testing.T) {
	store, oracle, pdf := testFixtures()
	store.sub.FileURL = ""
	svc := newTestService(store, oracle, pdf, true)

	_, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if !errors.Is(err, ErrNoFile) {
		t.Fatalf("err = %v, want ErrNoFile", err)
	}
}

func TestGradeSubmissionOracleNoResult(t *testing.T) {
	store, oracle, pdf := testFixtures()
	oracle.raw = nil // model answered, output unusable
	svc := newTestService(store, oracle, pdf, true)

	_, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
	if store.savedID != "" {
		t.Fatal("result persisted despite oracle failure")
	}
}

func TestGradeSubmissionOracleCallFailure(t *testing.T) {
	store, oracle, pdf := testFixtures()
	oracle.raw = nil
	oracle.err = errors.New("429 quota exceeded")
	svc := newTestService(store, oracle, pdf, true)

	_, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1")
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want wrapped ErrNoResult", err)
	}
}

func TestGradeSubmissionImageFailureDegrades(t *testing.T) {
	store, oracle, pdf := testFixtures()
	pdf.images = nil // page rendering failed
	svc := newTestService(store, oracle, pdf, true)

	if _, err := svc.GradeSubmission(context.Background(), "sub-1", "ta-1"); err != nil {
		t.Fatalf("grading failed without images: %v", err)
	}
	if len(oracle.prompt.Images) != 0 {
		t.Fatal("expected text-only prompt")
	}
}

func TestGradeSubmissionUnknownSubmission(t *testing.T) {
	store, oracle, pdf := testFixtures()
	svc := newTestService(store, oracle, pdf, true)

	_, err := svc.GradeSubmission(context.Background(), "nope", "ta-1")
	if !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("err = %v, want course.ErrNotFound", err)
	}
}
