package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments
		(id,title,description,report_number,due_date,total_points,rubric,pdf_url,published,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.Title, a.Description, a.ReportNumber, a.DueDate, a.TotalPoints,
		a.Rubric, a.PDFURL, a.Published, a.CreatedBy, a.CreatedAt)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,report_number,due_date,
		total_points,rubric,pdf_url,published,created_by,created_at
		FROM assignments WHERE id=$1`, id)
	return scanAssignment(row)
}

func (s *SQLStore) UpdateAssignment(ctx context.Context, id string, p AssignmentPatch) (Assignment, error) {
	a, err := s.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.DueDate != nil {
		if *p.DueDate == 0 {
			a.DueDate = nil
		} else {
			a.DueDate = p.DueDate
		}
	}
	if p.TotalPoints != nil {
		a.TotalPoints = *p.TotalPoints
	}
	if p.Rubric != nil {
		a.Rubric = *p.Rubric
	}
	if p.PDFURL != nil {
		a.PDFURL = *p.PDFURL
	}
	if p.Published != nil {
		a.Published = *p.Published
	}
	_, err = s.db.ExecContext(ctx, `UPDATE assignments SET title=$1, description=$2,
		due_date=$3, total_points=$4, rubric=$5, pdf_url=$6, published=$7 WHERE id=$8`,
		a.Title, a.Description, a.DueDate, a.TotalPoints, a.Rubric, a.PDFURL, a.Published, id)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) DeleteAssignment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, opts ListOpts) ([]AssignmentSummary, error) {
	staff := opts.ViewerRole == "ta" || opts.ViewerRole == "professor" || opts.ViewerRole == "admin"

	q := `SELECT a.id,a.title,a.description,a.report_number,a.due_date,a.total_points,
		a.rubric,a.pdf_url,a.published,a.created_by,a.created_at,u.name
		FROM assignments a JOIN users u ON u.id=a.created_by`
	if !staff {
		q += ` WHERE a.published`
		if s.driver == "sqlite" {
			q += `=1`
		}
	}
	q += ` ORDER BY a.report_number ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AssignmentSummary{}
	for rows.Next() {
		var sum AssignmentSummary
		var due sql.NullInt64
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.ReportNumber, &due,
			&sum.TotalPoints, &sum.Rubric, &sum.PDFURL, &sum.Published, &sum.CreatedBy,
			&sum.CreatedAt, &sum.CreatedByName); err != nil {
			return nil, err
		}
		if due.Valid {
			v := due.Int64
			sum.DueDate = &v
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if staff {
		counts, err := s.db.QueryContext(ctx, `SELECT assignment_id, COUNT(*),
			SUM(CASE WHEN graded_at IS NULL THEN 1 ELSE 0 END)
			FROM submissions GROUP BY assignment_id`)
		if err != nil {
			return nil, err
		}
		defer counts.Close()
		byID := map[string][2]int{}
		for counts.Next() {
			var id string
			var total, ungraded int
			if err := counts.Scan(&id, &total, &ungraded); err != nil {
				return nil, err
			}
			byID[id] = [2]int{total, ungraded}
		}
		if err := counts.Err(); err != nil {
			return nil, err
		}
		for i := range out {
			c := byID[out[i].ID]
			out[i].SubmissionCount = c[0]
			out[i].UngradedCount = c[1]
		}
		return out, nil
	}

	mine, err := s.db.QueryContext(ctx, `SELECT assignment_id, id, total_score, graded_at
		FROM submissions WHERE user_id=$1`, opts.ViewerID)
	if err != nil {
		return nil, err
	}
	defer mine.Close()
	byAssignment := map[string]*SubmissionBrief{}
	for mine.Next() {
		var aid string
		var b SubmissionBrief
		var score sql.NullFloat64
		var graded sql.NullInt64
		if err := mine.Scan(&aid, &b.ID, &score, &graded); err != nil {
			return nil, err
		}
		if score.Valid {
			v := score.Float64
			b.TotalScore = &v
		}
		if graded.Valid {
			v := graded.Int64
			b.GradedAt = &v
		}
		sb := b
		byAssignment[aid] = &sb
	}
	if err := mine.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].MySubmission = byAssignment[out[i].ID]
	}
	return out, nil
}

func (s *SQLStore) UpsertSubmission(ctx context.Context, assignmentID, userID, fileURL, fileName string) (Submission, error) {
	var published bool
	err := s.db.QueryRowContext(ctx, `SELECT published FROM assignments WHERE id=$1`, assignmentID).
		Scan(&published)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !published) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, err
	}

	var gradedAt sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT graded_at FROM submissions
		WHERE assignment_id=$1 AND user_id=$2`, assignmentID, userID).Scan(&gradedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Submission{}, err
	}
	if gradedAt.Valid {
		return Submission{}, ErrAlreadyGraded
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions
		(id,assignment_id,user_id,file_url,file_name,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (assignment_id,user_id) DO UPDATE SET
		file_url=EXCLUDED.file_url, file_name=EXCLUDED.file_name,
		submitted_at=EXCLUDED.submitted_at,
		ai_score=NULL, ai_feedback=NULL, returned_at=NULL`,
		uuid.NewString(), assignmentID, userID, fileURL, fileName, now)
	if err != nil {
		return Submission{}, err
	}
	return s.GetSubmissionForUser(ctx, assignmentID, userID)
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,assignment_id,user_id,file_url,file_name,
		submitted_at,total_score,feedback,graded_at,graded_by,ai_score,ai_feedback,returned_at
		FROM submissions WHERE id=$1`, id)
	return scanSubmission(row)
}

func (s *SQLStore) GetSubmissionForUser(ctx context.Context, assignmentID, userID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,assignment_id,user_id,file_url,file_name,
		submitted_at,total_score,feedback,graded_at,graded_by,ai_score,ai_feedback,returned_at
		FROM submissions WHERE assignment_id=$1 AND user_id=$2`, assignmentID, userID)
	return scanSubmission(row)
}

func (s *SQLStore) ListSubmissionsForAssignment(ctx context.Context, assignmentID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sub.id,sub.assignment_id,sub.user_id,
		sub.file_url,sub.file_name,sub.submitted_at,sub.total_score,sub.feedback,
		sub.graded_at,sub.graded_by,sub.ai_score,sub.ai_feedback,sub.returned_at,
		u.name,u.email,COALESCE(g.name,'')
		FROM submissions sub
		JOIN users u ON u.id=sub.user_id
		LEFT JOIN users g ON g.id=sub.graded_by
		WHERE sub.assignment_id=$1
		ORDER BY sub.submitted_at DESC`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmissionJoined(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListGradesForUser(ctx context.Context, userID string) ([]GradeRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sub.id,sub.assignment_id,sub.user_id,
		sub.file_url,sub.file_name,sub.submitted_at,sub.total_score,sub.feedback,
		sub.graded_at,sub.graded_by,sub.ai_score,sub.ai_feedback,sub.returned_at,
		a.title,a.report_number,a.total_points,COALESCE(g.name,'')
		FROM submissions sub
		JOIN assignments a ON a.id=sub.assignment_id
		LEFT JOIN users g ON g.id=sub.graded_by
		WHERE sub.user_id=$1
		ORDER BY a.report_number ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GradeRow{}
	for rows.Next() {
		var gr GradeRow
		var score, aiScore sql.NullFloat64
		var feedback, gradedBy, aiFeedback sql.NullString
		var gradedAt, returnedAt sql.NullInt64
		if err := rows.Scan(&gr.ID, &gr.AssignmentID, &gr.UserID, &gr.FileURL, &gr.FileName,
			&gr.SubmittedAt, &score, &feedback, &gradedAt, &gradedBy, &aiScore, &aiFeedback,
			&returnedAt, &gr.AssignmentTitle, &gr.ReportNumber, &gr.TotalPoints,
			&gr.GradedByName); err != nil {
			return nil, err
		}
		fillNullable(&gr.Submission, score, feedback, gradedAt, gradedBy, aiScore, aiFeedback, returnedAt)
		out = append(out, gr)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyGrade(ctx context.Context, submissionID string, score float64, feedback, gradedBy string) (Submission, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	a, err := s.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if score < 0 || score > a.TotalPoints {
		return Submission{}, ErrScoreOutOfRange
	}

	var fb interface{}
	if feedback != "" {
		fb = feedback
	}
	_, err = s.db.ExecContext(ctx, `UPDATE submissions SET total_score=$1, feedback=$2,
		graded_at=$3, graded_by=$4 WHERE id=$5`,
		score, fb, time.Now().Unix(), gradedBy, submissionID)
	if err != nil {
		return Submission{}, err
	}
	return s.GetSubmission(ctx, submissionID)
}

func (s *SQLStore) ReturnSubmission(ctx context.Context, submissionID string) (Submission, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if sub.TotalScore == nil && sub.AIScore == nil {
		return Submission{}, ErrNotGraded
	}
	_, err = s.db.ExecContext(ctx, `UPDATE submissions SET total_score=NULL, feedback=NULL,
		graded_at=NULL, graded_by=NULL, ai_score=NULL, ai_feedback=NULL, returned_at=$1
		WHERE id=$2`, time.Now().Unix(), submissionID)
	if err != nil {
		return Submission{}, err
	}
	return s.GetSubmission(ctx, submissionID)
}

func (s *SQLStore) SaveAIResult(ctx context.Context, submissionID string, score float64, feedbackJSON string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET ai_score=$1, ai_feedback=$2
		WHERE id=$3`, score, feedbackJSON, submissionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) StudentDashboard(ctx context.Context, userID string) (StudentDashboard, error) {
	rows, err := s.ListGradesForUser(ctx, userID)
	if err != nil {
		return StudentDashboard{}, err
	}
	d := StudentDashboard{Rows: rows}
	for _, r := range rows {
		if r.TotalScore != nil {
			d.TotalEarned += *r.TotalScore
			d.TotalGraded++
		}
	}
	return d, nil
}

func (s *SQLStore) StaffDashboard(ctx context.Context) ([]StaffDashboardRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, a.title, a.report_number,
		COUNT(sub.id),
		SUM(CASE WHEN sub.graded_at IS NOT NULL THEN 1 ELSE 0 END),
		COALESCE(AVG(CASE WHEN sub.graded_at IS NOT NULL THEN sub.total_score END), 0)
		FROM assignments a
		LEFT JOIN submissions sub ON sub.assignment_id=a.id
		GROUP BY a.id, a.title, a.report_number
		ORDER BY a.report_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StaffDashboardRow{}
	for rows.Next() {
		var row StaffDashboardRow
		var graded sql.NullInt64
		if err := rows.Scan(&row.AssignmentID, &row.Title, &row.ReportNumber,
			&row.SubmissionCount, &graded, &row.AverageScore); err != nil {
			return nil, err
		}
		row.GradedCount = int(graded.Int64)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ---- scanning helpers ----

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var a Assignment
	var due sql.NullInt64
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.ReportNumber, &due,
		&a.TotalPoints, &a.Rubric, &a.PDFURL, &a.Published, &a.CreatedBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	if err != nil {
		return Assignment{}, err
	}
	if due.Valid {
		v := due.Int64
		a.DueDate = &v
	}
	return a, nil
}

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var score, aiScore sql.NullFloat64
	var feedback, gradedBy, aiFeedback sql.NullString
	var gradedAt, returnedAt sql.NullInt64
	err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.FileURL, &sub.FileName,
		&sub.SubmittedAt, &score, &feedback, &gradedAt, &gradedBy, &aiScore, &aiFeedback, &returnedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, err
	}
	fillNullable(&sub, score, feedback, gradedAt, gradedBy, aiScore, aiFeedback, returnedAt)
	return sub, nil
}

func scanSubmissionJoined(row rowScanner) (Submission, error) {
	var sub Submission
	var score, aiScore sql.NullFloat64
	var feedback, gradedBy, aiFeedback sql.NullString
	var gradedAt, returnedAt sql.NullInt64
	err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.FileURL, &sub.FileName,
		&sub.SubmittedAt, &score, &feedback, &gradedAt, &gradedBy, &aiScore, &aiFeedback,
		&returnedAt, &sub.UserName, &sub.UserEmail, &sub.GradedByName)
	if err != nil {
		return Submission{}, err
	}
	fillNullable(&sub, score, feedback, gradedAt, gradedBy, aiScore, aiFeedback, returnedAt)
	return sub, nil
}

func fillNullable(sub *Submission, score sql.NullFloat64, feedback sql.NullString,
	gradedAt sql.NullInt64, gradedBy sql.NullString, aiScore sql.NullFloat64,
	aiFeedback sql.NullString, returnedAt sql.NullInt64) {
	if score.Valid {
		v := score.Float64
		sub.TotalScore = &v
	}
	if feedback.Valid {
		v := feedback.String
		sub.Feedback = &v
	}
	if gradedAt.Valid {
		v := gradedAt.Int64
		sub.GradedAt = &v
	}
	if gradedBy.Valid {
		v := gradedBy.String
		sub.GradedBy = &v
	}
	if aiScore.Valid {
		v := aiScore.Float64
		sub.AIScore = &v
	}
	if aiFeedback.Valid {
		v := aiFeedback.String
		sub.AIFeedback = &v
	}
	if returnedAt.Valid {
		v := returnedAt.Int64
		sub.ReturnedAt = &v
	}
}
