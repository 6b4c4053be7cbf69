package repositories

import (
	"codearena/internal/common"
	"codearena/internal/models"
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SubmissionResult is the single terminal write of the grading pipeline.
type SubmissionResult struct {
	Status           string
	PassedTestCases  int
	Points           int
	RawResults       string
	ExecutionTimeMs  *int64
	SolveTimeSeconds *int64
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, contestID, userID string) ([]models.Submission, error)
	UpdateResult(ctx context.Context, id string, result SubmissionResult) error
	AcceptedByContest(ctx context.Context, contestID string) ([]models.Submission, error)
}

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `INSERT INTO submissions
              (id, contest_id, problem_id, user_id, code, language, status,
               passed_test_cases, total_test_cases, points, submitted_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		submission.ID,
		submission.ContestID,
		submission.ProblemID,
		submission.UserID,
		submission.Code,
		submission.Language,
		submission.Status,
		submission.PassedTestCases,
		submission.TotalTestCases,
		submission.Points,
		submission.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT id, contest_id, problem_id, user_id, code, language, status,
                  passed_test_cases, total_test_cases, points, submitted_at,
                  execution_time_ms, solve_time_seconds, raw_results
              FROM submissions WHERE id = ?`

	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: submission %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &submission, nil
}

func (r *submissionRepository) List(ctx context.Context, contestID, userID string) ([]models.Submission, error) {
	query := `SELECT id, contest_id, problem_id, user_id, code, language, status,
                  passed_test_cases, total_test_cases, points, submitted_at,
                  execution_time_ms, solve_time_seconds, raw_results
              FROM submissions WHERE 1=1`
	args := []interface{}{}

	if contestID != "" {
		query += " AND contest_id = ?"
		args = append(args, contestID)
	}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY submitted_at DESC"

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, nil
}

// UpdateResult writes all terminal fields in one statement; the row update is
// atomic and a repeated invocation simply overwrites (last write wins).
func (r *submissionRepository) UpdateResult(ctx context.Context, id string, result SubmissionResult) error {
	query := `UPDATE submissions
              SET status = ?, passed_test_cases = ?, points = ?, raw_results = ?,
                  execution_time_ms = ?, solve_time_seconds = ?
              WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		result.Status,
		result.PassedTestCases,
		result.Points,
		result.RawResults,
		result.ExecutionTimeMs,
		result.SolveTimeSeconds,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission result: %w", err)
	}

	return nil
}

func (r *submissionRepository) AcceptedByContest(ctx context.Context, contestID string) ([]models.Submission, error) {
	query := `SELECT id, contest_id, problem_id, user_id, code, language, status,
                  passed_test_cases, total_test_cases, points, submitted_at,
                  execution_time_ms, solve_time_seconds, raw_results
              FROM submissions
              WHERE contest_id = ? AND status = ?
              ORDER BY submitted_at ASC`

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, contestID, models.StatusAccepted); err != nil {
		return nil, fmt.Errorf("failed to get accepted submissions: %w", err)
	}

	return submissions, nil
}
