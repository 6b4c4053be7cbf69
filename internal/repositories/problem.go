package repositories

import (
	"codearena/internal/common"
	"codearena/internal/logger"
	"codearena/internal/models"
	"codearena/internal/services"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type ProblemRepository interface {
	GetProblem(ctx context.Context, contestID, problemID string) (*models.Problem, error)
	GetContestProblems(ctx context.Context, contestID string) ([]models.Problem, error)
}

type problemRepository struct {
	db    *sqlx.DB
	cache services.Cache
}

func NewProblemRepository(db *sqlx.DB, cache services.Cache) ProblemRepository {
	return &problemRepository{db: db, cache: cache}
}

func (r *problemRepository) GetProblem(ctx context.Context, contestID, problemID string) (*models.Problem, error) {
	query := `SELECT id, contest_id, title, points, time_limit_ms, memory_limit_mb
              FROM problems WHERE id = ? AND contest_id = ?`

	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, problemID, contestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: problem %s", common.ErrNotFound, problemID)
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	testCases, err := r.getTestCases(ctx, problemID)
	if err != nil {
		return nil, err
	}
	problem.TestCases = testCases

	return &problem, nil
}

func (r *problemRepository) getTestCases(ctx context.Context, problemID string) ([]models.TestCase, error) {
	cacheKey := fmt.Sprintf("problem:%s:testcases", problemID)

	var testCases []models.TestCase
	if err := r.cache.Get(ctx, cacheKey, &testCases); err == nil {
		return testCases, nil // Cache hit
	}
	logger.Log.Debug("Test cases not in cache, retrieving from DB")

	query := `SELECT input, expected_output FROM test_cases WHERE problem_id = ? ORDER BY sort_order ASC`

	if err := r.db.SelectContext(ctx, &testCases, query, problemID); err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}

	_ = r.cache.Set(ctx, cacheKey, testCases, 1*time.Hour)

	return testCases, nil
}

func (r *problemRepository) GetContestProblems(ctx context.Context, contestID string) ([]models.Problem, error) {
	query := `SELECT id, contest_id, title, points, time_limit_ms, memory_limit_mb
              FROM problems WHERE contest_id = ? ORDER BY title ASC`

	var problems []models.Problem
	if err := r.db.SelectContext(ctx, &problems, query, contestID); err != nil {
		return nil, fmt.Errorf("failed to get contest problems: %w", err)
	}

	return problems, nil
}
