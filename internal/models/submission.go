package models

import (
	"fmt"
	"strings"
	"time"

	"codearena/internal/common"
)

const (
	StatusRunning          = "running"
	StatusAccepted         = "accepted"
	StatusPartial          = "partial"
	StatusWrongAnswer      = "wrong_answer"
	StatusCompilationError = "compilation_error"
	StatusRuntimeError     = "runtime_error"
)

// IsTerminal reports whether no further status transition is permitted.
func IsTerminal(status string) bool {
	switch status {
	case StatusAccepted, StatusPartial, StatusWrongAnswer,
		StatusCompilationError, StatusRuntimeError:
		return true
	}
	return false
}

type Submission struct {
	ID               string    `db:"id" json:"id"`
	ContestID        string    `db:"contest_id" json:"contest_id"`
	ProblemID        string    `db:"problem_id" json:"problem_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Code             string    `db:"code" json:"code"`
	Language         string    `db:"language" json:"language"`
	Status           string    `db:"status" json:"status"`
	PassedTestCases  int       `db:"passed_test_cases" json:"passed_test_cases"`
	TotalTestCases   int       `db:"total_test_cases" json:"total_test_cases"`
	Points           int       `db:"points" json:"points"`
	SubmittedAt      time.Time `db:"submitted_at" json:"submitted_at"`
	ExecutionTimeMs  *int64    `db:"execution_time_ms" json:"execution_time_ms,omitempty"`
	SolveTimeSeconds *int64    `db:"solve_time_seconds" json:"solve_time_seconds,omitempty"`
	// Per-case detail, stored as a JSON document.
	RawResults *string `db:"raw_results" json:"raw_results,omitempty"`
}

type SubmissionRequest struct {
	ContestID string `json:"contest_id" binding:"required"`
	ProblemID string `json:"problem_id" binding:"required"`
	UserID    string `json:"user_id"`
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required"`
}

func (r *SubmissionRequest) ValidateRequest() error {
	if strings.TrimSpace(r.ContestID) == "" {
		return fmt.Errorf("%w: contest ID cannot be empty", common.ErrValidation)
	}

	if strings.TrimSpace(r.ProblemID) == "" {
		return fmt.Errorf("%w: problem ID cannot be empty", common.ErrValidation)
	}

	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: source code cannot be empty", common.ErrValidation)
	}

	if strings.TrimSpace(r.Language) == "" {
		return fmt.Errorf("%w: language cannot be empty", common.ErrValidation)
	}

	return nil
}
