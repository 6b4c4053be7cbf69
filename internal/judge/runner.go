package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codearena/internal/models"
)

type FailureKind string

const (
	FailureNone    FailureKind = ""
	FailureCompile FailureKind = "compile"
	FailureRuntime FailureKind = "runtime"
	FailureTimeout FailureKind = "timeout"
)

type CaseResult struct {
	Index    int         `json:"index"`
	Passed   bool        `json:"passed"`
	Actual   string      `json:"actual"`
	Expected string      `json:"expected"`
	Error    string      `json:"error,omitempty"`
	Kind     FailureKind `json:"kind,omitempty"`
}

type BatchResult struct {
	Passed int
	Total  int
	Cases  []CaseResult
	// Longest single-case wall time, for the submission record.
	MaxDurationMs int64
}

// Runner drives a venue across a problem's test cases, strictly sequentially.
// One failing case never aborts the batch; an infrastructure error from the
// venue does, returning the partial batch alongside the error.
type Runner struct {
	venue Venue
}

func NewRunner(venue Venue) *Runner {
	return &Runner{venue: venue}
}

func (r *Runner) Run(ctx context.Context, lang Language, code string, cases []models.TestCase, timeout time.Duration) (BatchResult, error) {
	batch := BatchResult{Total: len(cases), Cases: make([]CaseResult, 0, len(cases))}

	for i, tc := range cases {
		res, err := r.venue.Run(ctx, lang, code, tc.Input, timeout)
		if err != nil {
			return batch, fmt.Errorf("test case %d: %w", i, err)
		}

		if res.DurationMs > batch.MaxDurationMs {
			batch.MaxDurationMs = res.DurationMs
		}

		caseRes := CaseResult{
			Index:    i,
			Actual:   res.Stdout,
			Expected: tc.ExpectedOutput,
		}

		switch {
		case res.CompileError:
			caseRes.Error = "Compilation Error: " + res.Stderr
			caseRes.Kind = FailureCompile
		case res.TimedOut:
			caseRes.Error = "time limit exceeded"
			caseRes.Kind = FailureTimeout
		case res.RuntimeError:
			caseRes.Error = "Runtime Error: " + res.Stderr
			caseRes.Kind = FailureRuntime
		default:
			caseRes.Passed = strings.TrimSpace(res.Stdout) == strings.TrimSpace(tc.ExpectedOutput)
		}

		if caseRes.Passed {
			batch.Passed++
		}
		batch.Cases = append(batch.Cases, caseRes)
	}

	return batch, nil
}
