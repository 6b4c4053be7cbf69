package workerpool

import (
	"context"
	"encoding/json"
	"time"

	"codearena/internal/judge"
	"codearena/internal/logger"
	"codearena/internal/models"
	"codearena/internal/repositories"

	"go.uber.org/zap"
)

// Grader runs one submission's grading task to a terminal state. Whatever
// fails mid-flight, the submission row converges to a terminal status; it is
// never left at running.
type Grader struct {
	submissions repositories.SubmissionRepository
	problems    repositories.ProblemRepository
	contests    repositories.ContestRepository
	venues      judge.VenueSet
	policy      judge.PolicyConfig

	// Used when the problem carries no time limit.
	defaultCaseTimeout time.Duration
}

func NewGrader(
	submissions repositories.SubmissionRepository,
	problems repositories.ProblemRepository,
	contests repositories.ContestRepository,
	venues judge.VenueSet,
	policy judge.PolicyConfig,
	defaultCaseTimeout time.Duration,
) *Grader {
	return &Grader{
		submissions:        submissions,
		problems:           problems,
		contests:           contests,
		venues:             venues,
		policy:             policy,
		defaultCaseTimeout: defaultCaseTimeout,
	}
}

func (g *Grader) GradeSubmission(ctx context.Context, submissionID string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Log.Error("Panic while grading submission",
				zap.String("submission_id", submissionID),
				zap.Any("error", recovered))
			g.fallbackTerminal(ctx, submissionID)
		}
	}()

	submission, err := g.submissions.GetByID(ctx, submissionID)
	if err != nil {
		logger.Log.Error("Failed to load submission for grading",
			zap.String("submission_id", submissionID),
			zap.Error(err))
		// The stream message is already acked; converge to terminal anyway.
		g.fallbackTerminal(ctx, submissionID)
		return
	}

	if models.IsTerminal(submission.Status) {
		logger.Log.Warn("Submission already terminal, skipping",
			zap.String("submission_id", submissionID),
			zap.String("status", submission.Status))
		return
	}

	lang, err := judge.ParseLanguage(submission.Language)
	if err != nil {
		logger.Log.Error("Submission carries unsupported language",
			zap.String("submission_id", submissionID),
			zap.String("language", submission.Language))
		g.fallbackTerminal(ctx, submissionID)
		return
	}

	problem, err := g.problems.GetProblem(ctx, submission.ContestID, submission.ProblemID)
	if err != nil {
		logger.Log.Error("Failed to load problem for grading",
			zap.String("submission_id", submissionID),
			zap.String("problem_id", submission.ProblemID),
			zap.Error(err))
		g.fallbackTerminal(ctx, submissionID)
		return
	}

	timeout := g.defaultCaseTimeout
	if problem.TimeLimitMs > 0 {
		timeout = time.Duration(problem.TimeLimitMs) * time.Millisecond
	}

	runner := judge.NewRunner(g.venues.For(lang))
	batch, err := runner.Run(ctx, lang, submission.Code, problem.TestCases, timeout)
	if err != nil {
		// Backend failures grade the whole submission; no per-case retry.
		logger.Log.Error("Execution venue failed",
			zap.String("submission_id", submissionID),
			zap.Error(err))
		g.fallbackTerminal(ctx, submissionID)
		return
	}

	decision := judge.Grade(batch, problem.Points, g.policy)

	raw, err := json.Marshal(batch.Cases)
	if err != nil {
		raw = []byte("[]")
	}

	execMs := batch.MaxDurationMs
	result := repositories.SubmissionResult{
		Status:          decision.Status,
		PassedTestCases: batch.Passed,
		Points:          decision.Points,
		RawResults:      string(raw),
		ExecutionTimeMs: &execMs,
	}

	if decision.Status == models.StatusAccepted {
		result.SolveTimeSeconds = g.solveTime(ctx, submission)
	}

	if err := g.submissions.UpdateResult(ctx, submissionID, result); err != nil {
		logger.Log.Error("Failed to store grading result",
			zap.String("submission_id", submissionID),
			zap.Error(err))
		return
	}

	logger.Log.Info("Finished grading submission",
		zap.String("submission_id", submissionID),
		zap.String("status", decision.Status),
		zap.Int("passed", batch.Passed),
		zap.Int("total", batch.Total),
		zap.Int("points", decision.Points))
}

// solveTime derives solveTimeSeconds from the optional coding-start signal.
// Without a signal it stays unset: unknown, not zero.
func (g *Grader) solveTime(ctx context.Context, submission *models.Submission) *int64 {
	start, err := g.contests.GetCodingStartTime(ctx, submission.ContestID, submission.UserID, submission.ProblemID)
	if err != nil {
		logger.Log.Warn("Failed to read coding start time",
			zap.String("submission_id", submission.ID),
			zap.Error(err))
		return nil
	}
	if start == nil {
		return nil
	}

	secs := int64(time.Since(*start).Seconds())
	if secs < 0 {
		secs = 0
	}
	return &secs
}

func (g *Grader) fallbackTerminal(ctx context.Context, submissionID string) {
	result := repositories.SubmissionResult{
		Status:          models.StatusRuntimeError,
		PassedTestCases: 0,
		Points:          0,
		RawResults:      "[]",
	}
	if err := g.submissions.UpdateResult(ctx, submissionID, result); err != nil {
		logger.Log.Error("Failed to write fallback terminal status",
			zap.String("submission_id", submissionID),
			zap.Error(err))
	}
}
