package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"codearena/internal/models"
	"codearena/internal/repositories"
)

// Aggregator recomputes the full ranking from the submission history on every
// call. It only reads; nothing is cached or persisted.
type Aggregator struct {
	submissions repositories.SubmissionRepository
	contests    repositories.ContestRepository
}

func NewAggregator(submissions repositories.SubmissionRepository, contests repositories.ContestRepository) *Aggregator {
	return &Aggregator{submissions: submissions, contests: contests}
}

func (a *Aggregator) Leaderboard(ctx context.Context, contestID string) ([]models.LeaderboardEntry, error) {
	if _, err := a.contests.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	participants, err := a.contests.GetParticipants(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	accepted, err := a.submissions.AcceptedByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accepted submissions: %w", err)
	}

	return Rank(participants, accepted), nil
}

type userTotals struct {
	totalPoints     int
	solved          int
	lastSubmission  time.Time
	firstSubmission time.Time
	solveTimeSum    int64
	hasSolveTime    bool
}

// Rank computes the ordered leaderboard. `accepted` must be sorted by
// submission time ascending; the first acceptance per (user, problem) is
// canonical and later resubmissions never replace it.
func Rank(participants []models.Participant, accepted []models.Submission) []models.LeaderboardEntry {
	type solveKey struct{ userID, problemID string }
	seen := make(map[solveKey]bool)
	totals := make(map[string]*userTotals)

	roster := make(map[string]bool, len(participants))
	for _, p := range participants {
		roster[p.UserID] = true
	}

	for _, sub := range accepted {
		if !roster[sub.UserID] {
			continue
		}
		key := solveKey{sub.UserID, sub.ProblemID}
		if seen[key] {
			continue
		}
		seen[key] = true

		t := totals[sub.UserID]
		if t == nil {
			t = &userTotals{firstSubmission: sub.SubmittedAt}
			totals[sub.UserID] = t
		}

		t.totalPoints += sub.Points
		t.solved++
		if sub.SubmittedAt.After(t.lastSubmission) {
			t.lastSubmission = sub.SubmittedAt
		}
		if sub.SubmittedAt.Before(t.firstSubmission) {
			t.firstSubmission = sub.SubmittedAt
		}
		if sub.SolveTimeSeconds != nil {
			t.solveTimeSum += *sub.SolveTimeSeconds
			t.hasSolveTime = true
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(participants))
	order := make(map[string]*userTotals, len(participants))
	for _, p := range participants {
		entry := models.LeaderboardEntry{
			UserID:   p.UserID,
			Name:     p.Name,
			IsBanned: p.IsBanned,
		}
		if t := totals[p.UserID]; t != nil {
			entry.TotalPoints = t.totalPoints
			entry.SolvedProblems = t.solved
			last := t.lastSubmission
			entry.LastSubmissionTime = &last
			if t.hasSolveTime {
				sum := t.solveTimeSum
				entry.TotalSolveTime = &sum
			}
			order[p.UserID] = t
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j], order)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}

// less implements the strict total order: non-banned before banned, then
// points, solved count, total solve time (unknown ranks behind any recorded
// time), first-submission time, and finally user ID for determinism.
func less(a, b models.LeaderboardEntry, totals map[string]*userTotals) bool {
	if a.IsBanned != b.IsBanned {
		return !a.IsBanned
	}

	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}

	if a.SolvedProblems != b.SolvedProblems {
		return a.SolvedProblems > b.SolvedProblems
	}

	if cmp := compareSolveTime(a.TotalSolveTime, b.TotalSolveTime); cmp != 0 {
		return cmp < 0
	}

	ta, tb := totals[a.UserID], totals[b.UserID]
	switch {
	case ta != nil && tb != nil && !ta.firstSubmission.Equal(tb.firstSubmission):
		return ta.firstSubmission.Before(tb.firstSubmission)
	case ta != nil && tb == nil:
		return true
	case ta == nil && tb != nil:
		return false
	}

	return a.UserID < b.UserID
}

// compareSolveTime treats a missing value as infinite, never as zero.
func compareSolveTime(a, b *int64) int {
	switch {
	case a != nil && b != nil:
		switch {
		case *a < *b:
			return -1
		case *a > *b:
			return 1
		}
		return 0
	case a != nil:
		return -1
	case b != nil:
		return 1
	}
	return 0
}
