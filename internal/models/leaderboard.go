package models

import "time"

// LeaderboardEntry is fully derived and recomputed per query, never persisted.
type LeaderboardEntry struct {
	Rank               int        `json:"rank"`
	UserID             string     `json:"user_id"`
	Name               string     `json:"name"`
	TotalPoints        int        `json:"total_points"`
	SolvedProblems     int        `json:"solved_problems"`
	LastSubmissionTime *time.Time `json:"last_submission_time,omitempty"`
	// Nil when none of the counted solves carries solve-time data; that is
	// "unknown", not zero, and ranks behind any recorded time.
	TotalSolveTime *int64 `json:"total_solve_time,omitempty"`
	IsBanned       bool   `json:"is_banned"`
}
