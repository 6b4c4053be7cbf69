package models

type Problem struct {
	ID            string `db:"id" json:"id"`
	ContestID     string `db:"contest_id" json:"contest_id"`
	Title         string `db:"title" json:"title"`
	Points        int    `db:"points" json:"points"`
	TimeLimitMs   int    `db:"time_limit_ms" json:"time_limit_ms"`
	MemoryLimitMb int    `db:"memory_limit_mb" json:"memory_limit_mb"`
	// Hidden test cases, in judge order.
	TestCases []TestCase `db:"-" json:"test_cases,omitempty"`
}

type TestCase struct {
	Input          string `db:"input" json:"input"`
	ExpectedOutput string `db:"expected_output" json:"expected_output"`
}
