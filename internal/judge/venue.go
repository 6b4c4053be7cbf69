package judge

import (
	"context"
	"time"
)

// RunResult captures one program execution. Program-level failures (compile
// error, crash, timeout) are represented here; only infrastructure failures
// (backend unreachable, malformed response) surface as an error from Run.
type RunResult struct {
	Stdout       string
	Stderr       string
	ExitSignal   *string
	TimedOut     bool
	CompileError bool
	RuntimeError bool
	DurationMs   int64
}

type Venue interface {
	Run(ctx context.Context, lang Language, code, stdin string, timeout time.Duration) (RunResult, error)
}

// VenueSet holds one venue per language family.
type VenueSet struct {
	Local  Venue
	Remote Venue
}

// For selects the venue for a language. Pure mapping, no configuration.
func (v VenueSet) For(lang Language) Venue {
	if lang.Local() {
		return v.Local
	}
	return v.Remote
}
