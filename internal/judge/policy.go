package judge

import (
	"math"

	"codearena/internal/models"
)

// PolicyConfig controls scoring. All-or-nothing grading is simply
// PartialCreditEnabled=false.
type PolicyConfig struct {
	PartialCreditEnabled bool
	PartialMinPassed     int
	PartialRatio         float64
}

type Decision struct {
	Status string
	Points int
}

// Grade turns a batch result into a terminal status and point award.
// Rules are evaluated top to bottom, first match wins.
func Grade(batch BatchResult, problemPoints int, cfg PolicyConfig) Decision {
	if batch.Passed == batch.Total {
		return Decision{Status: models.StatusAccepted, Points: problemPoints}
	}

	if cfg.PartialCreditEnabled && batch.Passed >= cfg.PartialMinPassed && batch.Passed < batch.Total {
		return Decision{
			Status: models.StatusPartial,
			Points: int(math.Floor(float64(problemPoints) * cfg.PartialRatio)),
		}
	}

	for _, c := range batch.Cases {
		if c.Kind == FailureCompile {
			return Decision{Status: models.StatusCompilationError}
		}
	}

	for _, c := range batch.Cases {
		if c.Kind == FailureRuntime {
			return Decision{Status: models.StatusRuntimeError}
		}
	}

	return Decision{Status: models.StatusWrongAnswer}
}
