package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Wire contract of the remote compile-and-run backend.
type execRequest struct {
	Language         string `json:"language"`
	SourceFile       string `json:"sourceFile"`
	Stdin            string `json:"stdin"`
	CompileTimeoutMs int64  `json:"compileTimeoutMs"`
	RunTimeoutMs     int64  `json:"runTimeoutMs"`
}

type execResponse struct {
	Compile *compilePhase `json:"compile,omitempty"`
	Run     *runPhase     `json:"run,omitempty"`
}

type compilePhase struct {
	OK     bool   `json:"ok"`
	Stderr string `json:"stderr"`
}

type runPhase struct {
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	ExitSignal *string `json:"exitSignal"`
}

// RetryPolicy bounds attempts against the execution backend. The default is a
// single attempt; backend failures grade the submission rather than retrying
// per test case.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// RemoteVenue submits source to an external execution service for languages
// that need a real toolchain.
type RemoteVenue struct {
	baseURL        string
	client         *http.Client
	compileTimeout time.Duration
	retry          RetryPolicy
}

func NewRemoteVenue(baseURL string, compileTimeout time.Duration, retry RetryPolicy) *RemoteVenue {
	return &RemoteVenue{
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 60 * time.Second},
		compileTimeout: compileTimeout,
		retry:          retry,
	}
}

func (v *RemoteVenue) Run(ctx context.Context, lang Language, code, stdin string, timeout time.Duration) (RunResult, error) {
	start := time.Now()

	body, err := json.Marshal(execRequest{
		Language:         string(lang),
		SourceFile:       code,
		Stdin:            stdin,
		CompileTimeoutMs: v.compileTimeout.Milliseconds(),
		RunTimeoutMs:     timeout.Milliseconds(),
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to encode execution request: %w", err)
	}

	resp, err := v.post(ctx, body)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{DurationMs: time.Since(start).Milliseconds()}

	if resp.Compile != nil && !resp.Compile.OK {
		result.Stderr = resp.Compile.Stderr
		result.CompileError = true
		return result, nil
	}

	if resp.Run == nil {
		return RunResult{}, fmt.Errorf("execution backend returned no run phase")
	}

	result.Stdout = resp.Run.Stdout
	result.Stderr = resp.Run.Stderr
	result.ExitSignal = resp.Run.ExitSignal

	if sig := resp.Run.ExitSignal; sig != nil {
		// The backend kills over-budget processes; anything else is a crash.
		if *sig == "SIGKILL" || *sig == "SIGXCPU" {
			result.TimedOut = true
		} else {
			result.RuntimeError = true
		}
	}

	return result, nil
}

func (v *RemoteVenue) post(ctx context.Context, body []byte) (*execResponse, error) {
	var lastErr error
	for attempt := 0; attempt < v.retry.attempts(); attempt++ {
		if attempt > 0 {
			backoff := v.retry.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build execution request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := v.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("execution backend unreachable: %w", err)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read execution response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("execution backend returned status %d", resp.StatusCode)
			continue
		}

		var decoded execResponse
		if err := json.Unmarshal(data, &decoded); err != nil {
			lastErr = fmt.Errorf("malformed execution response: %w", err)
			continue
		}

		return &decoded, nil
	}

	return nil, lastErr
}
