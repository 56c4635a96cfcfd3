package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/cadpath/pkg/feature"
)

// EvalTimeout bounds how long one run of a survey script may take.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned for a script run that finished after a newer
// edit had already been submitted. Its features are never published.
var ErrSuperseded = errors.New("script superseded by a newer edit")

// TimeoutError reports a script run abandoned after Limit.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script still running after %s, abandoned", e.Limit)
}

// scriptRun carries the outcome of one evaluation back to Evaluate.
type scriptRun struct {
	features *feature.Store
	errs     []EvalError
	err      error
}

// await blocks until run number gen reports on ch or limit elapses.
// An abandoned run keeps its goroutine; whatever it sends later lands in
// the buffered channel and is dropped.
func (e *Engine) await(ch <-chan scriptRun, gen uint64, limit time.Duration) (*feature.Store, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case run := <-ch:
		e.mu.Lock()
		latest := e.generation
		e.mu.Unlock()
		if gen != latest {
			return nil, nil, ErrSuperseded
		}
		return run.features, run.errs, run.err
	case <-timer.C:
		return nil, nil, &TimeoutError{Limit: limit}
	}
}
