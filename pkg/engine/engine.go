// Package engine evaluates survey scripts. It wraps zygomys in a sandboxed
// environment and produces a feature store from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cadpath/pkg/config"
	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/logger"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line      int
	Col       int
	Message   string
	FeatureID feature.ID
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Store    *feature.Store
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for survey scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	settings   config.Settings
}

// NewEngine creates an Engine using the default settings.
func NewEngine() *Engine {
	return NewEngineWithSettings(config.Default())
}

// NewEngineWithSettings creates an Engine whose scripts start from the
// given entry unit, default offset and adjustment tolerance.
func NewEngineWithSettings(s config.Settings) *Engine {
	return &Engine{settings: s}
}

// Evaluate takes Lisp source code and produces a new feature store.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns store + nil errors + nil error
//   - On parse/eval failure: returns nil store + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*feature.Store, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	settings := e.settings
	e.mu.Unlock()

	ch := make(chan scriptRun, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- scriptRun{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := evaluate(source, settings)
		ch <- scriptRun{features: s, errs: evalErrs, err: err}
	}()

	return e.await(ch, gen, EvalTimeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, settings config.Settings) (*feature.Store, []EvalError, error) {
	// Empty source is a valid program that produces an empty store.
	if strings.TrimSpace(source) == "" {
		return feature.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	sess := newSession(settings)
	registerBuiltins(env, sess)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	res := feature.Validate(sess.store)
	if !res.OK() {
		evalErrs := make([]EvalError, 0, len(res.Errors))
		for _, ve := range res.Errors {
			evalErrs = append(evalErrs, EvalError{Message: ve.Error()})
		}
		return nil, evalErrs, nil
	}
	logger.Debug("evaluated script: %d features", sess.store.Count())
	return sess.store, nil, nil
}

// Warnings returns the validation warnings for an evaluated store.
func Warnings(s *feature.Store) []EvalWarning {
	if s == nil {
		return nil
	}
	res := feature.Validate(s)
	warnings := make([]EvalWarning, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, EvalWarning{Message: w.Message, FeatureID: w.FeatureID})
	}
	return warnings
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if loc := re.FindStringSubmatchIndex(msg); loc != nil {
			line, _ := strconv.Atoi(msg[loc[2]:loc[3]])
			detail := strings.TrimSpace(msg[loc[4]:loc[5]])
			// Keep any builtin message zygomys put in front of the location.
			if prefix := strings.TrimSpace(msg[:loc[0]]); prefix != "" {
				detail = strings.TrimSpace(prefix + " " + detail)
			}
			return []EvalError{{
				Line:    line,
				Message: detail,
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
