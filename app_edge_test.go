package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 outlines, 0 errors.
//    (TestE2EEmptySource already exists; this verifies additional invariants.)
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines for empty source, got %d", len(result.Outlines))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	if result.Features != 0 {
		t.Errorf("expected 0 features, got %d", result.Features)
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Outlines == nil {
		t.Error("Outlines should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 outlines.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(point \"A\" 0 0)\n(point \"B\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines on syntax error, got %d", len(result.Outlines))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2ESyntaxErrorSingleLineMissingParen(t *testing.T) {
	app := NewApp()

	result := app.Evaluate("(+ 1 2")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for missing closing paren")
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines, got %d", len(result.Outlines))
	}
}

// ---------------------------------------------------------------------------
// 3. Bad references: unknown or duplicate point names -> eval error.
// ---------------------------------------------------------------------------

func TestE2EUnknownPointReference(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 0 0)
(line "A" "NOPE")
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for unknown point")
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines, got %d", len(result.Outlines))
	}
	if !strings.Contains(result.Errors[0].Message, "NOPE") {
		t.Errorf("error should name the missing point, got %q", result.Errors[0].Message)
	}
}

func TestE2EDuplicatePointName(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 0 0)
(point "A" 5 5)
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for duplicate point")
	}
	if !strings.Contains(result.Errors[0].Message, "already exists") {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
}

func TestE2EIntersectionMiss(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 0 0)
(point "B" 10 0)
(intersect "P" (circle "A" 1) (circle "B" 1))
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for circles that do not meet")
	}
	if !strings.Contains(result.Errors[0].Message, "no intersection") {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
}

func TestE2EBadPathText(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 0 0)
(point "B" 100 0)
(path "A" "B" "(90-00 30")
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for an unclosed curve")
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines, got %d", len(result.Outlines))
	}
}

// ---------------------------------------------------------------------------
// 4. Rapid evaluation: sequential calls recover between error and success.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Simulates debounce: rapid sequential calls to Evaluate on the same App.
	// The engine holds a mutex, so rapid sequential calls exercise the
	// generation-counter and timeout paths. We verify no panics occur.
	//
	// Note: we call Evaluate sequentially because zygomys has internal
	// global state that is not safe for concurrent sandbox creation.
	// In production, the engine mutex serializes calls anyway.
	app := NewApp()

	sources := []string{
		`(point "A" 0 0)`,
		`(point "A" 0 0) (point "B" 10 0)`,
		`(+ 1 2)`,
		``,
		`(point "A" 0 0) (point "B" 10 0) (line "A" "B")`,
		`(point "A" 0 0) (circle "A" 5)`,
		`(+ 100 200)`,
		``,
		`(point "A" 0 0) (point "B" 100 50) (path "A" "B" "100 90-00 50")`,
		`(point "A" 3 4)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			result := app.Evaluate(source)
			if len(result.Errors) > 0 {
				t.Errorf("iteration %d: unexpected errors %v", i, result.Errors)
			}
		}()
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources rapidly.
	// Ensures the engine recovers cleanly between error and success states.
	app := NewApp()

	sources := []string{
		`(point "ok" 0 0)`,
		`(point "broken"`,
		``,
		`(line "missing" "also-missing")`,
		`(point "A" 0 0) (circle "A" 10)`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(point "A" 0 0) (point "B" 0 10) (line "A" "B")`,
		`(undefined-func 1 2 3)`,
		`(point "last" 1 1)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Evaluate(source)
			_ = result
		}()
	}

	// The last source must still evaluate cleanly.
	result := app.Evaluate(sources[len(sources)-1])
	if len(result.Errors) > 0 || len(result.Outlines) != 1 {
		t.Errorf("engine did not recover: %+v", result)
	}
}

// ---------------------------------------------------------------------------
// 5. Large coordinates: state plane values -> valid outlines without crash.
// ---------------------------------------------------------------------------

func TestE2ELargeCoordinates(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 640123.456 4512345.678)
(point "B" 640223.456 4512395.678)
(path "A" "B" "100 90-00 50")
(circle "A" 25)
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors for large coordinates: %v", result.Errors)
	}
	// A, B, the angle point, two lines, one circle.
	if len(result.Outlines) != 6 {
		t.Fatalf("expected 6 outlines, got %d", len(result.Outlines))
	}
	for _, o := range result.Outlines {
		if len(o.Points) == 0 {
			t.Errorf("%s outline should have points", o.Kind)
		}
	}
}

// ---------------------------------------------------------------------------
// 6. Comments only: source that is only comments -> 0 outlines, 0 errors.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp()

	source := `
;; This is a comment
;; Another comment
; And another
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments-only source: %v", result.Errors)
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines for comments-only source, got %d", len(result.Outlines))
	}
}

func TestE2ECommentsWithWhitespace(t *testing.T) {
	app := NewApp()

	source := `
  ;; leading whitespace
  ;; trailing whitespace
  ; tabs	everywhere
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments+whitespace source: %v", result.Errors)
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines, got %d", len(result.Outlines))
	}
}

// ---------------------------------------------------------------------------
// 7. Nested expressions: def with arithmetic, then use as coordinates.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := NewApp()

	source := `
(def frontage (* 2 50))
(def depth (/ frontage 2))
(point "A" 0 0)
(point "B" frontage depth)
(line "A" "B")
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Outlines) != 3 {
		t.Fatalf("expected 3 outlines, got %d", len(result.Outlines))
	}
	for _, o := range result.Outlines {
		if o.Kind != "line" {
			continue
		}
		// The line runs from (0, 0) to (100, 50).
		n := len(o.Points)
		if o.Points[n-2] != 100 || o.Points[n-1] != 50 {
			t.Errorf("line ends at (%v, %v), want (100, 50)", o.Points[n-2], o.Points[n-1])
		}
	}
}

func TestE2EComplexArithmeticRadius(t *testing.T) {
	app := NewApp()

	source := `
(def lot-width 60)
(def setback 7.5)
(point "A" 0 0)
(circle "A" (- (/ lot-width 2) setback))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Outlines) != 2 {
		t.Fatalf("expected 2 outlines, got %d", len(result.Outlines))
	}
}

// ---------------------------------------------------------------------------
// Additional edge cases
// ---------------------------------------------------------------------------

func TestE2EWhitespaceOnly(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("   \n\t\n   \n")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for whitespace-only source, got %d", len(result.Errors))
	}
	if len(result.Outlines) != 0 {
		t.Errorf("expected 0 outlines for whitespace-only source, got %d", len(result.Outlines))
	}
}

func TestE2EPointMissingCoordinates(t *testing.T) {
	app := NewApp()

	result := app.Evaluate(`(point "oops")`)
	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for point with no coordinates")
	}
}

func TestE2ECoincidentPointsWarn(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 10 10)
(point "B" 10 10)
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("coincident points are not an error: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(result.Warnings))
	}
	if !strings.Contains(result.Warnings[0].Message, "coincides") {
		t.Errorf("unexpected warning %q", result.Warnings[0].Message)
	}
	if len(result.Outlines) != 2 {
		t.Errorf("expected 2 outlines, got %d", len(result.Outlines))
	}
}

func TestE2EColorPalette(t *testing.T) {
	app := NewApp()

	source := `
(point "A" 0 0)
(point "B" 100 0)
(line "A" "B")
(circle "A" 10)
(point "C" 0 50)
(point "D" 50 50)
(path "C" "D" "(90-00 10/5 5)")
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}

	seen := map[string]bool{}
	for _, o := range result.Outlines {
		want, ok := colorPalette[o.Kind]
		if !ok {
			t.Errorf("no palette entry for kind %q", o.Kind)
			continue
		}
		if o.Color != want {
			t.Errorf("%s color = %s, want %s", o.Kind, o.Color, want)
		}
		seen[o.Kind] = true
	}
	for kind := range colorPalette {
		if !seen[kind] {
			t.Errorf("no %s outline rendered", kind)
		}
	}
}
