package path

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/cadpath/pkg/observation"
)

// MaxWordLength is the longest word Tokenize accepts.
const MaxWordLength = 64

// MaxRepeat is the largest count a "*n" repeat may carry.
const MaxRepeat = 1000

// LexicalError reports a word that could not be tokenized.
type LexicalError struct {
	Word   string
	Reason string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Word, e.Reason)
}

// tokenizer accumulates items across the words of one path.
type tokenizer struct {
	unit        observation.Unit
	items       []Item
	omitPending bool
}

// Tokenize splits text into words and converts them to items. Distances
// are recorded in the active unit, which starts as unit and changes at
// every "xx..." word. On error no items are returned.
func Tokenize(text string, unit observation.Unit) ([]Item, error) {
	t := &tokenizer{unit: unit}
	for _, w := range strings.Fields(text) {
		if err := t.word(w); err != nil {
			return nil, err
		}
	}
	return t.items, nil
}

// add appends an item, applying the miss-connect and omit-point rules.
func (t *tokenizer) add(it Item) {
	if it.Kind == MissConnect && len(t.items) > 0 && t.items[len(t.items)-1].Kind == MissConnect {
		return
	}
	t.items = append(t.items, it)

	switch it.Kind {
	case OmitPoint:
		t.omitPending = true
	case Value:
		if t.omitPending {
			t.omitPending = false
			t.items = append(t.items, Item{Kind: MissConnect, Implicit: true})
		}
	}
}

func (t *tokenizer) last() (Item, bool) {
	if len(t.items) == 0 {
		return Item{}, false
	}
	return t.items[len(t.items)-1], true
}

// word consumes one whitespace-delimited word. The residue left after
// each recognised prefix is scanned again until nothing remains.
func (t *tokenizer) word(w string) error {
	if len(w) > MaxWordLength {
		return &LexicalError{Word: w, Reason: fmt.Sprintf("word longer than %d characters", MaxWordLength)}
	}

	if strings.Contains(w, "...") {
		abbrev := w[:strings.IndexByte(w, '.')]
		unit, err := observation.ParseUnit(abbrev)
		if err != nil {
			return &LexicalError{Word: w, Reason: err.Error()}
		}
		t.unit = unit
		t.add(Item{Kind: UnitsChange, Unit: unit})
		return nil
	}

	rest := w
	for rest != "" {
		var (
			n   int
			err error
		)
		switch {
		case len(rest) >= 2 && strings.EqualFold(rest[:2], "cc"):
			t.add(Item{Kind: CounterClockwise})
			n = 2
		case rest[0] == '(':
			t.add(Item{Kind: BeginCurve})
			n = 1
		case rest[0] == ')':
			t.add(Item{Kind: EndCurve})
			n = 1
		case rest[0] == '/':
			n, err = t.qualifier(rest)
		case rest[0] == '*':
			n, err = t.repeat(rest)
		default:
			// An embedded qualifier ends the numeric part of the word.
			chunk := rest
			if i := strings.IndexAny(rest, "*/"); i > 0 {
				chunk = rest[:i]
			}
			n, err = t.number(chunk)
		}
		if err != nil {
			return &LexicalError{Word: w, Reason: err.Error()}
		}
		rest = rest[n:]
	}
	return nil
}

// qualifier handles a word residue starting with '/'.
func (t *tokenizer) qualifier(s string) (int, error) {
	if len(s) == 1 || s[1] == '.' || isDigit(s[1]) {
		t.add(Item{Kind: Slash})
		return 1, nil
	}
	var kind ItemKind
	var n int
	switch {
	case strings.HasPrefix(s, "/-"):
		kind, n = MissConnect, 2
	case strings.HasPrefix(s, "/*"):
		kind, n = OmitPoint, 2
	case len(s) >= 3 && strings.EqualFold(s[:3], "/mc"):
		kind, n = MissConnect, 3
	case len(s) >= 3 && strings.EqualFold(s[:3], "/op"):
		kind, n = OmitPoint, 3
	default:
		return 0, fmt.Errorf("unexpected qualifier %q", s)
	}
	// A qualifier ends the word or runs straight into another qualifier.
	if n < len(s) && s[n] != '/' && s[n] != ')' {
		return 0, fmt.Errorf("unexpected qualifier %q", s)
	}
	t.add(Item{Kind: kind})
	return n, nil
}

// repeat handles "*n", adding n-1 more copies of the preceding distance.
func (t *tokenizer) repeat(s string) (int, error) {
	end := 1
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 1 {
		return 0, fmt.Errorf("repeat count missing after '*'")
	}
	count, err := strconv.Atoi(s[1:end])
	if err != nil || count < 2 {
		return 0, fmt.Errorf("unexpected repeat count %q", s[1:end])
	}
	if count > MaxRepeat {
		return 0, fmt.Errorf("repeat count %d exceeds %d", count, MaxRepeat)
	}

	// Skip back over the miss-connect inserted after an omitted point.
	idx := len(t.items) - 1
	if idx >= 0 && t.items[idx].Kind == MissConnect && t.items[idx].Implicit {
		idx--
	}
	if idx < 0 {
		return 0, fmt.Errorf("nothing to repeat")
	}
	prev := t.items[idx]
	if prev.Kind != Value {
		return 0, fmt.Errorf("repeat must follow a distance, not %s", prev.Kind)
	}
	for i := 1; i < count; i++ {
		t.add(Item{Kind: Value, Value: prev.Value, Unit: prev.Unit})
	}
	return end, nil
}

// number handles an angle or a distance. It stops before any ')' so that
// the caller can record the end of a curve.
func (t *tokenizer) number(s string) (int, error) {
	last, ok := t.last()
	if strings.Contains(s, "-") || (ok && last.Kind == BeginCurve) {
		return t.angle(s)
	}
	return t.distance(s)
}

func (t *tokenizer) angle(s string) (int, error) {
	end := strings.IndexByte(s, ')')
	if end < 0 {
		end = len(s)
	}
	text := s[:end]
	consumed := end
	kind := Angle

	if i := strings.IndexAny(text, "cC"); i >= 0 {
		kind = CentralAngle
		text = text[:i]
		consumed = i + 1
	} else if i := strings.IndexAny(text, "dD"); i >= 0 {
		kind = Deflection
		text = text[:i] + text[i+1:]
	}

	a, err := observation.ParseAngle(text)
	if err != nil {
		return 0, err
	}
	t.add(Item{Kind: kind, Value: a.Radians()})
	return consumed, nil
}

func (t *tokenizer) distance(s string) (int, error) {
	end := 0
	for end < len(s) && (isDigit(s[end]) || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("malformed number")
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q", s[:end])
	}

	unit := t.unit
	stop := strings.IndexByte(s, ')')
	if stop < 0 {
		stop = len(s)
	}
	if suffix := s[end:stop]; suffix != "" {
		unit, err = observation.ParseUnit(suffix)
		if err != nil {
			return 0, err
		}
	}
	t.add(Item{Kind: Value, Value: v, Unit: unit})
	return stop, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
