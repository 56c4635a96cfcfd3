package path

import (
	"fmt"
	"strings"

	"github.com/chazu/cadpath/pkg/observation"
)

// Format writes legs back out as path text that Parse reads into the same
// legs. The text opens with a units word for unit, so distances in that
// unit carry no suffix. Runs of identical distances are written as "d*n".
func Format(legs []Leg, unit observation.Unit) string {
	words := []string{unit.String() + "..."}
	for _, l := range legs {
		switch l := l.(type) {
		case StraightLeg:
			if l.HasAngle || l.StartAngle.Abs() > 0 {
				a := observation.FormatAngle(l.StartAngle)
				if l.Deflection {
					a += "d"
				}
				words = append(words, a)
			}
			words = append(words, formatSpans(l.Spans, unit)...)
		case CurveLeg:
			words = append(words, formatCurve(l, unit))
		default:
			panic(fmt.Sprintf("path: unknown leg %T", l))
		}
	}
	return strings.Join(words, " ")
}

func formatCurve(l CurveLeg, unit observation.Unit) string {
	var b strings.Builder
	b.WriteByte('(')
	if l.CulDeSac {
		b.WriteString(observation.FormatAngle(l.CentralAngle))
		b.WriteByte('c')
	} else {
		b.WriteString(observation.FormatAngle(l.EntryAngle))
		if l.TwoAngles {
			b.WriteByte(' ')
			b.WriteString(observation.FormatAngle(l.ExitAngle))
		}
	}
	b.WriteByte(' ')
	b.WriteString(l.Radius.Format(unit))
	if !l.Clockwise {
		b.WriteString(" cc")
	}
	if len(l.Spans) > 0 {
		b.WriteByte('/')
		b.WriteString(strings.Join(formatSpans(l.Spans, unit), " "))
	}
	b.WriteByte(')')
	return b.String()
}

// formatSpans writes one word per span, collapsing repeats.
func formatSpans(spans []Span, unit observation.Unit) []string {
	var words []string
	for i := 0; i < len(spans); {
		s := spans[i]
		word := s.Distance.Format(unit)
		if s.MissConnect || s.OmitPoint {
			if s.MissConnect {
				word += "/-"
			}
			if s.OmitPoint {
				word += "/*"
			}
			words = append(words, word)
			i++
			continue
		}

		n := 1
		for i+n < len(spans) {
			next := spans[i+n]
			if next.MissConnect || next.OmitPoint || !next.Distance.Equal(s.Distance) {
				break
			}
			n++
		}
		if n > 1 {
			word = fmt.Sprintf("%s*%d", word, n)
		}
		words = append(words, word)
		i += n
	}
	return words
}
