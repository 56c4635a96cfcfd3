package observation

import (
	"fmt"
	"strconv"
	"strings"
)

// Distance is an observed length in a specific unit. The fixed flag
// records whether the surveyor keyed the value in (true) or it was
// carried over from a default.
type Distance struct {
	value float64
	unit  Unit
	fixed bool
}

// NewDistance returns an entered distance.
func NewDistance(value float64, unit Unit) Distance {
	return Distance{value: value, unit: unit, fixed: true}
}

// DefaultDistance returns a distance that was not explicitly entered.
func DefaultDistance(value float64, unit Unit) Distance {
	return Distance{value: value, unit: unit}
}

// ParseDistance reads text such as "12.5", "40ft" or "3.2ch". A missing
// suffix means the value is in def.
func ParseDistance(text string, def Unit) (Distance, error) {
	s := strings.TrimSpace(text)
	end := 0
	for end < len(s) && (s[end] == '-' || s[end] == '+' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return Distance{}, fmt.Errorf("malformed distance %q", text)
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return Distance{}, fmt.Errorf("malformed distance %q", text)
	}
	unit := def
	if suffix := strings.TrimSpace(s[end:]); suffix != "" {
		unit, err = ParseUnit(suffix)
		if err != nil {
			return Distance{}, err
		}
	}
	return NewDistance(v, unit), nil
}

// Value returns the magnitude in the distance's own unit.
func (d Distance) Value() float64 { return d.value }

// Unit returns the unit the distance was observed in.
func (d Distance) Unit() Unit { return d.unit }

// IsFixed reports whether the value was explicitly entered.
func (d Distance) IsFixed() bool { return d.fixed }

// Meters returns the distance converted to meters.
func (d Distance) Meters() float64 {
	return d.unit.ToMetric(d.value)
}

// Negate returns the distance with its sign flipped.
func (d Distance) Negate() Distance {
	d.value = -d.value
	return d
}

// Equal reports whether two distances hold the same value in the same unit.
func (d Distance) Equal(o Distance) bool {
	return d.unit == o.unit && d.value == o.value
}

// Format renders the observed value. The unit abbreviation is appended
// only when it differs from def.
func (d Distance) Format(def Unit) string {
	s := trimZeros(strconv.FormatFloat(d.value, 'f', -1, 64))
	if d.unit != def {
		s += d.unit.String()
	}
	return s
}

func (d Distance) String() string {
	return d.Format(-1)
}

// MarshalText writes the value with its unit, e.g. "12.5ft".
func (d Distance) MarshalText() ([]byte, error) {
	if !d.unit.valid() {
		return nil, fmt.Errorf("invalid unit %d", int(d.unit))
	}
	return []byte(d.Format(-1)), nil
}

// UnmarshalText reads the form written by MarshalText.
func (d *Distance) UnmarshalText(b []byte) error {
	v, err := ParseDistance(string(b), Meters)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
