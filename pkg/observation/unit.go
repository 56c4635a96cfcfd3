// Package observation defines the value types a surveyor keys in:
// distances in one of the supported linear units, angles, directions
// with optional offsets, and circles.
package observation

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit enumerates the linear units accepted for data entry.
type Unit int

const (
	Meters Unit = iota
	Feet
	Chains
)

// unitInfo holds the fixed properties of each unit.
var unitInfo = [...]struct {
	abbrev    string
	name      string
	factor    float64 // meters per unit
	precision int     // decimals when formatting
}{
	Meters: {"m", "meters", 1.0, 3},
	Feet:   {"ft", "feet", 0.3048, 2},
	Chains: {"ch", "chains", 20.1168, 4},
}

func (u Unit) valid() bool {
	return u >= Meters && u <= Chains
}

// String returns the unit abbreviation ("m", "ft" or "ch").
func (u Unit) String() string {
	if !u.valid() {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitInfo[u].abbrev
}

// Name returns the long name of the unit.
func (u Unit) Name() string {
	if !u.valid() {
		return "unknown"
	}
	return unitInfo[u].name
}

// Factor returns the number of meters in one unit.
func (u Unit) Factor() float64 {
	if !u.valid() {
		return 1.0
	}
	return unitInfo[u].factor
}

// ToMetric converts a value in this unit to meters.
func (u Unit) ToMetric(v float64) float64 {
	return v * u.Factor()
}

// FromMetric converts meters to this unit.
func (u Unit) FromMetric(m float64) float64 {
	return m / u.Factor()
}

// Format renders a metric length in this unit, dropping trailing zeros.
func (u Unit) Format(meters float64, withAbbrev bool) string {
	prec := 3
	if u.valid() {
		prec = unitInfo[u].precision
	}
	s := trimZeros(strconv.FormatFloat(u.FromMetric(meters), 'f', prec, 64))
	if withAbbrev {
		s += u.String()
	}
	return s
}

// ParseUnit resolves an abbreviation or long name, ignoring case.
func ParseUnit(s string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, info := range unitInfo {
		if key == info.abbrev || key == info.name {
			return Unit(i), nil
		}
	}
	switch key {
	case "meter", "metre", "metres":
		return Meters, nil
	case "foot", "'":
		return Feet, nil
	case "chain":
		return Chains, nil
	}
	return Meters, fmt.Errorf("unknown unit %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.valid() {
		return nil, fmt.Errorf("invalid unit %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// trimZeros strips trailing zeros (and a dangling point) from a decimal string.
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
