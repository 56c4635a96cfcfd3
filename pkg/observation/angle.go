package observation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s1"
)

// ParseAngle reads an angle written as degrees-minutes-seconds
// ("90-30-15.5", "45-00", "-5-30") or as decimal degrees ("12.5").
// A leading minus applies to the whole angle.
func ParseAngle(text string) (s1.Angle, error) {
	s := strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("malformed angle %q", text)
	}

	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed angle %q: too many fields", text)
	}
	for _, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("malformed angle %q", text)
		}
	}

	var deg float64
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("malformed angle %q", text)
		}
		deg = v
	} else {
		d, err := strconv.Atoi(parts[0])
		if err != nil || d < 0 {
			return 0, fmt.Errorf("malformed degrees in %q", text)
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 0 || m >= 60 {
			return 0, fmt.Errorf("malformed minutes in %q", text)
		}
		var sec float64
		if len(parts) == 3 {
			sec, err = strconv.ParseFloat(parts[2], 64)
			if err != nil || sec < 0 || sec >= 60 {
				return 0, fmt.Errorf("malformed seconds in %q", text)
			}
		}
		deg = float64(d) + float64(m)/60 + sec/3600
	}

	if neg {
		deg = -deg
	}
	return s1.Angle(deg) * s1.Degree, nil
}

// FormatAngle writes a in the short degrees-minutes-seconds form that
// ParseAngle accepts. Zero seconds are omitted, but the minutes field is
// always present so that the text reads as an angle.
func FormatAngle(a s1.Angle) string {
	deg := a.Degrees()
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}

	// Work in hundredths of a second so rounding carries cleanly.
	total := math.Round(deg * 360000)
	d := math.Floor(total / 360000)
	total -= d * 360000
	m := math.Floor(total / 6000)
	total -= m * 6000
	sec := total / 100

	out := fmt.Sprintf("%s%d-%02d", sign, int(d), int(m))
	if sec > 0 {
		secText := trimZeros(strconv.FormatFloat(sec, 'f', 2, 64))
		if sec < 10 {
			secText = "0" + secText
		}
		out += "-" + secText
	}
	if out == "-0-00" {
		return "0-00"
	}
	return out
}
