package feature

import (
	"fmt"
	"math"

	"github.com/chazu/cadpath/pkg/geom"
)

// CoincidenceTolerance is the distance in meters below which two points
// are reported as coincident.
const CoincidenceTolerance = 0.001

// ValidationSeverity indicates whether a finding makes the store unusable
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // store is inconsistent
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	FeatureID ID                 // which feature has the problem (zero if store-level)
	Message   string             // human-readable description
	Severity  ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.FeatureID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] feature %s: %s", e.Severity, e.FeatureID.Short(), e.Message)
}

// ValidationResult bundles errors and warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate checks the store's references and geometry. It never mutates
// the store.
func Validate(s *Store) ValidationResult {
	var all []ValidationError
	all = append(all, validateReferences(s)...)
	all = append(all, validateNames(s)...)
	all = append(all, validateGeometry(s)...)
	all = append(all, validateCoincident(s)...)

	var res ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			res.Warnings = append(res.Warnings, e)
		} else {
			res.Errors = append(res.Errors, e)
		}
	}
	return res
}

// validateReferences checks that every referenced ID exists and has the
// expected kind.
func validateReferences(s *Store) []ValidationError {
	var errs []ValidationError
	wantPoint := func(f *Feature, role string, id ID) {
		if _, ok := s.Point(id); !ok {
			errs = append(errs, ValidationError{
				FeatureID: f.ID,
				Message:   fmt.Sprintf("%s %s reference %s is not a point", f.Kind, role, id.Short()),
				Severity:  SeverityError,
			})
		}
	}

	for _, f := range s.All() {
		switch d := f.Data.(type) {
		case LineData:
			wantPoint(f, "start", d.Start)
			wantPoint(f, "end", d.End)
		case ArcData:
			wantPoint(f, "start", d.Start)
			wantPoint(f, "end", d.End)
			if c := s.Get(d.Circle); c == nil || c.Kind != KindCircle {
				errs = append(errs, ValidationError{
					FeatureID: f.ID,
					Message:   fmt.Sprintf("arc circle reference %s is not a circle", d.Circle.Short()),
					Severity:  SeverityError,
				})
			}
		case CircleData:
			wantPoint(f, "center", d.Center)
		}
	}
	return errs
}

// validateNames checks that names are unique and that the index points at
// existing features.
func validateNames(s *Store) []ValidationError {
	var errs []ValidationError
	for name, id := range s.NameIndex {
		if _, ok := s.Features[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent feature %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	seen := make(map[string]int)
	for _, f := range s.All() {
		if f.Name != "" {
			seen[f.Name]++
		}
	}
	for _, f := range s.All() {
		if n := seen[f.Name]; n > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d features", f.Name, n),
				Severity: SeverityError,
			})
			seen[f.Name] = 0
		}
	}
	return errs
}

func validateGeometry(s *Store) []ValidationError {
	var errs []ValidationError
	for _, f := range s.All() {
		switch d := f.Data.(type) {
		case PointData:
			if !geom.IsFinite(d.Position) {
				errs = append(errs, ValidationError{
					FeatureID: f.ID,
					Message:   "point position is undefined",
					Severity:  SeverityError,
				})
			}
		case CircleData:
			if !(d.Radius > 0) || math.IsInf(d.Radius, 0) {
				errs = append(errs, ValidationError{
					FeatureID: f.ID,
					Message:   fmt.Sprintf("circle radius is %.4f, must be positive", d.Radius),
					Severity:  SeverityError,
				})
			}
		case LineData, ArcData:
			a, b, ok := s.Endpoints(f)
			if ok && geom.Distance(a, b) < CoincidenceTolerance {
				errs = append(errs, ValidationError{
					FeatureID: f.ID,
					Message:   fmt.Sprintf("%s has zero length", f.Kind),
					Severity:  SeverityWarning,
				})
			}
		}
	}
	return errs
}

// validateCoincident warns about distinct points at the same position.
func validateCoincident(s *Store) []ValidationError {
	var warnings []ValidationError
	points := s.OfKind(KindPoint)
	for i := range points {
		pi := points[i].Data.(PointData).Position
		for j := i + 1; j < len(points); j++ {
			pj := points[j].Data.(PointData).Position
			if geom.Distance(pi, pj) < CoincidenceTolerance {
				warnings = append(warnings, ValidationError{
					FeatureID: points[j].ID,
					Message:   fmt.Sprintf("coincides with point %s", points[i].ID.Short()),
					Severity:  SeverityWarning,
				})
			}
		}
	}
	return warnings
}
