package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/golang/geo/s1"

	"github.com/chazu/cadpath/pkg/config"
	"github.com/chazu/cadpath/pkg/construct"
	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/intersect"
	"github.com/chazu/cadpath/pkg/logger"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/operation"
	"github.com/chazu/cadpath/pkg/traverse"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms survey script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: circle-through -> circle_through
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpFeatureRef wraps a point feature so it can be passed between builtins.
type sexpFeatureRef struct {
	id   feature.ID
	name string // human-readable name for error messages
}

func (f *sexpFeatureRef) SexpString(ps *zygo.PrintState) string {
	if f.name != "" {
		return fmt.Sprintf("(point %q)", f.name)
	}
	return fmt.Sprintf("(point %s)", f.id.Short())
}
func (f *sexpFeatureRef) Type() *zygo.RegisteredType { return nil }

// sexpXY is a free position that is not a feature.
type sexpXY struct {
	pos geom.Position
}

func (v *sexpXY) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(xy %.3f %.3f)", v.pos.X, v.pos.Y)
}
func (v *sexpXY) Type() *zygo.RegisteredType { return nil }

// sexpDirection wraps an observed direction.
type sexpDirection struct {
	dir observation.Direction
}

func (d *sexpDirection) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(direction %s)", observation.FormatAngle(observation.Bearing(d.dir)))
}
func (d *sexpDirection) Type() *zygo.RegisteredType { return nil }

// sexpCircle wraps a circle and the circle feature created for it.
type sexpCircle struct {
	circle observation.Circle
	id     feature.ID
}

func (c *sexpCircle) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(circle %.3f)", c.circle.Radius)
}
func (c *sexpCircle) Type() *zygo.RegisteredType { return nil }

// sexpSegment wraps a line between two points.
type sexpSegment struct {
	seg intersect.Segment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(line %.3f)", geom.Distance(s.seg.Start, s.seg.End))
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// sexpPath wraps an adjusted connection path.
type sexpPath struct {
	op  *operation.PathOperation
	res *traverse.Result
}

func (p *sexpPath) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(path %q)", p.op.String())
}
func (p *sexpPath) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_ft) and plain strings ("ft").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a boolean. A trailing flag keyword with no value counts
// as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toAngle accepts a "DDD-MM-SS" string or a number of decimal degrees.
func toAngle(s zygo.Sexp) (s1.Angle, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return observation.ParseAngle(str.S)
	}
	deg, err := toFloat64(s)
	if err != nil {
		return 0, fmt.Errorf("expected angle string or degrees: %w", err)
	}
	return s1.Angle(deg) * s1.Degree, nil
}

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// session is the mutable state one evaluation builds up.
type session struct {
	store  *feature.Store
	unit   observation.Unit
	offset float64
	adjust traverse.Options
}

func newSession(settings config.Settings) *session {
	return &session{
		store:  feature.New(),
		unit:   settings.EntryUnit,
		offset: settings.DefaultOffset,
		adjust: settings.AdjustOptions(),
	}
}

func (s *session) defaults() construct.Defaults {
	return construct.Defaults{Offset: s.offset, EntryUnit: s.unit}
}

// meters converts a number in the entry unit.
func (s *session) meters(v zygo.Sexp) (float64, error) {
	f, err := toFloat64(v)
	if err != nil {
		return 0, err
	}
	return s.unit.ToMetric(f), nil
}

// distance accepts a number in the entry unit or a string such as "25ft".
func (s *session) distance(v zygo.Sexp) (observation.Distance, error) {
	if str, ok := v.(*zygo.SexpStr); ok {
		return observation.ParseDistance(str.S, s.unit)
	}
	f, err := toFloat64(v)
	if err != nil {
		return observation.Distance{}, fmt.Errorf("expected distance: %w", err)
	}
	return observation.DefaultDistance(f, s.unit), nil
}

// point resolves a point name, a point reference or an (xy ...) position.
// The ID is zero for free positions.
func (s *session) point(v zygo.Sexp) (geom.Position, feature.ID, error) {
	switch p := v.(type) {
	case *sexpXY:
		return p.pos, "", nil
	case *sexpFeatureRef:
		pos, ok := s.store.Point(p.id)
		if !ok {
			return geom.Position{}, "", fmt.Errorf("feature %s is not a point", p.id.Short())
		}
		return pos, p.id, nil
	case *zygo.SexpStr:
		pos, err := s.store.NamedPoint(p.S)
		if err != nil {
			return geom.Position{}, "", err
		}
		return pos, s.store.Lookup(p.S).ID, nil
	}
	return geom.Position{}, "", fmt.Errorf("expected point name or reference, got %T (%s)", v, v.SexpString(nil))
}

// featurePoint is point, but rejects free positions.
func (s *session) featurePoint(v zygo.Sexp) (geom.Position, feature.ID, error) {
	pos, id, err := s.point(v)
	if err == nil && id.IsZero() {
		err = fmt.Errorf("expected a named point, got %s", v.SexpString(nil))
	}
	return pos, id, err
}

// ensurePoint returns the feature for a position, adding an unnamed point
// when the position is free.
func (s *session) ensurePoint(pos geom.Position, id feature.ID) feature.ID {
	if !id.IsZero() {
		return id
	}
	return s.store.AddPoint("", pos).ID
}

// addNamedPoint adds a point, rejecting names already in use.
func (s *session) addNamedPoint(name string, pos geom.Position) (*feature.Feature, error) {
	if name != "" && s.store.Lookup(name) != nil {
		return nil, fmt.Errorf("point %q already exists", name)
	}
	return s.store.AddPoint(name, pos), nil
}

// applyOffset handles the :offset and :through keywords shared by the
// direction builtins.
func (s *session) applyOffset(b *construct.DirectionBuilder, pa kwArgs) error {
	if v, ok := pa.kw["offset"]; ok {
		m, err := s.meters(v)
		if err != nil {
			return fmt.Errorf("offset: %w", err)
		}
		if m == 0 {
			b.ClearOffset()
		} else {
			o := observation.SignedOffset(m, s.unit)
			b.SetOffsetDistance(o.Distance, o.Side)
		}
	}
	if v, ok := pa.kw["through"]; ok {
		p, _, err := s.point(v)
		if err != nil {
			return fmt.Errorf("through: %w", err)
		}
		b.SetOffsetPoint(p)
	}
	return nil
}

// direction finishes a builder, turning missing input into an error.
func direction(b *construct.DirectionBuilder) (zygo.Sexp, error) {
	d, ok, err := b.TryBuild()
	if err != nil {
		return zygo.SexpNull, err
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("incomplete direction: %s", b.State())
	}
	return &sexpDirection{dir: d}, nil
}

// circle finishes a circle builder and adds the circle feature.
func (s *session) circle(b *construct.CircleBuilder, centerID feature.ID) (zygo.Sexp, error) {
	c, ok, err := b.TryBuild()
	if err != nil {
		return zygo.SexpNull, err
	}
	if !ok {
		return zygo.SexpNull, fmt.Errorf("incomplete circle: %s", b.State())
	}
	centerID = s.ensurePoint(c.Center, centerID)
	f := s.store.AddCircle(centerID, c.Radius)
	return &sexpCircle{circle: c, id: f.ID}, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the survey builtins into a zygomys environment.
// The builtins operate on the session's feature store, populating it during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (units "ft")
	// -----------------------------------------------------------------------
	env.AddFunction("units", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("units requires exactly 1 argument, got %d", len(args))
		}
		str, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		u, err := observation.ParseUnit(str)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		s.unit = u
		logger.Debug("entry unit set to %s", u.Name())
		return &zygo.SexpStr{S: u.String()}, nil
	})

	// -----------------------------------------------------------------------
	// (xy 100 200)
	// -----------------------------------------------------------------------
	env.AddFunction("xy", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("xy requires exactly 2 arguments, got %d", len(args))
		}
		x, err := s.meters(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xy: easting: %w", err)
		}
		y, err := s.meters(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xy: northing: %w", err)
		}
		return &sexpXY{pos: geom.Pos(x, y)}, nil
	})

	// -----------------------------------------------------------------------
	// (point "A" 100 200)
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("point requires a name, an easting and a northing")
		}
		ptName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: name: %w", err)
		}
		x, err := s.meters(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: easting: %w", err)
		}
		y, err := s.meters(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: northing: %w", err)
		}
		f, err := s.addNamedPoint(ptName, geom.Pos(x, y))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: %w", err)
		}
		return &sexpFeatureRef{id: f.ID, name: ptName}, nil
	})

	// -----------------------------------------------------------------------
	// (line "A" "B")
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires exactly 2 points, got %d", len(args))
		}
		start, a, err := s.point(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: start: %w", err)
		}
		end, b, err := s.point(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: end: %w", err)
		}
		s.store.AddLine(s.ensurePoint(start, a), s.ensurePoint(end, b))
		return &sexpSegment{seg: intersect.Segment{Start: start, End: end}}, nil
	})

	// -----------------------------------------------------------------------
	// (path "A" "B" "100 90-00 50")
	// -----------------------------------------------------------------------
	env.AddFunction("path", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("path requires a from-point, a to-point and the path text")
		}
		from, fromID, err := s.featurePoint(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: from: %w", err)
		}
		to, toID, err := s.featurePoint(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: to: %w", err)
		}
		text, err := toString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: text: %w", err)
		}

		op, err := operation.NewPathOperation(from, to, text, s.unit)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
		res, err := op.Adjust(s.adjust)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
		created, err := feature.Materialize(s.store, fromID, toID, op, res)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
		logger.Debug("path %s: %d features, precision 1:%.0f", op.ID, len(created), res.Precision)
		return &sexpPath{op: op, res: res}, nil
	})

	// -----------------------------------------------------------------------
	// (bearing "A" "45-00" :offset 2.5 :ccw false)
	// -----------------------------------------------------------------------
	env.AddFunction("bearing", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("bearing requires a from-point and a bearing")
		}
		b := construct.NewDirectionBuilder(s.defaults())
		from, _, err := s.point(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bearing: from: %w", err)
		}
		b.SetFrom(from)
		a, err := toAngle(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bearing: %w", err)
		}
		b.SetAngle(a)
		if v, ok := pa.kw["ccw"]; ok {
			if b.CCW, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("bearing: ccw: %w", err)
			}
		}
		if err := s.applyOffset(b, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("bearing: %w", err)
		}
		d, err := direction(b)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bearing: %w", err)
		}
		return d, nil
	})

	// -----------------------------------------------------------------------
	// (angle "BS" "A" "90-00" :ccw true :deflection true)
	// -----------------------------------------------------------------------
	env.AddFunction("angle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("angle requires a backsight, a from-point and an angle")
		}
		b := construct.NewDirectionBuilder(s.defaults())
		bs, _, err := s.point(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: backsight: %w", err)
		}
		b.SetBacksight(bs)
		from, _, err := s.point(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: from: %w", err)
		}
		b.SetFrom(from)
		a, err := toAngle(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: %w", err)
		}
		b.SetAngle(a)
		if v, ok := pa.kw["ccw"]; ok {
			if b.CCW, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("angle: ccw: %w", err)
			}
		}
		if v, ok := pa.kw["deflection"]; ok {
			if b.Deflection, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("angle: deflection: %w", err)
			}
		}
		if err := s.applyOffset(b, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: %w", err)
		}
		d, err := direction(b)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("angle: %w", err)
		}
		return d, nil
	})

	// -----------------------------------------------------------------------
	// (parallel "A" "P1" "P2" :offset 2)
	// -----------------------------------------------------------------------
	env.AddFunction("parallel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("parallel requires a from-point and two line points")
		}
		b := construct.NewDirectionBuilder(s.defaults())
		var pts [3]geom.Position
		for i, v := range pa.positional {
			p, _, err := s.point(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("parallel: point %d: %w", i+1, err)
			}
			pts[i] = p
		}
		b.SetFrom(pts[0])
		b.SetParallel(pts[1], pts[2])
		if err := s.applyOffset(b, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("parallel: %w", err)
		}
		d, err := direction(b)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("parallel: %w", err)
		}
		return d, nil
	})

	// -----------------------------------------------------------------------
	// (circle "A" 25) or (circle "A" "25ft")
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("circle requires a center and a radius")
		}
		var b construct.CircleBuilder
		center, id, err := s.point(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: center: %w", err)
		}
		b.SetCenter(center)
		r, err := s.distance(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
		}
		b.SetRadius(r)
		c, err := s.circle(&b, id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		return c, nil
	})

	// -----------------------------------------------------------------------
	// (circle-through "A" "B")
	//
	// Registered as "circle_through"; the preprocessor converts the
	// kebab-case name in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("circle_through", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("circle-through requires a center and a point on the circle")
		}
		var b construct.CircleBuilder
		center, id, err := s.point(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle-through: center: %w", err)
		}
		b.SetCenter(center)
		p, _, err := s.point(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle-through: point: %w", err)
		}
		b.SetRadiusPoint(p)
		c, err := s.circle(&b, id)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle-through: %w", err)
		}
		return c, nil
	})

	// -----------------------------------------------------------------------
	// (intersect "C" (bearing ...) (circle ...) :near (xy 10 20))
	// -----------------------------------------------------------------------
	env.AddFunction("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("intersect requires a name and two constraints")
		}
		ptName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: name: %w", err)
		}
		var hint *geom.Position
		if v, ok := pa.kw["near"]; ok {
			p, _, err := s.point(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("intersect: near: %w", err)
			}
			hint = &p
		}

		op, err := intersectOperation(pa.positional[1], pa.positional[2], hint)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect %q: %w", ptName, err)
		}
		pos, ok := op.Point()
		if !ok {
			return zygo.SexpNull, fmt.Errorf("intersect %q: %s has no intersection", ptName, op.Kind)
		}
		f, err := s.addNamedPoint(ptName, pos)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: %w", err)
		}
		f.Source = op.ID.String()
		logger.Debug("intersect %s: %s", ptName, op)
		return &sexpFeatureRef{id: f.ID, name: ptName}, nil
	})
}

// intersectOperation picks the operation matching the two constraint
// values, in either order.
func intersectOperation(a, b zygo.Sexp, hint *geom.Position) (*operation.IntersectOperation, error) {
	switch x := a.(type) {
	case *sexpDirection:
		switch y := b.(type) {
		case *sexpDirection:
			return operation.IntersectTwoDirections(x.dir, y.dir), nil
		case *sexpCircle:
			return operation.IntersectDirectionAndDistance(x.dir, y.circle, hint), nil
		case *sexpSegment:
			return operation.IntersectDirectionAndLine(x.dir, y.seg.Start, y.seg.End), nil
		}
	case *sexpCircle:
		switch y := b.(type) {
		case *sexpDirection:
			return operation.IntersectDirectionAndDistance(y.dir, x.circle, hint), nil
		case *sexpCircle:
			return operation.IntersectTwoDistances(x.circle, y.circle, hint), nil
		}
	case *sexpSegment:
		switch y := b.(type) {
		case *sexpDirection:
			return operation.IntersectDirectionAndLine(y.dir, x.seg.Start, x.seg.End), nil
		case *sexpSegment:
			return operation.IntersectTwoLines(x.seg, y.seg), nil
		}
	}
	return nil, fmt.Errorf("cannot intersect %s with %s", a.SexpString(nil), b.SexpString(nil))
}
