package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/cadpath/pkg/config"
	"github.com/chazu/cadpath/pkg/engine"
	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/feature/sqlite"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/intersect"
	"github.com/chazu/cadpath/pkg/kernel"
	"github.com/chazu/cadpath/pkg/kernel/sdfx"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/operation"
	"github.com/chazu/cadpath/pkg/path"
	"github.com/chazu/cadpath/pkg/tessellate"
)

// colorPalette assigns a color to each feature kind.
var colorPalette = map[string]string{
	"point":  "#E74C3C",
	"line":   "#4A90D9",
	"arc":    "#2ECC71",
	"circle": "#9B59B6",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	engine   *engine.Engine
	kernel   kernel.Kernel
	settings config.Settings
	db       *sqlite.DB

	mu   sync.Mutex
	last *feature.Store
}

// OutlineData is the JSON-serializable outline format sent to the frontend.
type OutlineData struct {
	Points    []float32 `json:"points"`
	Starts    []uint32  `json:"starts"`
	FeatureID string    `json:"featureId"`
	Kind      string    `json:"kind"`
	Color     string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Outlines []OutlineData   `json:"outlines"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	Features int             `json:"features"`
}

// ItemData is one token of a parsed path.
type ItemData struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Leg  int    `json:"leg"`
}

// ParseResult is returned by ParsePath.
type ParseResult struct {
	Items     []ItemData      `json:"items"`
	Legs      int             `json:"legs"`
	Formatted string          `json:"formatted"`
	Errors    []EvalErrorData `json:"errors"`
}

// AdjustRequest describes a connection path between two known points.
// Coordinates are in meters; distances in Text default to Unit.
type AdjustRequest struct {
	FromX float64 `json:"fromX"`
	FromY float64 `json:"fromY"`
	ToX   float64 `json:"toX"`
	ToY   float64 `json:"toY"`
	Text  string  `json:"text"`
	Unit  string  `json:"unit"`
}

// StationData is one adjusted station.
type StationData struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Leg     int     `json:"leg"`
	Omit    bool    `json:"omit"`
	Connect bool    `json:"connect"`
}

// AdjustResult is returned by AdjustPath.
type AdjustResult struct {
	Stations   []StationData   `json:"stations"`
	Misclosure float64         `json:"misclosure"`
	Precision  float64         `json:"precision"`
	Rotation   string          `json:"rotation"`
	Scale      float64         `json:"scale"`
	Formatted  string          `json:"formatted"`
	Errors     []EvalErrorData `json:"errors"`
}

// ConstraintData is one side of an intersection. Type is "bearing",
// "circle" or "line".
type ConstraintData struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Bearing string  `json:"bearing,omitempty"`
	Offset  float64 `json:"offset,omitempty"` // meters, negative is left
	Radius  float64 `json:"radius,omitempty"` // meters
	X2      float64 `json:"x2,omitempty"`
	Y2      float64 `json:"y2,omitempty"`
}

// IntersectRequest asks for the intersection of two constraints.
type IntersectRequest struct {
	A    ConstraintData `json:"a"`
	B    ConstraintData `json:"b"`
	Near *[2]float64    `json:"near,omitempty"`
}

// IntersectResult is returned by Intersect.
type IntersectResult struct {
	Found  bool            `json:"found"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Kind   string          `json:"kind"`
	Errors []EvalErrorData `json:"errors"`
}

// NewApp creates a new App with default settings and the sdfx kernel.
func NewApp() *App {
	return NewAppWithSettings(config.Default(), nil)
}

// NewAppWithSettings creates an App that evaluates with settings and, when
// db is not nil, saves evaluated stores to it.
func NewAppWithSettings(settings config.Settings, db *sqlite.DB) *App {
	return &App{
		engine:   engine.NewEngineWithSettings(settings),
		kernel:   sdfx.New(),
		settings: settings,
		db:       db,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("closing database: %v", err)
		}
	}
}

func errorData(err error) EvalErrorData {
	return EvalErrorData{Message: err.Error()}
}

// Evaluate takes a survey script and returns outlines + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Outlines: []OutlineData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a feature store.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, errorData(err))
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range engine.Warnings(s) {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: fmt.Sprintf("feature %s: %s", w.FeatureID.Short(), w.Message),
		})
	}

	// Step 3: Flatten the features into outlines.
	outlines, err := tessellate.Tessellate(s, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel outlines to the frontend format.
	for _, o := range outlines {
		result.Outlines = append(result.Outlines, OutlineData{
			Points:    o.Points,
			Starts:    o.Starts,
			FeatureID: o.FeatureID,
			Kind:      o.Kind,
			Color:     colorPalette[o.Kind],
		})
	}
	result.Features = s.Count()

	a.mu.Lock()
	a.last = s
	a.mu.Unlock()

	if a.db != nil {
		if err := a.db.Save(a.context(), s); err != nil {
			log.Printf("Save error: %v", err)
			result.Warnings = append(result.Warnings, EvalErrorData{Message: "not saved: " + err.Error()})
		}
	}
	return result
}

// Pick returns the ID of the feature nearest (x, y) within tolerance
// meters of the last evaluated script, or "".
func (a *App) Pick(x, y, tolerance float64) string {
	a.mu.Lock()
	s := a.last
	a.mu.Unlock()
	id, ok := tessellate.Pick(s, a.kernel, geom.Pos(x, y), tolerance)
	if !ok {
		return ""
	}
	return string(id)
}

// ParsePath tokenizes and validates path text without adjusting it.
func (a *App) ParsePath(text, unit string) ParseResult {
	result := ParseResult{Items: []ItemData{}, Errors: []EvalErrorData{}}

	u, err := a.unit(unit)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err))
		return result
	}
	items, err := path.Parse(text, u)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err))
		return result
	}
	for _, it := range items {
		result.Items = append(result.Items, ItemData{Kind: it.Kind.String(), Text: it.String(), Leg: it.Leg})
	}
	legs, err := path.CreateLegs(items)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err))
		return result
	}
	result.Legs = len(legs)
	result.Formatted = path.Format(legs, u)
	return result
}

// AdjustPath parses and adjusts a connection path.
func (a *App) AdjustPath(req AdjustRequest) AdjustResult {
	result := AdjustResult{Stations: []StationData{}, Errors: []EvalErrorData{}}

	u, err := a.unit(req.Unit)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err))
		return result
	}
	op, err := operation.NewPathOperation(geom.Pos(req.FromX, req.FromY), geom.Pos(req.ToX, req.ToY), req.Text, u)
	if err != nil {
		result.Errors = append(result.Errors, errorData(err))
		return result
	}
	res, err := op.Adjust(a.settings.AdjustOptions())
	if err != nil {
		log.Printf("AdjustPath error: %v", err)
		result.Errors = append(result.Errors, errorData(err))
		return result
	}

	for _, st := range res.Stations {
		result.Stations = append(result.Stations, StationData{
			X:       st.Position.X,
			Y:       st.Position.Y,
			Leg:     st.Leg,
			Omit:    st.Omit,
			Connect: st.Connect,
		})
	}
	result.Misclosure = res.MisclosureLength
	result.Precision = res.Precision
	result.Rotation = observation.FormatAngle(res.Rotation)
	result.Scale = res.Scale
	result.Formatted = op.String()
	return result
}

// Intersect resolves two constraints to a point.
func (a *App) Intersect(req IntersectRequest) IntersectResult {
	result := IntersectResult{Errors: []EvalErrorData{}}

	var hint *geom.Position
	if req.Near != nil {
		p := geom.Pos(req.Near[0], req.Near[1])
		hint = &p
	}
	ca, err := constraint(req.A)
	if err != nil {
		result.Errors = append(result.Errors, errorData(fmt.Errorf("first constraint: %w", err)))
		return result
	}
	cb, err := constraint(req.B)
	if err != nil {
		result.Errors = append(result.Errors, errorData(fmt.Errorf("second constraint: %w", err)))
		return result
	}

	r := intersect.Resolve(ca, cb, hint)
	result.Kind = r.Kind.String()
	if r.OK() {
		result.Found = true
		result.X, result.Y = r.Point.X, r.Point.Y
	}
	return result
}

func constraint(c ConstraintData) (intersect.Constraint, error) {
	at := geom.Pos(c.X, c.Y)
	switch c.Type {
	case "bearing":
		b, err := observation.ParseAngle(c.Bearing)
		if err != nil {
			return nil, err
		}
		var d observation.Direction = observation.BearingDirection{From: at, Bearing: geom.NormalizeBearing(b)}
		if c.Offset != 0 {
			d = observation.WithOffset(d, observation.SignedOffset(c.Offset, observation.Meters))
		}
		return intersect.RayFrom(d), nil
	case "circle":
		if c.Radius <= 0 {
			return nil, fmt.Errorf("circle radius must be positive, got %g", c.Radius)
		}
		return intersect.Circle(observation.Circle{Center: at, Radius: c.Radius}), nil
	case "line":
		return intersect.Segment{Start: at, End: geom.Pos(c.X2, c.Y2)}, nil
	}
	return nil, fmt.Errorf("unknown constraint type %q", c.Type)
}

func (a *App) unit(name string) (observation.Unit, error) {
	if name == "" {
		return a.settings.EntryUnit, nil
	}
	return observation.ParseUnit(name)
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}
