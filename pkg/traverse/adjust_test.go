package traverse

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/observation"
	"github.com/chazu/cadpath/pkg/path"
)

func mustLegs(t *testing.T, text string) []path.Leg {
	t.Helper()
	items, err := path.Parse(text, observation.Meters)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	legs, err := path.CreateLegs(items)
	if err != nil {
		t.Fatalf("CreateLegs(%q): %v", text, err)
	}
	return legs
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

func TestProjectStraightAngle(t *testing.T) {
	p := project(mustLegs(t, "100.00 90-00 50.00"), geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.end, geom.Pos(-50, 100), 1e-9) {
		t.Errorf("end = %v, want (-50,100)", p.end)
	}
}

func TestProjectDeflection(t *testing.T) {
	p := project(mustLegs(t, "100 90-00d 50"), geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.end, geom.Pos(50, 100), 1e-9) {
		t.Errorf("end = %v, want (50,100)", p.end)
	}
}

func TestProjectZeroStartAngle(t *testing.T) {
	// A zero deflection runs straight on; a zero angle from the backsight doubles back.
	p := project(mustLegs(t, "100 0-00d 50"), geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.end, geom.Pos(0, 150), 1e-9) {
		t.Errorf("deflection end = %v, want (0,150)", p.end)
	}
	p = project(mustLegs(t, "100 0-00 50"), geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.end, geom.Pos(0, 50), 1e-9) {
		t.Errorf("angle end = %v, want (0,50)", p.end)
	}
}

func TestProjectTangentCurve(t *testing.T) {
	quarter := 10 * math.Pi / 2
	legs := []path.Leg{
		path.CurveLeg{
			Number:     1,
			Radius:     observation.NewDistance(10, observation.Meters),
			EntryAngle: math.Pi / 2,
			Clockwise:  true,
			Spans:      []path.Span{{Distance: observation.NewDistance(quarter, observation.Meters)}},
		},
		path.StraightLeg{
			Number: 2,
			Spans:  []path.Span{{Distance: observation.NewDistance(10, observation.Meters)}},
		},
	}
	p := project(legs, geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.legs[0].Center, geom.Pos(10, 0), 1e-9) {
		t.Errorf("center = %v, want (10,0)", p.legs[0].Center)
	}
	if !geom.Equal(p.legs[0].End, geom.Pos(10, 10), 1e-9) {
		t.Errorf("EC = %v, want (10,10)", p.legs[0].End)
	}
	if !near(p.legs[0].EndBearing.Degrees(), 90, 1e-9) {
		t.Errorf("exit bearing = %f, want 90", p.legs[0].EndBearing.Degrees())
	}
	if !geom.Equal(p.end, geom.Pos(20, 10), 1e-9) {
		t.Errorf("end = %v, want (20,10)", p.end)
	}
}

func TestProjectCounterClockwiseCurve(t *testing.T) {
	quarter := 10 * math.Pi / 2
	legs := mustLegs(t, "(90-00 10 cc/"+formatFloat(quarter)+")")
	p := project(legs, geom.Pos(0, 0), geom.North, 1)
	if !geom.Equal(p.legs[0].Center, geom.Pos(-10, 0), 1e-6) {
		t.Errorf("center = %v, want (-10,0)", p.legs[0].Center)
	}
	// The arc length was rounded to the millimeter.
	if !geom.Equal(p.end, geom.Pos(-10, 10), 1e-3) {
		t.Errorf("EC = %v, want (-10,10)", p.end)
	}
}

func TestProjectCulDeSac(t *testing.T) {
	p := project(mustLegs(t, "(90c 10) 20"), geom.Pos(0, 0), geom.North, 1)
	s := 10 * math.Sqrt2 / 2
	if !geom.Equal(p.legs[0].Center, geom.Pos(s, s), 1e-9) {
		t.Errorf("center = %v", p.legs[0].Center)
	}
	if !geom.Equal(p.legs[0].End, geom.Pos(2*s, 0), 1e-9) {
		t.Errorf("EC = %v, want (%f,0)", p.legs[0].End, 2*s)
	}
	// Leaves back along the reverse of the entry bearing.
	if !geom.Equal(p.end, geom.Pos(2*s, -20), 1e-9) {
		t.Errorf("end = %v", p.end)
	}
}

func TestProjectCurveStationsFollowArc(t *testing.T) {
	legs := mustLegs(t, "(90-00 10/5 5 5)")
	p := project(legs, geom.Pos(0, 0), geom.North, 1)
	if len(p.stations) != 3 {
		t.Fatalf("stations = %d, want 3", len(p.stations))
	}
	center := p.legs[0].Center
	for i, s := range p.stations {
		if !near(geom.Distance(center, s.Raw), 10, 1e-9) {
			t.Errorf("station %d is %f from the center", i, geom.Distance(center, s.Raw))
		}
	}
}

// ---------------------------------------------------------------------------
// Adjustment
// ---------------------------------------------------------------------------

func TestAdjustScenario(t *testing.T) {
	legs := mustLegs(t, "100.00 90-00 50.00")
	a, b := geom.Pos(0, 0), geom.Pos(100, 50)

	res, err := Adjust(legs, a, b, Options{})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if res.MisclosureLength < 1 {
		t.Errorf("expected non-zero raw misclosure, got %f", res.MisclosureLength)
	}
	if !geom.Equal(res.RawEnd, geom.Pos(-50, 100), 1e-9) {
		t.Errorf("raw end = %v", res.RawEnd)
	}
	if res.End() != b {
		t.Errorf("adjusted end = %v, want exactly %v", res.End(), b)
	}
	if !near(res.Rotation.Degrees(), 90, 1e-9) {
		t.Errorf("rotation = %f, want 90", res.Rotation.Degrees())
	}
	if !near(res.Scale, 1, 1e-12) {
		t.Errorf("scale = %f, want 1", res.Scale)
	}
	if !near(res.TotalLength, 150, 1e-9) {
		t.Errorf("total = %f, want 150", res.TotalLength)
	}
	if !geom.Equal(res.Stations[0].Position, geom.Pos(100, 0), 1e-9) {
		t.Errorf("station 1 = %v, want (100,0)", res.Stations[0].Position)
	}

	// Same inputs, same bits.
	again, err := Adjust(legs, a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if again.Rotation != res.Rotation || again.Scale != res.Scale {
		t.Error("adjustment is not deterministic")
	}
	for i := range res.Stations {
		if again.Stations[i].Position != res.Stations[i].Position {
			t.Errorf("station %d differs between runs", i)
		}
	}
}

func TestAdjustScaleOnly(t *testing.T) {
	legs := mustLegs(t, "50 50")
	res, err := Adjust(legs, geom.Pos(0, 0), geom.Pos(0, 101), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !near(res.Rotation.Radians(), 0, 1e-12) {
		t.Errorf("rotation = %v, want 0", res.Rotation)
	}
	if !near(res.Scale, 1.01, 1e-12) {
		t.Errorf("scale = %f, want 1.01", res.Scale)
	}
	if !geom.Equal(res.Stations[0].Position, geom.Pos(0, 50.5), 1e-9) {
		t.Errorf("midpoint = %v, want (0,50.5)", res.Stations[0].Position)
	}
}

func TestAdjustExactPathIsIdentity(t *testing.T) {
	legs := mustLegs(t, "30 90-00 40")
	raw := project(legs, geom.Pos(0, 0), geom.North, 1)

	res, err := Adjust(legs, geom.Pos(0, 0), raw.end, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Rotation != 0 || res.Scale != 1 {
		t.Errorf("rotation=%v scale=%v, want identity", res.Rotation, res.Scale)
	}
	for i, s := range res.Stations {
		if s.Correction.Length() > 1e-12 {
			t.Errorf("station %d corrected by %v", i, s.Correction)
		}
	}
	if res.Precision != 0 {
		t.Errorf("precision = %f, want 0 for an exact closure", res.Precision)
	}
}

func TestAdjustClosedLoopCompassRule(t *testing.T) {
	legs := mustLegs(t, "100 90-00 100 90-00 100 90-00 99")
	origin := geom.Pos(0, 0)

	res, err := Adjust(legs, origin, origin, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Rotation != 0 || res.Scale != 1 {
		t.Errorf("closed loop should not rotate or scale: %v %v", res.Rotation, res.Scale)
	}
	if !near(res.MisclosureLength, 1, 1e-9) {
		t.Errorf("misclosure = %f, want 1", res.MisclosureLength)
	}
	if !near(res.PrecisionRatio, 1.0/399, 1e-12) {
		t.Errorf("precision ratio = %f", res.PrecisionRatio)
	}
	if res.End() != origin {
		t.Errorf("end = %v, want %v", res.End(), origin)
	}

	prev := 0.0
	for i, s := range res.Stations {
		c := s.Correction.Length()
		if c < prev {
			t.Errorf("correction at station %d (%f) smaller than before (%f)", i, c, prev)
		}
		want := s.Cumulative / res.TotalLength
		if !near(c, want, 1e-9) {
			t.Errorf("station %d correction %f, want %f", i, c, want)
		}
		prev = c
	}
}

func TestAdjustLegsFollowStations(t *testing.T) {
	legs := mustLegs(t, "100 (90-00 10/15) 20")
	res, err := Adjust(legs, geom.Pos(0, 0), geom.Pos(30, 120), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Legs) != 3 {
		t.Fatalf("legs = %d", len(res.Legs))
	}
	for i := 1; i < len(res.Legs); i++ {
		if res.Legs[i].Start != res.Legs[i-1].End {
			t.Errorf("leg %d does not start where leg %d ends", i+1, i)
		}
	}
	if res.Legs[2].End != geom.Pos(30, 120) {
		t.Errorf("last leg ends at %v", res.Legs[2].End)
	}
	if !res.Legs[1].Curve || res.Legs[1].Radius <= 0 {
		t.Errorf("leg 2 = %+v", res.Legs[1])
	}
}

func TestAdjustErrors(t *testing.T) {
	legs := mustLegs(t, "100")
	tests := []struct {
		name     string
		legs     []path.Leg
		from, to geom.Position
	}{
		{"no legs", nil, geom.Pos(0, 0), geom.Pos(1, 1)},
		{"undefined from", legs, geom.Pos(math.NaN(), 0), geom.Pos(1, 1)},
		{"undefined to", legs, geom.Pos(0, 0), geom.Pos(math.Inf(1), 0)},
		{"returns to start", mustLegs(t, "10 0-00d 10 180-00d 20"), geom.Pos(0, 0), geom.Pos(5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Adjust(tt.legs, tt.from, tt.to, Options{})
			var aErr *AdjustmentError
			if !errors.As(err, &aErr) {
				t.Fatalf("expected *AdjustmentError, got %v", err)
			}
		})
	}
}

func TestResultString(t *testing.T) {
	res, err := Adjust(mustLegs(t, "100.00 90-00 50.00"), geom.Pos(0, 0), geom.Pos(100, 50), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.String() == "" {
		t.Error("empty summary")
	}
}

func formatFloat(f float64) string {
	return observation.Meters.Format(f, false)
}
