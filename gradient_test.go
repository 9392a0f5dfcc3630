package sprinkles

import "testing"

func colorApprox(t *testing.T, got, want [4]float32, what string) {
	t.Helper()
	for i := 0; i < 4; i++ {
		approx(t, got[i], want[i], 1e-5, what)
	}
}

func TestGradientEmptyIsWhite(t *testing.T) {
	g := NewGradient()
	colorApprox(t, g.Sample(0.5), white, "empty gradient")
}

func TestGradientSingleStop(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	g := NewGradient(GradientStop{Color: red, Position: 0.7})
	colorApprox(t, g.Sample(0.0), red, "before the stop")
	colorApprox(t, g.Sample(1.0), red, "after the stop")
}

func TestGradientLinearBlend(t *testing.T) {
	g := NewGradient(
		GradientStop{Color: [4]float32{0, 0, 0, 1}, Position: 0},
		GradientStop{Color: [4]float32{1, 1, 1, 1}, Position: 1},
	)
	colorApprox(t, g.Sample(0.5), [4]float32{0.5, 0.5, 0.5, 1}, "midpoint")
}

func TestGradientStepsUseLeftStop(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	blue := [4]float32{0, 0, 1, 1}
	g := Gradient{
		Stops: []GradientStop{
			{Color: red, Position: 0},
			{Color: blue, Position: 1},
		},
		Interpolation: GradientSteps,
	}
	colorApprox(t, g.Sample(0.99), red, "stepped segment")
	colorApprox(t, g.Sample(1.0), blue, "at the right stop")
}

func TestGradientClampsOutsideStops(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	blue := [4]float32{0, 0, 1, 1}
	g := NewGradient(
		GradientStop{Color: red, Position: 0.25},
		GradientStop{Color: blue, Position: 0.75},
	)
	colorApprox(t, g.Sample(0), red, "clamped left")
	colorApprox(t, g.Sample(1), blue, "clamped right")
}

func TestGradientCacheKey(t *testing.T) {
	a := WhiteGradient()
	b := WhiteGradient()
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("identical gradients should share a cache key")
	}

	c := WhiteGradient()
	c.Stops[0].Color = [4]float32{1, 0, 0, 1}
	if a.CacheKey() == c.CacheKey() {
		t.Errorf("different stops should produce different cache keys")
	}

	d := WhiteGradient()
	d.Interpolation = GradientSteps
	if a.CacheKey() == d.CacheKey() {
		t.Errorf("interpolation mode should be part of the cache key")
	}
}
