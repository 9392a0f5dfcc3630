package sprinkles

import "testing"

func TestCurveEmptyReadsAsOne(t *testing.T) {
	c := NewCurveTexture()
	approx(t, c.Sample(0.5), 1.0, 1e-6, "empty curve")
	if !c.IsConstant() {
		t.Errorf("empty curve should be constant")
	}
}

func TestCurveSinglePoint(t *testing.T) {
	c := NewCurveTexture(CurvePoint{Position: 0.5, Value: 0.3})
	approx(t, c.Sample(0.0), 0.3, 1e-6, "before the point")
	approx(t, c.Sample(1.0), 0.3, 1e-6, "after the point")
}

func TestCurveLinearInterpolation(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 0, Value: 0},
		CurvePoint{Position: 1, Value: 1},
	)
	approx(t, c.Sample(0.5), 0.5, 1e-6, "midpoint")
	approx(t, c.Sample(0.25), 0.25, 1e-6, "quarter")
}

func TestCurveClampsOutsideRange(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 0.2, Value: 2},
		CurvePoint{Position: 0.8, Value: 4},
	)
	approx(t, c.Sample(0.0), 2, 1e-6, "clamped left")
	approx(t, c.Sample(1.0), 4, 1e-6, "clamped right")
}

func TestCurveHoldKeepsLeftValue(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 0, Value: 1},
		CurvePoint{Position: 0.5, Value: 3, Mode: CurveModeHold},
		CurvePoint{Position: 1, Value: 5},
	)
	// The hold mode lives on the right point of the first segment.
	approx(t, c.Sample(0.25), 1, 1e-6, "held segment")
	approx(t, c.Sample(0.75), 4, 1e-6, "linear segment after hold")
}

func TestCurveSmoothIsMonotonic(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 0, Value: 0},
		CurvePoint{Position: 1, Value: 1, Mode: CurveModeSmooth},
	)
	prev := float32(-1)
	for i := 0; i <= 10; i++ {
		v := c.Sample(float32(i) / 10)
		if v < prev {
			t.Fatalf("smooth curve not monotonic at %d: %f < %f", i, v, prev)
		}
		prev = v
	}
	approx(t, c.Sample(0.5), 0.5, 1e-6, "smoothstep midpoint")
}

func TestCurveUnsortedPointsAreSorted(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 1, Value: 1},
		CurvePoint{Position: 0, Value: 0},
	)
	approx(t, c.Sample(0.5), 0.5, 1e-6, "sorted midpoint")
}

func TestCurveConstantDetection(t *testing.T) {
	def := DefaultCurve()
	if !def.IsConstant() {
		t.Errorf("default curve should be constant")
	}
	varied := NewCurveTexture(
		CurvePoint{Position: 0, Value: 0},
		CurvePoint{Position: 1, Value: 1},
	)
	if varied.IsConstant() {
		t.Errorf("varied curve reported constant")
	}
}

func TestCurveCacheKey(t *testing.T) {
	a := NewCurveTexture(CurvePoint{Position: 0, Value: 0}, CurvePoint{Position: 1, Value: 1})
	b := NewCurveTexture(CurvePoint{Position: 0, Value: 0}, CurvePoint{Position: 1, Value: 1})
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("identical curves should share a cache key")
	}

	c := b
	c.Range = Range{Min: 0, Max: 2}
	if a.CacheKey() == c.CacheKey() {
		t.Errorf("different ranges should produce different cache keys")
	}
}
