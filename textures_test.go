package sprinkles

import "testing"

func TestGradientCacheSharesBakes(t *testing.T) {
	cache := NewGradientTextureCache()

	a := NewGradient(
		GradientStop{Color: [4]float32{1, 0, 0, 1}, Position: 0},
		GradientStop{Color: [4]float32{0, 0, 1, 1}, Position: 1},
	)
	b := NewGradient(
		GradientStop{Color: [4]float32{1, 0, 0, 1}, Position: 0},
		GradientStop{Color: [4]float32{0, 0, 1, 1}, Position: 1},
	)

	ta := cache.GetOrCreate(&a)
	tb := cache.GetOrCreate(&b)
	if ta != tb {
		t.Errorf("identical gradients should reuse one baked texture")
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d textures, want 1", cache.Len())
	}

	c := NewGradient(
		GradientStop{Color: [4]float32{0, 1, 0, 1}, Position: 0},
		GradientStop{Color: [4]float32{0, 0, 1, 1}, Position: 1},
	)
	if cache.GetOrCreate(&c) == ta {
		t.Errorf("different gradients must not share a texture")
	}
	if cache.Len() != 2 {
		t.Errorf("cache holds %d textures, want 2", cache.Len())
	}
}

func TestGradientBakeSamplesRamp(t *testing.T) {
	g := NewGradient(
		GradientStop{Color: [4]float32{0, 0, 0, 1}, Position: 0},
		GradientStop{Color: [4]float32{1, 1, 1, 1}, Position: 1},
	)
	baked := bakeGradient(&g)
	if baked.Width != bakedTextureWidth {
		t.Fatalf("baked width = %d, want %d", baked.Width, bakedTextureWidth)
	}
	mid := baked.SampleColor(0.5)
	approx(t, mid[0], 0.5, 0.01, "baked midpoint red")
	ends := baked.SampleColor(1.0)
	approx(t, ends[0], 1.0, 0.01, "baked right edge")
}

func TestGradientCacheFallbackIsWhite(t *testing.T) {
	cache := NewGradientTextureCache()
	fb := cache.Fallback()
	if fb.Width != 1 {
		t.Fatalf("fallback width = %d, want 1", fb.Width)
	}
	colorApprox(t, fb.SampleColor(0.5), white, "fallback texel")
	if cache.GetOrCreate(nil) != fb {
		t.Errorf("nil gradient should map to the fallback")
	}
}

func TestCurveCacheSkipsConstantCurves(t *testing.T) {
	cache := NewCurveTextureCache()

	constant := DefaultCurve()
	if cache.GetOrCreate(&constant) != cache.Fallback() {
		t.Errorf("constant curve should bypass baking")
	}
	if cache.Len() != 0 {
		t.Errorf("constant curve was baked into the cache")
	}

	varied := NewCurveTexture(
		CurvePoint{Position: 0, Value: 0},
		CurvePoint{Position: 1, Value: 1},
	)
	baked := cache.GetOrCreate(&varied)
	if baked == cache.Fallback() {
		t.Fatalf("varied curve should bake a real texture")
	}
	approx(t, baked.SampleValue(0.5), 0.5, 0.01, "baked curve midpoint")
	if cache.Len() != 1 {
		t.Errorf("cache holds %d textures, want 1", cache.Len())
	}
}

func TestCurveBakeNormalizesIntoRange(t *testing.T) {
	c := NewCurveTexture(
		CurvePoint{Position: 0, Value: 2},
		CurvePoint{Position: 1, Value: 4},
	)
	c.Range = Range{Min: 2, Max: 4}
	baked := bakeCurve(&c)
	// The texture stores 0..1; the range restores 2..4 on sample.
	approx(t, baked.SampleValue(0), 0, 0.01, "normalized left")
	approx(t, baked.SampleValue(1), 1, 0.01, "normalized right")

	params := CurveParams{Enabled: true, Min: 2, Max: 4, Texture: baked}
	approx(t, params.sample(0.5), 3, 0.05, "denormalized midpoint")
}

func TestCacheResetForgetsBakes(t *testing.T) {
	cache := NewGradientTextureCache()
	g := WhiteGradient()
	cache.GetOrCreate(&g)
	cache.Reset()
	if cache.Len() != 0 {
		t.Errorf("reset cache still holds %d textures", cache.Len())
	}
}
