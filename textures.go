package sprinkles

import "sync"

// bakedTextureWidth texels cover the [0, 1] parameter range of a ramp or
// curve; t = i / (width - 1).
const bakedTextureWidth = 256

// BakedTexture is a 1D RGBA8 lookup texture. The pixel data is the source
// of truth; the GPU copy, when a device is attached, mirrors it.
type BakedTexture struct {
	Width  uint32
	Pixels []byte

	gpu *gpuTexture
}

func newBakedTexture(width uint32) *BakedTexture {
	return &BakedTexture{Width: width, Pixels: make([]byte, width*4)}
}

func (t *BakedTexture) setTexel(i int, c [4]float32) {
	for ch := 0; ch < 4; ch++ {
		t.Pixels[i*4+ch] = byte(clamp01(c[ch])*255 + 0.5)
	}
}

func (t *BakedTexture) texel(i int) [4]float32 {
	return [4]float32{
		float32(t.Pixels[i*4+0]) / 255,
		float32(t.Pixels[i*4+1]) / 255,
		float32(t.Pixels[i*4+2]) / 255,
		float32(t.Pixels[i*4+3]) / 255,
	}
}

// SampleColor reads the texture at u in [0, 1] with linear filtering and
// clamp-to-edge addressing.
func (t *BakedTexture) SampleColor(u float32) [4]float32 {
	if t.Width == 1 {
		return t.texel(0)
	}
	x := clamp01(u) * float32(t.Width-1)
	i := int(x)
	if i >= int(t.Width)-1 {
		return t.texel(int(t.Width) - 1)
	}
	return lerpColor(t.texel(i), t.texel(i+1), x-float32(i))
}

// SampleValue reads the red channel, which carries the value for baked
// curves.
func (t *BakedTexture) SampleValue(u float32) float32 {
	return t.SampleColor(u)[0]
}

func bakeGradient(g *Gradient) *BakedTexture {
	t := newBakedTexture(bakedTextureWidth)
	for i := 0; i < bakedTextureWidth; i++ {
		t.setTexel(i, g.Sample(float32(i)/float32(bakedTextureWidth-1)))
	}
	return t
}

// bakeCurve normalizes values into the curve's range so the 8-bit texels
// keep precision; the kernel denormalizes with the range carried alongside.
func bakeCurve(c *CurveTexture) *BakedTexture {
	t := newBakedTexture(bakedTextureWidth)
	span := c.Range.Max - c.Range.Min
	for i := 0; i < bakedTextureWidth; i++ {
		v := c.Sample(float32(i) / float32(bakedTextureWidth-1))
		if span > 0 {
			v = (v - c.Range.Min) / span
		}
		t.setTexel(i, [4]float32{v, v, v, 1})
	}
	return t
}

func whiteFallbackTexture() *BakedTexture {
	t := newBakedTexture(1)
	t.setTexel(0, white)
	return t
}

// GradientTextureCache bakes gradients on demand and keeps every result for
// the life of the cache. Identical gradients, by cache key, share one
// texture so the bridge can hand out stable handles.
type GradientTextureCache struct {
	mu       sync.Mutex
	baked    map[uint64]*BakedTexture
	fallback *BakedTexture
}

func NewGradientTextureCache() *GradientTextureCache {
	return &GradientTextureCache{
		baked:    make(map[uint64]*BakedTexture),
		fallback: whiteFallbackTexture(),
	}
}

// GetOrCreate returns the baked texture for g, baking it on first sight.
// A nil gradient maps to the white fallback.
func (c *GradientTextureCache) GetOrCreate(g *Gradient) *BakedTexture {
	if g == nil {
		return c.fallback
	}
	key := g.CacheKey()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.baked[key]; ok {
		return t
	}
	t := bakeGradient(g)
	c.baked[key] = t
	return t
}

func (c *GradientTextureCache) Fallback() *BakedTexture { return c.fallback }

func (c *GradientTextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.baked)
}

func (c *GradientTextureCache) Reset() {
	c.mu.Lock()
	c.baked = make(map[uint64]*BakedTexture)
	c.mu.Unlock()
}

// CurveTextureCache is the curve-side twin of GradientTextureCache.
// Constant curves are never baked; callers detect them up front and bypass
// the texture path entirely.
type CurveTextureCache struct {
	mu       sync.Mutex
	baked    map[uint64]*BakedTexture
	fallback *BakedTexture
}

func NewCurveTextureCache() *CurveTextureCache {
	return &CurveTextureCache{
		baked:    make(map[uint64]*BakedTexture),
		fallback: whiteFallbackTexture(),
	}
}

func (c *CurveTextureCache) GetOrCreate(curve *CurveTexture) *BakedTexture {
	if curve == nil || curve.IsConstant() {
		return c.fallback
	}
	key := curve.CacheKey()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.baked[key]; ok {
		return t
	}
	t := bakeCurve(curve)
	c.baked[key] = t
	return t
}

func (c *CurveTextureCache) Fallback() *BakedTexture { return c.fallback }

func (c *CurveTextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.baked)
}

func (c *CurveTextureCache) Reset() {
	c.mu.Lock()
	c.baked = make(map[uint64]*BakedTexture)
	c.mu.Unlock()
}
