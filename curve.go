package sprinkles

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

type CurveMode int

const (
	CurveModeLinear CurveMode = iota
	CurveModeHold
	CurveModeSmooth
)

type CurvePoint struct {
	Position float32   `yaml:"position"`
	Value    float32   `yaml:"value"`
	Mode     CurveMode `yaml:"mode"`
}

// CurveTexture is a piecewise scalar curve over [0, 1], baked into a 1D
// texture for the simulation kernel. The segment mode is read from the
// right-hand point of each segment.
type CurveTexture struct {
	Name   string       `yaml:"name"`
	Points []CurvePoint `yaml:"points"`
	Range  Range        `yaml:"range"`
}

func NewCurveTexture(points ...CurvePoint) CurveTexture {
	c := CurveTexture{Points: points, Range: Range{Min: 0, Max: 1}}
	c.sortPoints()
	return c
}

// DefaultCurve is a constant 1.0.
func DefaultCurve() CurveTexture {
	return NewCurveTexture(CurvePoint{Position: 0, Value: 1}, CurvePoint{Position: 1, Value: 1})
}

func (c *CurveTexture) sortPoints() {
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].Position < c.Points[j].Position
	})
}

// Sample evaluates the curve at t. An empty curve reads as 1.0 and a single
// point reads as that point's value everywhere.
func (c *CurveTexture) Sample(t float32) float32 {
	switch len(c.Points) {
	case 0:
		return 1
	case 1:
		return c.Points[0].Value
	}
	if t <= c.Points[0].Position {
		return c.Points[0].Value
	}
	last := c.Points[len(c.Points)-1]
	if t >= last.Position {
		return last.Value
	}
	for i := 1; i < len(c.Points); i++ {
		left, right := c.Points[i-1], c.Points[i]
		if t > right.Position {
			continue
		}
		span := right.Position - left.Position
		if span <= 0 {
			return right.Value
		}
		local := (t - left.Position) / span
		switch right.Mode {
		case CurveModeHold:
			return left.Value
		case CurveModeSmooth:
			return lerp(left.Value, right.Value, smoothstep(local))
		default:
			return lerp(left.Value, right.Value, local)
		}
	}
	return last.Value
}

// IsConstant reports whether every point carries the same value. Constant
// curves never need baking; the kernel skips them entirely.
func (c *CurveTexture) IsConstant() bool {
	if len(c.Points) < 2 {
		return true
	}
	first := c.Points[0].Value
	for _, p := range c.Points[1:] {
		if p.Value != first {
			return false
		}
	}
	return true
}

// ConstantValue is only meaningful when IsConstant reports true.
func (c *CurveTexture) ConstantValue() float32 {
	if len(c.Points) == 0 {
		return 1
	}
	return c.Points[0].Value
}

// CacheKey hashes the curve's shape. Two curves with identical points and
// range share one baked texture.
func (c *CurveTexture) CacheKey() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:], floatBits(v))
		h.Write(buf[:])
	}
	for _, p := range c.Points {
		put(p.Position)
		put(p.Value)
		put(float32(p.Mode))
	}
	put(c.Range.Min)
	put(c.Range.Max)
	return h.Sum64()
}
