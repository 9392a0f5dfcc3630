package sprinkles

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
)

type GradientInterpolation int

const (
	GradientLinear GradientInterpolation = iota
	GradientSteps
	GradientSmoothstep
)

type GradientStop struct {
	Color    [4]float32 `yaml:"color"`
	Position float32    `yaml:"position"`
}

// Gradient is a color ramp over [0, 1], baked into a 1D RGBA texture.
type Gradient struct {
	Stops         []GradientStop        `yaml:"stops"`
	Interpolation GradientInterpolation `yaml:"interpolation"`
}

var white = [4]float32{1, 1, 1, 1}

func NewGradient(stops ...GradientStop) Gradient {
	g := Gradient{Stops: stops}
	g.sortStops()
	return g
}

func WhiteGradient() Gradient {
	return NewGradient(
		GradientStop{Color: white, Position: 0},
		GradientStop{Color: white, Position: 1},
	)
}

func (g *Gradient) sortStops() {
	sort.SliceStable(g.Stops, func(i, j int) bool {
		return g.Stops[i].Position < g.Stops[j].Position
	})
}

// Sample evaluates the ramp at t. No stops reads as opaque white, a single
// stop as that stop's color everywhere.
func (g *Gradient) Sample(t float32) [4]float32 {
	switch len(g.Stops) {
	case 0:
		return white
	case 1:
		return g.Stops[0].Color
	}
	if t <= g.Stops[0].Position {
		return g.Stops[0].Color
	}
	last := g.Stops[len(g.Stops)-1]
	if t >= last.Position {
		return last.Color
	}
	for i := 1; i < len(g.Stops); i++ {
		left, right := g.Stops[i-1], g.Stops[i]
		if t > right.Position {
			continue
		}
		span := right.Position - left.Position
		if span <= 0 {
			return right.Color
		}
		local := (t - left.Position) / span
		switch g.Interpolation {
		case GradientSteps:
			return left.Color
		case GradientSmoothstep:
			return lerpColor(left.Color, right.Color, smoothstep(local))
		default:
			return lerpColor(left.Color, right.Color, local)
		}
	}
	return last.Color
}

func lerpColor(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{
		lerp(a[0], b[0], t),
		lerp(a[1], b[1], t),
		lerp(a[2], b[2], t),
		lerp(a[3], b[3], t),
	}
}

func mulColor(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// CacheKey hashes stops and interpolation mode so identical ramps share a
// baked texture.
func (g *Gradient) CacheKey() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:], floatBits(v))
		h.Write(buf[:])
	}
	for _, s := range g.Stops {
		put(s.Position)
		put(s.Color[0])
		put(s.Color[1])
		put(s.Color[2])
		put(s.Color[3])
	}
	put(float32(g.Interpolation))
	return h.Sum64()
}
