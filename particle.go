package sprinkles

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Flag bits stored in Particle.Flags. The align bits start at bit 3 so the
// renderer can read emitter transform alignment and per-particle state from
// the same word.
const (
	ParticleFlagActive   uint32 = 1 << 0
	ParticleFlagRotateY  uint32 = 1 << 1
	ParticleFlagDisableZ uint32 = 1 << 2

	particleAlignShift = 3
)

// Particle is one simulation slot. Slots are preallocated per emitter and
// recycled in place; Flags tells active from dead.
type Particle struct {
	Position mgl32.Vec3
	Scale    float32
	Velocity mgl32.Vec3
	Lifetime float32
	Color    [4]float32
	Age      float32
	Phase    float32
	Seed     float32
	Flags    uint32
	AlignDir mgl32.Vec3
}

func (p *Particle) Active() bool { return p.Flags&ParticleFlagActive != 0 }

// particleStride is the packed GPU footprint: five vec4s.
const particleStride = 80

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func smoothstep(t float32) float32 { return t * t * (3 - 2*t) }

func floatBits(f float32) uint32   { return math.Float32bits(f) }
func bitsToFloat(b uint32) float32 { return math.Float32frombits(b) }
func sqrt32(v float32) float32     { return float32(math.Sqrt(float64(v))) }
func sin32(v float32) float32      { return float32(math.Sin(float64(v))) }
func cos32(v float32) float32      { return float32(math.Cos(float64(v))) }
func floor32(v float32) float32    { return float32(math.Floor(float64(v))) }
func fract32(v float32) float32    { return v - floor32(v) }
func mod32(a, b float32) float32   { return float32(math.Mod(float64(a), float64(b))) }
func cbrt32(v float32) float32     { return float32(math.Cbrt(float64(v))) }
