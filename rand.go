package sprinkles

import "time"

// Per-slot random streams. Every value a slot ever draws is a pure function
// of (emitter seed, cycle, slot index, stream), so replaying the same inputs
// reproduces the same particles bit for bit.

const (
	streamLifetime uint32 = iota
	streamPosition
	streamDirection
	streamSpeed
	streamScale
	streamColor
	streamSpawnJitter
	streamRadial
	streamTurbulence
	streamNoisePhase
)

func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

func hashCombine(a, b uint32) uint32 {
	return hash32(a ^ (b + 0x9e3779b9 + (a << 6) + (a >> 2)))
}

// slotRand is a tiny counter-based generator seeded from the slot identity.
type slotRand struct {
	state   uint32
	counter uint32
}

func newSlotRand(seed, cycle, index uint32) *slotRand {
	return &slotRand{state: hashCombine(hashCombine(seed, cycle), index)}
}

func (r *slotRand) nextUint32() uint32 {
	r.counter++
	return hashCombine(r.state, r.counter)
}

// float returns a value in [0, 1).
func (r *slotRand) float() float32 {
	return float32(r.nextUint32()&0xFFFFFF) / float32(1<<24)
}

// rangeFloat returns a value in [min, max).
func (r *slotRand) rangeFloat(min, max float32) float32 {
	return min + (max-min)*r.float()
}

// hash01 derives a stable [0, 1) value from a particle's stored seed and a
// stream tag. Used for per-particle parameters that are re-derived every
// step instead of stored.
func hash01(seed float32, stream uint32) float32 {
	bits := hashCombine(floatBits(seed), hash32(stream+1))
	return float32(bits&0xFFFFFF) / float32(1<<24)
}

func randomClockSeed() uint32 {
	return uint32(time.Now().UnixNano() & 0xFFFFFFFF)
}
