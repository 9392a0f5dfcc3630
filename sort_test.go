package sprinkles

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func sortFixture(capacity int) *EmitterBufferSet {
	set := &EmitterBufferSet{
		Particles: make([]Particle, capacity),
		Indices:   make([]uint32, capacity),
		Sorted:    make([]Particle, capacity),
		Capacity:  uint32(capacity),
	}
	return set
}

func TestSortIndexOrderKeepsSlotOrder(t *testing.T) {
	set := sortFixture(4)
	for i := range set.Particles {
		set.Particles[i].Flags = ParticleFlagActive
		set.Particles[i].Seed = float32(i)
	}
	SortParticles(set, DrawOrderIndex, mgl32.Vec3{})
	for i := range set.Sorted {
		if set.Sorted[i].Seed != float32(i) {
			t.Fatalf("index order should be identity, slot %d holds seed %f", i, set.Sorted[i].Seed)
		}
	}
}

func TestSortViewDepthBackToFront(t *testing.T) {
	set := sortFixture(3)
	for i, x := range []float32{5, 1, 10} {
		set.Particles[i].Flags = ParticleFlagActive
		set.Particles[i].Position = mgl32.Vec3{x, 0, 0}
	}
	SortParticles(set, DrawOrderViewDepth, mgl32.Vec3{0, 0, 0})

	want := []float32{10, 5, 1}
	for i, x := range want {
		if set.Sorted[i].Position.X() != x {
			t.Fatalf("view depth order wrong at %d: got x = %f, want %f", i, set.Sorted[i].Position.X(), x)
		}
	}
}

func TestSortLifetimeOrders(t *testing.T) {
	set := sortFixture(3)
	remaining := []float32{0.5, 0.1, 0.9}
	for i, r := range remaining {
		set.Particles[i].Flags = ParticleFlagActive
		set.Particles[i].Lifetime = 1
		set.Particles[i].Age = 1 - r
	}

	SortParticles(set, DrawOrderLifetime, mgl32.Vec3{})
	approx(t, set.Sorted[0].Age, 0.9, 1e-6, "lifetime order front")
	approx(t, set.Sorted[2].Age, 0.1, 1e-6, "lifetime order back")

	SortParticles(set, DrawOrderReverseLifetime, mgl32.Vec3{})
	approx(t, set.Sorted[0].Age, 0.1, 1e-6, "reverse lifetime order front")
	approx(t, set.Sorted[2].Age, 0.9, 1e-6, "reverse lifetime order back")
}

func TestSortInactiveSlotsTrail(t *testing.T) {
	set := sortFixture(5)
	for i := range set.Particles {
		set.Particles[i].Position = mgl32.Vec3{float32(i), 0, 0}
	}
	// Only slots 1 and 3 are alive.
	set.Particles[1].Flags = ParticleFlagActive
	set.Particles[3].Flags = ParticleFlagActive

	SortParticles(set, DrawOrderViewDepth, mgl32.Vec3{})
	if !set.Sorted[0].Active() || !set.Sorted[1].Active() {
		t.Fatalf("active particles must lead the sorted buffer")
	}
	for i := 2; i < 5; i++ {
		if set.Sorted[i].Active() {
			t.Fatalf("inactive slot leaked into position %d", i)
		}
	}
}

func TestSortEqualKeysAreStable(t *testing.T) {
	set := sortFixture(6)
	for i := range set.Particles {
		set.Particles[i].Flags = ParticleFlagActive
		set.Particles[i].Position = mgl32.Vec3{1, 0, 0}
		set.Particles[i].Seed = float32(i)
	}
	SortParticles(set, DrawOrderViewDepth, mgl32.Vec3{})
	for i := range set.Sorted {
		if set.Sorted[i].Seed != float32(i) {
			t.Fatalf("equal keys must keep slot order, position %d holds seed %f", i, set.Sorted[i].Seed)
		}
	}
}
