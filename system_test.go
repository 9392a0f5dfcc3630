package sprinkles

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystem() *ParticleSystem {
	return NewParticleSystem("test", DefaultSettings(), nil, NewNopLogger())
}

func seededConfig(name string, seed uint32) EmitterConfig {
	cfg := DefaultEmitterConfig(name)
	cfg.Time.FixedSeed = &seed
	return cfg
}

func TestSystemUpdatePipeline(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("smoke", 1)
	cfg.Time.Explosiveness = 1
	id := s.AddEmitter(cfg)

	out, err := s.Update(0.1)
	require.NoError(t, err)
	require.Len(t, out.Emitters, 1)

	e := out.Emitters[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, uint32(8), e.Capacity)
	assert.Equal(t, 8, e.Alive)
	assert.Len(t, e.Particles, 8)
}

func TestSystemDeterminismWithFixedSeed(t *testing.T) {
	build := func() *ParticleSystem {
		s := testSystem()
		cfg := seededConfig("replay", 42)
		cfg.Velocities.InitialVelocity = Range{Min: 1, Max: 2}
		cfg.Emission.Shape = EmissionShape{Kind: EmissionSphere, Radius: 1}
		s.AddEmitter(cfg)
		return s
	}
	a, b := build(), build()

	var lastA, lastB *FrameOutput
	for i := 0; i < 30; i++ {
		var err error
		lastA, err = a.Update(1.0 / 60)
		require.NoError(t, err)
		lastB, err = b.Update(1.0 / 60)
		require.NoError(t, err)
	}
	assert.Equal(t, lastA.Emitters[0].Particles, lastB.Emitters[0].Particles)
}

func TestSystemPauseFreezesParticles(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("frozen", 1)
	cfg.Time.Explosiveness = 1
	s.AddEmitter(cfg)

	out, err := s.Update(0.1)
	require.NoError(t, err)
	before := append([]Particle(nil), out.Emitters[0].Particles...)

	s.Pause()
	out, err = s.Update(0.1)
	require.NoError(t, err)
	assert.Equal(t, before, out.Emitters[0].Particles, "paused frame must not move particles")

	s.Resume()
	out, err = s.Update(0.1)
	require.NoError(t, err)
	assert.NotEqual(t, before, out.Emitters[0].Particles, "resumed frame should simulate again")
}

func TestSystemStopClearsEvenWhilePaused(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("halted", 1)
	cfg.Time.Explosiveness = 1
	id := s.AddEmitter(cfg)

	out, err := s.Update(0.1)
	require.NoError(t, err)
	require.Equal(t, 8, out.Emitters[0].Alive)

	s.Pause()
	s.Stop(id, nil)
	out, err = s.Update(0.1)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Emitters[0].Alive, "stop must clear even while paused")
}

func TestSystemRestartReplaysIdentically(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("loop", 5)
	cfg.Emission.Shape = EmissionShape{Kind: EmissionSphere, Radius: 2}
	id := s.AddEmitter(cfg)

	var first []Particle
	for i := 0; i < 10; i++ {
		out, err := s.Update(1.0 / 60)
		require.NoError(t, err)
		first = append(first[:0], out.Emitters[0].Particles...)
	}

	seed := uint32(5)
	s.Restart(id, &seed)
	var second []Particle
	for i := 0; i < 10; i++ {
		out, err := s.Update(1.0 / 60)
		require.NoError(t, err)
		second = append(second[:0], out.Emitters[0].Particles...)
	}
	assert.Equal(t, first, second, "restart with the same seed should replay the cycle")
}

func TestSystemCapacityChangeDropsParticles(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("resized", 1)
	cfg.Time.Explosiveness = 1
	id := s.AddEmitter(cfg)

	out, err := s.Update(0.1)
	require.NoError(t, err)
	require.Equal(t, 8, out.Emitters[0].Alive)

	inst := s.Emitter(id)
	require.NotNil(t, inst)
	inst.Config.Emission.ParticlesAmount = 32

	s.Pause()
	out, err = s.Update(0.1)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), out.Emitters[0].Capacity)
	assert.Equal(t, 0, out.Emitters[0].Alive, "capacity change loses live particles")
}

func TestSystemAllocationFailureSkipsOnlyThatEmitter(t *testing.T) {
	s := testSystem()
	okID := s.AddEmitter(seededConfig("ok", 1))
	starved := seededConfig("starved", 2)
	starved.Emission.ParticlesAmount = 32
	starvedID := s.AddEmitter(starved)

	s.buffers.alloc = func(capacity uint32) (*gpuBufferSet, error) {
		if capacity == 32 {
			return nil, errors.New("out of device memory")
		}
		return &gpuBufferSet{}, nil
	}

	out, err := s.Update(0.1)
	require.NoError(t, err)
	require.Len(t, out.Emitters, 1, "the starved emitter sits the frame out")
	assert.Equal(t, okID, out.Emitters[0].ID)

	// The allocation is retried each frame; once it succeeds the emitter
	// rejoins the output.
	s.buffers.alloc = nil
	out, err = s.Update(0.1)
	require.NoError(t, err)
	require.Len(t, out.Emitters, 2)
	assert.Equal(t, starvedID, out.Emitters[1].ID)
}

func TestSystemDisabledEmitterIsSkipped(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("off", 1)
	cfg.Enabled = false
	s.AddEmitter(cfg)

	out, err := s.Update(0.1)
	require.NoError(t, err)
	assert.Empty(t, out.Emitters)
}

func TestSystemSubEmitterChain(t *testing.T) {
	s := testSystem()

	parent := seededConfig("sparks", 3)
	parent.Emission.ParticlesAmount = 4
	parent.Time.Explosiveness = 1
	parent.SubEmitter = &SubEmitterConfig{
		Mode:         SubEmitterAtEnd,
		Target:       "smoke",
		Amount:       2,
		KeepVelocity: true,
	}
	s.AddEmitter(parent)

	child := seededConfig("smoke", 4)
	child.Emission.ParticlesAmount = 16
	childID := s.AddEmitter(child)

	childAlive := func(out *FrameOutput) int {
		for _, e := range out.Emitters {
			if e.ID == childID {
				return e.Alive
			}
		}
		t.Fatalf("child emitter missing from output")
		return 0
	}

	// The child is a target: it must never self-emit.
	out, err := s.Update(0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, childAlive(out), "target emitter must not self-emit")

	// Run until the parent particles die and hand off their positions.
	var alive int
	for i := 0; i < 4; i++ {
		out, err = s.Update(0.4)
		require.NoError(t, err)
		if alive = childAlive(out); alive > 0 {
			break
		}
	}
	assert.Equal(t, 8, alive, "4 parent deaths x amount 2 should spawn 8 children")
}

func TestSystemEmitterTransformMovesSpawns(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("moved", 1)
	cfg.Time.Explosiveness = 1
	id := s.AddEmitter(cfg)
	s.SetTransform(id, mgl32.Translate3D(10, 0, 0))

	out, err := s.Update(0.1)
	require.NoError(t, err)
	p := out.Emitters[0].Particles[0]
	require.True(t, p.Active())
	assert.InDelta(t, 10.0, float64(p.Position.X()), 0.2)
}

func TestSystemProgressTracksPhase(t *testing.T) {
	s := testSystem()
	cfg := seededConfig("tracked", 1)
	cfg.Time.Lifetime = 2
	id := s.AddEmitter(cfg)

	_, err := s.Update(1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, float64(s.Progress(id)), 1e-5)
}
