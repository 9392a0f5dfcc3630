package sprinkles

import (
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
)

// EmitterInstance is one live emitter inside a system: its config, its
// clock and its world transform. When another emitter names it as a
// sub-emitter target it also owns the queue its parents feed.
type EmitterInstance struct {
	ID        EmitterID
	Config    EmitterConfig
	Clock     *EmitterClock
	Transform mgl32.Mat4

	isSubTarget  bool
	queue        *SubEmissionQueue
	prevPosition mgl32.Vec3
	velocity     mgl32.Vec3
}

// EmitterOutput is one emitter's render-ready slice of a frame: particles
// in draw order, dead slots trailing.
type EmitterOutput struct {
	ID        EmitterID
	Name      string
	Particles []Particle
	Capacity  uint32
	Alive     int
	DrawOrder DrawOrder
	Flags     uint32
}

type FrameOutput struct {
	Emitters []EmitterOutput
}

// ParticleSystem owns a set of emitters and colliders and drives them
// through the frame pipeline: advance clocks, snapshot, simulate, sort.
// Each stage only consumes what the previous one produced, so config edits
// between frames never tear a frame in half.
type ParticleSystem struct {
	Name           string
	Paused         bool
	CameraPosition mgl32.Vec3

	settings  Settings
	log       Logger
	gpu       *GpuState
	buffers   *BufferManager
	gradients *GradientTextureCache
	curves    *CurveTextureCache
	emitters  []*EmitterInstance
	colliders []ColliderConfig
	workers   int
}

// NewParticleSystem creates a system. gpu may be nil to simulate CPU-only;
// log may be nil for silence.
func NewParticleSystem(name string, settings Settings, gpu *GpuState, log Logger) *ParticleSystem {
	if log == nil {
		log = NewNopLogger()
	}
	workers := settings.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ParticleSystem{
		Name:      name,
		settings:  settings,
		log:       log,
		gpu:       gpu,
		buffers:   NewBufferManager(gpu, log),
		gradients: NewGradientTextureCache(),
		curves:    NewCurveTextureCache(),
		workers:   workers,
	}
}

// AddEmitter registers an emitter and returns its handle. Sub-emitter links
// are re-resolved so a target added after its parent still gets wired.
func (s *ParticleSystem) AddEmitter(cfg EmitterConfig) EmitterID {
	inst := &EmitterInstance{
		ID:        NewEmitterID(),
		Config:    cfg,
		Clock:     NewEmitterClock(cfg.Time.FixedSeed),
		Transform: mgl32.Translate3D(cfg.Position.X(), cfg.Position.Y(), cfg.Position.Z()),
	}
	inst.Clock.MaxFrameDelta = s.settings.MaxFrameDelta
	inst.prevPosition = cfg.Position
	s.emitters = append(s.emitters, inst)
	s.resolveSubEmitters()
	return inst.ID
}

func (s *ParticleSystem) RemoveEmitter(id EmitterID) {
	for i, inst := range s.emitters {
		if inst.ID == id {
			s.emitters = append(s.emitters[:i], s.emitters[i+1:]...)
			s.buffers.Remove(id)
			s.resolveSubEmitters()
			return
		}
	}
}

func (s *ParticleSystem) Emitter(id EmitterID) *EmitterInstance {
	for _, inst := range s.emitters {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

func (s *ParticleSystem) EmitterByName(name string) *EmitterInstance {
	for _, inst := range s.emitters {
		if inst.Config.Name == name {
			return inst
		}
	}
	return nil
}

func (s *ParticleSystem) AddCollider(cfg ColliderConfig) {
	s.colliders = append(s.colliders, cfg)
}

// SetTransform moves an emitter; the translation delta becomes the emitter
// velocity that particles can inherit.
func (s *ParticleSystem) SetTransform(id EmitterID, transform mgl32.Mat4) {
	if inst := s.Emitter(id); inst != nil {
		inst.Transform = transform
	}
}

// resolveSubEmitters marks targets and sizes their request queues. A dangling
// target name logs once and leaves the link inert.
func (s *ParticleSystem) resolveSubEmitters() {
	for _, inst := range s.emitters {
		inst.isSubTarget = false
	}
	for _, inst := range s.emitters {
		sub := inst.Config.SubEmitter
		if sub == nil || sub.Mode == SubEmitterDisabled || sub.Target == "" {
			continue
		}
		target := s.EmitterByName(sub.Target)
		if target == nil {
			s.log.Warnf("emitter %q references unknown sub-emitter target %q", inst.Config.Name, sub.Target)
			continue
		}
		if target == inst {
			s.log.Warnf("emitter %q cannot be its own sub-emitter target", inst.Config.Name)
			continue
		}
		target.isSubTarget = true
		amount := target.Config.Emission.ParticlesAmount
		if target.queue == nil || target.queue.capacity != int(amount) {
			target.queue = newSubEmissionQueue(amount)
		}
	}
}

func (s *ParticleSystem) Pause()  { s.Paused = true }
func (s *ParticleSystem) Resume() { s.Paused = false }

func (s *ParticleSystem) TogglePause() { s.Paused = !s.Paused }

func (s *ParticleSystem) Play(id EmitterID) {
	if inst := s.Emitter(id); inst != nil {
		inst.Clock.Play()
	}
}

func (s *ParticleSystem) Stop(id EmitterID, seed *uint32) {
	if inst := s.Emitter(id); inst != nil {
		inst.Clock.Stop(seed)
	}
}

func (s *ParticleSystem) Restart(id EmitterID, seed *uint32) {
	if inst := s.Emitter(id); inst != nil {
		inst.Clock.Restart(seed)
	}
}

func (s *ParticleSystem) Seek(id EmitterID, at float32) {
	if inst := s.Emitter(id); inst != nil {
		inst.Clock.Seek(at)
	}
}

// Progress reports an emitter's normalized cycle position.
func (s *ParticleSystem) Progress(id EmitterID) float32 {
	if inst := s.Emitter(id); inst != nil {
		return inst.Clock.Phase(inst.Config.Time)
	}
	return 0
}

// Update runs one frame. The stages always run in the same order: clocks
// first, then the snapshot, then simulation with parents ahead of their
// sub-emitter targets, then sorting. A paused system produces no steps, so
// particles freeze but buffers and output stay valid.
func (s *ParticleSystem) Update(delta float32) (*FrameOutput, error) {
	type frameEntry struct {
		inst  *EmitterInstance
		frame EmitterFrame
	}

	for _, inst := range s.emitters {
		if !inst.Config.Enabled {
			continue
		}
		inst.Clock.Advance(delta, s.Paused, inst.Config.Time)
	}

	colliders := buildColliderParams(s.colliders, s.log)

	var entries []frameEntry
	for _, inst := range s.emitters {
		if !inst.Config.Enabled {
			continue
		}
		set, err := s.buffers.Ensure(inst.ID, inst.Config.Emission.ParticlesAmount)
		if err != nil {
			// Fatal only for this emitter. It sits the frame out and the
			// allocation is retried next Update; the rest keep simulating.
			s.log.Errorf("emitter %q: %v", inst.Config.Name, err)
			continue
		}

		pos := inst.Transform.Col(3).Vec3()
		if delta > 0 {
			inst.velocity = pos.Sub(inst.prevPosition).Mul(1 / delta)
		}
		inst.prevPosition = pos

		frame := EmitterFrame{
			ID:             inst.ID,
			Name:           inst.Config.Name,
			Buffers:        set,
			DrawOrder:      inst.Config.DrawOrder,
			ParticleFlags:  inst.Config.CombinedParticleFlags(),
			CameraPosition: s.CameraPosition,
		}
		for _, step := range inst.Clock.Steps {
			params := buildFrameParams(&inst.Config, inst.Clock, step,
				inst.Transform, inst.velocity, s.gradients, s.curves)
			params.IsSubEmitterTarget = inst.isSubTarget
			frame.Steps = append(frame.Steps, params)
		}
		entries = append(entries, frameEntry{inst: inst, frame: frame})
	}

	// Parents run before targets so requests emitted this frame spawn this
	// frame.
	simulateEntry := func(e *frameEntry) {
		inst := e.inst
		var incoming []SpawnRequest
		var serial uint32
		if inst.isSubTarget && inst.queue != nil {
			incoming, serial = inst.queue.take()
		}
		for i := range e.frame.Steps {
			params := &e.frame.Steps[i]
			emitted := Simulate(e.frame.Buffers.Particles, params, colliders, incoming, serial, s.workers)
			incoming = nil
			if len(emitted) > 0 && inst.Config.SubEmitter != nil {
				if target := s.EmitterByName(inst.Config.SubEmitter.Target); target != nil && target.queue != nil {
					target.queue.push(emitted)
				}
			}
		}
	}
	for i := range entries {
		if !entries[i].inst.isSubTarget {
			simulateEntry(&entries[i])
		}
	}
	for i := range entries {
		if entries[i].inst.isSubTarget {
			simulateEntry(&entries[i])
		}
	}

	out := &FrameOutput{}
	for i := range entries {
		e := &entries[i]
		set := e.frame.Buffers
		SortParticles(set, e.frame.DrawOrder, e.frame.CameraPosition)

		if s.gpu != nil && set.gpu != nil {
			if err := s.gpu.uploadParticleBuffers(set); err != nil {
				s.log.Errorf("emitter %q: gpu upload failed: %v", e.frame.Name, err)
			}
		}

		alive := 0
		for k := range set.Sorted {
			if set.Sorted[k].Active() {
				alive++
			}
		}
		out.Emitters = append(out.Emitters, EmitterOutput{
			ID:        e.frame.ID,
			Name:      e.frame.Name,
			Particles: set.Sorted,
			Capacity:  set.Capacity,
			Alive:     alive,
			DrawOrder: e.frame.DrawOrder,
			Flags:     e.frame.ParticleFlags,
		})
	}
	return out, nil
}
