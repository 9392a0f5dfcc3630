package sprinkles

import (
	"sync"

	"github.com/google/uuid"
)

// EmitterID identifies one emitter instance for buffer bookkeeping.
type EmitterID string

func NewEmitterID() EmitterID {
	return EmitterID(uuid.NewString())
}

// EmitterBufferSet is the per-emitter storage trio: the particle pool, the
// index table the sort pass permutes, and the sorted output the renderer
// reads. All three are sized to exactly the emitter's capacity and are only
// ever recreated together.
type EmitterBufferSet struct {
	Particles []Particle
	Indices   []uint32
	Sorted    []Particle
	Capacity  uint32

	gpu *gpuBufferSet
}

// BufferManager owns every emitter's buffer set. Capacity changes replace
// the whole set, which drops all live particles for that emitter; any other
// config change keeps the buffers as they are.
type BufferManager struct {
	mu    sync.Mutex
	sets  map[EmitterID]*EmitterBufferSet
	alloc func(capacity uint32) (*gpuBufferSet, error)
	log   Logger
}

// NewBufferManager creates a manager. gpu may be nil for CPU-only
// simulation; when present, every set gets GPU mirrors.
func NewBufferManager(gpu *GpuState, log Logger) *BufferManager {
	if log == nil {
		log = NewNopLogger()
	}
	m := &BufferManager{
		sets: make(map[EmitterID]*EmitterBufferSet),
		log:  log,
	}
	if gpu != nil {
		m.alloc = gpu.createParticleBuffers
	}
	return m
}

// Ensure returns the buffer set for id, allocating or reallocating when the
// requested capacity differs from the current one. Capacity 0 yields an
// empty set the simulation passes over. A GPU allocation failure leaves the
// previous set (if any) registered and returns the error.
func (m *BufferManager) Ensure(id EmitterID, capacity uint32) (*EmitterBufferSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.sets[id]; ok && set.Capacity == capacity {
		return set, nil
	}

	set := &EmitterBufferSet{
		Particles: make([]Particle, capacity),
		Indices:   make([]uint32, capacity),
		Sorted:    make([]Particle, capacity),
		Capacity:  capacity,
	}
	for i := range set.Indices {
		set.Indices[i] = uint32(i)
	}

	if m.alloc != nil && capacity > 0 {
		gpuSet, err := m.alloc(capacity)
		if err != nil {
			m.log.Errorf("particle buffer allocation failed for emitter %s (capacity %d): %v", id, capacity, err)
			return nil, err
		}
		set.gpu = gpuSet
	}

	if old, ok := m.sets[id]; ok {
		old.release()
		m.log.Debugf("emitter %s buffers recreated: %d -> %d slots", id, old.Capacity, capacity)
	}
	m.sets[id] = set
	return set, nil
}

// Get returns the current set without allocating.
func (m *BufferManager) Get(id EmitterID) (*EmitterBufferSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[id]
	return set, ok
}

// Remove drops an emitter's buffers, releasing the GPU side if present.
func (m *BufferManager) Remove(id EmitterID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[id]; ok {
		set.release()
		delete(m.sets, id)
	}
}

func (m *BufferManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets)
}

func (s *EmitterBufferSet) release() {
	if s.gpu != nil {
		s.gpu.release()
		s.gpu = nil
	}
}
