package sprinkles

import "github.com/go-gl/mathgl/mgl32"

// SpawnRequest asks a sub-emitter target to start one particle at a parent
// particle's location. KeepVelocity is resolved on the parent side so the
// target never needs the parent's config.
type SpawnRequest struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
}

// SubEmissionQueue buffers spawn requests between a parent emitter's step
// and its target's next step. Capacity matches the target's particle count;
// overflow requests are dropped since the target could not host them anyway.
type SubEmissionQueue struct {
	capacity int
	pending  []SpawnRequest
	serial   uint32
}

func newSubEmissionQueue(capacity uint32) *SubEmissionQueue {
	return &SubEmissionQueue{
		capacity: int(capacity),
		pending:  make([]SpawnRequest, 0, capacity),
	}
}

func (q *SubEmissionQueue) push(reqs []SpawnRequest) {
	room := q.capacity - len(q.pending)
	if room <= 0 {
		return
	}
	if len(reqs) > room {
		reqs = reqs[:room]
	}
	q.pending = append(q.pending, reqs...)
}

// take hands out the pending requests along with the serial of the first
// one. The serial keeps re-spawned slots on fresh random streams.
func (q *SubEmissionQueue) take() ([]SpawnRequest, uint32) {
	reqs := q.pending
	base := q.serial
	q.serial += uint32(len(reqs))
	q.pending = make([]SpawnRequest, 0, q.capacity)
	return reqs, base
}

func (q *SubEmissionQueue) pendingCount() int { return len(q.pending) }
