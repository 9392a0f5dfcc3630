package sprinkles

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// simulateContext carries everything shared across slots of one dispatch.
type simulateContext struct {
	params    *FrameParams
	colliders []ColliderParams
	noise     opensimplex.Noise
}

// Simulate runs one simulation step over an emitter's particle pool and
// returns the spawn requests its particles emitted for a sub-emitter
// target, in slot order. incoming holds requests this emitter should spawn
// from when it is itself a target; incomingSerial distinguishes successive
// request batches so respawned slots draw fresh randomness.
func Simulate(particles []Particle, params *FrameParams, colliders []ColliderParams,
	incoming []SpawnRequest, incomingSerial uint32, workers int) []SpawnRequest {

	ctx := &simulateContext{params: params, colliders: colliders}
	if params.Turbulence.Enabled {
		ctx.noise = opensimplex.New(int64(params.RandomSeed))
	}

	if params.ClearParticles {
		for i := range particles {
			particles[i] = Particle{}
		}
	}

	ranges := slotRanges(len(particles), workers)
	emitted := make([][]SpawnRequest, len(ranges))

	var wg sync.WaitGroup
	for ri, r := range ranges {
		wg.Add(1)
		go func(ri, start, end int) {
			defer wg.Done()
			var out []SpawnRequest
			for i := start; i < end; i++ {
				simulateSlot(&particles[i], uint32(i), ctx, &out)
			}
			emitted[ri] = out
		}(ri, r[0], r[1])
	}
	wg.Wait()

	// Requests spawn after the integrate pass so fresh particles rest one
	// step like scheduled spawns do. Consumption stays serial so the
	// slot-to-request pairing is reproducible.
	if params.IsSubEmitterTarget && len(incoming) > 0 {
		spawnFromRequests(particles, ctx, incoming, incomingSerial)
	}

	var merged []SpawnRequest
	for _, out := range emitted {
		merged = append(merged, out...)
	}
	return merged
}

// slotRanges splits n slots into contiguous spans, one per worker.
func slotRanges(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if n == 0 {
		return nil
	}
	ranges := make([][2]int, 0, workers)
	span := (n + workers - 1) / workers
	for start := 0; start < n; start += span {
		end := start + span
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

func simulateSlot(p *Particle, idx uint32, ctx *simulateContext, out *[]SpawnRequest) {
	pr := ctx.params

	if !p.Active() {
		if pr.ShouldEmit() && spawnScheduled(idx, pr) {
			rng := newSlotRand(pr.RandomSeed, pr.Cycle, idx)
			initParticle(p, rng, pr)
			if pr.SubEmitter.Mode == SubEmitterAtStart {
				emitRequests(out, p, pr)
			}
			updateVisuals(p, pr, 0)
		}
		return
	}

	prevAge := p.Age
	p.Age += pr.Delta
	if p.Lifetime <= 0 || p.Age >= p.Lifetime {
		if pr.SubEmitter.Mode == SubEmitterAtEnd {
			emitRequests(out, p, pr)
		}
		p.Flags &^= ParticleFlagActive
		return
	}
	phase := clamp01(p.Age / p.Lifetime)
	p.Phase = phase

	v := p.Velocity.Add(pr.Gravity.Mul(pr.Delta))

	if pr.Turbulence.Enabled {
		v = ctx.applyTurbulence(p, v, phase)
	}

	// Radial velocity displaces without feeding back into the integrated
	// velocity.
	disp := v
	if pr.RadialVelocityMin != 0 || pr.RadialVelocityMax != 0 {
		pivot := mgl32.TransformCoordinate(pr.VelocityPivot, pr.EmitterTransform)
		away := p.Position.Sub(pivot)
		if l := away.Len(); l > 1e-6 {
			amount := lerp(pr.RadialVelocityMin, pr.RadialVelocityMax, hash01(p.Seed, streamRadial))
			amount *= pr.RadialCurve.sample(phase)
			disp = disp.Add(away.Mul(amount / l))
		}
	}

	pos := p.Position.Add(disp.Mul(pr.Delta))

	if pr.Collision.Mode != CollisionDisabled && len(ctx.colliders) > 0 {
		var hit, kill bool
		pos, v, hit, kill = resolveCollisions(pos, v, p.Scale, ctx)
		if hit && pr.SubEmitter.Mode == SubEmitterAtCollision {
			req := *p
			req.Position = pos
			req.Velocity = v
			emitRequests(out, &req, pr)
		}
		if kill {
			p.Position = pos
			p.Flags &^= ParticleFlagActive
			return
		}
	}

	if pr.SubEmitter.Mode == SubEmitterConstant && pr.SubEmitter.Interval > 0 {
		if floor32(p.Age/pr.SubEmitter.Interval) != floor32(prevAge/pr.SubEmitter.Interval) {
			emitRequests(out, p, pr)
		}
	}

	p.Velocity = v
	p.Position = pos
	if l := v.Len(); l > 1e-6 {
		p.AlignDir = v.Mul(1 / l)
	}
	updateVisuals(p, pr, phase)
}

// spawnScheduled places slot idx on the cycle timeline and reports whether
// the step's phase window swept over its spawn point. Explosiveness pulls
// every spawn point toward phase zero.
func spawnScheduled(idx uint32, pr *FrameParams) bool {
	if pr.Amount == 0 || idx >= pr.Amount {
		return false
	}
	sp := float32(idx) / float32(pr.Amount) * (1 - pr.Explosiveness)
	if pr.SpawnJitter > 0 {
		j := hash01(bitsToFloat(hashCombine(pr.RandomSeed, idx)), streamSpawnJitter)
		sp = fract32(sp + pr.SpawnJitter*j/float32(pr.Amount))
	}
	prev, cur := pr.PrevPhase, pr.Phase
	switch {
	case prev < cur:
		return sp >= prev && sp < cur
	case prev > cur:
		return sp >= prev || sp < cur
	default:
		return false
	}
}

func initParticle(p *Particle, rng *slotRand, pr *FrameParams) {
	*p = Particle{}
	p.Seed = rng.float()
	p.Lifetime = pr.Lifetime * (1 - pr.LifetimeRandomness*rng.float())

	local := sampleShape(pr.Shape, rng)
	local = mgl32.Vec3{
		local.X()*pr.EmissionScale.X() + pr.EmissionOffset.X(),
		local.Y()*pr.EmissionScale.Y() + pr.EmissionOffset.Y(),
		local.Z()*pr.EmissionScale.Z() + pr.EmissionOffset.Z(),
	}
	p.Position = mgl32.TransformCoordinate(local, pr.EmitterTransform)

	dir := sampleSpreadDirection(pr.Direction, pr.Spread, pr.Flatness, rng)
	dir = mgl32.TransformNormal(dir, pr.EmitterTransform)
	speed := rng.rangeFloat(pr.InitialVelocityMin, pr.InitialVelocityMax)
	p.Velocity = dir.Mul(speed)
	if pr.InheritRatio != 0 {
		p.Velocity = p.Velocity.Add(pr.EmitterVelocity.Mul(pr.InheritRatio))
	}

	p.AlignDir = dir
	p.Flags = ParticleFlagActive | pr.ParticleFlags
}

// spawnFromRequests fills inactive slots from pending sub-emission
// requests, in slot order.
func spawnFromRequests(particles []Particle, ctx *simulateContext, incoming []SpawnRequest, serial uint32) {
	pr := ctx.params
	ri := 0
	for i := range particles {
		if ri >= len(incoming) {
			return
		}
		p := &particles[i]
		if p.Active() {
			continue
		}
		req := incoming[ri]
		rng := newSlotRand(pr.RandomSeed, serial+uint32(ri), uint32(i))
		ri++

		initParticle(p, rng, pr)
		local := sampleShape(pr.Shape, rng)
		p.Position = req.Position.Add(mgl32.Vec3{
			local.X() * pr.EmissionScale.X(),
			local.Y() * pr.EmissionScale.Y(),
			local.Z() * pr.EmissionScale.Z(),
		})
		p.Velocity = p.Velocity.Add(req.Velocity)
		updateVisuals(p, pr, 0)
	}
}

func emitRequests(out *[]SpawnRequest, p *Particle, pr *FrameParams) {
	req := SpawnRequest{Position: p.Position}
	if pr.SubEmitter.KeepVelocity {
		req.Velocity = p.Velocity
	}
	for n := uint32(0); n < pr.SubEmitter.Amount; n++ {
		*out = append(*out, req)
	}
}

// updateVisuals recomputes color and scale from scratch each step; the
// stored seed re-derives the per-particle picks so nothing compounds.
func updateVisuals(p *Particle, pr *FrameParams, phase float32) {
	initial := pr.InitialColor
	if pr.InitialGradient != nil {
		initial = pr.InitialGradient.SampleColor(hash01(p.Seed, streamColor))
	}
	c := initial
	if pr.ColorRamp != nil {
		c = mulColor(c, pr.ColorRamp.SampleColor(phase))
	}
	c[3] *= pr.AlphaCurve.sample(phase)
	if e := pr.EmissionCurve.sample(phase); e != 1 {
		c[0] *= e
		c[1] *= e
		c[2] *= e
	}
	p.Color = c

	base := lerp(pr.ScaleMin, pr.ScaleMax, hash01(p.Seed, streamScale))
	p.Scale = base * pr.ScaleCurve.sample(phase)
}

func (ctx *simulateContext) applyTurbulence(p *Particle, v mgl32.Vec3, phase float32) mgl32.Vec3 {
	tb := ctx.params.Turbulence
	speedScale := 1 + tb.NoiseSpeedRandom*hash01(p.Seed, streamNoisePhase)
	t := float64(p.Age) * float64(speedScale)
	sx := float64(p.Position.X()*tb.NoiseScale + tb.NoiseSpeed.X()*float32(t))
	sy := float64(p.Position.Y()*tb.NoiseScale + tb.NoiseSpeed.Y()*float32(t))
	sz := float64(p.Position.Z()*tb.NoiseScale + tb.NoiseSpeed.Z()*float32(t))

	n := mgl32.Vec3{
		float32(ctx.noise.Eval4(sx, sy, sz, t)),
		float32(ctx.noise.Eval4(sx+131.7, sy+337.1, sz+51.3, t)),
		float32(ctx.noise.Eval4(sx-77.9, sy-11.3, sz+203.9, t)),
	}
	l := n.Len()
	if l < 1e-6 {
		return v
	}
	target := n.Mul(tb.NoiseStrength / l)

	influence := lerp(tb.InfluenceMin, tb.InfluenceMax, hash01(p.Seed, streamTurbulence))
	influence *= tb.InfluenceCurve.sample(phase)
	influence = clamp01(influence)

	return mgl32.Vec3{
		lerp(v.X(), target.X(), influence),
		lerp(v.Y(), target.Y(), influence),
		lerp(v.Z(), target.Z(), influence),
	}
}

func resolveCollisions(pos, vel mgl32.Vec3, scale float32, ctx *simulateContext) (mgl32.Vec3, mgl32.Vec3, bool, bool) {
	cl := ctx.params.Collision
	radius := cl.BaseSize * 0.5
	if cl.UseScale {
		radius *= scale
	}
	hit := false
	for i := range ctx.colliders {
		c := &ctx.colliders[i]
		local := mgl32.TransformCoordinate(pos, c.InverseTransform)
		var normal mgl32.Vec3
		var depth float32
		switch c.Kind {
		case ColliderSphere:
			r := c.Extents.X()
			dist := local.Len()
			if dist >= r+radius {
				continue
			}
			if dist < 1e-6 {
				normal = mgl32.Vec3{0, 1, 0}
			} else {
				normal = local.Mul(1 / dist)
			}
			depth = r + radius - dist
		case ColliderBox:
			e := c.Extents.Add(mgl32.Vec3{radius, radius, radius})
			dx := e.X() - abs32(local.X())
			dy := e.Y() - abs32(local.Y())
			dz := e.Z() - abs32(local.Z())
			if dx <= 0 || dy <= 0 || dz <= 0 {
				continue
			}
			// Push out along the axis of least penetration.
			normal = mgl32.Vec3{sign32(local.X()), 0, 0}
			depth = dx
			if dy < depth {
				normal = mgl32.Vec3{0, sign32(local.Y()), 0}
				depth = dy
			}
			if dz < depth {
				normal = mgl32.Vec3{0, 0, sign32(local.Z())}
				depth = dz
			}
		default:
			continue
		}

		hit = true
		if cl.Mode == CollisionHideOnContact {
			return pos, vel, true, true
		}

		pos = pos.Add(normal.Mul(depth))
		vn := normal.Mul(vel.Dot(normal))
		vt := vel.Sub(vn)
		vel = vt.Mul(1 - cl.Friction).Sub(vn.Mul(cl.Bounce))
	}
	return pos, vel, hit, false
}

func sampleShape(shape EmissionShape, rng *slotRand) mgl32.Vec3 {
	switch shape.Kind {
	case EmissionSphere:
		dir := sampleUnitSphere(rng)
		return dir.Mul(shape.Radius * cbrt32(rng.float()))
	case EmissionSphereSurface:
		return sampleUnitSphere(rng).Mul(shape.Radius)
	case EmissionBox:
		return mgl32.Vec3{
			rng.rangeFloat(-shape.Extents.X(), shape.Extents.X()),
			rng.rangeFloat(-shape.Extents.Y(), shape.Extents.Y()),
			rng.rangeFloat(-shape.Extents.Z(), shape.Extents.Z()),
		}
	case EmissionRing:
		axis := shape.Axis
		if axis.Len() < 1e-6 {
			axis = mgl32.Vec3{0, 1, 0}
		} else {
			axis = axis.Normalize()
		}
		u, v := orthonormalBasis(axis)
		phi := rng.float() * 2 * math.Pi
		inner := shape.InnerRadius
		outer := shape.Radius
		r := sqrt32(lerp(inner*inner, outer*outer, rng.float()))
		h := rng.rangeFloat(-shape.Height*0.5, shape.Height*0.5)
		return u.Mul(cos32(phi) * r).Add(v.Mul(sin32(phi) * r)).Add(axis.Mul(h))
	default:
		return mgl32.Vec3{}
	}
}

func sampleUnitSphere(rng *slotRand) mgl32.Vec3 {
	z := rng.rangeFloat(-1, 1)
	phi := rng.float() * 2 * math.Pi
	r := sqrt32(1 - z*z)
	return mgl32.Vec3{r * cos32(phi), r * sin32(phi), z}
}

// sampleSpreadDirection picks a direction inside a cone of the given spread
// (degrees) around dir, uniformly over the cap. Flatness squashes the cone
// toward the plane orthogonal to the world up axis.
func sampleSpreadDirection(dir mgl32.Vec3, spreadDeg, flatness float32, rng *slotRand) mgl32.Vec3 {
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{1, 0, 0}
	} else {
		dir = dir.Normalize()
	}
	if spreadDeg <= 0 {
		return dir
	}
	thetaMax := float32(math.Pi) * (spreadDeg / 180)
	cosTheta := lerp(cos32(thetaMax), 1, rng.float())
	sinTheta := sqrt32(1 - cosTheta*cosTheta)
	phi := rng.float() * 2 * math.Pi

	u, v := orthonormalBasis(dir)
	sampled := dir.Mul(cosTheta).
		Add(u.Mul(cos32(phi) * sinTheta)).
		Add(v.Mul(sin32(phi) * sinTheta))

	if flatness > 0 {
		sampled = mgl32.Vec3{sampled.X(), sampled.Y() * (1 - flatness), sampled.Z()}
		if sampled.Len() < 1e-6 {
			return dir
		}
		sampled = sampled.Normalize()
	}
	return sampled
}

func orthonormalBasis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(n.Dot(up)) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	u := n.Cross(up).Normalize()
	v := n.Cross(u)
	return u, v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
