package sprinkles

import "github.com/go-gl/mathgl/mgl32"

// MaxColliders bounds how many colliders a frame snapshot carries; extras
// are dropped oldest-last.
const MaxColliders = 32

// CurveParams hands a baked curve to the kernel: the texture stores the
// normalized shape, Min and Max restore the configured range. Disabled
// curves read as 1.0.
type CurveParams struct {
	Enabled  bool
	Min      float32
	Max      float32
	Texture  *BakedTexture
	Constant float32
}

func (p CurveParams) sample(t float32) float32 {
	if !p.Enabled {
		return p.Constant
	}
	return lerp(p.Min, p.Max, p.Texture.SampleValue(t))
}

func curveParams(c *CurveTexture, curves *CurveTextureCache) CurveParams {
	if c == nil {
		return CurveParams{Constant: 1}
	}
	if c.IsConstant() {
		return CurveParams{Constant: c.ConstantValue()}
	}
	min, max := c.Range.Min, c.Range.Max
	if max <= min {
		min, max = 0, 1
	}
	return CurveParams{
		Enabled: true,
		Min:     min,
		Max:     max,
		Texture: curves.GetOrCreate(c),
	}
}

type TurbulenceParams struct {
	Enabled          bool
	NoiseStrength    float32
	NoiseScale       float32
	NoiseSpeed       mgl32.Vec3
	NoiseSpeedRandom float32
	InfluenceMin     float32
	InfluenceMax     float32
	InfluenceCurve   CurveParams
}

type CollisionParams struct {
	Mode     CollisionMode
	BaseSize float32
	UseScale bool
	Friction float32
	Bounce   float32
}

type SubEmitterParams struct {
	Mode         SubEmitterMode
	Interval     float32
	Amount       uint32
	KeepVelocity bool
}

// FrameParams is everything one kernel dispatch needs about its emitter for
// one simulation step. It is a value snapshot; the kernel never reads the
// emitter config or clock directly.
type FrameParams struct {
	Delta           float32
	Phase           float32
	PrevPhase       float32
	Cycle           uint32
	Amount          uint32
	Emitting        bool
	ClearParticles  bool
	RandomSeed      uint32

	Lifetime           float32
	LifetimeRandomness float32
	Explosiveness      float32
	SpawnJitter        float32

	Shape          EmissionShape
	EmissionOffset mgl32.Vec3
	EmissionScale  mgl32.Vec3

	Direction          mgl32.Vec3
	Spread             float32
	Flatness           float32
	InitialVelocityMin float32
	InitialVelocityMax float32
	InheritRatio       float32
	VelocityPivot      mgl32.Vec3
	EmitterVelocity    mgl32.Vec3
	Gravity            mgl32.Vec3

	RadialVelocityMin float32
	RadialVelocityMax float32
	RadialCurve       CurveParams

	ScaleMin   float32
	ScaleMax   float32
	ScaleCurve CurveParams

	InitialColor    [4]float32
	InitialGradient *BakedTexture
	ColorRamp       *BakedTexture
	AlphaCurve      CurveParams
	EmissionCurve   CurveParams

	Turbulence TurbulenceParams
	Collision  CollisionParams

	SubEmitter         SubEmitterParams
	IsSubEmitterTarget bool

	ParticleFlags    uint32
	EmitterTransform mgl32.Mat4
}

// ShouldEmit gates spawning for this step: sub-emitter targets never
// schedule their own spawns, and nothing spawns before the delay elapses.
func (p *FrameParams) ShouldEmit() bool {
	return !p.IsSubEmitterTarget && p.Emitting
}

// ColliderParams is a collider transformed into snapshot space. Particles
// are tested in the collider's local frame via the inverse transform.
type ColliderParams struct {
	Kind             ColliderShapeKind
	Transform        mgl32.Mat4
	InverseTransform mgl32.Mat4
	Extents          mgl32.Vec3
}

// EmitterFrame is one emitter's slice of a frame snapshot: its buffers plus
// one FrameParams per simulation step the clock produced.
type EmitterFrame struct {
	ID      EmitterID
	Name    string
	Buffers *EmitterBufferSet
	Steps   []FrameParams

	DrawOrder      DrawOrder
	ParticleFlags  uint32
	CameraPosition mgl32.Vec3
}

// FrameSnapshot is the immutable hand-off between the emitter state and the
// simulation pass. Once built, mutating emitter configs or clocks does not
// affect it.
type FrameSnapshot struct {
	Emitters  []EmitterFrame
	Colliders []ColliderParams
}

// buildFrameParams snapshots one simulation step of one emitter, resolving
// every gradient and curve through the bake caches so the kernel only sees
// texture handles.
func buildFrameParams(cfg *EmitterConfig, clock *EmitterClock, step SimulationStep,
	transform mgl32.Mat4, emitterVelocity mgl32.Vec3,
	gradients *GradientTextureCache, curves *CurveTextureCache) FrameParams {

	emitting := clock.Emitting && step.IsPastDelay(cfg.Time)

	p := FrameParams{
		Delta:          step.Delta,
		Phase:          step.Phase(cfg.Time),
		PrevPhase:      step.PrevPhase(cfg.Time),
		Cycle:          step.Cycle,
		Amount:         cfg.Emission.ParticlesAmount,
		Emitting:       emitting,
		ClearParticles: step.ClearRequested,
		RandomSeed:     clock.RandomSeed,

		Lifetime:           cfg.Time.Lifetime,
		LifetimeRandomness: cfg.Time.LifetimeRandomness,
		Explosiveness:      cfg.Time.Explosiveness,
		SpawnJitter:        cfg.Time.SpawnTimeRandomness,

		Shape:          cfg.Emission.Shape,
		EmissionOffset: cfg.Emission.Offset,
		EmissionScale:  cfg.Emission.Scale,

		Direction:          cfg.Velocities.InitialDirection,
		Spread:             cfg.Velocities.Spread,
		Flatness:           cfg.Velocities.Flatness,
		InitialVelocityMin: cfg.Velocities.InitialVelocity.Min,
		InitialVelocityMax: cfg.Velocities.InitialVelocity.Max,
		InheritRatio:       cfg.Velocities.InheritRatio,
		VelocityPivot:      cfg.Velocities.Pivot,
		EmitterVelocity:    emitterVelocity,
		Gravity:            cfg.Accelerations.Gravity,

		RadialVelocityMin: cfg.Velocities.RadialVelocity.Velocity.Min,
		RadialVelocityMax: cfg.Velocities.RadialVelocity.Velocity.Max,
		RadialCurve:       curveParams(cfg.Velocities.RadialVelocity.OverLifetime, curves),

		ScaleMin:   cfg.Scale.Range.Min,
		ScaleMax:   cfg.Scale.Range.Max,
		ScaleCurve: curveParams(cfg.Scale.OverLifetime, curves),

		InitialColor:  cfg.Colors.InitialColor.Solid,
		AlphaCurve:    curveParams(cfg.Colors.AlphaOverLifetime, curves),
		EmissionCurve: curveParams(cfg.Colors.EmissionOverLifetime, curves),

		ParticleFlags:    cfg.CombinedParticleFlags(),
		EmitterTransform: transform,
	}

	if cfg.Colors.InitialColor.Gradient != nil {
		p.InitialGradient = gradients.GetOrCreate(cfg.Colors.InitialColor.Gradient)
	}
	if cfg.Colors.ColorOverLifetime != nil {
		p.ColorRamp = gradients.GetOrCreate(cfg.Colors.ColorOverLifetime)
	}

	if cfg.Turbulence.Enabled {
		p.Turbulence = TurbulenceParams{
			Enabled:          true,
			NoiseStrength:    cfg.Turbulence.NoiseStrength,
			NoiseScale:       cfg.Turbulence.NoiseScale,
			NoiseSpeed:       cfg.Turbulence.NoiseSpeed,
			NoiseSpeedRandom: cfg.Turbulence.NoiseSpeedRandom,
			InfluenceMin:     cfg.Turbulence.Influence.Min,
			InfluenceMax:     cfg.Turbulence.Influence.Max,
			InfluenceCurve:   curveParams(cfg.Turbulence.InfluenceOverLifetime, curves),
		}
	}

	p.Collision = CollisionParams{
		Mode:     cfg.Collision.Mode,
		BaseSize: cfg.Collision.BaseSize,
		UseScale: cfg.Collision.UseScale,
		Friction: cfg.Collision.Friction,
		Bounce:   cfg.Collision.Bounce,
	}

	if cfg.SubEmitter != nil && cfg.SubEmitter.Mode != SubEmitterDisabled {
		interval := float32(0)
		if cfg.SubEmitter.Frequency > 0 {
			interval = 1 / cfg.SubEmitter.Frequency
		}
		p.SubEmitter = SubEmitterParams{
			Mode:         cfg.SubEmitter.Mode,
			Interval:     interval,
			Amount:       cfg.SubEmitter.Amount,
			KeepVelocity: cfg.SubEmitter.KeepVelocity,
		}
	}

	return p
}

// buildColliderParams converts enabled collider configs into snapshot
// space, capped at MaxColliders.
func buildColliderParams(colliders []ColliderConfig, log Logger) []ColliderParams {
	out := make([]ColliderParams, 0, len(colliders))
	for _, c := range colliders {
		if !c.Enabled {
			continue
		}
		if len(out) >= MaxColliders {
			log.Warnf("collider limit reached, dropping %q and later colliders", c.Name)
			break
		}
		transform := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z())
		extents := mgl32.Vec3{c.Radius, 0, 0}
		if c.Kind == ColliderBox {
			extents = c.Size.Mul(0.5)
		}
		out = append(out, ColliderParams{
			Kind:             c.Kind,
			Transform:        transform,
			InverseTransform: transform.Inv(),
			Extents:          extents,
		})
	}
	return out
}
