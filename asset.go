package sprinkles

import "github.com/go-gl/mathgl/mgl32"

// Range is an inclusive min..max span sampled per particle.
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

type DrawOrder int

const (
	DrawOrderIndex DrawOrder = iota
	DrawOrderLifetime
	DrawOrderReverseLifetime
	DrawOrderViewDepth
)

type TransformAlign int

const (
	AlignNone TransformAlign = iota
	AlignRotateY
	AlignDisableZ
)

type EmissionShapeKind int

const (
	EmissionPoint EmissionShapeKind = iota
	EmissionSphere
	EmissionSphereSurface
	EmissionBox
	EmissionRing
)

type EmissionShape struct {
	Kind        EmissionShapeKind `yaml:"kind"`
	Radius      float32           `yaml:"radius"`
	InnerRadius float32           `yaml:"inner_radius"`
	Extents     mgl32.Vec3        `yaml:"extents"`
	Axis        mgl32.Vec3        `yaml:"axis"`
	Height      float32           `yaml:"height"`
}

// EmitterTime controls the emitter's cycle clock.
type EmitterTime struct {
	Lifetime            float32 `yaml:"lifetime"`
	LifetimeRandomness  float32 `yaml:"lifetime_randomness"`
	Delay               float32 `yaml:"delay"`
	OneShot             bool    `yaml:"one_shot"`
	Explosiveness       float32 `yaml:"explosiveness"`
	SpawnTimeRandomness float32 `yaml:"spawn_time_randomness"`
	FixedFPS            uint32  `yaml:"fixed_fps"`
	FixedSeed           *uint32 `yaml:"fixed_seed"`
}

// TotalDuration is one full cycle: the delay followed by the particle
// lifetime window.
func (t EmitterTime) TotalDuration() float32 {
	return t.Delay + t.Lifetime
}

type EmitterEmission struct {
	Offset          mgl32.Vec3    `yaml:"offset"`
	Scale           mgl32.Vec3    `yaml:"scale"`
	Shape           EmissionShape `yaml:"shape"`
	ParticlesAmount uint32        `yaml:"particles_amount"`
}

type EmitterScale struct {
	Range        Range         `yaml:"range"`
	OverLifetime *CurveTexture `yaml:"over_lifetime"`
}

// ColorSource is either a solid color or a gradient sampled per particle at
// spawn time.
type ColorSource struct {
	Solid    [4]float32 `yaml:"solid"`
	Gradient *Gradient  `yaml:"gradient"`
}

type EmitterColors struct {
	InitialColor         ColorSource   `yaml:"initial_color"`
	ColorOverLifetime    *Gradient     `yaml:"color_over_lifetime"`
	AlphaOverLifetime    *CurveTexture `yaml:"alpha_over_lifetime"`
	EmissionOverLifetime *CurveTexture `yaml:"emission_over_lifetime"`
}

// AnimatedVelocity is a per-particle magnitude range modulated by an
// optional lifetime curve.
type AnimatedVelocity struct {
	Velocity     Range         `yaml:"velocity"`
	OverLifetime *CurveTexture `yaml:"over_lifetime"`
}

type EmitterVelocities struct {
	InitialDirection mgl32.Vec3       `yaml:"initial_direction"`
	Spread           float32          `yaml:"spread"`
	Flatness         float32          `yaml:"flatness"`
	InitialVelocity  Range            `yaml:"initial_velocity"`
	RadialVelocity   AnimatedVelocity `yaml:"radial_velocity"`
	Pivot            mgl32.Vec3       `yaml:"pivot"`
	InheritRatio     float32          `yaml:"inherit_ratio"`
}

type EmitterAccelerations struct {
	Gravity mgl32.Vec3 `yaml:"gravity"`
}

type EmitterTurbulence struct {
	Enabled               bool          `yaml:"enabled"`
	NoiseStrength         float32       `yaml:"noise_strength"`
	NoiseScale            float32       `yaml:"noise_scale"`
	NoiseSpeed            mgl32.Vec3    `yaml:"noise_speed"`
	NoiseSpeedRandom      float32       `yaml:"noise_speed_random"`
	Influence             Range         `yaml:"influence"`
	InfluenceOverLifetime *CurveTexture `yaml:"influence_over_lifetime"`
}

type CollisionMode int

const (
	CollisionDisabled CollisionMode = iota
	CollisionRigid
	CollisionHideOnContact
)

type EmitterCollision struct {
	Mode     CollisionMode `yaml:"mode"`
	Friction float32       `yaml:"friction"`
	Bounce   float32       `yaml:"bounce"`
	UseScale bool          `yaml:"use_scale"`
	BaseSize float32       `yaml:"base_size"`
}

type SubEmitterMode int

const (
	SubEmitterDisabled SubEmitterMode = iota
	SubEmitterConstant
	SubEmitterAtEnd
	SubEmitterAtCollision
	SubEmitterAtStart
)

// SubEmitterConfig links a parent emitter to a target emitter in the same
// system by name. The target stops self-emitting and spawns only from the
// parent's spawn requests.
type SubEmitterConfig struct {
	Mode         SubEmitterMode `yaml:"mode"`
	Target       string         `yaml:"target"`
	Frequency    float32        `yaml:"frequency"`
	Amount       uint32         `yaml:"amount"`
	KeepVelocity bool           `yaml:"keep_velocity"`
}

type EmitterConfig struct {
	Name           string               `yaml:"name"`
	Enabled        bool                 `yaml:"enabled"`
	Position       mgl32.Vec3           `yaml:"position"`
	Time           EmitterTime          `yaml:"time"`
	Emission       EmitterEmission      `yaml:"emission"`
	Scale          EmitterScale         `yaml:"scale"`
	Colors         EmitterColors        `yaml:"colors"`
	Velocities     EmitterVelocities    `yaml:"velocities"`
	Accelerations  EmitterAccelerations `yaml:"accelerations"`
	Turbulence     EmitterTurbulence    `yaml:"turbulence"`
	Collision      EmitterCollision     `yaml:"collision"`
	SubEmitter     *SubEmitterConfig    `yaml:"sub_emitter"`
	ParticleFlags  uint32               `yaml:"particle_flags"`
	DrawOrder      DrawOrder            `yaml:"draw_order"`
	TransformAlign TransformAlign       `yaml:"transform_align"`
}

type ColliderShapeKind int

const (
	ColliderSphere ColliderShapeKind = iota
	ColliderBox
)

type ColliderConfig struct {
	Name     string            `yaml:"name"`
	Enabled  bool              `yaml:"enabled"`
	Kind     ColliderShapeKind `yaml:"kind"`
	Radius   float32           `yaml:"radius"`
	Size     mgl32.Vec3        `yaml:"size"`
	Position mgl32.Vec3        `yaml:"position"`
}

// DefaultEmitterConfig mirrors the out-of-the-box emitter: 8 particles, one
// second lifetime, a 45 degree cone along +X, and earth gravity.
func DefaultEmitterConfig(name string) EmitterConfig {
	return EmitterConfig{
		Name:    name,
		Enabled: true,
		Time: EmitterTime{
			Lifetime: 1.0,
		},
		Emission: EmitterEmission{
			Scale:           mgl32.Vec3{1, 1, 1},
			ParticlesAmount: 8,
		},
		Scale: EmitterScale{
			Range: Range{Min: 1, Max: 1},
		},
		Colors: EmitterColors{
			InitialColor: ColorSource{Solid: white},
		},
		Velocities: EmitterVelocities{
			InitialDirection: mgl32.Vec3{1, 0, 0},
			Spread:           45,
		},
		Accelerations: EmitterAccelerations{
			Gravity: mgl32.Vec3{0, -9.8, 0},
		},
		Turbulence: EmitterTurbulence{
			NoiseStrength: 1.0,
			NoiseScale:    2.5,
			Influence:     Range{Min: 0, Max: 0.1},
		},
		Collision: EmitterCollision{
			BaseSize: 0.01,
		},
	}
}

func DefaultSubEmitterConfig() SubEmitterConfig {
	return SubEmitterConfig{
		Frequency: 4.0,
		Amount:    1,
	}
}

// CombinedParticleFlags packs the emitter's transform alignment into the
// per-particle flags word for the renderer.
func (c *EmitterConfig) CombinedParticleFlags() uint32 {
	var align uint32
	switch c.TransformAlign {
	case AlignRotateY:
		align = ParticleFlagRotateY
	case AlignDisableZ:
		align = ParticleFlagDisableZ
	}
	return c.ParticleFlags | align<<particleAlignShift
}
