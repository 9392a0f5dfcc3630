package sprinkles

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
)

// GpuState holds a headless device and queue. The simulation itself runs on
// the CPU; the GPU side mirrors particle buffers and baked textures for a
// renderer that draws them.
type GpuState struct {
	adapter *wgpu.Adapter
	device  *wgpu.Device
	queue   *wgpu.Queue
}

// NewHeadlessGpu acquires a device without a surface (discrete GPU
// preferred).
func NewHeadlessGpu() (*GpuState, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, err
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Particle Device",
	})
	if err != nil {
		return nil, err
	}
	return &GpuState{
		adapter: adapter,
		device:  device,
		queue:   device.GetQueue(),
	}, nil
}

func (g *GpuState) Release() {
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
		g.adapter = nil
	}
}

type gpuBufferSet struct {
	particles *wgpu.Buffer
	indices   *wgpu.Buffer
	sorted    *wgpu.Buffer
}

func (s *gpuBufferSet) release() {
	for _, b := range []*wgpu.Buffer{s.particles, s.indices, s.sorted} {
		if b != nil {
			b.Release()
		}
	}
	s.particles, s.indices, s.sorted = nil, nil, nil
}

// createParticleBuffers allocates the storage trio for one emitter. All
// three are created together; a failure releases whatever was already
// allocated so nothing leaks on the error path.
func (g *GpuState) createParticleBuffers(capacity uint32) (*gpuBufferSet, error) {
	set := &gpuBufferSet{}
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst

	var err error
	set.particles, err = g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle Buffer",
		Contents: make([]byte, int(capacity)*particleStride),
		Usage:    usage,
	})
	if err != nil {
		return nil, err
	}

	identity := make([]uint32, capacity)
	for i := range identity {
		identity[i] = uint32(i)
	}
	set.indices, err = g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle Index Buffer",
		Contents: wgpu.ToBytes(identity),
		Usage:    usage,
	})
	if err != nil {
		set.release()
		return nil, err
	}

	set.sorted, err = g.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Sorted Particle Buffer",
		Contents: make([]byte, int(capacity)*particleStride),
		Usage:    usage,
	})
	if err != nil {
		set.release()
		return nil, err
	}
	return set, nil
}

func (g *GpuState) uploadParticleBuffers(set *EmitterBufferSet) error {
	if err := g.queue.WriteBuffer(set.gpu.particles, 0, encodeParticles(set.Particles)); err != nil {
		return err
	}
	if err := g.queue.WriteBuffer(set.gpu.indices, 0, wgpu.ToBytes(set.Indices)); err != nil {
		return err
	}
	return g.queue.WriteBuffer(set.gpu.sorted, 0, encodeParticles(set.Sorted))
}

// encodeParticles packs particles into the five-vec4 layout the renderer
// reads: position+scale, velocity+lifetime, color, custom, alignment.
func encodeParticles(particles []Particle) []byte {
	buf := make([]byte, len(particles)*particleStride)
	off := 0
	putF := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], floatBits(v))
		off += 4
	}
	for i := range particles {
		p := &particles[i]
		putF(p.Position.X())
		putF(p.Position.Y())
		putF(p.Position.Z())
		putF(p.Scale)
		putF(p.Velocity.X())
		putF(p.Velocity.Y())
		putF(p.Velocity.Z())
		putF(p.Lifetime)
		putF(p.Color[0])
		putF(p.Color[1])
		putF(p.Color[2])
		putF(p.Color[3])
		putF(p.Age)
		putF(p.Phase)
		putF(p.Seed)
		putF(bitsToFloat(p.Flags))
		putF(p.AlignDir.X())
		putF(p.AlignDir.Y())
		putF(p.AlignDir.Z())
		putF(0)
	}
	return buf
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// EnsureGpu uploads the baked pixels once and returns the texture view.
func (t *BakedTexture) EnsureGpu(g *GpuState) (*wgpu.TextureView, error) {
	if t.gpu != nil {
		return t.gpu.view, nil
	}
	extent := wgpu.Extent3D{
		Width:              t.Width,
		Height:             1,
		DepthOrArrayLayers: 1,
	}
	texture, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Baked Ramp Texture",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, err
	}

	err = g.queue.WriteTexture(
		texture.AsImageCopy(),
		t.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.Width * 4,
			RowsPerImage: 1,
		},
		&extent,
	)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, err
	}

	t.gpu = &gpuTexture{texture: texture, view: view}
	return view, nil
}
