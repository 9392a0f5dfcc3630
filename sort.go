package sprinkles

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// SortParticles rebuilds the index table for the requested draw order and
// gathers particles into the sorted output buffer. Inactive slots always
// land after every active one, and equal keys fall back to slot index so
// the result is stable frame to frame.
func SortParticles(set *EmitterBufferSet, order DrawOrder, cameraPos mgl32.Vec3) {
	src := set.Particles
	idx := set.Indices

	for i := range idx {
		idx[i] = uint32(i)
	}

	if order != DrawOrderIndex {
		keys := make([]float32, len(src))
		for i := range src {
			keys[i] = sortKey(&src[i], order, cameraPos)
		}
		sort.Slice(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			ka, kb := keys[ia], keys[ib]
			if ka != kb {
				return ka < kb
			}
			return ia < ib
		})
	}

	for k, i := range idx {
		set.Sorted[k] = src[i]
	}
}

const inactiveKey = float32(3.4e38)

func sortKey(p *Particle, order DrawOrder, cameraPos mgl32.Vec3) float32 {
	if !p.Active() {
		return inactiveKey
	}
	switch order {
	case DrawOrderLifetime:
		return p.Lifetime - p.Age
	case DrawOrderReverseLifetime:
		return -(p.Lifetime - p.Age)
	case DrawOrderViewDepth:
		// Farthest first for back-to-front blending.
		return -p.Position.Sub(cameraPos).Len()
	default:
		return 0
	}
}
