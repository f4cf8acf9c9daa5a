package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Grid is a uniform Dim^3 bucket grid over a cubic volume, clipped to the
// concentric boundary sphere. Only buckets whose AABB intersects the
// sphere are active; they get dense indices 0..M-1 at construction.
//
// Rebuild is an allocation-free bucket sort: count per bucket, prefix-sum
// the starts, then a second pass writes cell indices. Because the write
// pass walks cells in index order, every bucket slice comes out sorted by
// cell index, which the determinism contract requires.
type Grid struct {
	Dim          int
	CellSize     float32
	WorldSize    float32
	SphereRadius float32

	active      []int32 // flat coord -> dense bucket index, -1 inactive
	BucketCount int     // M

	counts  []int32 // per dense bucket
	starts  []int32 // per dense bucket; insertion cursors during pass 2
	entries []int32 // flat contiguous cell indices
	used    int     // entries written by the last rebuild
	touched []int32 // dense buckets dirtied by the last rebuild

	// Per-cell placement from the last rebuild
	cellBucket []int32 // dense bucket index or -1 (outside active set)
	cellCoord  []int32 // packed x,y,z triples, 3 per cell
}

// NewGrid enumerates the active bucket set once and sizes every buffer
// for the cell capacity.
func NewGrid(worldSize float32, dim int, sphereRadius float32, capacity int) *Grid {
	g := &Grid{
		Dim:          dim,
		CellSize:     worldSize / float32(dim),
		WorldSize:    worldSize,
		SphereRadius: sphereRadius,
		active:       make([]int32, dim*dim*dim),
		cellBucket:   make([]int32, capacity),
		cellCoord:    make([]int32, capacity*3),
	}

	half := worldSize / 2
	rSq := sphereRadius * sphereRadius
	dense := int32(0)
	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				lo := mgl32.Vec3{
					float32(x)*g.CellSize - half,
					float32(y)*g.CellSize - half,
					float32(z)*g.CellSize - half,
				}
				hi := lo.Add(mgl32.Vec3{g.CellSize, g.CellSize, g.CellSize})
				idx := (z*dim+y)*dim + x
				if aabbSphereIntersects(lo, hi, rSq) {
					g.active[idx] = dense
					dense++
				} else {
					g.active[idx] = -1
				}
			}
		}
	}

	g.BucketCount = int(dense)
	g.counts = make([]int32, g.BucketCount)
	g.starts = make([]int32, g.BucketCount)
	g.entries = make([]int32, capacity)
	g.touched = make([]int32, 0, g.BucketCount)
	return g
}

// aabbSphereIntersects tests a box against the origin-centered sphere via
// the closest point on the box.
func aabbSphereIntersects(lo, hi mgl32.Vec3, rSq float32) bool {
	var dSq float32
	for i := 0; i < 3; i++ {
		if lo[i] > 0 {
			dSq += lo[i] * lo[i]
		} else if hi[i] < 0 {
			dSq += hi[i] * hi[i]
		}
	}
	return dSq <= rSq
}

// Rebuild re-sorts the first count cells of pos into buckets. Only the
// buckets touched by the previous rebuild are cleared, not all M.
func (g *Grid) Rebuild(pos []mgl32.Vec3, count int) {
	for _, b := range g.touched {
		g.counts[b] = 0
	}
	g.touched = g.touched[:0]

	// Pass 1: place and count
	for i := 0; i < count; i++ {
		x, y, z := g.coordOf(pos[i])
		g.cellCoord[i*3] = x
		g.cellCoord[i*3+1] = y
		g.cellCoord[i*3+2] = z

		dense := g.active[(z*int32(g.Dim)+y)*int32(g.Dim)+x]
		g.cellBucket[i] = dense
		if dense < 0 {
			continue // outside the sphere-clipped set: no collisions
		}
		if g.counts[dense] == 0 {
			g.touched = append(g.touched, dense)
		}
		g.counts[dense]++
	}

	// Prefix-sum bucket starts over the touched set
	offset := int32(0)
	for _, b := range g.touched {
		g.starts[b] = offset
		offset += g.counts[b]
	}
	g.used = int(offset)

	// Pass 2: write cell indices; starts double as insertion cursors and
	// are restored afterwards
	for i := 0; i < count; i++ {
		b := g.cellBucket[i]
		if b < 0 {
			continue
		}
		g.entries[g.starts[b]] = int32(i)
		g.starts[b]++
	}
	for _, b := range g.touched {
		g.starts[b] -= g.counts[b]
	}
}

// coordOf maps a world position to clamped grid coordinates.
func (g *Grid) coordOf(p mgl32.Vec3) (int32, int32, int32) {
	half := g.WorldSize / 2
	clampc := func(v float32) int32 {
		c := int32((v + half) / g.CellSize)
		if c < 0 {
			return 0
		}
		if c >= int32(g.Dim) {
			return int32(g.Dim) - 1
		}
		return c
	}
	return clampc(p[0]), clampc(p[1]), clampc(p[2])
}

// BucketAt returns the dense bucket index for grid coordinates, or -1 for
// out-of-range or inactive coordinates.
func (g *Grid) BucketAt(x, y, z int32) int32 {
	d := int32(g.Dim)
	if x < 0 || x >= d || y < 0 || y >= d || z < 0 || z >= d {
		return -1
	}
	return g.active[(z*d+y)*d+x]
}

// Entries returns the bucket's cell indices from the last rebuild, sorted
// ascending. The slice aliases internal storage; do not retain it.
func (g *Grid) Entries(dense int32) []int32 {
	if dense < 0 {
		return nil
	}
	start := g.starts[dense]
	return g.entries[start : start+g.counts[dense]]
}

// CellBucket returns cell i's dense bucket from the last rebuild, -1 if
// the cell sits outside the active set.
func (g *Grid) CellBucket(i int) int32 {
	return g.cellBucket[i]
}

// CellCoord returns cell i's grid coordinates from the last rebuild.
func (g *Grid) CellCoord(i int) (int32, int32, int32) {
	return g.cellCoord[i*3], g.cellCoord[i*3+1], g.cellCoord[i*3+2]
}

// forwardStencil is the 13-neighbor half stencil: offsets strictly ahead
// in (z, y, x) lexicographic order, so every bucket pair is enumerated
// exactly once.
var forwardStencil = [13][3]int32{
	{1, 0, 0},
	{-1, 1, 0}, {0, 1, 0}, {1, 1, 0},
	{-1, -1, 1}, {0, -1, 1}, {1, -1, 1},
	{-1, 0, 1}, {0, 0, 1}, {1, 0, 1},
	{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
}
