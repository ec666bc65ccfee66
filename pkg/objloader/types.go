package objloader

import "github.com/chewxy/math32"

// FloatsPerVertex is the interleaved layout of Mesh.Buffer: x, y, z, w, u, v.
const FloatsPerVertex = 6

type Material struct {
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [4]float32 // rgb + shininess
	Opacity  float32

	// Texture paths, already resolved against the material file's directory.
	DiffuseMap string
	NormalMap  string
}

func newMaterial() *Material {
	return &Material{
		Ambient:  [3]float32{1, 1, 1},
		Diffuse:  [3]float32{1, 1, 1},
		Specular: [4]float32{1, 1, 1, 0},
		Opacity:  1,
	}
}

type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

func emptyBox() BoundingBox {
	inf := math32.Inf(1)
	return BoundingBox{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

func (b *BoundingBox) extend(x, y, z float32) {
	p := [3]float32{x, y, z}
	for i := range p {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Empty reports whether no vertex was ever added to the box.
func (b BoundingBox) Empty() bool {
	return b.Min[0] > b.Max[0]
}

// Mesh is one object of a model file, triangulated and ready for upload.
type Mesh struct {
	Name     string
	Buffer   []float32
	Box      BoundingBox
	Material *Material // nil when the object names no known material

	// Normals holds x, y, z per vertex of Buffer: unit length, or zero on
	// degenerate triangles without "vn" normals.
	Normals []float32
	// Smooth is false after "s off" or "s 0".
	Smooth bool
}

// VertexCount returns the number of vertices stored in Buffer.
func (m *Mesh) VertexCount() int {
	return len(m.Buffer) / FloatsPerVertex
}
