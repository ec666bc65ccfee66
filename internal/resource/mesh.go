package resource

import "mini-scene/pkg/objloader"

// Material values applied to sub-meshes whose material is unresolved.
var (
	DefaultAmbient  = [3]float32{1, 1, 1}
	DefaultDiffuse  = [3]float32{0.3, 0.6, 0.9}
	DefaultSpecular = [4]float32{1, 1, 1, 1}
)

type RenderableMaterial struct {
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [4]float32
	Opacity  float32

	// Nil when the material has no such map.
	DiffuseMap *TextureHandle
	NormalMap  *TextureHandle
}

func defaultMaterial() RenderableMaterial {
	return RenderableMaterial{
		Ambient:  DefaultAmbient,
		Diffuse:  DefaultDiffuse,
		Specular: DefaultSpecular,
		Opacity:  1,
	}
}

// RenderableMesh is one uploaded sub-mesh of a model. It is shared by every
// holder of a handle to the same model and must not be modified.
type RenderableMesh struct {
	Buffer      Buffer // 0 for a mesh without vertices
	VertexCount int32
	Box         objloader.BoundingBox
	Material    RenderableMaterial
}
