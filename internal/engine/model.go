package engine

import (
	"context"

	"mini-scene/internal/resource"

	"github.com/pkg/errors"
)

// Model draws the sub-meshes of one mesh source.
type Model struct {
	Base
	Source string

	handle *resource.ModelHandle
}

func NewModel(source string) *Model {
	return &Model{Source: source}
}

// Init loads Source. Re-initialising acquires a fresh handle before
// releasing the old one, so a live payload is reused instead of rebuilt.
func (m *Model) Init(ctx context.Context, resources *resource.Manager) error {
	h, err := resources.LoadModel(ctx, m.Source)
	if err != nil {
		return errors.Wrapf(err, "init model %s", m.Source)
	}
	if m.handle != nil {
		m.handle.Release()
	}
	m.handle = h
	return nil
}

// Meshes is nil until Init succeeds.
func (m *Model) Meshes() []*resource.RenderableMesh {
	if m.handle == nil {
		return nil
	}
	return m.handle.Meshes()
}

func (m *Model) Render(b RenderBackend) {
	meshes := m.Meshes()
	if len(meshes) == 0 {
		return
	}
	b.SetModelMatrix(m.MakeMatrix())
	for _, mesh := range meshes {
		if mesh.Buffer == 0 {
			continue
		}
		b.SetVertices(mesh.Buffer)
		b.SetTextureCoords(mesh.Buffer)
		if mesh.Material.DiffuseMap != nil {
			b.SetTexture0(mesh.Material.DiffuseMap.Texture())
		}
		b.DrawArray(0, mesh.VertexCount)
	}
}

func (m *Model) Dispose() {
	if m.handle != nil {
		m.handle.Release()
		m.handle = nil
	}
}
