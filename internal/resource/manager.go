package resource

import (
	"context"
	"log/slog"

	"mini-scene/internal/profiling"
	"mini-scene/pkg/objloader"

	"github.com/pkg/errors"
)

// Manager caches GPU mesh buffers and textures by source path.
//
// Every load returns a handle and takes one reference on the cache entry;
// Release gives it back. An entry whose count drops to zero is queued and
// its GPU objects are destroyed by the next Collect, or right away when
// the same path is loaded again before that.
//
// A Manager must only be used from the render thread.
type Manager struct {
	gpu    GPU
	meshes MeshSource
	images ImageSource
	logger *slog.Logger

	models   map[string]*modelEntry
	textures map[string]*textureEntry

	doomedModels   []*modelEntry
	doomedTextures []*textureEntry
}

type modelEntry struct {
	path     string
	meshes   []*RenderableMesh
	buffers  []Buffer
	textures []*TextureHandle
	refs     int

	destroyed bool
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(gpu GPU, meshes MeshSource, images ImageSource, opts ...Option) *Manager {
	m := &Manager{
		gpu:      gpu,
		meshes:   meshes,
		images:   images,
		logger:   slog.Default(),
		models:   make(map[string]*modelEntry),
		textures: make(map[string]*textureEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ModelHandle is one reference to a cached model.
type ModelHandle struct {
	manager  *Manager
	entry    *modelEntry
	released bool
}

// Meshes returns the shared payload. Handles to the same live entry return
// the same slice. It returns nil once the handle is released.
func (h *ModelHandle) Meshes() []*RenderableMesh {
	if h.released {
		return nil
	}
	return h.entry.meshes
}

func (h *ModelHandle) Path() string { return h.entry.path }

// Release drops the handle's reference. Further calls do nothing.
func (h *ModelHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.manager.releaseModel(h.entry)
}

// LoadModel returns the meshes for path, loading and uploading them only
// when no live handle to the path exists.
func (m *Manager) LoadModel(ctx context.Context, path string) (*ModelHandle, error) {
	defer profiling.Track("resource.LoadModel")()

	if e, ok := m.models[path]; ok {
		if e.refs > 0 {
			e.refs++
			m.logger.Debug("model cache hit", "path", path, "refs", e.refs)
			return &ModelHandle{manager: m, entry: e}, nil
		}
		// Nobody holds the old payload; its buffers go before new ones
		// are allocated.
		m.destroyModel(e)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "load model %q", path)
	}

	meshes, err := m.meshes.LoadObject(path)
	if err != nil {
		return nil, loadFailure(path, err)
	}

	e, err := m.buildModel(path, meshes)
	if err != nil {
		return nil, err
	}
	e.refs = 1
	m.models[path] = e
	m.logger.Debug("model loaded", "path", path, "meshes", len(e.meshes))
	return &ModelHandle{manager: m, entry: e}, nil
}

// buildModel uploads every sub-mesh. On failure everything allocated so
// far is given back and the model is not cached.
func (m *Manager) buildModel(path string, meshes []objloader.Mesh) (*modelEntry, error) {
	e := &modelEntry{path: path}
	for i := range meshes {
		mesh := &meshes[i]
		rm := &RenderableMesh{
			VertexCount: int32(mesh.VertexCount()),
			Box:         mesh.Box,
			Material:    defaultMaterial(),
		}

		if mat := mesh.Material; mat != nil {
			rm.Material.Ambient = mat.Ambient
			rm.Material.Diffuse = mat.Diffuse
			rm.Material.Specular = mat.Specular
			rm.Material.Opacity = mat.Opacity

			if mat.DiffuseMap != "" {
				h, err := m.LoadTexture(mat.DiffuseMap)
				if err != nil {
					m.rollback(e)
					return nil, errors.Wrapf(err, "model %q mesh %d diffuse map", path, i)
				}
				rm.Material.DiffuseMap = h
				e.textures = append(e.textures, h)
			}
			if mat.NormalMap != "" {
				h, err := m.LoadTexture(mat.NormalMap)
				if err != nil {
					m.rollback(e)
					return nil, errors.Wrapf(err, "model %q mesh %d normal map", path, i)
				}
				rm.Material.NormalMap = h
				e.textures = append(e.textures, h)
			}
		}

		if len(mesh.Buffer) > 0 {
			buf, err := m.gpu.CreateVertexBuffer(mesh.Buffer)
			if err != nil {
				m.rollback(e)
				return nil, gpuFailure(err, "vertex buffer for model %q mesh %d", path, i)
			}
			rm.Buffer = buf
			e.buffers = append(e.buffers, buf)
		}
		e.meshes = append(e.meshes, rm)
	}
	return e, nil
}

func (m *Manager) rollback(e *modelEntry) {
	m.logger.Debug("model load rolled back", "path", e.path, "buffers", len(e.buffers))
	for _, b := range e.buffers {
		m.gpu.DeleteBuffer(b)
	}
	for _, h := range e.textures {
		h.Release()
	}
	e.buffers, e.textures, e.meshes = nil, nil, nil
	e.destroyed = true
}

func (m *Manager) releaseModel(e *modelEntry) {
	e.refs--
	if e.refs == 0 && !e.destroyed {
		m.doomedModels = append(m.doomedModels, e)
	}
}

func (m *Manager) destroyModel(e *modelEntry) {
	if e.destroyed {
		return
	}
	e.destroyed = true
	m.logger.Debug("model destroyed", "path", e.path, "buffers", len(e.buffers))
	for _, b := range e.buffers {
		m.gpu.DeleteBuffer(b)
	}
	for _, h := range e.textures {
		h.Release()
	}
	if m.models[e.path] == e {
		delete(m.models, e.path)
	}
	m.doomedModels = removeEntry(m.doomedModels, e)
}

// Collect destroys every entry whose last handle was released since the
// previous call and returns how many GPU-backed entries went away.
func (m *Manager) Collect() int {
	n := 0
	models := m.doomedModels
	m.doomedModels = nil
	for _, e := range models {
		if e.refs == 0 && !e.destroyed {
			m.destroyModel(e)
			n++
		}
	}
	// Model destruction may have released the last texture references.
	textures := m.doomedTextures
	m.doomedTextures = nil
	for _, t := range textures {
		if t.refs == 0 && !t.destroyed {
			m.destroyTexture(t)
			n++
		}
	}
	return n
}

// Close destroys every cached GPU object, referenced or not. Handles must
// not be used afterwards.
func (m *Manager) Close() {
	for _, e := range m.models {
		m.destroyModel(e)
	}
	for _, t := range m.textures {
		m.destroyTexture(t)
	}
	m.doomedModels, m.doomedTextures = nil, nil
}

type Stats struct {
	Models          int
	PendingModels   int
	Textures        int
	PendingTextures int
}

func (m *Manager) Stats() Stats {
	var s Stats
	for _, e := range m.models {
		if e.refs > 0 {
			s.Models++
		} else {
			s.PendingModels++
		}
	}
	for _, t := range m.textures {
		if t.refs > 0 {
			s.Textures++
		} else {
			s.PendingTextures++
		}
	}
	return s
}

func gpuFailure(err error, format string, args ...any) error {
	if errors.Is(err, ErrGPUAllocation) {
		return errors.Wrapf(err, format, args...)
	}
	return errors.Wrapf(&allocationError{err: err}, format, args...)
}

func removeEntry[T comparable](list []T, e T) []T {
	for i, x := range list {
		if x == e {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
