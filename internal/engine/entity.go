package engine

import (
	"context"

	"mini-scene/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// Entity is a participant of the scene. Entities are compared by identity,
// so implementations should be pointer types.
type Entity interface {
	// Init loads the entity's resources. It runs once before the entity is
	// first rendered; calling it again issues the loads again.
	Init(ctx context.Context, resources *resource.Manager) error
	Update(dt float64)
	Render(b RenderBackend)
	MakeMatrix() mgl32.Mat4
}

// Disposer is implemented by entities holding resource handles.
type Disposer interface {
	Dispose()
}

// Base provides a Transform and no-op hooks. Embed it and override what
// the entity needs.
type Base struct {
	Transform
}

func (b *Base) Init(context.Context, *resource.Manager) error { return nil }

func (b *Base) Update(float64) {}

func (b *Base) Render(RenderBackend) {}

func dispose(e Entity) {
	if d, ok := e.(Disposer); ok {
		d.Dispose()
	}
}
