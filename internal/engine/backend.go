package engine

import (
	"mini-scene/internal/resource"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderBackend is the shader program the scene draws through.
type RenderBackend interface {
	Activate()
	Clear()

	SetViewMatrix(view mgl32.Mat4)
	SetProjection(projection mgl32.Mat4)

	// PushMatrix multiplies the accumulator by m; PopMatrix undoes the
	// most recent push. MatrixDepth is the number of unmatched pushes.
	PushMatrix(m mgl32.Mat4)
	PopMatrix()
	MatrixDepth() int

	// SetModelMatrix uploads projection * view * accumulator * model.
	SetModelMatrix(model mgl32.Mat4)

	SetVertices(buf resource.Buffer)
	SetTextureCoords(buf resource.Buffer)
	SetTexture0(tex resource.Texture)
	DrawArray(offset, count int32)
}

// Transforms holds the matrix state of a backend. Backends embed it to
// get the view, projection and accumulator half of RenderBackend.
type Transforms struct {
	stack          *MatrixStack
	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
}

func NewTransforms(mode MatrixMode) *Transforms {
	return &Transforms{
		stack:          NewMatrixStack(mode),
		view:           mgl32.Ident4(),
		projection:     mgl32.Ident4(),
		viewProjection: mgl32.Ident4(),
	}
}

func (t *Transforms) SetViewMatrix(view mgl32.Mat4) {
	t.view = view
	t.viewProjection = t.projection.Mul4(t.view)
}

func (t *Transforms) SetProjection(projection mgl32.Mat4) {
	t.projection = projection
	t.viewProjection = t.projection.Mul4(t.view)
}

func (t *Transforms) PushMatrix(m mgl32.Mat4) { t.stack.Push(m) }

func (t *Transforms) PopMatrix() { t.stack.Pop() }

func (t *Transforms) MatrixDepth() int { return t.stack.Depth() }

// Accumulator returns the product of the currently pushed matrices.
func (t *Transforms) Accumulator() mgl32.Mat4 { return t.stack.Top() }

func (t *Transforms) ModelViewProjection(model mgl32.Mat4) mgl32.Mat4 {
	return t.viewProjection.Mul4(t.stack.Top()).Mul4(model)
}
