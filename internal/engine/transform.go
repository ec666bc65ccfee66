package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position plus an Euler rotation in degrees. Game code
// mutates it in place every frame.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // degrees about X, Y, Z
}

// MakeMatrix returns translate * rotateX * rotateY * rotateZ. Degrees are
// converted at call time; every call returns a fresh matrix.
func (t *Transform) MakeMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.Rotation[0]))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(t.Rotation[1]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(t.Rotation[2])))
}

func (t *Transform) Translate(x, y, z float32) {
	t.Position = t.Position.Add(mgl32.Vec3{x, y, z})
}

// Rotate adds degrees to each axis.
func (t *Transform) Rotate(x, y, z float32) {
	t.Rotation = t.Rotation.Add(mgl32.Vec3{x, y, z})
}

func (t *Transform) RotateX(deg float32) { t.Rotation[0] += deg }
func (t *Transform) RotateY(deg float32) { t.Rotation[1] += deg }
func (t *Transform) RotateZ(deg float32) { t.Rotation[2] += deg }

func (t *Transform) String() string {
	return fmt.Sprintf("pos(%g, %g, %g) rot(%g, %g, %g)",
		t.Position[0], t.Position[1], t.Position[2],
		t.Rotation[0], t.Rotation[1], t.Rotation[2])
}
