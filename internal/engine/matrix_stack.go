package engine

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// MatrixMode selects how MatrixStack undoes a push.
type MatrixMode int

const (
	// SnapshotMode saves the accumulator before each push and restores it
	// on pop.
	SnapshotMode MatrixMode = iota
	// InverseMode multiplies the accumulator by the inverse of the matrix
	// captured at push time. It drifts under floating point error and only
	// exists to reproduce the values of renderers that pop this way.
	InverseMode
)

func (m MatrixMode) String() string {
	switch m {
	case SnapshotMode:
		return "snapshot"
	case InverseMode:
		return "inverse"
	}
	return fmt.Sprintf("MatrixMode(%d)", int(m))
}

// ParseMatrixMode accepts the names returned by MatrixMode.String.
func ParseMatrixMode(s string) (MatrixMode, error) {
	switch strings.ToLower(s) {
	case "", "snapshot":
		return SnapshotMode, nil
	case "inverse":
		return InverseMode, nil
	}
	return 0, errors.Errorf("unknown matrix mode %q", s)
}

// MatrixStack is the running product of pushed local matrices.
type MatrixStack struct {
	mode  MatrixMode
	top   mgl32.Mat4
	saved []mgl32.Mat4
}

func NewMatrixStack(mode MatrixMode) *MatrixStack {
	return &MatrixStack{mode: mode, top: mgl32.Ident4()}
}

// Push sets the accumulator to accumulator * m.
func (s *MatrixStack) Push(m mgl32.Mat4) {
	switch s.mode {
	case InverseMode:
		// Mat4 is an array, so this stores a copy of m as it is now.
		s.saved = append(s.saved, m)
	default:
		s.saved = append(s.saved, s.top)
	}
	s.top = s.top.Mul4(m)
}

// Pop undoes the most recent Push. Popping an empty stack is a bug in the
// caller and panics.
func (s *MatrixStack) Pop() {
	n := len(s.saved)
	if n == 0 {
		panic("engine: matrix stack underflow")
	}
	last := s.saved[n-1]
	s.saved = s.saved[:n-1]
	switch s.mode {
	case InverseMode:
		s.top = s.top.Mul4(last.Inv())
	default:
		s.top = last
	}
}

func (s *MatrixStack) Depth() int { return len(s.saved) }

func (s *MatrixStack) Top() mgl32.Mat4 { return s.top }

func (s *MatrixStack) Reset() {
	s.saved = s.saved[:0]
	s.top = mgl32.Ident4()
}
