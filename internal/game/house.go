package game

import "mini-scene/internal/engine"

// House is a composite holding one model. Its own Y rotation advances by
// Spin every update, after any X rotation set on it.
type House struct {
	*engine.CompositeModel

	// Spin is in degrees per second.
	Spin float32
}

func NewHouse(source string, spin float32) *House {
	return &House{
		CompositeModel: engine.NewCompositeModel(engine.NewModel(source)),
		Spin:           spin,
	}
}

func (h *House) Update(dt float64) {
	h.CompositeModel.Update(dt)
	h.RotateY(h.Spin * float32(dt))
}
