package game

import (
	"testing"

	"mini-scene/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseSpins(t *testing.T) {
	h := NewHouse("3d/house.obj", 60)
	h.RotateX(30)

	h.Update(0.5)
	h.Update(0.25)
	assert.InDelta(t, 45, h.Rotation[1], 1e-4)
	assert.Equal(t, float32(30), h.Rotation[0])

	model, ok := h.CompositeModel.Model(engine.Root).(*engine.Model)
	require.True(t, ok)
	assert.Equal(t, "3d/house.obj", model.Source)
	assert.Zero(t, model.Rotation)
}
