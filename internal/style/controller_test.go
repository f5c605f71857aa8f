package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() *Controller {
	return NewController(Street(""), Satellite(""), nil)
}

func TestSatelliteDefinition(t *testing.T) {
	def := Satellite("https://tiles.example.com/{z}/{x}/{y}.png")

	require.Len(t, def.Sources, 1)
	require.Len(t, def.Layers, 1)
	src := def.Sources[def.Layers[0].Source]
	assert.Equal(t, "raster", src.Type)
	assert.Equal(t, []string{"https://tiles.example.com/{z}/{x}/{y}.png"}, src.Tiles)
	assert.Equal(t, "raster", def.Layers[0].Type)
}

func TestToggle(t *testing.T) {
	c := newTestController()
	assert.Equal(t, KindStreet, c.Active().Kind)

	assert.Equal(t, KindSatellite, c.Toggle().Kind)
	assert.True(t, c.IsSatellite())

	assert.Equal(t, KindStreet, c.Toggle().Kind)
	assert.False(t, c.Notice())
}

func TestHandleError_FallsBackToSatellite(t *testing.T) {
	c := newTestController()

	def, switched := c.HandleError("Failed to load style: 404")
	assert.True(t, switched)
	assert.Equal(t, KindSatellite, def.Kind)
	assert.True(t, c.Notice())
}

func TestHandleError_NoticeIsStickyUntilManualReturn(t *testing.T) {
	c := newTestController()
	c.HandleError("could not evaluate expression")

	_, switched := c.HandleError("style is not done loading")
	assert.False(t, switched, "already on satellite")
	assert.True(t, c.Notice())

	c.Toggle()
	assert.False(t, c.IsSatellite())
	assert.False(t, c.Notice())
}

func TestHandleError_IgnoresOtherErrors(t *testing.T) {
	c := newTestController()

	def, switched := c.HandleError("WebGL context lost")
	assert.False(t, switched)
	assert.Equal(t, KindStreet, def.Kind)
	assert.False(t, c.Notice())
}

func TestIsStyleError(t *testing.T) {
	assert.True(t, IsStyleError("Style not loaded"))
	assert.True(t, IsStyleError("LOAD failed"))
	assert.True(t, IsStyleError("Failed to evaluate expression"))
	assert.False(t, IsStyleError("network timeout"))
}
