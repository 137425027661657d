package color

import (
	col "image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	assert.Equal(t, col.RGBA{R: 255, A: 255}, ParseColor("red"))
	assert.Equal(t, col.RGBA{R: 0, G: 0, B: 255, A: 102}, ParseColor("rgba(0, 0, 255, 0.4)"))
	assert.Equal(t, col.RGBA{A: 255}, ParseColor("not a colour"))
}

func TestParseReportsErrors(t *testing.T) {
	_, err := Parse("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestOpacityHelpers(t *testing.T) {
	c := col.RGBA{R: 200, G: 100, B: 50, A: 255}
	assert.True(t, IsOpaque(c))
	half := WithOpacity(c, 0.5)
	assert.Equal(t, uint8(128), half.A)
	assert.False(t, IsOpaque(half))
	assert.Equal(t, col.RGBA{R: 100, G: 50, B: 25, A: 128}, Premultiplied(half))
}
