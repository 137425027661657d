package resource

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndDelete(t *testing.T) {
	p := NewProvider(64)
	a, err := p.Create(image.Pt(4, 4))
	require.NoError(t, err)
	b, err := p.Create(image.Pt(8, 2))
	require.NoError(t, err)

	assert.NotEqual(t, None, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, p.Len())

	p.Delete(a)
	_, ok := p.Get(a)
	assert.False(t, ok)
	assert.Nil(t, p.Image(a))
	assert.NotNil(t, p.Image(b))
}

func TestCreateRejectsBadSizes(t *testing.T) {
	p := NewProvider(16)
	_, err := p.Create(image.Pt(0, 4))
	assert.Error(t, err)
	_, err = p.Create(image.Pt(32, 4))
	assert.Error(t, err)
}

func TestUploadIsPendingUntilMarked(t *testing.T) {
	p := NewProvider(0)
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})

	id, err := p.CreateFromImage(src)
	require.NoError(t, err)
	assert.True(t, p.HasPendingUploads())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, p.Image(id).RGBAAt(1, 1))

	p.MarkPendingUploadsAsNonBlocking()
	assert.False(t, p.HasPendingUploads())
}

func TestLoseContext(t *testing.T) {
	p := NewProvider(0)
	_, err := p.Create(image.Pt(1, 1))
	require.NoError(t, err)

	p.LoseContext()
	assert.True(t, p.IsContextLost())
	assert.Equal(t, 0, p.Len())
	_, err = p.Create(image.Pt(1, 1))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	src := image.NewRGBA(image.Rect(0, 0, 3, 5))
	require.NoError(t, png.Encode(file, src))
	require.NoError(t, file.Close())

	p := NewProvider(0)
	id, err := p.LoadFile(path)
	require.NoError(t, err)
	r, ok := p.Get(id)
	require.True(t, ok)
	assert.Equal(t, image.Pt(3, 5), r.Size)

	_, err = p.LoadFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "resource: open")
}
