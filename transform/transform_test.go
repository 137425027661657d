package transform

import (
	"testing"

	"compositor/rect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatAppliesRightOperandFirst(t *testing.T) {
	scale := Scaling(2, 2)
	move := Translation(10, 0)

	x, y := scale.Concat(move).MapPoint(1, 1)
	assert.Equal(t, 22.0, x)
	assert.Equal(t, 2.0, y)

	x, y = move.Concat(scale).MapPoint(1, 1)
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 2.0, y)
}

func TestTranslateComposesInLocalSpace(t *testing.T) {
	got := Translation(1, 1).Translate(3, 3)
	assert.True(t, got.Equal(Translation(4, 4)), "got %v", got)

	scaled := Scaling(2, 2).Translate(1, 0)
	x, _ := scaled.MapPoint(0, 0)
	assert.Equal(t, 2.0, x)
}

func TestMapRect(t *testing.T) {
	r := rect.XYWH(0, 0, 10, 20)
	assert.Equal(t, rect.XYWH(5, 5, 10, 20), Translation(5, 5).MapRect(r))
	assert.Equal(t, rect.XYWH(0, 0, 20, 40), Scaling(2, 2).MapRect(r))

	rotated := Rotation(90).MapRect(r)
	assert.InDelta(t, -20, rotated.Left, 1e-9)
	assert.InDelta(t, 20, rotated.Width(), 1e-9)
	assert.InDelta(t, 10, rotated.Height(), 1e-9)
	assert.True(t, Identity().MapRect(rect.Rect{}).IsEmpty())
}

func TestInverse(t *testing.T) {
	m := Translation(3, 4).Concat(Scaling(2, 5))
	inv, ok := m.Inverse()
	require.True(t, ok)
	assert.True(t, m.Concat(inv).IsIdentity())

	_, ok = Scaling(0, 1).Inverse()
	assert.False(t, ok)
}

func TestClassification(t *testing.T) {
	assert.True(t, Identity().IsIdentity())
	assert.True(t, Translation(1, 2).IsIdentityOrTranslation())
	assert.False(t, Translation(1, 2).IsIdentity())
	assert.True(t, Scaling(2, 3).PreservesAxisAlignment())
	assert.True(t, Rotation(90).PreservesAxisAlignment())
	assert.False(t, Rotation(30).PreservesAxisAlignment())
}

func TestAff3(t *testing.T) {
	aff := FromMatrix(1, 2, 3, 4, 5, 6).Aff3()
	assert.Equal(t, [6]float64{1, 2, 5, 3, 4, 6}, [6]float64(aff))
}
