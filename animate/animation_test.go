package animate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericAnimation(t *testing.T) {
	a := NewNumericAnimation(Opacity, 0, 1, 4)
	var got []float64
	for {
		v, done := a.Animate()
		got = append(got, v[0])
		if done {
			break
		}
	}
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, got)
}

func TestTranslateAnimation(t *testing.T) {
	a := NewTranslateAnimation(0, 0, 10, 20, 2)
	v, done := a.Animate()
	assert.Equal(t, [2]float64{5, 10}, v)
	assert.False(t, done)
	v, done = a.Animate()
	assert.Equal(t, [2]float64{10, 20}, v)
	assert.True(t, done)
}

type fakeTarget struct {
	opacity float64
	x, y    float64
}

func (f *fakeTarget) SetOpacityFromAnimation(o float64)       { f.opacity = o }
func (f *fakeTarget) SetTranslationFromAnimation(x, y float64) { f.x, f.y = x, y }

func TestControllerTick(t *testing.T) {
	c := NewController()
	c.Add(NewNumericAnimation(Opacity, 1, 0, 2))
	c.Add(NewTranslateAnimation(0, 0, 4, 4, 1))
	assert.True(t, c.IsAnimating(Opacity))
	assert.True(t, c.IsAnimating(Transform))

	target := &fakeTarget{}
	c.Tick(target)
	assert.Equal(t, 0.5, target.opacity)
	assert.Equal(t, 4.0, target.x)
	assert.False(t, c.IsAnimating(Transform))

	c.Tick(target)
	assert.Equal(t, 0.0, target.opacity)
	assert.False(t, c.HasActiveAnimation())
}

func TestNilControllerIsIdle(t *testing.T) {
	var c *Controller
	assert.False(t, c.IsAnimating(Opacity))
	assert.False(t, c.HasActiveAnimation())
	c.Tick(&fakeTarget{})
}
