package animate

// Target receives animated values.
type Target interface {
	SetOpacityFromAnimation(opacity float64)
	SetTranslationFromAnimation(x, y float64)
}

// Controller runs at most one animation per property for a single layer.
type Controller struct {
	running map[Property]Animation
}

func NewController() *Controller {
	return &Controller{running: make(map[Property]Animation)}
}

// Add replaces any animation already running on the same property.
func (c *Controller) Add(a Animation) {
	c.running[a.Property()] = a
}

func (c *Controller) Remove(p Property) {
	delete(c.running, p)
}

func (c *Controller) IsAnimating(p Property) bool {
	if c == nil {
		return false
	}
	_, ok := c.running[p]
	return ok
}

func (c *Controller) HasActiveAnimation() bool {
	return c != nil && len(c.running) > 0
}

// Tick advances every running animation by one frame and pushes the new
// values into target. Finished animations are removed after their final
// value is applied.
func (c *Controller) Tick(target Target) {
	if c == nil {
		return
	}
	for p, a := range c.running {
		values, done := a.Animate()
		switch p {
		case Opacity:
			target.SetOpacityFromAnimation(values[0])
		case Transform:
			target.SetTranslationFromAnimation(values[0], values[1])
		}
		if done {
			delete(c.running, p)
		}
	}
}
