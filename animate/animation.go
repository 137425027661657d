package animate

type Property int

const (
	Opacity Property = iota
	Transform
)

func (p Property) String() string {
	switch p {
	case Opacity:
		return "opacity"
	case Transform:
		return "transform"
	default:
		return "unknown"
	}
}

// Animation produces one value per frame until it runs out of frames.
type Animation interface {
	Property() Property
	// Animate advances one frame. The values are the current sample; done
	// is true once the final value has been produced.
	Animate() (values [2]float64, done bool)
}

// NumericAnimation interpolates a scalar property, such as opacity,
// linearly over a number of frames.
type NumericAnimation struct {
	property       Property
	oldValue       float64
	newValue       float64
	numFrames      int
	frameCount     int
	changePerFrame float64
}

func NewNumericAnimation(property Property, oldValue, newValue float64, numFrames int) *NumericAnimation {
	numFrames = max(numFrames, 1)
	return &NumericAnimation{
		property:       property,
		oldValue:       oldValue,
		newValue:       newValue,
		numFrames:      numFrames,
		changePerFrame: (newValue - oldValue) / float64(numFrames),
	}
}

func (n *NumericAnimation) Property() Property {
	return n.property
}

func (n *NumericAnimation) Animate() ([2]float64, bool) {
	n.frameCount++
	if n.frameCount >= n.numFrames {
		return [2]float64{n.newValue}, true
	}
	return [2]float64{n.oldValue + n.changePerFrame*float64(n.frameCount)}, false
}

// TranslateAnimation moves a layer between two offsets over a number of
// frames.
type TranslateAnimation struct {
	x, y *NumericAnimation
}

func NewTranslateAnimation(fromX, fromY, toX, toY float64, numFrames int) *TranslateAnimation {
	return &TranslateAnimation{
		x: NewNumericAnimation(Transform, fromX, toX, numFrames),
		y: NewNumericAnimation(Transform, fromY, toY, numFrames),
	}
}

func (t *TranslateAnimation) Property() Property {
	return Transform
}

func (t *TranslateAnimation) Animate() ([2]float64, bool) {
	x, done := t.x.Animate()
	y, _ := t.y.Animate()
	return [2]float64{x[0], y[0]}, done
}
