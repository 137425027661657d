package layer

// changeMarker is notified when a tracked layer property changes.
type changeMarker interface {
	Mark()
}

// property holds one layer attribute and marks its owner only when the
// value actually changes.
type property[T comparable] struct {
	value  T
	marker changeMarker
}

func newProperty[T comparable](value T, marker changeMarker) property[T] {
	return property[T]{value: value, marker: marker}
}

func (p *property[T]) Get() T {
	return p.value
}

func (p *property[T]) Set(value T) {
	if p.value == value {
		return
	}
	p.value = value
	p.marker.Mark()
}

// Changes that only affect how the layer itself draws.
type layerChanged struct{ l *Layer }

func (m layerChanged) Mark() { m.l.layerPropertyChanged = true }

// Changes that move or resize everything below the layer.
type subtreeChanged struct{ l *Layer }

func (m subtreeChanged) Mark() { m.l.noteLayerPropertyChangedForSubtree() }

// Changes a render surface can absorb by redrawing its composited quad.
type surfaceChanged struct{ l *Layer }

func (m surfaceChanged) Mark() { m.l.layerSurfacePropertyChanged = true }
