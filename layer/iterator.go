package layer

import "slices"

type StepKind int

const (
	// TargetSurface starts (back to front) or finishes (front to back) the
	// layers drawing into Layer's surface.
	TargetSurface StepKind = iota
	// ContributingSurface is Layer's surface being composited into Target.
	ContributingSurface
	// Itself is Layer drawing its own content into Target.
	Itself
)

func (k StepKind) String() string {
	switch k {
	case TargetSurface:
		return "TargetSurface"
	case ContributingSurface:
		return "ContributingSurface"
	default:
		return "Itself"
	}
}

type Step struct {
	Kind  StepKind
	Layer *Layer
	// Target owns the surface the step draws into. It is Layer itself for
	// TargetSurface steps.
	Target *Layer
}

// BackToFront flattens the surface layer lists under root into draw
// order: a contributing surface's content comes before the quad that
// composites it.
func BackToFront(root *Layer) []Step {
	if root == nil || root.renderSurface == nil {
		return nil
	}
	return appendSteps(nil, root)
}

// FrontToBack is BackToFront reversed, the order occlusion is gathered in.
func FrontToBack(root *Layer) []Step {
	steps := BackToFront(root)
	slices.Reverse(steps)
	return steps
}

func appendSteps(steps []Step, target *Layer) []Step {
	steps = append(steps, Step{Kind: TargetSurface, Layer: target, Target: target})
	for _, l := range target.renderSurface.LayerList {
		if l.renderSurface != nil && l != target {
			steps = appendSteps(steps, l)
			steps = append(steps, Step{Kind: ContributingSurface, Layer: l, Target: target})
			continue
		}
		steps = append(steps, Step{Kind: Itself, Layer: l, Target: target})
	}
	return steps
}
