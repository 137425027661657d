package quad

// AppendData collects per-layer results while quads are appended.
type AppendData struct {
	// RenderPassID is the pass the quads are going into.
	RenderPassID RenderPassID

	HadOcclusionFromOutsideTargetSurface bool
	HadMissingTiles                      bool
	NumMissingTiles                      int
}

func NewAppendData(id RenderPassID) *AppendData {
	return &AppendData{RenderPassID: id}
}

// Sink receives the quads a layer or surface appends to its target pass.
type Sink interface {
	// UseSharedQuadState stores sqs in the pass and returns the instance
	// quads should reference.
	UseSharedQuadState(sqs *SharedQuadState) *SharedQuadState
	// Append adds q unless it is fully culled, and reports whether it was
	// added.
	Append(q DrawQuad, data *AppendData) bool
}
