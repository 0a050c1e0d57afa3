package port

// PositionEstimator guesses where a click target sits in a frame, in
// original-image pixel space. True cursor position is not observable from
// the signals this pipeline consumes, so every current implementation is an
// explicitly documented placeholder; a real detector would slot in here.
type PositionEstimator interface {
	Estimate(index int) (x, y int)
}
