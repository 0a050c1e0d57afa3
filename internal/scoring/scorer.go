// Package scoring evaluates reported clicks against expected targets.
package scoring

// DefaultTolerance is the per-axis acceptance distance in pixels.
const DefaultTolerance = 25

// Within reports whether a click lands inside the tolerance window of a
// target. The window is a square: each axis is checked independently, so a
// (2t)x(2t) box centered on the target accepts the click. This is
// deliberately more permissive at the corners than a circular check and must
// not be replaced with a Euclidean distance. All coordinates are in
// original-image pixel space; any display scaling is the caller's problem.
func Within(clickX, clickY, targetX, targetY, tolerance int) bool {
	return abs(clickX-targetX) <= tolerance && abs(clickY-targetY) <= tolerance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
