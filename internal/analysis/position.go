package analysis

import (
	"math/rand"
)

// Frame dimensions assumed for placeholder positions, in original-image
// pixels. Screen recordings are normalized to 720p upstream.
const (
	frameWidth  = 1280
	frameHeight = 720
)

// CenterRightEstimator is the smart-mode placeholder: UI controls cluster in
// the center-right of typical application layouts, so estimates are drawn
// from that region. This is a heuristic stand-in for real cursor tracking,
// which none of the consumed signals provide.
type CenterRightEstimator struct {
	rng *rand.Rand
}

func NewCenterRightEstimator(seed int64) *CenterRightEstimator {
	return &CenterRightEstimator{rng: rand.New(rand.NewSource(seed))}
}

func (e *CenterRightEstimator) Estimate(_ int) (int, int) {
	x := frameWidth/2 + e.rng.Intn(frameWidth*2/5)
	y := frameHeight/5 + e.rng.Intn(frameHeight*3/5)
	return x, y
}

// GridWalkEstimator is the quick-mode placeholder: positions vary
// deterministically with the frame index, walking a 4x3 grid across the
// frame. Same input, same positions, every run.
type GridWalkEstimator struct{}

func (GridWalkEstimator) Estimate(index int) (int, int) {
	col := index % 4
	row := (index / 4) % 3
	x := frameWidth/8 + col*(frameWidth/4)
	y := frameHeight/6 + row*(frameHeight/3)
	return x, y
}
