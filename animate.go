package livecounter

import (
	"math"
	"strconv"
	"strings"
)

// AnimationFrame returns the value shown at a given step of a count animation
// from start to end split into steps.
//
// Step 0 (or less) is start. Any step at or beyond steps is exactly end, so
// rounding never leaves the final frame short of the target. Intermediate
// frames round half up, and never move past end.
func AnimationFrame(start, end, step, steps int) int {
	if steps <= 0 || step >= steps {
		return end
	}
	if step <= 0 {
		return start
	}
	// float64 differences keep end-start from overflowing
	increment := (float64(end) - float64(start)) / float64(steps)
	v := math.Floor(float64(start) + increment*float64(step) + 0.5)

	lo, hi := start, end
	if lo > hi {
		lo, hi = hi, lo
	}
	// compare as floats before converting; int(2^63) is undefined
	switch {
	case v >= float64(hi):
		return hi
	case v <= float64(lo):
		return lo
	}
	return min(max(int(v), lo), hi)
}

// AnimationFrames returns every frame written by a count animation, steps
// 1 through steps. The last element is always end.
func AnimationFrames(start, end, steps int) []int {
	if steps <= 0 {
		return []int{end}
	}
	frames := make([]int, steps)
	for i := 1; i <= steps; i++ {
		frames[i-1] = AnimationFrame(start, end, i, steps)
	}
	return frames
}

// ParseCount parses display text as an integer count.
// Surrounding whitespace is ignored; anything else must be a plain integer.
func ParseCount(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}
