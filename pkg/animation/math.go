package animation

import "time"

// EaseOutQuad decelerates toward the end: fast start, soft landing.
func EaseOutQuad(t float64) float64 {
	t = clamp(t, 0, 1)
	return 1 - (1-t)*(1-t)
}

// lerp performs linear interpolation between two values.
func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// progress returns elapsed/total clamped to [0, 1].
func progress(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	return clamp(elapsed.Seconds()/total.Seconds(), 0, 1)
}

// blink reports whether a lamp toggling rate times per second is lit.
func blink(elapsed time.Duration, rate float64) bool {
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed.Seconds()*rate)%2 == 0
}
