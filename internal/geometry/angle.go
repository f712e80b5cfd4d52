package geometry

import "math"

// Degrees converts degrees to radians.
func Degrees(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeAngle folds angle into [0, π). Infinities and NaN are returned
// unchanged.
func NormalizeAngle(angle float64) float64 {
	if math.IsInf(angle, 0) || math.IsNaN(angle) {
		return angle
	}
	a := math.Mod(angle, 2*math.Pi)
	for a < 0 {
		a += math.Pi
	}
	for a >= math.Pi {
		a -= math.Pi
	}
	return a
}

// AngleDiff returns the smallest difference between a and b when angles
// that differ by π are considered equal. The result is in [0, π/2].
func AngleDiff(a, b float64) float64 {
	n := NormalizeAngle(a - b)
	return math.Min(n, math.Pi-n)
}
