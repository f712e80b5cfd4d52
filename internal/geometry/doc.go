// Package geometry provides the value types and primitives that the timing
// mark search is built on.
//
// All types are immutable values: every operation returns a new value and no
// method mutates its receiver. Pixel-space rectangles use integer coordinates
// with inclusive right/bottom edges, while points and segments use float64 so
// that interpolated grid positions keep sub-pixel precision.
//
// # Angles
//
// Timing marks are symmetric under a 180° rotation, so border angles are
// compared modulo π rather than 2π. [NormalizeAngle] folds any finite angle
// into [0, π) and [AngleDiff] returns the smaller of the forward and backward
// difference between two angles under that folding.
//
// # Lines
//
// A [Segment] doubles as a carrier line for border searches. [Segment.ExtendWithinRect]
// stretches a segment so it spans a bounding box, and [IntersectionOfLines]
// solves the 2x2 system for two carrier lines, reporting no intersection when
// the lines are parallel.
package geometry
