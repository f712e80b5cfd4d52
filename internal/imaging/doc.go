// Package imaging provides the grayscale pixel primitives used by ballot
// interpretation.
//
// Scanned ballot pages are handled as *image.Gray throughout. This package
// loads and caches them, converts color scans to luma, and implements the
// small set of operations the timing mark and bubble scoring code is built on:
//
//   - thresholding: [OtsuLevel] and [Binarize]
//   - comparison: [Diff], [CountPixels], [MatchTemplate] and [Bleed]
//   - page preparation: [FindScannedDocumentInset], [Crop], [Rotate180] and
//     [ResizeToFit]
//   - scan quality: [DetectVerticalStreaks]
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner.
// Every image returned by this package has its bounds starting at (0,0).
//
// # Pixel Conventions
//
// A pixel is "foreground" (ink) when its luma is at or below a threshold.
// Binarized images contain only [Black] and [White].
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// pure: they never modify their inputs and may be called concurrently on the
// same image.
package imaging
