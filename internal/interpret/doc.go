// Package interpret turns the two scanned sides of a ballot card into
// timing mark grids, page metadata and bubble scores.
//
// Interpret runs the whole pipeline:
//
//  1. prepare each side: threshold, crop the scanner background, match the
//     paper size and fit the image to its canvas
//  2. optionally reject sides with vertical streaks
//  3. find the timing mark grid of each side and check its scale
//  4. read the page metadata from the QR code or the bottom timing marks
//  5. turn upside down sides upright and put the front first
//  6. look up the ballot style's grid layout and score every position
//
// The two sides are processed in parallel at every step. Failures are
// returned as *Error values that say which side failed and why.
package interpret
