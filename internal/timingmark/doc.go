// Package timingmark locates the timing mark border printed around a ballot
// page and turns it into a grid-to-pixel mapping.
//
// Detection runs in four stages, each usable on its own:
//
//  1. Extraction scans a band along each edge for foreground runs about as
//     tall as a timing mark and stitches adjacent runs into shapes
//     ([ShapeListBuilder], [ExtractCandidates]).
//  2. Scoring rates each shape's fill ("mark score") and the whiteness of the
//     gaps beside it ("padding score") ([ScoreCandidate]).
//  3. Best-fit search picks, per border, the straight line through exactly the
//     expected number of well-scored candidates ([FindBestFit]). A best-effort
//     variant that maximizes the count instead is available as an explicit
//     fallback ([FindBestFitBestEffort]).
//  4. Assembly checks that the four borders agree on their shared corners and
//     builds a [Grid] ([AssembleGrid]).
//
// [FindGrid] runs all four stages, searching the borders concurrently.
//
// Grid coordinates are in timing mark units: (0,0) is the top-left corner
// mark and (width-1, height-1) the bottom-right one. Interior positions are
// where bubbles are printed.
package timingmark
