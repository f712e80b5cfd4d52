// Package scoring measures how filled in each bubble on a ballot page is.
//
// Every option position of the page's grid layout is mapped to a pixel
// center through the timing mark grid. A window the size of the bubble
// template is slid over every offset within a small radius of that center,
// binarized, and compared against the template. The best matching offset
// wins:
//
//   - the match score is how closely the window agrees with the template,
//     1 for identical and 0 for inverted pixels
//   - the fill score is the share of the window that is ink the template
//     does not account for
//
// Both scores are reported as measured. Deciding which marks count as
// votes is left to the caller.
//
// Write-in areas are scored separately as the share of ink inside the
// area's pixel quadrilateral.
package scoring
