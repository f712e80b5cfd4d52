package imaging

import "image"

const (
	minStreakScore        = 0.75
	maxStreakWhiteGap     = 15
	streakBorderExclusion = 20
)

// DetectVerticalStreaks finds dark vertical lines running the height of the
// page, typically left by debris on the scanner glass, and returns their x
// coordinates.
//
// Columns are examined two pixels at a time; a row counts as dark when either
// pixel is foreground. A column pair is a streak when at least 75% of its rows
// are dark and no run of light rows is longer than 15 pixels. Printed
// features never span the page that densely. Adjacent streak columns are
// reported once, at the rightmost column.
func DetectVerticalStreaks(img *image.Gray, threshold uint8) []int {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h == 0 || w < 2*streakBorderExclusion {
		return nil
	}

	var streaks []int
	last := -2
	for x := streakBorderExclusion - 1; x < w-streakBorderExclusion; x++ {
		dark, longestGap, gap := 0, 0, 0
		for y := 0; y < h; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			if row[x] <= threshold || row[x+1] <= threshold {
				dark++
				gap = 0
				continue
			}
			gap++
			longestGap = max(longestGap, gap)
		}
		if float64(dark)/float64(h) < minStreakScore || longestGap > maxStreakWhiteGap {
			continue
		}
		if len(streaks) > 0 && x-last == 1 {
			streaks[len(streaks)-1] = x
		} else {
			streaks = append(streaks, x)
		}
		last = x
	}
	return streaks
}
