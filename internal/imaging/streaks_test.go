package imaging

import (
	"image"
	"slices"
	"testing"
)

func TestDetectVerticalStreaks_Gaps(t *testing.T) {
	img := NewUniform(200, 300, White)

	// a streak with a short break is still a streak
	FillRect(img, image.Rect(100, 0, 102, 300), Black)
	FillRect(img, image.Rect(100, 50, 102, 60), White)

	// a long break is not
	FillRect(img, image.Rect(150, 0, 152, 300), Black)
	FillRect(img, image.Rect(150, 120, 152, 140), White)

	// too close to the page edge
	FillRect(img, image.Rect(5, 0, 7, 300), Black)

	got := DetectVerticalStreaks(img, 128)
	if !slices.Equal(got, []int{101}) {
		t.Errorf("got %v, want [101]", got)
	}
}

func TestDetectVerticalStreaks_CleanWithBlock(t *testing.T) {
	img := NewUniform(200, 300, White)
	FillRect(img, image.Rect(60, 10, 140, 40), Black)

	if got := DetectVerticalStreaks(img, 128); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
	if got := DetectVerticalStreaks(NewUniform(30, 30, White), 128); got != nil {
		t.Errorf("narrow image: got %v, want nil", got)
	}
}
