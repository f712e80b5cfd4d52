package scoring

import (
	"fmt"
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/imaging"
)

// Size of the default bubble template in pixels at scan resolution.
const (
	DefaultBubbleWidth  = 32
	DefaultBubbleHeight = 22
	DefaultBubbleStroke = 2
)

// Template is an empty bubble prepared for matching. It is immutable and
// safe to share between goroutines.
type Template struct {
	img *image.Gray
}

// DefaultBubbleTemplate renders an empty oval outline.
func DefaultBubbleTemplate() *image.Gray {
	return imaging.RenderOval(DefaultBubbleWidth, DefaultBubbleHeight, DefaultBubbleStroke, false)
}

// PrepareTemplate binarizes img at its own Otsu level and bleeds the ink by
// one pixel so that slightly misregistered printing still matches.
func PrepareTemplate(img *image.Gray) *Template {
	bin := imaging.Binarize(img, imaging.OtsuLevel(img))
	return &Template{img: imaging.Bleed(bin, imaging.Black)}
}

// LoadTemplate reads and prepares a template image file.
func LoadTemplate(path string) (*Template, error) {
	img, err := imaging.LoadGray(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bubble template: %w", err)
	}
	return PrepareTemplate(img), nil
}

// Size returns the template's dimensions.
func (t *Template) Size() (width, height int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the prepared template. Callers must not modify it.
func (t *Template) Image() *image.Gray {
	return t.img
}
