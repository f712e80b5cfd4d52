package interpret

import (
	"image"
	"log/slog"

	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Page is one side of a card made ready for timing mark detection.
type Page struct {
	Label     string         `json:"label"`
	Image     *image.Gray    `json:"-"`
	Threshold uint8          `json:"threshold"`
	Inset     imaging.Inset  `json:"borderInset"`
	Paper     paper.Info     `json:"paper"`
	Geometry  paper.Geometry `json:"geometry"`
	Resized   bool           `json:"resized"`
}

// PreparePage crops the scanner background from img, picks the paper size
// from what is left and fits the image to that paper's canvas. The
// threshold is computed before cropping and again on the final image.
func PreparePage(label string, img *image.Gray, papers []paper.Info, log *slog.Logger) (*Page, error) {
	threshold := imaging.OtsuLevel(img)
	inset, ok := imaging.FindScannedDocumentInset(img, threshold, imaging.DefaultInsetRatio)
	if !ok {
		return nil, &Error{Kind: KindBorderInsetNotFound, Label: label}
	}

	b := img.Bounds()
	cropped := img
	if !inset.IsZero() {
		cropped = imaging.Crop(img, inset.Rect(b.Dx(), b.Dy()))
	}

	size := cropped.Bounds().Size()
	info, ok := paper.MatchImageSize(size.X, size.Y, papers)
	if !ok {
		return nil, &Error{Kind: KindUnexpectedDimensions, Label: label, Dimensions: size}
	}
	g := info.ComputeGeometry()

	w, h := g.CanvasSize()
	fitted, resized := imaging.MaybeResizeToFit(cropped, w, h)
	threshold = imaging.OtsuLevel(fitted)

	log.Debug("prepared page",
		"label", label, "paper", info.Size, "threshold", threshold,
		"inset", inset, "resized", resized)

	return &Page{
		Label:     label,
		Image:     fitted,
		Threshold: threshold,
		Inset:     inset,
		Paper:     info,
		Geometry:  g,
		Resized:   resized,
	}, nil
}
