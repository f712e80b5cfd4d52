// Package qrcode finds and decodes the metadata QR code printed on a ballot
// page.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound is returned when no QR code could be decoded.
var ErrNotFound = errors.New("qr code not found")

// Region is the half of the page a QR code was found in.
type Region string

const (
	// RegionBottom is where the code sits on an upright page.
	RegionBottom Region = "bottom"
	// RegionTop means the page was most likely scanned upside down.
	RegionTop Region = "top"
)

// Detected is a decoded QR code.
type Detected struct {
	Bytes  []byte          `json:"bytes"`
	Bounds image.Rectangle `json:"bounds"`
	Region Region          `json:"region"`
}

// Detect searches the bottom half of img and then the top half for a QR
// code. The bottom is tried first since that is where upright pages carry
// it.
func Detect(img image.Image) (Detected, error) {
	b := img.Bounds()
	mid := b.Min.Y + b.Dy()/2
	regions := []struct {
		region Region
		rect   image.Rectangle
	}{
		{RegionBottom, image.Rect(b.Min.X, mid, b.Max.X, b.Max.Y)},
		{RegionTop, image.Rect(b.Min.X, b.Min.Y, b.Max.X, mid)},
	}

	var errs []error
	for _, r := range regions {
		data, bounds, err := decode(subImage(img, r.rect))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.region, err))
			continue
		}
		return Detected{Bytes: data, Bounds: bounds, Region: r.region}, nil
	}
	return Detected{}, fmt.Errorf("%w: %w", ErrNotFound, errors.Join(errs...))
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	return img
}

func decode(img image.Image) ([]byte, image.Rectangle, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("failed to create bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER:    true,
		gozxing.DecodeHintType_CHARACTER_SET: "ISO-8859-1",
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	origin := img.Bounds().Min
	return resultBytes(result), bounds(result.GetResultPoints()).Add(origin), nil
}

// resultBytes recovers the payload from the text, which the reader decodes
// as ISO-8859-1 so that every byte maps to one rune. Byte segments are the
// fallback when the symbol declared another character set.
func resultBytes(result *gozxing.Result) []byte {
	text := []rune(result.GetText())
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xff {
			if segments, ok := result.GetResultMetadata()[gozxing.ResultMetadataType_BYTE_SEGMENTS].([][]byte); ok {
				return bytes.Join(segments, nil)
			}
			return []byte(result.GetText())
		}
		out = append(out, byte(r))
	}
	return out
}

// bounds returns the box around the finder and alignment pattern centers.
func bounds(points []gozxing.ResultPoint) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = min(minX, p.GetX())
		minY = min(minY, p.GetY())
		maxX = max(maxX, p.GetX())
		maxY = max(maxY, p.GetY())
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
}
