// Package ballottest renders synthetic ballot card images for tests.
package ballottest

import (
	"image"
	"math"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Bubble dimensions in pixels at scan resolution.
const (
	BubbleWidth  = 32
	BubbleHeight = 22
	BubbleStroke = 2
)

// Bubble is an oval printed at a grid position.
type Bubble struct {
	Column, Row float64
	Filled      bool
}

// Overlay is an image darkened onto the card with its top left corner at
// (Left, Top).
type Overlay struct {
	Image     *image.Gray
	Left, Top int
}

// Card describes a synthetic ballot page.
type Card struct {
	Paper paper.Size

	// BottomRow selects which bottom border marks are printed. Nil prints
	// all of them.
	BottomRow []bool

	// MissingLeft and MissingRight list side border rows left unprinted.
	MissingLeft, MissingRight []int

	Bubbles  []Bubble
	Overlays []Overlay

	// Streaks lists x coordinates of full height 2 pixel wide black lines.
	Streaks []int

	// UpsideDown rotates the finished page by 180 degrees.
	UpsideDown bool
}

// Geometry returns the scan geometry of paper size s.
func Geometry(s paper.Size) paper.Geometry {
	return paper.Scanned(s).ComputeGeometry()
}

// Center returns the pixel center of grid position (column, row) on an
// undistorted page.
func Center(g paper.Geometry, column, row float64) geometry.Point {
	return geometry.Pt(
		float64(g.ContentArea.Left)+g.TimingMarkWidthPixels()/2+column*g.HorizontalCenterToCenter(),
		float64(g.ContentArea.Top)+g.TimingMarkHeightPixels()/2+row*g.VerticalCenterToCenter(),
	)
}

// MarkRect returns the rectangle of the timing mark at grid position
// (column, row).
func MarkRect(g paper.Geometry, column, row int) geometry.Rect {
	c := Center(g, float64(column), float64(row))
	w, h := g.TimingMarkWidthPixels(), g.TimingMarkHeightPixels()
	return geometry.Rect{
		Left:   int(math.Round(c.X - w/2)),
		Top:    int(math.Round(c.Y - h/2)),
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
}

// Render draws the card: black ink on white paper.
func (c Card) Render() *image.Gray {
	size := c.Paper
	if size == "" {
		size = paper.Letter
	}
	g := Geometry(size)
	w, h := g.CanvasSize()
	img := imaging.NewUniform(w, h, imaging.White)

	cols, rows := g.GridSize.Width, g.GridSize.Height
	skip := func(list []int, row int) bool {
		for _, r := range list {
			if r == row {
				return true
			}
		}
		return false
	}
	mark := func(column, row int) {
		imaging.FillRect(img, MarkRect(g, column, row).ImageRect(), imaging.Black)
	}

	for col := 0; col < cols; col++ {
		mark(col, 0)
		if c.BottomRow == nil || (col < len(c.BottomRow) && c.BottomRow[col]) {
			mark(col, rows-1)
		}
	}
	for row := 1; row < rows-1; row++ {
		if !skip(c.MissingLeft, row) {
			mark(0, row)
		}
		if !skip(c.MissingRight, row) {
			mark(cols-1, row)
		}
	}

	for _, b := range c.Bubbles {
		oval := imaging.RenderOval(BubbleWidth, BubbleHeight, BubbleStroke, b.Filled)
		center := Center(g, b.Column, b.Row)
		imaging.Paste(img, oval,
			int(math.Round(center.X-BubbleWidth/2)),
			int(math.Round(center.Y-BubbleHeight/2)))
	}

	for _, o := range c.Overlays {
		imaging.Paste(img, o.Image, o.Left, o.Top)
	}

	for _, x := range c.Streaks {
		imaging.FillRect(img, image.Rect(x, 0, x+2, h), imaging.Black)
	}

	if c.UpsideDown {
		return imaging.Rotate180(img)
	}
	return img
}

// MetadataRow returns bottom row presence for a card whose border encodes
// bits: both end marks are present and bit i is printed at column i+1.
func MetadataRow(bits []bool) []bool {
	row := make([]bool, 0, len(bits)+2)
	row = append(row, true)
	row = append(row, bits...)
	return append(row, true)
}
