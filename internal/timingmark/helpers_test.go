package timingmark

import (
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

func letterGeometry() paper.Geometry {
	return ballottest.Geometry(paper.Letter)
}

func blankLetterPage() *image.Gray {
	w, h := letterGeometry().CanvasSize()
	return imaging.NewUniform(w, h, imaging.White)
}

// synthetic cards are pure black on white
const cardThreshold = 128
