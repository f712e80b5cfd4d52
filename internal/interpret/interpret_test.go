package interpret

import (
	"errors"
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goqr "github.com/skip2/go-qrcode"

	"github.com/ironsheep/ballot-interpreter/internal/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/orientation"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

var enc = metadata.AccuvoteEncoding

func loadElection(encoding election.MetadataEncoding) *election.Election {
	e, err := election.Load("../election/testdata/election.json")
	Expect(err).NotTo(HaveOccurred())
	e.BallotLayout.MetadataEncoding = encoding
	return e
}

func frontBubbles() []ballottest.Bubble {
	return []ballottest.Bubble{{Column: 12, Row: 9, Filled: true}, {Column: 12, Row: 11}, {Column: 12, Row: 13, Filled: true}}
}

func backBubbles() []ballottest.Bubble {
	return []ballottest.Bubble{{Column: 26, Row: 20}, {Column: 26, Row: 22, Filled: true}}
}

func timingMarkFront(cardNumber int) ballottest.Card {
	return ballottest.Card{
		BottomRow: metadata.BottomRow(metadata.EncodeFront(enc, 0, cardNumber)),
		Bubbles:   frontBubbles(),
	}
}

func timingMarkBack() ballottest.Card {
	return ballottest.Card{
		BottomRow: metadata.BottomRow(metadata.EncodeBack(enc, 8, 11, 22, 'G')),
		Bubbles:   backBubbles(),
	}
}

func qrOverlay(e *election.Election, md metadata.QRMetadata) ballottest.Overlay {
	data, err := metadata.EncodeQR(md, e)
	Expect(err).NotTo(HaveOccurred())
	q, err := goqr.New(string(data), goqr.Medium)
	Expect(err).NotTo(HaveOccurred())
	return ballottest.Overlay{Image: imaging.ToGray(q.Image(240)), Left: 250, Top: 1700}
}

func qrMetadata(style string, page metadata.PageNumber) metadata.QRMetadata {
	return metadata.QRMetadata{
		BallotHash:    "d27ab6588b1869544cde",
		PrecinctID:    "town-id-01001-precinct-id-default",
		BallotStyleID: style,
		PageNumber:    page,
		BallotType:    metadata.BallotTypePrecinct,
	}
}

func qrCard(e *election.Election, md *metadata.QRMetadata, bubbles []ballottest.Bubble) ballottest.Card {
	c := ballottest.Card{Bubbles: bubbles}
	if md != nil {
		c.Overlays = []ballottest.Overlay{qrOverlay(e, *md)}
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func interpretError(err error) *Error {
	var ie *Error
	Expect(errors.As(err, &ie)).To(BeTrue(), "expected *Error, got %v", err)
	return ie
}

var _ = Describe("Interpret", func() {
	var (
		opts         Options
		sideA, sideB *image.Gray
		card         *InterpretedCard
		err          error
	)

	JustBeforeEach(func() {
		card, err = Interpret(sideA, sideB, opts)
	})

	Context("with timing mark metadata", func() {
		BeforeEach(func() {
			opts = DefaultOptions(loadElection(election.EncodingTimingMarks))
			sideA = timingMarkFront(5).Render()
			sideB = timingMarkBack().Render()
		})

		It("reads the ballot style from the front card number", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(card.BallotStyleID).To(Equal("card-number-5"))
			Expect(card.PrecinctID).To(Equal("town-id-01001-precinct-id-default"))
			Expect(card.SheetNumber).To(Equal(1))
		})

		It("keeps side A as the front", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(card.Front.Label).To(Equal(SideALabel))
			Expect(card.Front.Side).To(Equal(election.Front))
			Expect(card.Front.Metadata.TimingMarks).To(BeAssignableToTypeOf(metadata.Front{}))
			Expect(card.Back.Metadata.TimingMarks).To(BeAssignableToTypeOf(metadata.Back{}))
			Expect(card.Front.Orientation).To(Equal(orientation.Portrait))
		})

		It("scores the bubbles on each side", func() {
			Expect(err).NotTo(HaveOccurred())
			front, back := card.Front.Marks, card.Back.Marks
			Expect(front).To(HaveLen(3))
			Expect(back).To(HaveLen(2))

			Expect(front[0].Position.OptionID).To(Equal("alice"))
			Expect(front[0].Mark).NotTo(BeNil())
			Expect(front[0].Mark.FillScore).To(BeNumerically(">", 0.3))
			Expect(front[1].Mark.FillScore).To(BeNumerically("<", 0.05))

			Expect(front[2].Position.Type).To(Equal(election.PositionWriteIn))
			Expect(front[2].Mark).NotTo(BeNil())
			Expect(front[2].Mark.FillScore).To(BeNumerically(">", 0.3))

			Expect(back[0].Mark.FillScore).To(BeNumerically("<", 0.05))
			Expect(back[1].Position.OptionID).To(Equal("no"))
			Expect(back[1].Mark.FillScore).To(BeNumerically(">", 0.3))
		})

		It("lays out each contest", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(card.Front.ContestLayouts).To(HaveLen(1))
			governor := card.Front.ContestLayouts[0]
			Expect(governor.ContestID).To(Equal("governor"))
			Expect(governor.Options).To(HaveLen(3))
			Expect(governor.Options[2].OptionID).To(Equal("write-in-0"))
			Expect(card.Back.ContestLayouts[0].ContestID).To(Equal("question-1"))
		})

		It("does not score write-ins unless asked", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(card.Front.WriteIns).To(BeEmpty())
			Expect(card.Front.NormalizedImage).NotTo(BeNil())
		})

		When("write-in scoring is enabled", func() {
			BeforeEach(func() {
				opts.ScoreWriteIns = true
			})

			It("scores the write-in area", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Front.WriteIns).To(HaveLen(1))
				Expect(card.Front.WriteIns[0].Score).To(BeNumerically("<", 0.01))
			})
		})

		When("the sides are swapped", func() {
			BeforeEach(func() {
				sideA, sideB = sideB, sideA
			})

			It("puts the front first", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Front.Label).To(Equal(SideBLabel))
				Expect(card.Back.Label).To(Equal(SideALabel))
				Expect(card.Front.Marks[0].Mark.FillScore).To(BeNumerically(">", 0.3))
			})
		})

		When("the back was scanned upside down", func() {
			BeforeEach(func() {
				back := timingMarkBack()
				back.UpsideDown = true
				sideB = back.Render()
			})

			It("turns it upright before scoring", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Back.Orientation).To(Equal(orientation.PortraitReversed))
				Expect(card.Back.Marks[0].Mark.FillScore).To(BeNumerically("<", 0.05))
				Expect(card.Back.Marks[1].Mark.FillScore).To(BeNumerically(">", 0.3))
			})
		})

		When("both sides are fronts", func() {
			BeforeEach(func() {
				sideB = timingMarkFront(5).Render()
			})

			It("rejects the card metadata", func() {
				Expect(interpretError(err).Kind).To(Equal(KindInvalidCardMetadata))
			})
		})

		When("a side's bottom row cannot be decoded", func() {
			BeforeEach(func() {
				sideB = ballottest.Card{Bubbles: backBubbles()}.Render()
			})

			It("names the side", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindInvalidCardMetadata))
				Expect(ie.Label).To(Equal(SideBLabel))
			})
		})

		When("the card number has no grid layout", func() {
			BeforeEach(func() {
				sideA = timingMarkFront(6).Render()
			})

			It("reports the missing layout", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindMissingGridLayout))
				Expect(ie.BallotStyleID).To(Equal("card-number-6"))
			})
		})

		When("a side timing mark is missing", func() {
			BeforeEach(func() {
				front := timingMarkFront(5)
				front.MissingLeft = []int{20}
				sideA = front.Render()
			})

			It("reports missing timing marks on that side", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindMissingTimingMarks))
				Expect(ie.Label).To(Equal(SideALabel))
				var notFound *timingmark.BorderNotFoundError
				Expect(errors.As(err, &notFound)).To(BeTrue())
				Expect(notFound.Border).To(Equal(timingmark.Left))
			})
		})

		When("vertical streak detection is enabled", func() {
			BeforeEach(func() {
				opts.VerticalStreakDetection = true
				front := timingMarkFront(5)
				front.Streaks = []int{800}
				sideA = front.Render()
			})

			It("rejects the streaked side", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindVerticalStreaksDetected))
				Expect(ie.Label).To(Equal(SideALabel))
				Expect(ie.XCoordinates).NotTo(BeEmpty())
			})
		})

		When("the minimum scale is above the scanned scale", func() {
			BeforeEach(func() {
				opts.MinimumDetectedScale = 1.5
			})

			It("reports an invalid scale", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindInvalidScale))
				Expect(ie.Scale).To(BeNumerically("~", 1.0, 0.02))
			})
		})

		When("a side is entirely black", func() {
			BeforeEach(func() {
				sideA = imaging.NewUniform(1700, 2200, imaging.Black)
			})

			It("cannot find the document", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindBorderInsetNotFound))
				Expect(ie.Label).To(Equal(SideALabel))
			})
		})

		When("a side matches no paper size", func() {
			BeforeEach(func() {
				sideB = imaging.NewUniform(500, 500, imaging.White)
			})

			It("reports its dimensions", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindUnexpectedDimensions))
				Expect(ie.Label).To(Equal(SideBLabel))
				Expect(ie.Dimensions).To(Equal(image.Pt(500, 500)))
			})
		})

		When("the sides are different paper sizes", func() {
			BeforeEach(func() {
				sideB = ballottest.Card{Paper: paper.Legal}.Render()
			})

			It("reports mismatched geometries", func() {
				Expect(interpretError(err).Kind).To(Equal(KindMismatchedBallotCardGeometries))
			})
		})

		When("there is no election", func() {
			BeforeEach(func() {
				opts.Election = nil
			})

			It("fails", func() {
				Expect(interpretError(err).Kind).To(Equal(KindInvalidElection))
			})
		})
	})

	Context("with QR code metadata", func() {
		var e *election.Election

		BeforeEach(func() {
			e = loadElection(election.EncodingQRCode)
			opts = DefaultOptions(e)
			sideA = qrCard(e, ptr(qrMetadata("card-number-5", 1)), frontBubbles()).Render()
			sideB = qrCard(e, ptr(qrMetadata("card-number-5", 2)), backBubbles()).Render()
		})

		It("reads both QR codes", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(card.BallotStyleID).To(Equal("card-number-5"))
			Expect(card.SheetNumber).To(Equal(1))
			Expect(card.Front.Label).To(Equal(SideALabel))
			Expect(card.Front.Metadata.QRCode).NotTo(BeNil())
			Expect(card.Front.Metadata.QRCode.PageNumber).To(Equal(metadata.PageNumber(1)))
			Expect(card.Back.Metadata.QRCode.PageNumber).To(Equal(metadata.PageNumber(2)))
			Expect(card.Front.Metadata.Inferred).To(BeFalse())
			Expect(card.Front.Marks[0].Mark.FillScore).To(BeNumerically(">", 0.3))
		})

		When("the pages are swapped", func() {
			BeforeEach(func() {
				sideA, sideB = sideB, sideA
			})

			It("orders them by page number", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Front.Label).To(Equal(SideBLabel))
				Expect(card.Front.Metadata.QRCode.PageNumber).To(Equal(metadata.PageNumber(1)))
			})
		})

		When("side B is upside down", func() {
			BeforeEach(func() {
				c := qrCard(e, ptr(qrMetadata("card-number-5", 2)), backBubbles())
				c.UpsideDown = true
				sideB = c.Render()
			})

			It("rotates it upright", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Back.Orientation).To(Equal(orientation.PortraitReversed))
				Expect(card.Back.Marks[1].Mark.FillScore).To(BeNumerically(">", 0.3))
			})
		})

		When("one QR code is unreadable", func() {
			BeforeEach(func() {
				sideA = qrCard(e, nil, frontBubbles()).Render()
			})

			It("infers that side from the other", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(card.Front.Label).To(Equal(SideALabel))
				Expect(card.Front.Metadata.Inferred).To(BeTrue())
				Expect(card.Front.Metadata.QRCode.PageNumber).To(Equal(metadata.PageNumber(1)))
				Expect(card.Back.Metadata.Inferred).To(BeFalse())
			})
		})

		When("neither QR code is readable", func() {
			BeforeEach(func() {
				sideA = qrCard(e, nil, frontBubbles()).Render()
				sideB = qrCard(e, nil, backBubbles()).Render()
			})

			It("reports invalid QR code metadata", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindInvalidQRCodeMetadata))
				Expect(ie.Label).To(Equal(SideALabel))
			})
		})

		When("the ballot styles differ", func() {
			BeforeEach(func() {
				sideB = qrCard(e, ptr(qrMetadata("card-number-6", 2)), backBubbles()).Render()
			})

			It("reports mismatched ballot styles", func() {
				ie := interpretError(err)
				Expect(ie.Kind).To(Equal(KindMismatchedBallotStyles))
				Expect(ie.Values).To(Equal([]string{"card-number-5", "card-number-6"}))
			})
		})

		When("the page numbers are not a sheet", func() {
			BeforeEach(func() {
				sideB = qrCard(e, ptr(qrMetadata("card-number-5", 4)), backBubbles()).Render()
			})

			It("reports non-consecutive page numbers", func() {
				Expect(interpretError(err).Kind).To(Equal(KindNonConsecutivePageNumbers))
			})
		})
	})
})
