package interpret

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironsheep/ballot-interpreter/internal/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/orientation"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
	"github.com/ironsheep/ballot-interpreter/internal/qrcode"
)

var _ = Describe("InspectTimingMarks", func() {
	It("reports the grid of a clean page", func() {
		got, err := InspectTimingMarks("page", ballottest.Card{}.Render(), DefaultOptions(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Page.Paper.Size).To(Equal(paper.Letter))
		Expect(got.Grid).NotTo(BeNil())
		Expect(got.Report.Error).To(BeEmpty())
		Expect(got.Report.Corners).NotTo(BeNil())
	})

	It("reports a failed border without failing", func() {
		img := ballottest.Card{MissingRight: []int{3}}.Render()
		got, err := InspectTimingMarks("page", img, DefaultOptions(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Grid).To(BeNil())
		Expect(got.Report.Error).NotTo(BeEmpty())
		Expect(got.Report.Borders[3].Error).NotTo(BeEmpty())
	})

	It("fails on pages that match no paper size", func() {
		_, err := InspectTimingMarks("page", imaging.NewUniform(500, 500, imaging.White), DefaultOptions(nil))
		Expect(interpretError(err).Kind).To(Equal(KindUnexpectedDimensions))
	})
})

var _ = Describe("DecodeTimingMarkMetadata", func() {
	It("decodes a front", func() {
		got, err := DecodeTimingMarkMetadata("page", timingMarkFront(5).Render(), DefaultOptions(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Side).To(Equal(election.Front))
		Expect(got.Orientation).To(Equal(orientation.Portrait))
		front, ok := got.Metadata.(metadata.Front)
		Expect(ok).To(BeTrue())
		Expect(front.CardNumber).To(Equal(5))
		Expect(got.BottomRow).To(HaveLen(34))
	})

	It("decodes an upside down back", func() {
		card := timingMarkBack()
		card.UpsideDown = true
		got, err := DecodeTimingMarkMetadata("page", card.Render(), DefaultOptions(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Side).To(Equal(election.Back))
		Expect(got.Orientation).To(Equal(orientation.PortraitReversed))
	})

	It("fails when the bottom row carries no metadata", func() {
		_, err := DecodeTimingMarkMetadata("page", ballottest.Card{}.Render(), DefaultOptions(nil))
		Expect(interpretError(err).Kind).To(Equal(KindInvalidCardMetadata))
	})
})

var _ = Describe("InspectQRCode", func() {
	var e *election.Election

	BeforeEach(func() {
		e = loadElection(election.EncodingQRCode)
	})

	It("decodes ballot metadata", func() {
		md := qrMetadata("card-number-5", 1)
		img := qrCard(e, &md, nil).Render()
		got, err := InspectQRCode("page", img, e)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Region).To(Equal(qrcode.RegionBottom))
		Expect(got.Orientation).To(Equal(orientation.Portrait))
		Expect(got.Metadata).NotTo(BeNil())
		Expect(got.Metadata.BallotStyleID).To(Equal("card-number-5"))
		Expect(got.DecodeError).To(BeEmpty())
	})

	It("returns raw data without an election", func() {
		md := qrMetadata("card-number-5", 2)
		img := qrCard(e, &md, nil).Render()
		got, err := InspectQRCode("page", img, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Data).NotTo(BeEmpty())
		Expect(got.Metadata).To(BeNil())
	})

	It("fails when no QR code is printed", func() {
		_, err := InspectQRCode("page", ballottest.Card{}.Render(), e)
		Expect(errors.Is(err, qrcode.ErrNotFound)).To(BeTrue())
	})
})
