package metadata

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ironsheep/ballot-interpreter/internal/election"
)

// Bits is the number of metadata bits in a bottom border. The border has
// two more marks, one at each end, that are always printed.
const Bits = 32

// Encoding holds the constants of a timing mark metadata format.
type Encoding struct {
	// EnderCode is the fixed pattern in the last bits of a back page.
	EnderCode []bool
	// ChecksumModulus is applied to the count of set front bits.
	ChecksumModulus int
}

// AccuvoteEncoding is the format printed on Accuvote ballots, with ender
// code 01111011110 and a mod 4 checksum.
var AccuvoteEncoding = Encoding{
	EnderCode:       []bool{false, true, true, true, true, false, true, true, true, true, false},
	ChecksumModulus: 4,
}

// Bit ranges, with bit 0 the rightmost interior mark.
const (
	frontChecksumEnd = 2
	frontBatchEnd    = 15
	frontCardEnd     = 28
	frontSequenceEnd = 31
	frontStartBit    = 31

	backDayEnd   = 5
	backMonthEnd = 9
	backYearEnd  = 16
	backTypeEnd  = 21
)

// TimingMarkMetadata is the decoded bottom border of a page: either Front or
// Back.
type TimingMarkMetadata interface {
	Side() election.Side
	isTimingMarkMetadata()
}

// Front is the metadata on the front of a card.
type Front struct {
	// Bits in right to left order.
	Bits BitString `json:"bits"`

	Checksum              int `json:"mod4Checksum"`
	ComputedChecksum      int `json:"computedMod4Checksum"`
	BatchOrPrecinctNumber int `json:"batchOrPrecinctNumber"`
	CardNumber            int `json:"cardNumber"`
	SequenceNumber        int `json:"sequenceNumber"`
	StartBit              int `json:"startBit"`
}

// Back is the metadata on the back of a card.
type Back struct {
	// Bits in right to left order.
	Bits BitString `json:"bits"`

	ElectionDay   int          `json:"electionDay"`
	ElectionMonth int          `json:"electionMonth"`
	ElectionYear  int          `json:"electionYear"`
	ElectionType  ElectionType `json:"electionType"`
	EnderCode     BitString    `json:"enderCode"`
}

func (Front) Side() election.Side { return election.Front }
func (Back) Side() election.Side { return election.Back }
func (Front) isTimingMarkMetadata() {}
func (Back) isTimingMarkMetadata() {}

// ElectionType is a capital letter stored as its offset from 'A'.
type ElectionType uint8

// Letter returns the letter, or '?' for offsets past 'Z'.
func (t ElectionType) Letter() byte {
	if t > 'Z'-'A' {
		return '?'
	}
	return 'A' + byte(t)
}

// MarshalJSON encodes the letter.
func (t ElectionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t.Letter()))
}

// BitString prints as binary digits.
type BitString []bool

func (b BitString) String() string {
	var sb strings.Builder
	for _, bit := range b {
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MarshalJSON encodes the digits as a string.
func (b BitString) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// field reads bits[lo:hi] with bits[lo] as the least significant bit.
func field(bits []bool, lo, hi int) int {
	v := 0
	for i := hi - 1; i >= lo; i-- {
		v <<= 1
		if bits[i] {
			v |= 1
		}
	}
	return v
}

func putField(bits []bool, lo, hi, v int) {
	for i := lo; i < hi; i++ {
		bits[i] = v&1 == 1
		v >>= 1
	}
}

func countSet(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}

// DecodeFront decodes right to left bits as a front page.
func DecodeFront(enc Encoding, bits []bool) (Front, error) {
	if len(bits) != Bits {
		return Front{}, &InvalidTimingMarkCountError{Expected: Bits, Actual: len(bits)}
	}
	f := Front{
		Bits:                  slices.Clone(bits),
		Checksum:              field(bits, 0, frontChecksumEnd),
		ComputedChecksum:      countSet(bits[frontChecksumEnd:]) % enc.ChecksumModulus,
		BatchOrPrecinctNumber: field(bits, frontChecksumEnd, frontBatchEnd),
		CardNumber:            field(bits, frontBatchEnd, frontCardEnd),
		SequenceNumber:        field(bits, frontCardEnd, frontSequenceEnd),
		StartBit:              field(bits, frontStartBit, frontStartBit+1),
	}
	if f.Checksum != f.ComputedChecksum {
		return f, &InvalidChecksumError{Front: f}
	}
	if f.SequenceNumber != 0 {
		return f, &ValueOutOfRangeError{Field: "sequenceNumber", Value: f.SequenceNumber, Min: 0, Max: 0, Metadata: f}
	}
	if f.StartBit != 1 {
		return f, &ValueOutOfRangeError{Field: "startBit", Value: f.StartBit, Min: 1, Max: 1, Metadata: f}
	}
	return f, nil
}

// DecodeBack decodes right to left bits as a back page.
func DecodeBack(enc Encoding, bits []bool) (Back, error) {
	if len(bits) != Bits {
		return Back{}, &InvalidTimingMarkCountError{Expected: Bits, Actual: len(bits)}
	}
	enderStart := Bits - len(enc.EnderCode)
	b := Back{
		Bits:          slices.Clone(bits),
		ElectionDay:   field(bits, 0, backDayEnd),
		ElectionMonth: field(bits, backDayEnd, backMonthEnd),
		ElectionYear:  field(bits, backMonthEnd, backYearEnd),
		ElectionType:  ElectionType(field(bits, backYearEnd, backTypeEnd)),
		EnderCode:     slices.Clone(bits[enderStart:]),
	}
	if !slices.Equal(b.EnderCode, enc.EnderCode) {
		return b, &InvalidEnderCodeError{Back: b, Expected: enc.EnderCode}
	}
	if b.ElectionType.Letter() == '?' {
		return b, &ValueOutOfRangeError{Field: "electionType", Value: int(b.ElectionType), Min: 0, Max: 'Z' - 'A', Metadata: b}
	}
	return b, nil
}

// Decode decodes right to left bits as whichever side they are valid for.
// Bits valid as both sides are rejected as ambiguous; bits valid as
// neither report why the front decode failed.
func Decode(enc Encoding, bits []bool) (TimingMarkMetadata, error) {
	front, frontErr := DecodeFront(enc, bits)
	back, backErr := DecodeBack(enc, bits)
	switch {
	case frontErr == nil && backErr == nil:
		return nil, &AmbiguousMetadataError{Front: front, Back: back}
	case frontErr == nil:
		return front, nil
	case backErr == nil:
		return back, nil
	}
	return nil, frontErr
}

// BitsFromBottomRow converts bottom border presence, left to right, into
// right to left metadata bits. Both end marks must be present.
func BitsFromBottomRow(present []bool) ([]bool, error) {
	if len(present) != Bits+2 {
		return nil, &InvalidTimingMarkCountError{Expected: Bits + 2, Actual: len(present)}
	}
	ends := 0
	if present[0] {
		ends++
	}
	if present[len(present)-1] {
		ends++
	}
	if ends != 2 {
		return nil, &InvalidTimingMarkCountError{Expected: 2, Actual: ends}
	}
	bits := slices.Clone(present[1 : len(present)-1])
	slices.Reverse(bits)
	return bits, nil
}

// DecodeBottomRow decodes bottom border presence, left to right.
func DecodeBottomRow(enc Encoding, present []bool) (TimingMarkMetadata, error) {
	bits, err := BitsFromBottomRow(present)
	if err != nil {
		return nil, err
	}
	return Decode(enc, bits)
}

// BottomRow converts right to left metadata bits into bottom border
// presence, left to right, with both end marks present.
func BottomRow(bits []bool) []bool {
	row := make([]bool, 0, len(bits)+2)
	row = append(row, true)
	for i := len(bits) - 1; i >= 0; i-- {
		row = append(row, bits[i])
	}
	return append(row, true)
}

// EncodeFront returns the right to left bits of a front page with the
// given numbers, a zero sequence number, the start bit and a valid
// checksum.
func EncodeFront(enc Encoding, batchOrPrecinct, cardNumber int) []bool {
	bits := make([]bool, Bits)
	putField(bits, frontChecksumEnd, frontBatchEnd, batchOrPrecinct)
	putField(bits, frontBatchEnd, frontCardEnd, cardNumber)
	bits[frontStartBit] = true
	putField(bits, 0, frontChecksumEnd, countSet(bits[frontChecksumEnd:])%enc.ChecksumModulus)
	return bits
}

// EncodeBack returns the right to left bits of a back page.
func EncodeBack(enc Encoding, day, month, year int, electionType byte) []bool {
	bits := make([]bool, Bits)
	putField(bits, 0, backDayEnd, day)
	putField(bits, backDayEnd, backMonthEnd, month)
	putField(bits, backMonthEnd, backYearEnd, year)
	putField(bits, backYearEnd, backTypeEnd, int(electionType-'A'))
	copy(bits[Bits-len(enc.EnderCode):], enc.EnderCode)
	return bits
}

// InvalidTimingMarkCountError reports a bottom border of the wrong size or
// with missing end marks.
type InvalidTimingMarkCountError struct {
	Expected int `json:"expected"`
	Actual   int `json:"actual"`
}

func (e *InvalidTimingMarkCountError) Error() string {
	return fmt.Sprintf("invalid number of timing marks: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidChecksumError reports a front whose checksum does not match.
type InvalidChecksumError struct {
	Front Front `json:"metadata"`
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("invalid checksum: expected %d, got %d", e.Front.Checksum, e.Front.ComputedChecksum)
}

// InvalidEnderCodeError reports a back without the expected ender code.
type InvalidEnderCodeError struct {
	Back     Back      `json:"metadata"`
	Expected BitString `json:"expected"`
}

func (e *InvalidEnderCodeError) Error() string {
	return fmt.Sprintf("invalid ender code: expected %s, got %s", e.Expected, e.Back.EnderCode)
}

// ValueOutOfRangeError reports a decoded field outside its allowed range.
type ValueOutOfRangeError struct {
	Field    string             `json:"field"`
	Value    int                `json:"value"`
	Min      int                `json:"min"`
	Max      int                `json:"max"`
	Metadata TimingMarkMetadata `json:"metadata"`
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("value %d for field %s is out of range [%d, %d]", e.Value, e.Field, e.Min, e.Max)
}

// AmbiguousMetadataError reports bits that decode as both sides.
type AmbiguousMetadataError struct {
	Front Front `json:"front"`
	Back  Back  `json:"back"`
}

func (e *AmbiguousMetadataError) Error() string {
	return fmt.Sprintf("ambiguous metadata: bits %s decode as both front and back", e.Front.Bits)
}
