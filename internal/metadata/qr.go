package metadata

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/icza/bitio"

	"github.com/ironsheep/ballot-interpreter/internal/election"
)

// Prelude starts every QR metadata record.
var Prelude = []byte("VP\x02")

// Field widths of a QR metadata record, in bits.
const (
	ballotHashBytes    = 10
	precinctIndexBits  = 13
	ballotStyleBits    = 13
	pageNumberBits     = 5
	ballotTypeBits     = 4
	ballotAuditIDBits  = 8
	maxBallotAuditSize = 1<<ballotAuditIDBits - 1
)

// QRMetadata is the page identity read from a ballot's QR code.
type QRMetadata struct {
	BallotHash    string     `json:"ballotHash"`
	PrecinctID    string     `json:"precinctId"`
	BallotStyleID string     `json:"ballotStyleId"`
	PageNumber    PageNumber `json:"pageNumber"`
	IsTestMode    bool       `json:"isTestMode"`
	BallotType    BallotType `json:"ballotType"`
	BallotAuditID *string    `json:"ballotAuditId,omitempty"`
}

// QRErrorKind classifies a QR metadata decode failure.
type QRErrorKind string

const (
	QRInvalidPrelude          QRErrorKind = "invalid-prelude"
	QRInvalidBallotType       QRErrorKind = "invalid-ballot-type"
	QRInvalidPrecinctIndex    QRErrorKind = "invalid-precinct-index"
	QRInvalidBallotStyleIndex QRErrorKind = "invalid-ballot-style-index"
	QRInvalidPageNumber       QRErrorKind = "invalid-page-number"
	QRInvalidBallotAuditID    QRErrorKind = "invalid-ballot-audit-id"
	QRTruncated               QRErrorKind = "truncated"
)

// QRDecodeError reports why a QR record could not be decoded. Index and
// Count describe out of range election lookups, Prelude holds a prelude
// that did not match, and Value holds any other offending raw value.
type QRDecodeError struct {
	Kind    QRErrorKind `json:"kind"`
	Value   int         `json:"value,omitempty"`
	Index   int         `json:"index,omitempty"`
	Count   int         `json:"count,omitempty"`
	Prelude []byte      `json:"prelude,omitempty"`
	Err     error       `json:"-"`
}

func (e *QRDecodeError) Error() string {
	switch e.Kind {
	case QRInvalidPrecinctIndex, QRInvalidBallotStyleIndex:
		return fmt.Sprintf("qr metadata: %s %d (count: %d)", e.Kind, e.Index, e.Count)
	case QRTruncated:
		return fmt.Sprintf("qr metadata: truncated: %v", e.Err)
	case QRInvalidBallotAuditID:
		return "qr metadata: ballot audit id is not valid UTF-8"
	case QRInvalidPrelude:
		return fmt.Sprintf("qr metadata: invalid prelude %q", e.Prelude)
	}
	return fmt.Sprintf("qr metadata: %s %d", e.Kind, e.Value)
}

func (e *QRDecodeError) Unwrap() error { return e.Err }

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &QRDecodeError{Kind: QRTruncated, Err: err}
}

// DecodeQR reads a QR metadata record and resolves its indices against e.
func DecodeQR(data []byte, e *election.Election) (QRMetadata, error) {
	r := bitio.NewReader(bytes.NewReader(data))

	prelude := make([]byte, len(Prelude))
	if _, err := io.ReadFull(r, prelude); err != nil {
		return QRMetadata{}, truncated(err)
	}
	if !bytes.Equal(prelude, Prelude) {
		return QRMetadata{}, &QRDecodeError{Kind: QRInvalidPrelude, Prelude: prelude}
	}

	hash := make([]byte, ballotHashBytes)
	if _, err := io.ReadFull(r, hash); err != nil {
		return QRMetadata{}, truncated(err)
	}

	read := func(n uint8) (int, error) {
		v, err := r.ReadBits(n)
		if err != nil {
			return 0, truncated(err)
		}
		return int(v), nil
	}

	precinctIndex, err := read(precinctIndexBits)
	if err != nil {
		return QRMetadata{}, err
	}
	styleIndex, err := read(ballotStyleBits)
	if err != nil {
		return QRMetadata{}, err
	}
	page, err := read(pageNumberBits)
	if err != nil {
		return QRMetadata{}, err
	}
	if !PageNumber(page).Valid() {
		return QRMetadata{}, &QRDecodeError{Kind: QRInvalidPageNumber, Value: page}
	}
	testMode, err := r.ReadBool()
	if err != nil {
		return QRMetadata{}, truncated(err)
	}
	ballotType, err := read(ballotTypeBits)
	if err != nil {
		return QRMetadata{}, err
	}
	if !BallotType(ballotType).Valid() {
		return QRMetadata{}, &QRDecodeError{Kind: QRInvalidBallotType, Value: ballotType}
	}

	var auditID *string
	hasAuditID, err := r.ReadBool()
	if err != nil {
		return QRMetadata{}, truncated(err)
	}
	if hasAuditID {
		n, err := read(ballotAuditIDBits)
		if err != nil {
			return QRMetadata{}, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return QRMetadata{}, truncated(err)
		}
		if !utf8.Valid(raw) {
			return QRMetadata{}, &QRDecodeError{Kind: QRInvalidBallotAuditID}
		}
		s := string(raw)
		auditID = &s
	}

	precinct, ok := e.PrecinctAt(precinctIndex)
	if !ok {
		return QRMetadata{}, &QRDecodeError{Kind: QRInvalidPrecinctIndex, Index: precinctIndex, Count: len(e.Precincts)}
	}
	style, ok := e.BallotStyleAt(styleIndex)
	if !ok {
		return QRMetadata{}, &QRDecodeError{Kind: QRInvalidBallotStyleIndex, Index: styleIndex, Count: len(e.BallotStyles)}
	}

	return QRMetadata{
		BallotHash:    hex.EncodeToString(hash),
		PrecinctID:    precinct.ID,
		BallotStyleID: style.ID,
		PageNumber:    PageNumber(page),
		IsTestMode:    testMode,
		BallotType:    BallotType(ballotType),
		BallotAuditID: auditID,
	}, nil
}

// EncodeQR writes m as a QR metadata record, looking up its indices in e.
func EncodeQR(m QRMetadata, e *election.Election) ([]byte, error) {
	hash, err := hex.DecodeString(m.BallotHash)
	if err != nil || len(hash) != ballotHashBytes {
		return nil, fmt.Errorf("ballot hash must be %d hex characters", 2*ballotHashBytes)
	}
	precinctIndex, ok := e.PrecinctIndex(m.PrecinctID)
	if !ok {
		return nil, fmt.Errorf("unknown precinct %q", m.PrecinctID)
	}
	styleIndex, ok := e.BallotStyleIndex(m.BallotStyleID)
	if !ok {
		return nil, fmt.Errorf("unknown ballot style %q", m.BallotStyleID)
	}
	if !m.PageNumber.Valid() {
		return nil, fmt.Errorf("page number %d out of range", m.PageNumber)
	}
	if !m.BallotType.Valid() {
		return nil, fmt.Errorf("invalid ballot type %d", m.BallotType)
	}
	if m.BallotAuditID != nil && len(*m.BallotAuditID) > maxBallotAuditSize {
		return nil, fmt.Errorf("ballot audit id longer than %d bytes", maxBallotAuditSize)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.TryWrite(Prelude)
	w.TryWrite(hash)
	w.TryWriteBits(uint64(precinctIndex), precinctIndexBits)
	w.TryWriteBits(uint64(styleIndex), ballotStyleBits)
	w.TryWriteBits(uint64(m.PageNumber), pageNumberBits)
	w.TryWriteBool(m.IsTestMode)
	w.TryWriteBits(uint64(m.BallotType), ballotTypeBits)
	w.TryWriteBool(m.BallotAuditID != nil)
	if m.BallotAuditID != nil {
		w.TryWriteBits(uint64(len(*m.BallotAuditID)), ballotAuditIDBits)
		w.TryWrite([]byte(*m.BallotAuditID))
	}
	if w.TryError != nil {
		return nil, w.TryError
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InferMissingPageMetadata returns the metadata of the other side of the
// sheet m was read from: the opposite page number and every other field
// unchanged.
func InferMissingPageMetadata(m QRMetadata) QRMetadata {
	out := m
	out.PageNumber = m.PageNumber.Opposite()
	if m.BallotAuditID != nil {
		id := *m.BallotAuditID
		out.BallotAuditID = &id
	}
	return out
}
