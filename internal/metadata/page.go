package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PageNumber is a 1-based page index within a ballot. Odd pages are fronts.
type PageNumber uint8

// Bounds of a valid PageNumber.
const (
	MinPageNumber PageNumber = 1
	MaxPageNumber PageNumber = 30
)

// Valid reports whether n is in range.
func (n PageNumber) Valid() bool {
	return n >= MinPageNumber && n <= MaxPageNumber
}

// IsFront reports whether the page is printed on the front of its sheet.
func (n PageNumber) IsFront() bool {
	return n%2 == 1
}

// SheetNumber returns the 1-based sheet the page is printed on.
func (n PageNumber) SheetNumber() int {
	return (int(n) + 1) / 2
}

// Opposite returns the page on the other side of the same sheet.
func (n PageNumber) Opposite() PageNumber {
	if n.IsFront() {
		return n + 1
	}
	return n - 1
}

// BallotType is how a ballot was cast.
type BallotType uint8

const (
	BallotTypePrecinct BallotType = iota
	BallotTypeAbsentee
	BallotTypeProvisional
)

var ballotTypeNames = []string{"precinct", "absentee", "provisional"}

func (t BallotType) String() string {
	if int(t) < len(ballotTypeNames) {
		return ballotTypeNames[t]
	}
	return fmt.Sprintf("BallotType(%d)", uint8(t))
}

// Valid reports whether t is a known ballot type.
func (t BallotType) Valid() bool {
	return int(t) < len(ballotTypeNames)
}

// MarshalJSON encodes the type by name.
func (t BallotType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ballot type %d", uint8(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type name.
func (t *BallotType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range ballotTypeNames {
		if strings.EqualFold(name, s) {
			*t = BallotType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown ballot type %q", s)
}
