package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageNumber(t *testing.T) {
	assert.True(t, PageNumber(1).IsFront())
	assert.False(t, PageNumber(2).IsFront())
	assert.Equal(t, PageNumber(2), PageNumber(1).Opposite())
	assert.Equal(t, PageNumber(29), PageNumber(30).Opposite())
	assert.Equal(t, 1, PageNumber(2).SheetNumber())
	assert.Equal(t, 2, PageNumber(3).SheetNumber())
	assert.False(t, PageNumber(0).Valid())
	assert.False(t, PageNumber(31).Valid())
}

func TestBallotType_JSON(t *testing.T) {
	data, err := json.Marshal(BallotTypeAbsentee)
	require.NoError(t, err)
	assert.JSONEq(t, `"absentee"`, string(data))

	var bt BallotType
	require.NoError(t, json.Unmarshal([]byte(`"Provisional"`), &bt))
	assert.Equal(t, BallotTypeProvisional, bt)
	assert.Error(t, json.Unmarshal([]byte(`"mail"`), &bt))

	_, err = json.Marshal(BallotType(7))
	assert.Error(t, err)
}
