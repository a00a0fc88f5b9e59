package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumLiteral_KeepsSourceText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"1.0", "1.0"},
		{"9007199254740993", "9007199254740993"},
		{"2.50", "2.50"},
		{"7", "7"},
		{"0.1", "0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, err := NumLiteral(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())

			data, err := json.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, err := NumLiteral("seven")
	assert.Error(t, err)
}

func TestNumLiteral_CanonicalTextMatchesNum(t *testing.T) {
	v, err := NumLiteral("7")
	require.NoError(t, err)
	assert.Equal(t, Num(7), v)
}

func TestValue_JSONRoundTripPreservesNumbers(t *testing.T) {
	var row map[string]Value
	require.NoError(t, json.Unmarshal([]byte(`{"lr":1.0,"seed":9007199254740993,"n":3}`), &row))

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lr":1.0,"seed":9007199254740993,"n":3}`, string(out))
	assert.Contains(t, string(out), `"lr":1.0`)
	assert.Contains(t, string(out), `"seed":9007199254740993`)
}

func TestValue_EqualDistinguishesLiterals(t *testing.T) {
	one, err := NumLiteral("1.0")
	require.NoError(t, err)
	assert.False(t, one.Equal(Num(1)))
	assert.True(t, one.Equal(ParseCell("1.0")))

	big, err := NumLiteral("9007199254740993")
	require.NoError(t, err)
	assert.False(t, big.Equal(Num(9007199254740992)))

	assert.True(t, Num(math.NaN()).Equal(ParseCell("nan")))
	assert.True(t, Num(math.Inf(1)).Equal(ParseCell("Inf")))
}

func TestValue_NonFiniteMarshalsNull(t *testing.T) {
	data, err := json.Marshal(ParseCell("inf"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestParseCell_KeepsNumberText(t *testing.T) {
	var buf []string
	for _, cell := range []string{"3.0", "0.25", "1e-07"} {
		buf = append(buf, ParseCell(cell).String())
	}
	assert.Equal(t, []string{"3.0", "0.25", "1e-07"}, buf)
}
