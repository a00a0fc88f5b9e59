package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/dataset"
)

func TestCount(t *testing.T) {
	assert.Equal(t, "7", Count(7))
	assert.Equal(t, "12,345", Count(12345))
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestTable_Pretty(t *testing.T) {
	var buf bytes.Buffer
	err := Table(&buf, true, []string{"name", "rows"}, [][]string{
		{"alpha", "3"},
		{"日本語", "10"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name    rows", lines[0])
	assert.Equal(t, "------  ----", lines[1])
	assert.Equal(t, "alpha   3", lines[2])
	assert.Equal(t, "日本語  10", lines[3])
}

func TestTable_TruncatesWideCells(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", MaxCellWidth+10)
	require.NoError(t, Table(&buf, true, []string{"a", "b"}, [][]string{{long, "1"}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.True(t, strings.HasSuffix(lines[2], "…  1"), lines[2])
}

func TestTable_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, false, []string{"a", "b"}, [][]string{{"1", "2"}}))
	assert.Equal(t, "a\tb\n1\t2\n", buf.String())
}

func TestFrame_LimitsRows(t *testing.T) {
	table, err := dataset.NewTable("m")
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, table.AppendRow(dataset.Num(float64(i))))
	}

	var buf bytes.Buffer
	require.NoError(t, Frame(&buf, true, table, 2))
	out := buf.String()
	assert.Contains(t, out, "... 3 more rows")
	assert.NotContains(t, out, "\n4\n")

	buf.Reset()
	require.NoError(t, Frame(&buf, false, table, 0))
	assert.Equal(t, "m\n0\n1\n2\n3\n4\n", buf.String())
}

func TestKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KeyValues(&buf, [][2]string{{"lr", "0.1"}, {"layers", "3"}}))
	assert.Equal(t, "lr      0.1\nlayers  3\n", buf.String())
}
