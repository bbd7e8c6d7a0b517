package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Totals",
		Headers: []string{"Name", "Amount"},
		Rows: [][]string{
			{"Netflix", "39.90"},
			{"---"},
			{"Total", "1,039.90"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "Totals")
	assert.Contains(t, lines[2], "Name")
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "1,039.90")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "╰"))
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderTable_RightAlignsValues(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"A", "1.00"}, {"B", "100.00"}},
	})

	assert.Contains(t, out, "│ A    │   1.00 │")
	assert.Contains(t, out, "│ B    │ 100.00 │")
}
