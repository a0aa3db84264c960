package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRendersRowsInOrder(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "slug", "title")
	tbl.AddRow("hello", "Hello world")
	tbl.AddRow("second", "Second post")
	assert.Equal(t, 2, tbl.Len())
	require.NoError(t, tbl.Render())

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "SLUG")
	assert.Contains(t, out, "Hello world")
	assert.Less(t, strings.Index(out, "hello"), strings.Index(out, "second"))
	assert.NotContains(t, out, "+--")
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "id")
	assert.Zero(t, tbl.Len())
	require.NoError(t, tbl.Render())
}
