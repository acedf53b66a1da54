package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/annoteval/pkg/annotation"
)

func TestParse(t *testing.T) {
	input := `GO_0000001 HP_0000478
GO_0000001	HP_0000707

# comment
GO_0000002 HP_0000479 0.93
GO_0000001 HP_0000478
`
	table, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())

	targets, ok := table.Targets("GO:0000001")
	require.True(t, ok)
	assert.Equal(t, annotation.NewSet("HP:0000478", "HP:0000707"), targets)

	targets, ok = table.Targets("GO:0000002")
	require.True(t, ok)
	assert.Equal(t, annotation.NewSet("HP:0000479"), targets)

	_, ok = table.Targets("GO_0000001")
	assert.False(t, ok, "keys are normalised")
}

func TestParseMalformed(t *testing.T) {
	input := "GO_0000001 HP_0000478\nGO_0000002\n"
	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLine)

	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 2, lineErr.Line)
	assert.Equal(t, "GO_0000002", lineErr.Text)
	assert.Contains(t, err.Error(), "rule line 2")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules_hp.txt")
	require.NoError(t, os.WriteFile(path, []byte("GO_1 HP_1\n"), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.True(t, table["GO:1"].Has("HP:1"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "GO:0008150", NormalizeID("GO_0008150"))
	assert.Equal(t, "HP:0000118", NormalizeID("HP:0000118"))
}
