package ontology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/annoteval/pkg/annotation"
)

const testOBO = `format-version: 1.2
ontology: hp

[Term]
id: HP:0000001
name: All

[Term]
id: HP:0000118
name: Phenotypic abnormality
is_a: HP:0000001 ! All

[Term]
id: HP:0000478
name: Abnormality of the eye
alt_id: HP:0001000
is_a: HP:0000118 ! Phenotypic abnormality

[Term]
id: HP:0000479
name: Abnormal retinal morphology
is_a: HP:0000478 ! Abnormality of the eye
relationship: part_of HP:0000707 ! Abnormality of the nervous system

[Term]
id: HP:0000707
name: Abnormality of the nervous system
is_a: HP:0000118

[Term]
id: HP:0009999
name: obsolete thing
is_a: HP:0000118
is_obsolete: true

[Typedef]
id: part_of
name: part of
is_transitive: true
`

func parseTest(t *testing.T, opts ...ParseOption) *Ontology {
	t.Helper()
	ont, err := ParseOBO(strings.NewReader(testOBO), opts...)
	require.NoError(t, err)
	return ont
}

func TestParseOBO(t *testing.T) {
	ont := parseTest(t)

	assert.Equal(t, 5, ont.Len())
	assert.False(t, ont.Has("HP:0009999"), "obsolete terms are dropped")
	assert.False(t, ont.Has("part_of"), "typedefs are not terms")

	term, ok := ont.Term("HP:0000478")
	require.True(t, ok)
	assert.Equal(t, "Abnormality of the eye", term.Name)
	assert.Equal(t, []string{"HP:0001000"}, term.AltIDs)
	assert.Equal(t, []string{"HP:0000118"}, term.Parents)

	primary, ok := ont.Resolve("HP:0001000")
	require.True(t, ok)
	assert.Equal(t, "HP:0000478", primary)
}

func TestParseOBOEmpty(t *testing.T) {
	_, err := ParseOBO(strings.NewReader("format-version: 1.2\n"))
	assert.ErrorIs(t, err, ErrEmptyOntology)
}

func TestParseOBOAdjacentStanzas(t *testing.T) {
	const doc = `[Term]
id: HP:1
[Term]
id: HP:2
is_a: HP:1

[Term]
id: HP:3
is_a: HP:1
[Typedef]
id: part_of
[Term]
id: HP:4
is_a: HP:3`

	ont, err := ParseOBO(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 4, ont.Len())
	for _, id := range []string{"HP:1", "HP:2", "HP:3", "HP:4"} {
		assert.True(t, ont.Has(id), id)
	}
	assert.False(t, ont.Has("part_of"))

	parents, err := ont.Parents("HP:3")
	require.NoError(t, err)
	assert.Equal(t, []string{"HP:1"}, parents)

	anc, err := ont.Ancestors("HP:4")
	require.NoError(t, err)
	assert.Equal(t, annotation.NewSet("HP:4", "HP:3", "HP:1"), anc)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hp.obo")
	require.NoError(t, os.WriteFile(path, []byte(testOBO), 0o644))

	ont, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, ont.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.obo"))
	assert.Error(t, err)
}

func TestAncestors(t *testing.T) {
	tests := []struct {
		name string
		opts []ParseOption
		id   string
		want annotation.Set
	}{
		{
			name: "root",
			id:   "HP:0000001",
			want: annotation.NewSet("HP:0000001"),
		},
		{
			name: "is_a only",
			id:   "HP:0000479",
			want: annotation.NewSet("HP:0000479", "HP:0000478", "HP:0000118", "HP:0000001"),
		},
		{
			name: "with part_of",
			opts: []ParseOption{WithRelationships("part_of")},
			id:   "HP:0000479",
			want: annotation.NewSet("HP:0000479", "HP:0000478", "HP:0000707", "HP:0000118", "HP:0000001"),
		},
		{
			name: "alt id",
			id:   "HP:0001000",
			want: annotation.NewSet("HP:0000478", "HP:0000118", "HP:0000001"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ont := parseTest(t, tt.opts...)
			got, err := ont.Ancestors(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAncestorsUnknown(t *testing.T) {
	ont := parseTest(t)
	_, err := ont.Ancestors("HP:0009999")
	assert.ErrorIs(t, err, ErrUnknownTerm)

	_, err = ont.Parents("GO:0008150")
	assert.ErrorIs(t, err, ErrUnknownTerm)
}

func TestAncestorsCachedCopy(t *testing.T) {
	ont := parseTest(t, WithCacheSize(2))

	first, err := ont.Ancestors("HP:0000478")
	require.NoError(t, err)
	first.Add("HP:9999999")

	second, err := ont.Ancestors("HP:0000478")
	require.NoError(t, err)
	assert.False(t, second.Has("HP:9999999"), "callers own the returned set")
	assert.Equal(t, 3, second.Len())

	// Evict and recompute.
	for _, id := range []string{"HP:0000001", "HP:0000118", "HP:0000707"} {
		_, err := ont.Ancestors(id)
		require.NoError(t, err)
	}
	third, err := ont.Ancestors("HP:0000478")
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func closedCorpus() []annotation.Set {
	return []annotation.Set{
		annotation.NewSet("HP:0000001", "HP:0000118", "HP:0000478"),
		annotation.NewSet("HP:0000001", "HP:0000118", "HP:0000478", "HP:0000479"),
		annotation.NewSet("HP:0000001", "HP:0000118", "HP:0000707"),
		annotation.NewSet("HP:0000001", "HP:0000118"),
	}
}

func TestCalculateIC(t *testing.T) {
	ont := parseTest(t)
	ic, err := ont.CalculateIC(closedCorpus())
	require.NoError(t, err)
	assert.Equal(t, 5, ic.Len())

	want := map[string]float64{
		"HP:0000001": 0, // root
		"HP:0000118": 0, // log2(4/4)
		"HP:0000478": 1, // log2(4/2)
		"HP:0000479": 1, // log2(2/1)
		"HP:0000707": 2, // log2(4/1)
		"HP:0001000": 1, // alt id of HP:0000478
	}
	for id, v := range want {
		got, err := ic.IC(id)
		require.NoError(t, err, id)
		assert.InDelta(t, v, got, 1e-12, id)
	}
}

func TestCalculateICWithRelationships(t *testing.T) {
	ont := parseTest(t, WithRelationships("part_of"))
	ic, err := ont.CalculateIC(closedCorpus())
	require.NoError(t, err)

	// HP:0000479 now has parents HP:0000478 (2) and HP:0000707 (1).
	got, err := ic.IC("HP:0000479")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)
}

func TestICUnannotatedAndUnknown(t *testing.T) {
	ont := parseTest(t)
	ic, err := ont.CalculateIC([]annotation.Set{annotation.NewSet("HP:0000001")})
	require.NoError(t, err)

	got, err := ic.IC("HP:0000479")
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = ic.IC("HP:0009999")
	assert.ErrorIs(t, err, ErrUnknownTerm)

	_, err = ont.CalculateIC([]annotation.Set{annotation.NewSet("GO:0008150")})
	assert.ErrorIs(t, err, ErrUnknownTerm)
}

func TestInformationContentClamp(t *testing.T) {
	assert.Zero(t, informationContent(0, 3))
	assert.Zero(t, informationContent(2, 3))
	assert.InDelta(t, 3.0, informationContent(8, 1), 1e-12)
}
