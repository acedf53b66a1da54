package dataset

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

func TestParseTerms(t *testing.T) {
	assert.Equal(t, annotation.NewSet("HP:1", "HP:2"), ParseTerms("HP:1, HP:2,,HP:1"))
	assert.Equal(t, 0, ParseTerms("").Len())
	assert.Equal(t, "HP:1,HP:2", EncodeTerms(annotation.NewSet("HP:2", "HP:1")))
}

func TestParseEvidence(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []annotation.Scored
		wantErr bool
	}{
		{name: "empty", in: ""},
		{
			name: "two items",
			in:   "GO:0001|0.5, GO:0002|1",
			want: []annotation.Scored{{Source: "GO:0001", Score: 0.5}, {Source: "GO:0002", Score: 1}},
		},
		{name: "missing score", in: "GO:0001", wantErr: true},
		{name: "bad score", in: "GO:0001|high", wantErr: true},
		{name: "score out of range", in: "GO:0001|1.5", wantErr: true},
		{name: "nan", in: "GO:0001|NaN", wantErr: true},
		{name: "no source", in: "|0.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvidence(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeEvidence(t *testing.T) {
	ev := []annotation.Scored{{Source: "GO:0001", Score: 0.5}, {Source: "GO:0002", Score: 0.25}}
	encoded := EncodeEvidence(ev)
	assert.Equal(t, "GO:0001|0.5,GO:0002|0.25", encoded)

	decoded, err := ParseEvidence(encoded)
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)
}

func TestReadSamples(t *testing.T) {
	input := "gene\tannotations\tpredictions\textra\n" +
		"G1\tHP:1,HP:2\tGO:1|0.9,GO:2|0.1\tx\n" +
		"G2\t\tGO:3|0.4\ty\n"

	table, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Samples, 2)
	assert.Equal(t, []string{"gene", "annotations", "predictions", "extra"}, table.Header)

	s := table.Samples[0]
	assert.Equal(t, "G1", s.Gene)
	assert.Equal(t, annotation.NewSet("HP:1", "HP:2"), s.Truth)
	assert.Equal(t, []annotation.Scored{{Source: "GO:1", Score: 0.9}, {Source: "GO:2", Score: 0.1}}, s.Evidence)
	assert.Equal(t, "x", s.Fields[3])

	assert.Equal(t, 0, table.Samples[1].Truth.Len())
	assert.Len(t, table.Samples, 2)
}

func TestReadSamplesAliases(t *testing.T) {
	input := "genes\thp_annotations\tdeepgo_annotations\n" +
		"G1\tHP:1\tGO:1|0.3\n"
	table, err := ReadSamples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Samples, 1)
	assert.Equal(t, "G1", table.Samples[0].Gene)
}

func TestReadSamplesErrors(t *testing.T) {
	_, err := ReadSamples(strings.NewReader("gene\tannotations\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadSamples(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	input := "gene\tannotations\tpredictions\n" +
		"G1\tHP:1\tGO:1|0.3\n" +
		"G2\tHP:1\tGO:1;0.3\n"
	_, err = ReadSamples(strings.NewReader(input))
	require.ErrorIs(t, err, ErrMalformedRecord)

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, 3, recErr.Line)
	assert.Equal(t, "predictions", recErr.Column)
}

func TestReadTraining(t *testing.T) {
	input := "gene\tannotations\n" +
		"G1\tHP:1,HP:2\n" +
		"G2\tHP:3\n"
	sets, err := ReadTraining(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []annotation.Set{annotation.NewSet("HP:1", "HP:2"), annotation.NewSet("HP:3")}, sets)

	_, err = ReadTraining(strings.NewReader("gene\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadTerms(t *testing.T) {
	terms, err := ReadTerms(strings.NewReader("HP:1\n\n# header\nHP:2\textra\n"))
	require.NoError(t, err)
	assert.Equal(t, annotation.NewSet("HP:1", "HP:2"), terms)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.tsv")
	test := filepath.Join(dir, "test.tsv")
	terms := filepath.Join(dir, "terms.txt")
	require.NoError(t, os.WriteFile(train, []byte("annotations\nHP:1\n"), 0o644))
	require.NoError(t, os.WriteFile(test, []byte("gene\tannotations\tpredictions\nG1\tHP:1\tGO:1|1\n"), 0o644))
	require.NoError(t, os.WriteFile(terms, []byte("HP:1\n"), 0o644))

	sets, err := LoadTraining(train)
	require.NoError(t, err)
	assert.Len(t, sets, 1)

	table, err := LoadSamples(test)
	require.NoError(t, err)
	assert.Len(t, table.Samples, 1)

	vocab, err := LoadTerms(terms)
	require.NoError(t, err)
	assert.True(t, vocab.Has("HP:1"))

	_, err = LoadSamples(filepath.Join(dir, "missing.tsv"))
	assert.Error(t, err)
}
