package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/synchronize"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *synchronize.Result {
	g1a := project.TrackKey{Chromosome: "1", Genome: "G1", Allele: genome.First}
	g1b := project.TrackKey{Chromosome: "1", Genome: "G1", Allele: genome.Second}
	return &synchronize.Result{
		Reference:      map[string]offset.List{"1": {{50, 3}}},
		ReferenceTrack: map[string]offset.List{"1": {{51, 3}}},
		Meta: map[project.TrackKey]offset.List{
			g1a: nil,
			g1b: {{104, 5}, {200, 9}},
		},
		ToReference: map[project.TrackKey]offset.List{
			g1a: {{54, -3}},
			g1b: {{54, -3}, {104, 2}},
		},
	}
}

func TestOpenClose(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestWriteAndLookupOffsets(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult()))

	l, err := s.LookupList(KindMeta, "1", "G1", "B")
	require.NoError(t, err)
	assert.Equal(t, offset.List{{104, 5}, {200, 9}}, l)

	l, err = s.LookupList(KindMeta, "1", "G1", "A")
	require.NoError(t, err)
	assert.Empty(t, l)

	l, err = s.LookupList(KindReference, "1", "ignored", "ignored")
	require.NoError(t, err)
	assert.Equal(t, offset.List{{50, 3}}, l)

	n, err := s.CountOffsets(KindToReference)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestWriteResultReplaces(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult()))
	require.NoError(t, s.WriteResult(&synchronize.Result{
		Reference: map[string]offset.List{"2": {{7, 1}}},
	}))

	n, err := s.CountOffsets(KindMeta)
	require.NoError(t, err)
	assert.Zero(t, n)

	l, err := s.LookupList(KindReference, "2", "", "")
	require.NoError(t, err)
	assert.Equal(t, offset.List{{7, 1}}, l)
}

func TestStoredTranslator(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult()))

	tr, err := s.Translator(project.TrackKey{Chromosome: "1", Genome: "G1", Allele: genome.Second})
	require.NoError(t, err)
	assert.Equal(t, int64(106), tr.ToReferencePosition(104))
	assert.Equal(t, int64(109), tr.ToMetaGenomePosition(104))

	ref, err := s.ReferenceTranslator("1")
	require.NoError(t, err)
	assert.Equal(t, int64(1004), ref.ToMetaGenomePosition(1001))
}

func TestStoredTranslator_UnknownTrack(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult()))

	_, err := s.Translator(project.TrackKey{Chromosome: "1", Genome: "G9", Allele: genome.First})
	assert.ErrorIs(t, err, ErrTrackNotFound)

	_, err = s.Translator(project.TrackKey{Chromosome: "7", Genome: "G1", Allele: genome.First})
	assert.ErrorIs(t, err, ErrTrackNotFound)

	_, err = s.ReferenceTranslator("7")
	assert.ErrorIs(t, err, ErrTrackNotFound)

	// A stored track with an empty meta list is still found.
	tr, err := s.Translator(project.TrackKey{Chromosome: "1", Genome: "G1", Allele: genome.First})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), tr.ToMetaGenomePosition(1001))
}

func TestWriteResult_FailureKeepsPreviousOffsets(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult(sampleResult()))

	// Clearing tracks fails after offsets were already cleared.
	_, err := s.db.Exec("DROP TABLE tracks")
	require.NoError(t, err)
	require.Error(t, s.WriteResult(&synchronize.Result{
		Reference: map[string]offset.List{"2": {{7, 1}}},
	}))

	l, err := s.LookupList(KindMeta, "1", "G1", "B")
	require.NoError(t, err)
	assert.Equal(t, offset.List{{104, 5}, {200, 9}}, l)

	n, err := s.CountOffsets(KindReference)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSources(t *testing.T) {
	s := openInMemory(t)

	path := filepath.Join(t.TempDir(), "input.vcf")
	require.NoError(t, os.WriteFile(path, []byte("##fileformat=VCFv4.2\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(21), fp.Size)

	current, err := s.SourcesCurrent([]FileFingerprint{fp})
	require.NoError(t, err)
	assert.False(t, current)

	require.NoError(t, s.ReplaceSources([]FileFingerprint{fp}))

	stored, err := s.Sources()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, fp.Path, stored[0].Path)

	current, err = s.SourcesCurrent([]FileFingerprint{fp})
	require.NoError(t, err)
	assert.True(t, current)

	changed := fp
	changed.ModTime = fp.ModTime.Add(time.Second)
	current, err = s.SourcesCurrent([]FileFingerprint{changed})
	require.NoError(t, err)
	assert.False(t, current)
}

func TestStatFile_Missing(t *testing.T) {
	_, err := StatFile(filepath.Join(t.TempDir(), "nope.vcf"))
	assert.Error(t, err)
}

func TestOpen_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "offsets.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteResult(sampleResult()))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	l, err := s.LookupList(KindReferenceTrack, "1", "", "")
	require.NoError(t, err)
	assert.Equal(t, offset.List{{51, 3}}, l)
}
