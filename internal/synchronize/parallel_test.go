package synchronize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/ingest"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

func trackKey(chrom, g string, a genome.Allele) project.TrackKey {
	return project.TrackKey{Chromosome: chrom, Genome: g, Allele: a}
}

// twoGenomes: G1 carries a 3-base insertion after 50 on both alleles and a
// 5-base deletion after 100 on its second allele; G2 has no indels.
func twoGenomes() (*project.Project, ingest.Result) {
	p := project.New(
		[]project.Chromosome{{Name: "1"}, {Name: "2"}},
		[]string{"G1", "G2"},
	)
	b := ingest.NewBuilder()
	b.AddVariant("G1", genome.First, "1", 50, 3, vcf.Insertion)
	b.AddVariant("G1", genome.Second, "1", 50, 3, vcf.Insertion)
	b.AddVariant("G1", genome.Second, "1", 100, -5, vcf.Deletion)
	b.AddVariant("G2", genome.First, "2", 10, 0, vcf.SNP)
	return p, b.Result()
}

func TestRun_TwoGenomes(t *testing.T) {
	p, in := twoGenomes()

	s := NewSynchronizer(2)
	s.SetLogger(zaptest.NewLogger(t))
	res, err := s.Run(context.Background(), p, in)
	require.NoError(t, err)
	require.NoError(t, res.Failures)

	assert.Equal(t, offset.List{{50, 3}}, res.Reference["1"], "duplicate insertions collapsed")
	assert.Empty(t, res.Reference["2"])
	assert.Len(t, res.Meta, 8, "every genome, allele and chromosome")

	assert.Empty(t, res.Meta[trackKey("1", "G1", genome.First)])
	assert.Equal(t, offset.List{{104, 5}}, res.Meta[trackKey("1", "G1", genome.Second)])
	assert.Equal(t, offset.List{{51, 3}}, res.Meta[trackKey("1", "G2", genome.First)])

	// G2 lacks the insertion, so position 60 shifts by the 3 reserved bases.
	tr, ok := res.Translator(trackKey("1", "G2", genome.Second))
	require.True(t, ok)
	assert.Equal(t, int64(63), tr.ToMetaGenomePosition(60))

	// G1's second allele: genome 51-53 are its inserted bases, genome 104
	// follows the deletion.
	tr, ok = res.Translator(trackKey("1", "G1", genome.Second))
	require.True(t, ok)
	assert.True(t, tr.InInsertion(51))
	assert.Equal(t, int64(51), tr.ToMetaGenomePosition(51))
	assert.Equal(t, int64(51), tr.ToReferencePosition(54))
	assert.Equal(t, int64(54), tr.ToMetaGenomePosition(54))
	assert.Equal(t, int64(106), tr.ToReferencePosition(104))
	assert.Equal(t, int64(109), tr.ToMetaGenomePosition(104))

	for key, l := range res.Meta {
		assert.NoError(t, l.Validate(), key.String())
	}
}

func TestRun_SingleInsertionScenario(t *testing.T) {
	p := project.New([]project.Chromosome{{Name: "1"}}, []string{"G1"})
	b := ingest.NewBuilder()
	b.AddVariant("G1", genome.First, "1", 1000, 3, vcf.Insertion)
	in := b.Result()

	assert.Equal(t, offset.List{{1000, 3}}, in.Alleles[trackKey("1", "G1", genome.First)])
	assert.Equal(t, offset.List{{1000, 3}}, in.Reference["1"])

	res, err := NewSynchronizer(1).Run(context.Background(), p, in)
	require.NoError(t, err)

	// The reference track reserves the inserted bases.
	assert.Equal(t, offset.List{{1001, 3}}, res.ReferenceTrack["1"])
	ref := res.ReferenceTranslator("1")
	assert.Equal(t, int64(3), ref.ToMetaGenomePosition(1001)-1001)

	// So does the allele without the insertion.
	assert.Equal(t, offset.List{{1001, 3}}, res.Meta[trackKey("1", "G1", genome.Second)])

	// The allele with the insertion defines the meta layout itself.
	tr, ok := res.Translator(trackKey("1", "G1", genome.First))
	require.True(t, ok)
	assert.Equal(t, int64(1001), tr.ToMetaGenomePosition(1001))
	assert.True(t, tr.InInsertion(1001))
	assert.Equal(t, int64(1004), tr.ToMetaGenomePosition(1004))
	assert.Equal(t, int64(1001), tr.ToReferencePosition(1004))
}

func TestRun_FailureIsolated(t *testing.T) {
	p, in := twoGenomes()
	bad := trackKey("1", "G2", genome.Second)
	in.Alleles[bad] = offset.List{{200, -1}, {100, -1}}

	res, err := NewSynchronizer(4).Run(context.Background(), p, in)
	require.NoError(t, err)

	errs := multierr.Errors(res.Failures)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrInvariantViolation)

	var te *TrackError
	require.ErrorAs(t, errs[0], &te)
	assert.Equal(t, bad, te.Key)

	_, ok := res.Translator(bad)
	assert.False(t, ok)
	assert.Equal(t, offset.List{{51, 3}}, res.Meta[trackKey("1", "G2", genome.First)])
	assert.Len(t, res.Meta, 7)
}

func TestRun_Cancelled(t *testing.T) {
	p, in := twoGenomes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSynchronizer(2).Run(ctx, p, in)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRun_InvalidProject(t *testing.T) {
	_, err := NewSynchronizer(1).Run(context.Background(), project.New(nil, nil), ingest.Result{})
	assert.ErrorIs(t, err, project.ErrNoChromosomes)
}

func TestRun_Deterministic(t *testing.T) {
	p, in := twoGenomes()

	first, err := NewSynchronizer(1).Run(context.Background(), p, in)
	require.NoError(t, err)
	second, err := NewSynchronizer(8).Run(context.Background(), p, in)
	require.NoError(t, err)

	assert.Equal(t, first.Meta, second.Meta)
	assert.Equal(t, first.ToReference, second.ToReference)
	assert.Equal(t, first.ReferenceTrack, second.ReferenceTrack)
}
