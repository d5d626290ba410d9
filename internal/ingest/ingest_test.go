package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

// sliceParser serves pre-built rows.
type sliceParser struct {
	samples []string
	rows    []*vcf.Variant
	line    int
}

func (p *sliceParser) Next() (*vcf.Variant, error) {
	if p.line >= len(p.rows) {
		return nil, nil
	}
	p.line++
	return p.rows[p.line-1], nil
}

func (p *sliceParser) SampleNames() []string { return p.samples }
func (p *sliceParser) Close() error          { return nil }
func (p *sliceParser) LineNumber() int       { return p.line }

func testProject() *project.Project {
	return project.New(
		[]project.Chromosome{{Name: "1"}, {Name: "2"}},
		[]string{"G1", "G2"},
	)
}

func ingestFile(t *testing.T, p *project.Project, name string) Result {
	t.Helper()

	parser, err := vcf.NewParser(findTestFile(t, name))
	require.NoError(t, err)
	defer parser.Close()

	in, err := NewIngester(p)
	require.NoError(t, err)
	require.NoError(t, in.Ingest(context.Background(), parser))
	return in.Result()
}

func key(chrom, g string, a genome.Allele) project.TrackKey {
	return project.TrackKey{Chromosome: chrom, Genome: g, Allele: a}
}

func TestIngest_MultiGenome(t *testing.T) {
	res := ingestFile(t, testProject(), "multi_genome.vcf")

	assert.Equal(t, Stats{
		Lines:              6,
		Offsets:            7,
		InvalidChromosomes: 1,
		MalformedGenotypes: 1,
		MalformedInfo:      1,
	}, res.Stats)

	assert.Equal(t, offset.List{{50, 3}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Equal(t, offset.List{{50, 3}, {100, -5}, {150, 2}}, res.Alleles[key("1", "G1", genome.Second)])
	assert.Empty(t, res.Alleles[key("1", "G2", genome.First)])
	assert.Equal(t, offset.List{{10, -120}}, res.Alleles[key("2", "G1", genome.Second)])
	assert.Equal(t, offset.List{{10, -120}}, res.Alleles[key("2", "G2", genome.First)])
	assert.Equal(t, offset.List{{10, -120}}, res.Alleles[key("2", "G2", genome.Second)])

	// Every insertion is recorded, deletions never are.
	assert.Equal(t, offset.List{{50, 3}, {50, 3}, {150, 2}}, res.Reference["1"])
	assert.Empty(t, res.Reference["2"])

	assert.NotContains(t, res.TypeFlags, "OTHER", "columns outside the project are ignored")
	assert.True(t, res.Supports("G1", vcf.SNP))
	assert.True(t, res.Supports("G1", vcf.Insertion))
	assert.True(t, res.Supports("G1", vcf.Deletion))
	assert.True(t, res.Supports("G2", vcf.Deletion))
	assert.False(t, res.Supports("G2", vcf.Insertion))
}

func TestIngest_Calls(t *testing.T) {
	res := ingestFile(t, testProject(), "multi_genome.vcf")

	g1 := res.Variants[project.GenomeKey{Chromosome: "1", Genome: "G1"}]
	require.Len(t, g1, 3)

	assert.Equal(t, genome.Insertion, g1[0].Kind)
	assert.Equal(t, genome.OccupancyBoth, g1[0].Occupancy)
	assert.Equal(t, int64(3), g1[0].Length)
	assert.Equal(t, 30.0, g1[0].Score)
	assert.Equal(t, 5, g1[0].Line)

	assert.Equal(t, genome.Deletion, g1[1].Kind)
	assert.Equal(t, genome.OccupancySecond, g1[1].Occupancy)
	assert.True(t, g1[1].Phased)

	assert.Equal(t, genome.Mix, g1[2].Kind, "SNP on one allele, insertion on the other")

	// G2's malformed genotype on line 7 produced no call.
	g2 := res.Variants[project.GenomeKey{Chromosome: "1", Genome: "G2"}]
	require.Len(t, g2, 2)
	assert.Equal(t, genome.Reference, g2[0].Kind)

	// The symbolic insertion without SVLEN leaves only reference calls.
	g2chr2 := res.Variants[project.GenomeKey{Chromosome: "2", Genome: "G2"}]
	require.Len(t, g2chr2, 2)
	assert.Equal(t, genome.Deletion, g2chr2[0].Kind)
	assert.Equal(t, genome.Reference, g2chr2[1].Kind)
}

func TestIngest_SingleInsertion(t *testing.T) {
	p := project.New([]project.Chromosome{{Name: "1"}}, []string{"G1"})
	res := ingestFile(t, p, "single_insertion.vcf")

	assert.Equal(t, offset.List{{1000, 3}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Empty(t, res.Alleles[key("1", "G1", genome.Second)])
	assert.Equal(t, offset.List{{1000, 3}}, res.Reference["1"])
}

func TestIngest_MalformedGenotypeSkipsGenomeOnly(t *testing.T) {
	parser := &sliceParser{
		samples: []string{"G1", "G2"},
		rows: []*vcf.Variant{
			{Chrom: "1", Pos: 10, Ref: "A", Alt: "AC", Format: "GT", Samples: []string{"0/0/1", "1/1"}},
			{Chrom: "1", Pos: 20, Ref: "A", Alt: "AC", Format: "GT", Samples: []string{"1/1", "0|1"}},
		},
	}

	in, err := NewIngester(testProject())
	require.NoError(t, err)
	require.NoError(t, in.Ingest(context.Background(), parser))
	res := in.Result()

	assert.Equal(t, 1, res.Stats.MalformedGenotypes)
	assert.Equal(t, offset.List{{20, 1}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Equal(t, offset.List{{10, 1}}, res.Alleles[key("1", "G2", genome.First)])
	assert.Equal(t, offset.List{{10, 1}, {20, 1}}, res.Alleles[key("1", "G2", genome.Second)])
}

func TestIngest_AltIndexOutOfRange(t *testing.T) {
	parser := &sliceParser{
		samples: []string{"G1"},
		rows: []*vcf.Variant{
			{Chrom: "1", Pos: 10, Ref: "A", Alt: "AC", Samples: []string{"1/3"}},
		},
	}

	in, err := NewIngester(testProject())
	require.NoError(t, err)
	require.NoError(t, in.Ingest(context.Background(), parser))
	res := in.Result()

	assert.Equal(t, offset.List{{10, 1}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Empty(t, res.Alleles[key("1", "G1", genome.Second)])
}

func TestIngest_PositionBeyondChromosome(t *testing.T) {
	p := project.New([]project.Chromosome{{Name: "1", Length: 100}}, []string{"G1"})
	parser := &sliceParser{
		samples: []string{"G1"},
		rows: []*vcf.Variant{
			{Chrom: "1", Pos: 50, Ref: "A", Alt: "AC", Samples: []string{"1/1"}},
			{Chrom: "1", Pos: 150, Ref: "A", Alt: "AC", Samples: []string{"1/1"}},
		},
	}

	in, err := NewIngester(p)
	require.NoError(t, err)
	require.NoError(t, in.Ingest(context.Background(), parser))
	res := in.Result()

	assert.Equal(t, 1, res.Stats.OutOfRange)
	assert.Equal(t, offset.List{{50, 1}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Equal(t, offset.List{{50, 1}}, res.Reference["1"])
}

func TestIngest_Cancelled(t *testing.T) {
	parser := &sliceParser{
		samples: []string{"G1"},
		rows:    []*vcf.Variant{{Chrom: "1", Pos: 10, Ref: "A", Alt: "AC", Samples: []string{"1/1"}}},
	}

	in, err := NewIngester(testProject())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, in.Ingest(ctx, parser), context.Canceled)
}

func TestNewIngester_InvalidProject(t *testing.T) {
	_, err := NewIngester(project.New(nil, []string{"G1"}))
	assert.ErrorIs(t, err, project.ErrNoChromosomes)

	_, err = NewIngester(project.New([]project.Chromosome{{Name: "1"}}, nil))
	assert.ErrorIs(t, err, project.ErrNoGenomes)
}

func TestBuilder_ResultResets(t *testing.T) {
	b := NewBuilder()
	b.AddVariant("G1", genome.First, "1", 10, 0, vcf.SNP)
	b.AddVariant("G1", genome.First, "1", 20, -2, vcf.Deletion)

	res := b.Result()
	assert.Equal(t, offset.List{{20, -2}}, res.Alleles[key("1", "G1", genome.First)])
	assert.Empty(t, res.Reference)
	assert.Equal(t, 1, res.Stats.Offsets)

	assert.Empty(t, b.Result().Alleles, "builder starts over after handoff")
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
