package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

// Ingester feeds VCF rows of one or more files into a Builder.
type Ingester struct {
	project *project.Project
	builder *Builder
	stats   Stats
	logger  *zap.Logger
}

// NewIngester creates an ingester for p. It fails on a structurally invalid
// project so no work starts.
func NewIngester(p *project.Project) (*Ingester, error) {
	if p == nil {
		return nil, project.ErrNoChromosomes
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Ingester{
		project: p,
		builder: NewBuilder(),
		logger:  zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for warning and info messages.
func (in *Ingester) SetLogger(l *zap.Logger) {
	in.logger = l
}

// Ingest reads every row of parser. Malformed lines, genotypes and INFO
// fields are logged and skipped. ctx is polled once per line; on
// cancellation the partial lists must not be used.
func (in *Ingester) Ingest(ctx context.Context, parser vcf.VariantParser) error {
	columns := in.genomeColumns(parser.SampleNames())
	if len(columns) == 0 {
		in.logger.Warn("no project genomes in VCF columns",
			zap.Strings("columns", parser.SampleNames()))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, err := parser.Next()
		if err != nil {
			var perr *vcf.ParseError
			if errors.As(err, &perr) {
				in.stats.MalformedLines++
				in.logger.Warn("skipping malformed line", zap.Error(err))
				continue
			}
			return fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			return nil
		}
		in.stats.Lines++
		in.ingestRow(v, parser.LineNumber(), columns)
	}
}

// genomeColumn pairs a VCF sample column with a project genome.
type genomeColumn struct {
	index int
	name  string
}

func (in *Ingester) genomeColumns(samples []string) []genomeColumn {
	var columns []genomeColumn
	for i, s := range samples {
		if in.project.HasGenome(s) {
			columns = append(columns, genomeColumn{index: i, name: s})
		}
	}
	return columns
}

func (in *Ingester) ingestRow(v *vcf.Variant, line int, columns []genomeColumn) {
	chrom, err := in.project.ResolveChromosome(v.Chrom)
	if err != nil {
		in.stats.InvalidChromosomes++
		in.logger.Debug("skipping row", zap.Int("line", line), zap.Error(err))
		return
	}
	if err := in.project.CheckPosition(chrom, v.Pos); err != nil {
		in.stats.OutOfRange++
		in.logger.Warn("skipping row", zap.Int("line", line), zap.Error(err))
		return
	}

	classes := vcf.ClassifyAlts(v.Ref, v.Alt, v.Info)
	for _, c := range classes {
		if c.Err != nil {
			in.stats.MalformedInfo++
			in.logger.Warn("skipping alternative",
				zap.Int("line", line),
				zap.String("alt", c.Alt),
				zap.Error(c.Err))
		}
	}

	for _, col := range columns {
		gt, err := vcf.ParseGenotype(v.GenotypeField(col.index))
		if err != nil {
			in.stats.MalformedGenotypes++
			in.logger.Warn("skipping genotype",
				zap.Int("line", line),
				zap.String("genome", col.name),
				zap.Error(err))
			continue
		}

		call := genome.Variant{
			GenomeName:        col.name,
			Chromosome:        chrom,
			ReferencePosition: v.Pos,
			Score:             v.Qual,
			Phased:            gt.Phased,
			Line:              line,
		}
		var types []vcf.VariantType
		for _, allele := range genome.Alleles {
			idx := gt.Index(int(allele))
			if idx == vcf.NoVariation {
				continue
			}
			if idx >= len(classes) {
				in.logger.Warn("genotype refers to missing alternative",
					zap.Int("line", line),
					zap.String("genome", col.name),
					zap.Stringer("genotype", gt))
				continue
			}
			c := classes[idx]
			if c.Err != nil {
				continue
			}
			in.builder.AddVariant(col.name, allele, chrom, v.Pos, c.Length, c.Type)
			call.Occupancy = call.Occupancy.With(allele)
			if len(types) == 0 || c.Length > call.Length {
				call.Length = c.Length
			}
			types = append(types, c.Type)
		}
		call.Kind = callKind(gt, types)
		in.builder.AddCall(call)
	}
}

// callKind summarises the types carried by a genome at one locus.
func callKind(gt vcf.Genotype, types []vcf.VariantType) genome.Kind {
	if len(types) == 0 {
		if gt.NoCall() {
			return genome.NoCall
		}
		return genome.Reference
	}
	for _, t := range types[1:] {
		if t != types[0] {
			return genome.Mix
		}
	}
	switch types[0] {
	case vcf.Insertion:
		return genome.Insertion
	case vcf.Deletion:
		return genome.Deletion
	}
	return genome.SNP
}

// Result hands over everything ingested so far.
func (in *Ingester) Result() Result {
	res := in.builder.Result()
	offsets := res.Stats.Offsets
	res.Stats = in.stats
	res.Stats.Offsets = offsets
	in.stats = Stats{}
	return res
}
