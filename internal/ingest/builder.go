// Package ingest turns parsed VCF rows into raw per-allele offset lists and
// the shared reference offset lists.
package ingest

import (
	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/vcf"
)

// Result is the output of the ingestion phase. It is handed to
// synchronization as a whole and not modified afterwards.
type Result struct {
	// Reference holds, per chromosome, every insertion seen in any genome,
	// in ingestion order.
	Reference map[string]offset.List
	// Alleles holds the raw (reference position, signed length) offsets of
	// each track, in VCF order.
	Alleles map[project.TrackKey]offset.List
	// Variants holds each genome's calls per chromosome, in VCF order.
	Variants map[project.GenomeKey][]genome.Variant
	// TypeFlags records which variant types each genome's source can answer.
	TypeFlags map[string]map[vcf.VariantType]bool
	Stats     Stats
}

// Supports reports whether genomeName had any variant of type t.
func (r Result) Supports(genomeName string, t vcf.VariantType) bool {
	return r.TypeFlags[genomeName][t]
}

// Stats counts what ingestion saw and skipped.
type Stats struct {
	Lines              int
	Offsets            int
	InvalidChromosomes int
	OutOfRange         int
	MalformedGenotypes int
	MalformedInfo      int
	MalformedLines     int
}

// Builder accumulates offset lists. It is not safe for concurrent use.
type Builder struct {
	res Result
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.res = Result{
		Reference: make(map[string]offset.List),
		Alleles:   make(map[project.TrackKey]offset.List),
		Variants:  make(map[project.GenomeKey][]genome.Variant),
		TypeFlags: make(map[string]map[vcf.VariantType]bool),
	}
}

// AddVariant records one classified alternative carried by one allele.
// Callers must add variants of a chromosome in ascending reference order.
func (b *Builder) AddVariant(genomeName string, allele genome.Allele, chromosome string, referencePosition, length int64, t vcf.VariantType) {
	flags := b.res.TypeFlags[genomeName]
	if flags == nil {
		flags = make(map[vcf.VariantType]bool, len(vcf.VariantTypes))
		b.res.TypeFlags[genomeName] = flags
	}
	flags[t] = true

	if t == vcf.SNP {
		return
	}

	key := project.TrackKey{Chromosome: chromosome, Genome: genomeName, Allele: allele}
	o := offset.Offset{Position: referencePosition, Value: length}
	b.res.Alleles[key] = append(b.res.Alleles[key], o)
	b.res.Stats.Offsets++

	// Insertions widen the reference track whichever genome carries them.
	if t == vcf.Insertion {
		b.res.Reference[chromosome] = append(b.res.Reference[chromosome], o)
	}
}

// AddCall records a genome's call at one locus.
func (b *Builder) AddCall(v genome.Variant) {
	key := project.GenomeKey{Chromosome: v.Chromosome, Genome: v.GenomeName}
	b.res.Variants[key] = append(b.res.Variants[key], v)
}

// Result hands over the accumulated lists and leaves the builder empty.
func (b *Builder) Result() Result {
	res := b.res
	b.reset()
	return res
}
