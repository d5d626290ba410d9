package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
)

// VariantWriter writes the aligned per-locus calls of every genome with
// their meta-genome position.
type VariantWriter struct {
	w *bufio.Writer
}

// NewVariantWriter creates a new variant table writer.
func NewVariantWriter(w io.Writer) *VariantWriter {
	return &VariantWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (vw *VariantWriter) WriteHeader() error {
	_, err := vw.w.WriteString("#Chromosome\tReference_position\tMeta_position\tGenome\tKind\tLength\tOccupancy\tPhased\tScore\n")
	return err
}

// WriteChromosome aligns the calls of every project genome on chrom and
// writes one row per genome and locus. referenceTrack maps reference
// positions to meta-genome positions.
func (vw *VariantWriter) WriteChromosome(p *project.Project, chrom string, calls map[project.GenomeKey][]genome.Variant, referenceTrack *offset.Translator) error {
	streams := make(map[string][]genome.Variant, len(p.Genomes))
	for _, name := range p.Genomes {
		streams[name] = calls[project.GenomeKey{Chromosome: chrom, Genome: name}]
	}
	aligned := genome.AlignStreams(chrom, streams)

	var loci int
	for _, s := range aligned {
		loci = max(loci, len(s))
	}
	for i := range loci {
		for _, name := range p.Genomes {
			v := aligned[name][i]
			row := []string{
				chrom,
				strconv.FormatInt(v.ReferencePosition, 10),
				strconv.FormatInt(referenceTrack.ToMetaGenomePosition(v.ReferencePosition), 10),
				name,
				v.Kind.String(),
				strconv.FormatInt(v.Length, 10),
				v.Occupancy.String(),
				strconv.FormatBool(v.Phased),
				strconv.FormatFloat(v.Score, 'f', -1, 64),
			}
			if _, err := vw.w.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (vw *VariantWriter) Flush() error {
	return vw.w.Flush()
}
