// Package output provides offset list output formatters.
package output

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/vibe-mgsync/internal/genome"
	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/synchronize"
)

// TabWriter writes offset lists in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#List",
			"Chromosome",
			"Genome",
			"Allele",
			"Position",
			"Value",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteList writes every offset of one list. Per-chromosome lists use "-"
// for genome and allele.
func (tw *TabWriter) WriteList(kind, chrom, genomeName, allele string, l offset.List) error {
	if genomeName == "" {
		genomeName = "-"
	}
	if allele == "" {
		allele = "-"
	}
	for _, o := range l {
		values := []string{
			kind,
			chrom,
			genomeName,
			allele,
			strconv.FormatInt(o.Position, 10),
			strconv.FormatInt(o.Value, 10),
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes every list of res ordered by chromosome (project
// order), then genome and allele.
func (tw *TabWriter) WriteResult(p *project.Project, res *synchronize.Result) error {
	keys := slices.SortedFunc(maps.Keys(res.Meta), func(a, b project.TrackKey) int {
		return cmp.Or(
			cmp.Compare(a.Genome, b.Genome),
			cmp.Compare(a.Allele, b.Allele),
		)
	})

	for _, chrom := range p.ChromosomeNames() {
		if err := tw.WriteList("reference", chrom, "", "", res.Reference[chrom]); err != nil {
			return err
		}
		if err := tw.WriteList("reference_track", chrom, "", "", res.ReferenceTrack[chrom]); err != nil {
			return err
		}
		for _, k := range keys {
			if k.Chromosome != chrom {
				continue
			}
			if err := tw.WriteList("meta", chrom, k.Genome, k.Allele.String(), res.Meta[k]); err != nil {
				return err
			}
			if err := tw.WriteList("to_reference", chrom, k.Genome, k.Allele.String(), res.ToReference[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// PositionWriter writes translated coordinate triples.
type PositionWriter struct {
	w *bufio.Writer
}

// NewPositionWriter creates a new coordinate writer.
func NewPositionWriter(w io.Writer) *PositionWriter {
	return &PositionWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (pw *PositionWriter) WriteHeader() error {
	_, err := pw.w.WriteString("#Track\tGenome_position\tReference_position\tMeta_position\tExact\n")
	return err
}

// Write writes one coordinate triple of a track.
func (pw *PositionWriter) Write(track string, pos genome.MGPosition, exact bool) error {
	_, err := fmt.Fprintf(pw.w, "%s\t%d\t%d\t%d\t%t\n", track, pos.Genome, pos.Reference, pos.Meta, exact)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (pw *PositionWriter) Flush() error {
	return pw.w.Flush()
}
