// Package vcf provides VCF file parsing functionality.
package vcf

import "strings"

// Variant represents a single data row from a VCF file.
type Variant struct {
	Chrom   string   // Chromosome name (e.g., "12", "chr12")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier (e.g., rs ID)
	Ref     string   // Reference allele
	Alt     string   // Alternate alleles, comma-separated
	Qual    float64  // Quality score (0 when missing or unparseable)
	Filter  string   // Filter status (PASS or filter name)
	Info    string   // Raw INFO column
	Format  string   // Raw FORMAT column, empty when absent
	Samples []string // One field per genome column
}

// GenotypeField returns the GT subfield of the i-th sample column.
// When FORMAT is missing the first subfield is used.
func (v *Variant) GenotypeField(i int) string {
	if i < 0 || i >= len(v.Samples) {
		return ""
	}
	sample := v.Samples[i]
	gtIndex := 0
	if v.Format != "" {
		gtIndex = -1
		for j, key := range strings.Split(v.Format, ":") {
			if key == "GT" {
				gtIndex = j
				break
			}
		}
		if gtIndex < 0 {
			return ""
		}
	}
	fields := strings.Split(sample, ":")
	if gtIndex >= len(fields) {
		return ""
	}
	return fields[gtIndex]
}

// NormalizeChrom strips a leading "chr" from a chromosome name.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}
