// Package genome defines the per-genome variant model shared by ingestion,
// synchronization and coordinate translation.
package genome

import "fmt"

// Allele is one of the two haplotype copies of a diploid genome.
type Allele int

const (
	First  Allele = iota // paternal
	Second               // maternal
)

// Alleles lists both alleles in genotype order.
var Alleles = []Allele{First, Second}

func (a Allele) String() string {
	switch a {
	case First:
		return "A"
	case Second:
		return "B"
	}
	return fmt.Sprintf("Allele(%d)", int(a))
}

// ParseAllele accepts "A"/"B" or "1"/"2".
func ParseAllele(s string) (Allele, error) {
	switch s {
	case "A", "a", "1":
		return First, nil
	case "B", "b", "2":
		return Second, nil
	}
	return 0, fmt.Errorf("invalid allele %q (want A or B)", s)
}

// Occupancy records which alleles carry a variant.
type Occupancy int

const (
	OccupancyNone Occupancy = iota
	OccupancyFirst
	OccupancySecond
	OccupancyBoth
)

// With returns the occupancy extended by allele a.
func (o Occupancy) With(a Allele) Occupancy {
	if a == First {
		return o | OccupancyFirst
	}
	return o | OccupancySecond
}

func (o Occupancy) String() string {
	switch o {
	case OccupancyFirst:
		return "A"
	case OccupancySecond:
		return "B"
	case OccupancyBoth:
		return "AB"
	}
	return "-"
}

// Kind tags a Variant.
type Kind int

const (
	SNP Kind = iota
	Insertion
	Deletion
	Reference
	NoCall
	Mix
	Blank
)

var kindNames = [...]string{"SNP", "insertion", "deletion", "reference", "no_call", "mix", "blank"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// dominanceRank orders kinds: alternative > reference > no call > mix > blank.
var dominanceRank = [...]int{
	SNP:       4,
	Insertion: 4,
	Deletion:  4,
	Reference: 3,
	NoCall:    2,
	Mix:       1,
	Blank:     0,
}

// Dominates reports whether k takes precedence over other at one locus.
func (k Kind) Dominates(other Kind) bool {
	return dominanceRank[k] > dominanceRank[other]
}

// BlankScore is the score carried by Blank sentinels.
const BlankScore = 100

// Variant is one genome's call at one reference position.
type Variant struct {
	GenomeName        string
	Chromosome        string
	ReferencePosition int64
	Length            int64 // signed: negative for deletions
	Kind              Kind
	Score             float64
	Occupancy         Occupancy
	Phased            bool
	Line              int // VCF line number; 0 when the variant owns no line
}

// NewBlank returns a sentinel keeping genomeName's stream aligned at pos.
func NewBlank(genomeName, chromosome string, pos int64) Variant {
	return Variant{
		GenomeName:        genomeName,
		Chromosome:        chromosome,
		ReferencePosition: pos,
		Kind:              Blank,
		Score:             BlankScore,
	}
}

// MGPosition is a locus expressed in the three coordinate spaces.
type MGPosition struct {
	Genome    int64
	Reference int64
	Meta      int64
}
