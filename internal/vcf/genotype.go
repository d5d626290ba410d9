package vcf

import (
	"errors"
	"fmt"
)

// ErrMalformedGenotype is returned for genotype fields that are not "X/Y" or "X|Y".
var ErrMalformedGenotype = errors.New("malformed genotype")

// NoVariation is the allele index for reference and no-call genotype characters.
const NoVariation = -1

// Genotype is a resolved diploid genotype.
type Genotype struct {
	First  int // index into ALT for the first allele, or NoVariation
	Second int // index into ALT for the second allele, or NoVariation
	Phased bool

	raw string
}

// ResolveAlleleIndex maps one genotype character to an ALT index.
// '0' and '.' give NoVariation, digit N (N >= 1) gives N-1.
func ResolveAlleleIndex(c byte) int {
	if c >= '1' && c <= '9' {
		return int(c-'0') - 1
	}
	return NoVariation
}

// ParseGenotype resolves a three-character genotype such as "0/1" or "1|0".
// The separator must be '/' or '|' and each allele a digit or '.'.
func ParseGenotype(gt string) (Genotype, error) {
	if len(gt) != 3 {
		return Genotype{}, fmt.Errorf("%w: %q has %d characters", ErrMalformedGenotype, gt, len(gt))
	}
	if gt[1] != '/' && gt[1] != '|' {
		return Genotype{}, fmt.Errorf("%w: %q has separator %q", ErrMalformedGenotype, gt, gt[1])
	}
	for _, c := range []byte{gt[0], gt[2]} {
		if c != '.' && (c < '0' || c > '9') {
			return Genotype{}, fmt.Errorf("%w: %q has allele %q", ErrMalformedGenotype, gt, c)
		}
	}
	return Genotype{
		First:  ResolveAlleleIndex(gt[0]),
		Second: ResolveAlleleIndex(gt[2]),
		Phased: gt[1] == '|',
		raw:    gt,
	}, nil
}

// NoCall reports whether neither allele was called.
func (g Genotype) NoCall() bool {
	return len(g.raw) == 3 && g.raw[0] == '.' && g.raw[2] == '.'
}

// Index returns the ALT index for allele 0 (first) or 1 (second).
func (g Genotype) Index(allele int) int {
	if allele == 0 {
		return g.First
	}
	return g.Second
}

func (g Genotype) String() string {
	return g.raw
}
