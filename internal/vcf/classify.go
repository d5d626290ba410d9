package vcf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedInfoField is returned when a symbolic alternative has no usable SVLEN.
var ErrMalformedInfoField = errors.New("malformed INFO field")

// VariantType is the structural class of one alternative allele.
type VariantType int

const (
	SNP VariantType = iota
	Insertion
	Deletion
)

// VariantTypes lists every classifiable type.
var VariantTypes = []VariantType{SNP, Insertion, Deletion}

func (t VariantType) String() string {
	switch t {
	case SNP:
		return "SNP"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	}
	return fmt.Sprintf("VariantType(%d)", int(t))
}

// Classify returns the signed length and type of a single alternative allele.
// Symbolic alternatives (e.g. <DEL>) take their length from SVLEN in info.
func Classify(ref, alt, info string) (int64, VariantType, error) {
	return classify(ref, alt, parseInfo(info), 0)
}

// classify handles the alternative at altIndex of its record. SVLEN holds
// one value per alternative, so altIndex selects the value that applies.
func classify(ref, alt string, info map[string]string, altIndex int) (int64, VariantType, error) {
	var length int64
	if strings.HasPrefix(alt, "<") {
		svlen, err := infoSVLen(info, altIndex)
		if err != nil {
			return 0, SNP, err
		}
		length = svlen
	} else {
		length = int64(len(alt) - len(ref))
	}

	switch {
	case length < 0:
		return length, Deletion, nil
	case length > 0:
		return length, Insertion, nil
	}
	return 0, SNP, nil
}

// infoSVLen returns the altIndex-th SVLEN value.
func infoSVLen(info map[string]string, altIndex int) (int64, error) {
	raw, ok := info["SVLEN"]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: no SVLEN", ErrMalformedInfoField)
	}

	values := strings.Split(raw, ",")
	if altIndex >= len(values) {
		return 0, fmt.Errorf("%w: SVLEN %q has no value for alternative %d", ErrMalformedInfoField, raw, altIndex+1)
	}
	value := values[altIndex]

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: SVLEN %q is not an integer", ErrMalformedInfoField, value)
	}
	return n, nil
}

// Classification is the outcome of classifying one alternative allele.
type Classification struct {
	Alt    string
	Length int64
	Type   VariantType
	Err    error
}

// ClassifyAlts classifies every comma-separated alternative independently.
// Genotype index i selects element i of the result.
func ClassifyAlts(ref, alts, info string) []Classification {
	fields := parseInfo(info)
	parts := strings.Split(alts, ",")
	out := make([]Classification, len(parts))
	for i, alt := range parts {
		length, typ, err := classify(ref, alt, fields, i)
		out[i] = Classification{Alt: alt, Length: length, Type: typ, Err: err}
	}
	return out
}
