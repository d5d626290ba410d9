package synchronize

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/inodb/vibe-mgsync/internal/offset"
)

// NormalizeReference orders the accumulated reference offsets of one
// chromosome and keeps only the widest insertion at each position. The
// input is left untouched.
func NormalizeReference(accumulated offset.List) offset.List {
	if len(accumulated) == 0 {
		return nil
	}
	sorted := accumulated.Clone()
	slices.SortStableFunc(sorted, func(a, b offset.Offset) int {
		return cmp.Compare(a.Position, b.Position)
	})

	out := make(offset.List, 0, len(sorted))
	for _, o := range sorted {
		if o.Value <= 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Position == o.Position {
			out[n-1].Value = max(out[n-1].Value, o.Value)
			continue
		}
		out = append(out, o)
	}
	return out
}

// GenomeToReference converts an allele's raw offsets into a list keyed by
// genome position whose values are reference - genome.
func GenomeToReference(allele offset.List) (offset.List, error) {
	if err := allele.CheckAscending(); err != nil {
		return nil, fmt.Errorf("%w: allele offsets: %v", ErrInvariantViolation, err)
	}

	var (
		out     offset.List
		drift   int64 // reference - genome
		lastRef int64
	)
	for _, o := range allele {
		if o.Position < lastRef || o.Value == 0 {
			continue
		}
		anchor := o.Position - drift
		if o.Value > 0 {
			drift -= o.Value
			out = append(out, offset.Offset{Position: anchor + o.Value + 1, Value: drift})
			lastRef = o.Position + 1
			continue
		}
		drift -= o.Value
		out = append(out, offset.Offset{Position: anchor + 1, Value: drift})
		lastRef = o.Position - o.Value + 1
	}
	return out, nil
}
