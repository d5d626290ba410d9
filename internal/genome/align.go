package genome

import (
	"maps"
	"slices"
)

// AlignStreams returns, for every genome, one variant per locus present in
// any stream. Loci a genome lacks are filled with Blank sentinels, and when a
// stream holds several variants at one locus the dominant one is kept.
// Input streams must be ordered by reference position.
func AlignStreams(chromosome string, streams map[string][]Variant) map[string][]Variant {
	loci := make(map[int64]struct{})
	for _, stream := range streams {
		for _, v := range stream {
			loci[v.ReferencePosition] = struct{}{}
		}
	}
	positions := slices.Sorted(maps.Keys(loci))

	aligned := make(map[string][]Variant, len(streams))
	for name, stream := range streams {
		out := make([]Variant, 0, len(positions))
		i := 0
		for _, pos := range positions {
			var picked *Variant
			for ; i < len(stream) && stream[i].ReferencePosition == pos; i++ {
				if picked == nil || stream[i].Kind.Dominates(picked.Kind) {
					picked = &stream[i]
				}
			}
			if picked == nil {
				out = append(out, NewBlank(name, chromosome, pos))
				continue
			}
			out = append(out, *picked)
		}
		aligned[name] = out
	}
	return aligned
}
