package offset

import "github.com/inodb/vibe-mgsync/internal/genome"

// Translator converts positions of one (chromosome, genome, allele) track.
// Both lists are keyed by genome-local position: toReference holds
// reference - genome, toMeta holds meta - genome.
type Translator struct {
	toReference List
	toMeta      List
}

// NewTranslator builds a read-only translator over finished lists.
func NewTranslator(toReference, toMeta List) *Translator {
	return &Translator{toReference: toReference, toMeta: toMeta}
}

// ToReferencePosition converts a genome position to reference coordinates.
func (t *Translator) ToReferencePosition(genomePos int64) int64 {
	return genomePos + t.toReference.At(genomePos)
}

// ToMetaGenomePosition converts a genome position to meta-genome coordinates.
func (t *Translator) ToMetaGenomePosition(genomePos int64) int64 {
	return genomePos + t.toMeta.At(genomePos)
}

// FromReferencePosition converts a reference position to genome coordinates.
// It returns false when the reference base is deleted in this genome; the
// position returned is then the last genome base before the gap.
func (t *Translator) FromReferencePosition(refPos int64) (int64, bool) {
	return inverse(t.toReference, refPos)
}

// FromMetaGenomePosition converts a meta-genome position to genome
// coordinates. It returns false when no base of this genome sits there.
func (t *Translator) FromMetaGenomePosition(metaPos int64) (int64, bool) {
	return inverse(t.toMeta, metaPos)
}

// MetaToReference converts a meta-genome position to reference coordinates
// through this genome.
func (t *Translator) MetaToReference(metaPos int64) (int64, bool) {
	g, ok := t.FromMetaGenomePosition(metaPos)
	return t.ToReferencePosition(g), ok
}

// ReferenceToMeta converts a reference position to meta-genome coordinates
// through this genome.
func (t *Translator) ReferenceToMeta(refPos int64) (int64, bool) {
	g, ok := t.FromReferencePosition(refPos)
	return t.ToMetaGenomePosition(g), ok
}

// InInsertion reports whether genomePos is a base inserted relative to the
// reference.
func (t *Translator) InInsertion(genomePos int64) bool {
	i := Floor(t.toReference, genomePos, ByPosition)
	next := i + 1
	if next >= len(t.toReference) {
		return false
	}
	var current int64
	if i >= 0 {
		current = t.toReference[i].Value
	}
	drop := current - t.toReference[next].Value
	return drop > 0 && genomePos >= t.toReference[next].Position-drop
}

// Position returns the coordinate triple of a genome position.
func (t *Translator) Position(genomePos int64) genome.MGPosition {
	return genome.MGPosition{
		Genome:    genomePos,
		Reference: t.ToReferencePosition(genomePos),
		Meta:      t.ToMetaGenomePosition(genomePos),
	}
}

// NextPositionAfter returns the genome position following v, skipping the
// inserted bases of an insertion.
func (t *Translator) NextPositionAfter(v genome.Variant) int64 {
	pos, _ := t.FromReferencePosition(v.ReferencePosition)
	if v.Kind == genome.Insertion {
		return pos + 1 + v.Length
	}
	return pos + 1
}

// inverse maps a target position back through l. Targets that fall in a
// gap are clamped to the genome base preceding the gap.
func inverse(l List, target int64) (int64, bool) {
	i := Floor(l, target, ByTarget)
	pos := target
	if i >= 0 {
		pos = target - l[i].Value
	}
	if next := i + 1; next < len(l) && pos >= l[next].Position {
		return l[next].Position - 1, false
	}
	return pos, true
}
