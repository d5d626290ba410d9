// Package synchronize merges per-allele indel offsets against the
// project-wide reference offsets to produce meta-genome offset lists.
package synchronize

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-mgsync/internal/offset"
)

// ErrInvariantViolation is returned when an input list is out of order.
var ErrInvariantViolation = errors.New("synchronization invariant violation")

// Synchronize merges one allele's raw offsets (reference position, signed
// indel length) with the normalized reference offsets (reference position,
// widest insertion) of the same chromosome.
//
// The result is keyed by genome-local position and holds meta - genome,
// which only grows: deletions and insertions carried by other genomes both
// push the rest of this genome to the right in meta-genome coordinates.
func Synchronize(reference, allele offset.List) (offset.List, error) {
	if err := allele.CheckAscending(); err != nil {
		return nil, fmt.Errorf("%w: allele offsets: %v", ErrInvariantViolation, err)
	}
	if err := checkStrictlyAscending(reference); err != nil {
		return nil, fmt.Errorf("%w: reference offsets: %v", ErrInvariantViolation, err)
	}

	m := &merger{reference: reference}
	a := 0
	for m.refIdx < len(reference) || a < len(allele) {
		// Variants overlapping a deletion already emitted are swallowed by it.
		if a < len(allele) && allele[a].Position < max(m.lastRefPosition, m.alleleFloor) {
			a++
			continue
		}
		if m.refIdx < len(reference) && reference[m.refIdx].Position < m.lastRefPosition {
			m.refIdx++
			continue
		}

		switch {
		case a >= len(allele):
			m.referenceOnly(reference[m.refIdx])
		case m.refIdx >= len(reference):
			m.alleleOnly(allele[a])
			a++
		case allele[a].Position == reference[m.refIdx].Position:
			r := reference[m.refIdx]
			m.refIdx++
			m.samePosition(allele[a], r)
			a++
		case allele[a].Position < reference[m.refIdx].Position:
			m.alleleOnly(allele[a])
			a++
		default:
			m.referenceOnly(reference[m.refIdx])
		}
	}
	return m.out, nil
}

type merger struct {
	reference offset.List
	refIdx    int

	out  offset.List
	prev offset.Offset // last emitted offset; genome 0 <-> reference 0 before any

	// lastRefPosition is the reference position matching prev.Position.
	lastRefPosition int64
	// accumulatedLength counts this allele's inserted bases since prev.
	accumulatedLength int64
	// alleleFloor is the first reference position open to further allele
	// entries after an insertion was folded without an emit.
	alleleFloor int64
}

// emit appends an offset at the genome position following the variant
// anchored at refPos. additional skips the allele's own inserted bases.
func (m *merger) emit(refPos, additional, increment, nextRefPosition int64) {
	pos := (refPos - m.lastRefPosition) + m.prev.Position + m.accumulatedLength + additional + 1
	m.prev = offset.Offset{Position: pos, Value: m.prev.Value + increment}
	m.out = append(m.out, m.prev)
	m.lastRefPosition = nextRefPosition
	m.accumulatedLength = 0
}

// samePosition handles an allele variant and a reference insertion at the
// same reference position.
func (m *merger) samePosition(a, r offset.Offset) {
	if a.Value < 0 {
		m.deletion(a, r.Value)
		return
	}
	if r.Value > a.Value {
		// Another genome inserts more here: reserve the difference after
		// this allele's own inserted bases.
		m.emit(a.Position, a.Value, r.Value-a.Value, a.Position+1)
		return
	}
	m.fold(a)
}

// alleleOnly handles an allele variant with no reference insertion at its
// position.
func (m *merger) alleleOnly(a offset.Offset) {
	if a.Value < 0 {
		m.deletion(a, 0)
		return
	}
	m.fold(a)
}

// fold counts an insertion the meta layout already holds in full. Later
// entries anchored at the same position are swallowed, as after an emit.
func (m *merger) fold(a offset.Offset) {
	m.accumulatedLength += a.Value
	m.alleleFloor = a.Position + 1
}

// referenceOnly reserves room for an insertion this allele lacks.
func (m *merger) referenceOnly(r offset.Offset) {
	m.refIdx++
	m.emit(r.Position, 0, r.Value, r.Position+1)
}

// deletion emits the offset following deleted bases. Reference insertions
// anchored inside the deleted span are skipped along with it.
func (m *merger) deletion(a offset.Offset, extra int64) {
	length := -a.Value
	end := a.Position + length
	increment := length + extra
	for m.refIdx < len(m.reference) && m.reference[m.refIdx].Position <= end {
		increment += m.reference[m.refIdx].Value
		m.refIdx++
	}
	m.emit(a.Position, 0, increment, end+1)
}

func checkStrictlyAscending(l offset.List) error {
	for i := 1; i < len(l); i++ {
		if l[i].Position <= l[i-1].Position {
			return fmt.Errorf("position %d at index %d does not exceed %d",
				l[i].Position, i, l[i-1].Position)
		}
	}
	return nil
}
