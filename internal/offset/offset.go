// Package offset holds cumulative coordinate offset lists and the
// translator that converts positions between genome-local, reference and
// meta-genome coordinates.
package offset

import (
	"errors"
	"fmt"
)

// ErrNotAscending is returned when a list is not ordered by position.
var ErrNotAscending = errors.New("offset list not ascending")

// Offset records that, from Position on, coordinates drift by Value.
type Offset struct {
	Position int64
	Value    int64
}

func (o Offset) String() string {
	return fmt.Sprintf("(%d, %d)", o.Position, o.Value)
}

// List is an ordered sequence of offsets over one coordinate space.
type List []Offset

// CheckAscending verifies positions never decrease. Raw lists built from
// VCF order must satisfy it.
func (l List) CheckAscending() error {
	for i := 1; i < len(l); i++ {
		if l[i].Position < l[i-1].Position {
			return fmt.Errorf("%w: position %d at index %d follows %d",
				ErrNotAscending, l[i].Position, i, l[i-1].Position)
		}
	}
	return nil
}

// Validate verifies a finished list: positions strictly increasing and
// values non-decreasing.
func (l List) Validate() error {
	for i := 1; i < len(l); i++ {
		if l[i].Position <= l[i-1].Position {
			return fmt.Errorf("%w: position %d at index %d does not exceed %d",
				ErrNotAscending, l[i].Position, i, l[i-1].Position)
		}
		if l[i].Value < l[i-1].Value {
			return fmt.Errorf("offset value decreases at index %d: %d < %d",
				i, l[i].Value, l[i-1].Value)
		}
	}
	return nil
}

// Clone returns a copy of l that shares no storage with it.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}
