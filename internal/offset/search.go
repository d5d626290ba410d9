package offset

import "sort"

// Floor returns the index of the last element whose key is <= pos, or -1.
// items must be sorted by key.
func Floor[T any](items []T, pos int64, key func(T) int64) int {
	i := sort.Search(len(items), func(i int) bool {
		return key(items[i]) > pos
	})
	return i - 1
}

// ByPosition keys an offset by its own position.
func ByPosition(o Offset) int64 { return o.Position }

// ByTarget keys an offset by the position it maps to.
func ByTarget(o Offset) int64 { return o.Position + o.Value }

// At returns the value in effect at pos, or 0 before the first offset.
func (l List) At(pos int64) int64 {
	i := Floor(l, pos, ByPosition)
	if i < 0 {
		return 0
	}
	return l[i].Value
}
