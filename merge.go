package freebusy

import "sort"

// Merge normalizes a collection of possibly-overlapping blocks into the
// minimal ordered sequence of disjoint blocks covering the same union of
// time. Touching blocks (one ending exactly where the next starts) are
// merged: a zero-width gap is not a usable free slot.
//
// The input slice is not modified. An already-disjoint sorted input is
// returned unchanged in content.
func Merge(blocks []Block) []Block {
	if len(blocks) == 0 {
		return nil
	}

	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)

	// Sort by start time, ties broken by end time.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start.Equal(sorted[j].start) {
			return sorted[i].end.Before(sorted[j].end)
		}
		return sorted[i].start.Before(sorted[j].start)
	})

	merged := make([]Block, 0, len(sorted))
	cur := sorted[0]
	for _, b := range sorted[1:] {
		if !b.start.After(cur.end) {
			// Overlap or exact touch: extend the current block.
			if b.end.After(cur.end) {
				cur.end = b.end
			}
			continue
		}
		merged = append(merged, cur)
		cur = b
	}

	return append(merged, cur)
}
