package freebusy

import "fmt"

// FindSlots computes the maximal free intervals within span not covered by
// the given busy blocks. Blocks may overlap and need not be sorted; blocks
// entirely outside the span contribute nothing. The result is chronological,
// disjoint, and non-adjacent.
//
// An empty busy collection yields a single slot equal to the whole span.
// Blocks covering the whole span yield no slots.
func FindSlots(span Span, blocks []Block) []Slot {
	var slots []Slot

	cursor := span.start
	for _, b := range Merge(blocks) {
		if b.Contains(span) {
			return nil
		}
		if !b.Overlaps(span) {
			continue
		}
		if !b.end.After(cursor) {
			continue
		}
		if b.start.After(cursor) {
			slots = append(slots, Slot{start: cursor, end: b.start})
		}
		cursor = b.end
	}

	if cursor.Before(span.end) {
		slots = append(slots, Slot{start: cursor, end: span.end})
	}

	return slots
}

// Find computes available slots from caller records. Each busy record is
// converted to a Block through its Input capability, the free intervals
// within span are extracted, and each resulting Slot is converted to an Out
// record through the Output capability.
//
// All records must describe the same schedule: mixing events held by
// unrelated entities produces meaningless gaps.
func Find[In Input, Out Output[Out]](span Span, busy []In) ([]Out, error) {
	blocks := make([]Block, 0, len(busy))
	for _, in := range busy {
		b, err := in.ToBlock()
		if err != nil {
			return nil, fmt.Errorf("convert busy record: %w", err)
		}
		blocks = append(blocks, b)
	}

	slots := FindSlots(span, blocks)

	var zero Out
	out := make([]Out, 0, len(slots))
	for _, s := range slots {
		out = append(out, zero.FromSlot(s))
	}
	return out, nil
}
