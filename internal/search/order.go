package search

// Order returns the dispatch order for the inclusive candidate range
// [from, to]. In-range hint values come first, in the order given; the rest
// of the range follows nearest-to-the-first-hint outward, with the earlier
// value first on distance ties. Without usable hints the order is ascending.
// Values outside the range are never emitted.
func Order(from, to int64, hints []int64) []int64 {
	if from > to {
		return nil
	}

	n := to - from + 1
	out := make([]int64, 0, n)
	used := make(map[int64]bool, len(hints))

	for _, h := range hints {
		if h < from || h > to || used[h] {
			continue
		}
		used[h] = true
		out = append(out, h)
	}

	if len(out) == 0 {
		for v := from; v <= to; v++ {
			out = append(out, v)
		}
		return out
	}

	anchor := out[0]
	maxDist := anchor - from
	if to-anchor > maxDist {
		maxDist = to - anchor
	}
	for d := int64(1); d <= maxDist && int64(len(out)) < n; d++ {
		if lo := anchor - d; lo >= from && !used[lo] {
			used[lo] = true
			out = append(out, lo)
		}
		if hi := anchor + d; hi <= to && !used[hi] {
			used[hi] = true
			out = append(out, hi)
		}
	}
	return out
}
