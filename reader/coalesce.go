package reader

// byteRange is a contiguous [Lo, Hi) span tagged with the chunk
// indices it was built to serve, used for both index-read and
// data-read coalescing (spec section 4.4 steps 2 and 4 share the same
// merge rule).
type byteRange struct {
	lo, hi int64
	chunks []uint64
}

// IOLimits bounds how aggressively the planner coalesces adjacent
// byte ranges into a single backend fetch.
type IOLimits struct {
	// MergeBytes is the largest gap between two ranges that still gets
	// bridged into one read (io_size_merge).
	MergeBytes int64
	// MaxBytes is the largest a coalesced read may grow to. Zero
	// disables merging entirely: every range becomes its own read.
	MaxBytes int64
}

// DefaultIOLimits matches spec section 4.4's production defaults.
var DefaultIOLimits = IOLimits{MergeBytes: 512, MaxBytes: 65536}

// coalesce merges a sorted, non-overlapping-or-touching sequence of
// byte ranges greedily left-to-right: a range is folded into the
// running one when the resulting span stays within MaxBytes, and
// either they're exactly adjacent/overlapping or the gap between them
// is within MergeBytes. The MaxBytes cap applies even to exactly
// adjacent ranges — only a single range already wider than MaxBytes on
// its own may exceed it, never a merge. MaxBytes == 0 disables merging
// outright, regardless of adjacency, since a caller requesting that
// wants one read per range.
func coalesce(items []byteRange, limits IOLimits) []byteRange {
	if len(items) == 0 {
		return nil
	}
	out := make([]byteRange, 0, len(items))
	cur := items[0]

	for _, next := range items[1:] {
		if limits.MaxBytes > 0 {
			gap := next.lo - cur.hi
			extended := next.hi - cur.lo
			adjacent := gap <= 0
			withinMerge := gap <= limits.MergeBytes
			if (adjacent || withinMerge) && extended <= limits.MaxBytes {
				if next.hi > cur.hi {
					cur.hi = next.hi
				}
				cur.chunks = append(cur.chunks, next.chunks...)
				continue
			}
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}
