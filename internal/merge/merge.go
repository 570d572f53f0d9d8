// Package merge implements the list reconciler: given two snapshots of the
// same collection it produces one converged snapshot using last-write-wins
// by revision. The operation is idempotent and its per-key outcome depends
// only on the two competing revisions, never on iteration order, so any
// number of devices applying it independently converge.
package merge

import "shiftsync/internal/domain"

// Lists merges a local and a remote snapshot of one collection.
//
// Records with an empty key are dropped from both sides up front. The
// result is seeded from the local list; a remote record replaces the local
// one when its revision is greater than or equal to the local revision
// (absent keys always lose, and equal revisions favor the remote copy; that
// tie-break decides convergence direction when two devices stamped the same
// millisecond). Local insertion order is preserved; records only known
// remotely are appended in remote order.
func Lists[T domain.Record](local, remote []T) []T {
	out := make([]T, 0, len(local)+len(remote))
	idx := make(map[string]int, len(local))

	for _, rec := range local {
		k := rec.Key()
		if k == "" {
			continue
		}
		if pos, ok := idx[k]; ok {
			out[pos] = rec
			continue
		}
		idx[k] = len(out)
		out = append(out, rec)
	}

	for _, rec := range remote {
		k := rec.Key()
		if k == "" {
			continue
		}
		pos, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.Revision() >= out[pos].Revision() {
			out[pos] = rec
		}
	}
	return out
}
