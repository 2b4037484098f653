package cache

// plan is the outcome of one reconciliation pass: prefetch loads to start
// and in-flight prefetches to cancel.
type plan[K Key] struct {
	issue  []K
	cancel []K
}

// reconcile converges the in-flight prefetch set toward the desired list.
//
//   - prefetch flights absent from desired are cancelled;
//   - desired keys with no load in flight (prefetch or synchronous) are
//     issued in order while the prefetch cap allows;
//   - keys both desired and in flight are left alone, so a stable
//     prediction never thrashes its own loads.
//
// Cancellation is advisory: the load may still run to completion and its
// result is discarded.
func reconcile[K Key](desired []K, inPrefetch map[K]bool, inAny map[K]bool, maxPrefetch int) plan[K] {
	var pl plan[K]

	want := make(map[K]bool, len(desired))
	for _, k := range desired {
		want[k] = true
	}

	keep := 0
	for k := range inPrefetch {
		if want[k] {
			keep++
		} else {
			pl.cancel = append(pl.cancel, k)
		}
	}

	for _, k := range desired {
		if keep+len(pl.issue) >= maxPrefetch {
			break
		}
		if inAny[k] {
			continue
		}
		pl.issue = append(pl.issue, k)
	}
	return pl
}
