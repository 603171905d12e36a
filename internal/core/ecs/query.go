package ecs

// Each2 iterates over entities that have both component A and B.
// It iterates over the smaller store and checks the larger one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(Id, A, B)) {
	if sa.Len() <= sb.Len() {
		for id, a := range sa.All() {
			if b, ok := sb.Get(id); ok {
				fn(id, a, b)
			}
		}
		return
	}
	for id, b := range sb.All() {
		if a, ok := sa.Get(id); ok {
			fn(id, a, b)
		}
	}
}

// Each3 iterates over entities that have components A, B, and C, driven by
// whichever of A and B is smaller.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(Id, A, B, C)) {
	Each2(sa, sb, func(id Id, a A, b B) {
		if c, ok := sc.Get(id); ok {
			fn(id, a, b, c)
		}
	})
}
