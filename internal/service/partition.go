package service

// partition splits items into the bucket matching the predicate and the rest,
// preserving relative order in both.
func partition[T any](items []T, pred func(T) bool) (matching, rest []T) {
	for _, item := range items {
		if pred(item) {
			matching = append(matching, item)
		} else {
			rest = append(rest, item)
		}
	}
	return matching, rest
}
