package domain

// Diff returns the activities of current whose id is absent from previous,
// in current's order. previous is treated as a set of ids: duplicates and
// positions are irrelevant. With an empty previous every activity is new,
// which is what makes the first run announce the whole listing.
func Diff(current, previous []Activity) []Activity {
	seen := make(map[string]struct{}, len(previous))
	for _, a := range previous {
		seen[a.ID] = struct{}{}
	}

	fresh := make([]Activity, 0, len(current))
	for _, a := range current {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		fresh = append(fresh, a)
	}
	return fresh
}
