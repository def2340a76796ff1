package timer

// Group is one category and its timers, in input order.
type Group struct {
	Category string
	Timers   []Timer
}

// GroupByCategory partitions timers by category. Categories appear in the
// order they first occur in timers and each group keeps input order. Timers
// with an empty category share the "" group.
func GroupByCategory(timers []Timer) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, t := range timers {
		i, ok := index[t.Category]
		if !ok {
			i = len(groups)
			index[t.Category] = i
			groups = append(groups, Group{Category: t.Category})
		}
		groups[i].Timers = append(groups[i].Timers, t)
	}

	return groups
}
