package suggest

// Merge combines rule and similarity suggestions into at most limit unique
// names. Names found by both rank first, then the rest of similar, then the
// rest of rules. Each group keeps its source order.
func Merge(rules, similar []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	inRules := make(map[string]bool, len(rules))
	for _, r := range rules {
		inRules[r] = true
	}

	out := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	add := func(name string) {
		if len(out) < limit && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, s := range similar {
		if inRules[s] {
			add(s)
		}
	}
	for _, s := range similar {
		add(s)
	}
	for _, r := range rules {
		add(r)
	}
	return out
}
