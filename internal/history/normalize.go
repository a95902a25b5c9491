package history

// Normalize folds external records into canonical pairs. It never fails.
//
// A user record opens a new pair. An assistant record fills the open pair, or
// opens one with empty user text when none is open. Records with any other
// role are dropped. A pair left open anywhere but at the end is closed with an
// empty reply, so only the last pair can be pending.
func Normalize(entries []Entry) []Pair {
	pairs := make([]Pair, 0, len(entries))
	open := func() bool {
		return len(pairs) > 0 && pairs[len(pairs)-1].Assistant == nil
	}

	for _, e := range entries {
		if e.IsPair {
			closeOpen(pairs)
			p := Pair{User: e.User}
			if e.Assistant != nil {
				a := *e.Assistant
				p.Assistant = &a
			}
			pairs = append(pairs, p)
			continue
		}
		switch e.Role {
		case "user":
			closeOpen(pairs)
			pairs = append(pairs, Pending(e.Content))
		case "assistant":
			if open() {
				a := e.Content
				pairs[len(pairs)-1].Assistant = &a
				continue
			}
			pairs = append(pairs, Answered("", e.Content))
		}
	}
	return pairs
}

// Append adds p after closing a pending last pair with an empty reply.
func Append(pairs []Pair, p Pair) []Pair {
	closeOpen(pairs)
	return append(pairs, p)
}

// closeOpen gives the last pair an empty reply if it is still pending.
func closeOpen(pairs []Pair) {
	if n := len(pairs); n > 0 && pairs[n-1].Assistant == nil {
		empty := ""
		pairs[n-1].Assistant = &empty
	}
}
