package history

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Render converts canonical pairs to the external shape. Text is trimmed,
// empty content is dropped, and text that is itself a serialized
// [{"text":...}] or {"text":...} structure is unwrapped.
func Render(pairs []Pair, shape Shape) []Entry {
	out := make([]Entry, 0, len(pairs)*2)
	for _, p := range pairs {
		user := clean(p.User)
		var reply string
		if p.Assistant != nil {
			reply = clean(*p.Assistant)
		}

		if shape == ShapePairs {
			if user == "" && reply == "" {
				continue
			}
			e := Entry{IsPair: true, User: user}
			if p.Assistant != nil {
				e.Assistant = &reply
			}
			out = append(out, e)
			continue
		}

		if user != "" {
			out = append(out, Entry{Role: "user", Content: user})
		}
		if reply != "" {
			out = append(out, Entry{Role: "assistant", Content: reply})
		}
	}
	return out
}

// FromPairs renders pairs in the pair shape. Normalize(FromPairs(p)) == p for
// any canonical history.
func FromPairs(pairs []Pair) []Entry {
	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		e := Entry{IsPair: true, User: p.User}
		if p.Assistant != nil {
			a := *p.Assistant
			e.Assistant = &a
		}
		out = append(out, e)
	}
	return out
}

// clean trims s and unwraps a serialized text record. Valid JSON is parsed as
// is; otherwise single quotes are treated as double quotes, and anything that
// still does not parse is returned unchanged.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[{") && !strings.HasPrefix(s, "{'text'") && !strings.HasPrefix(s, `{"text"`) {
		return s
	}
	raw := s
	if !gjson.Valid(raw) {
		raw = strings.ReplaceAll(s, "'", `"`)
		if !gjson.Valid(raw) {
			return s
		}
	}
	r := gjson.Parse(raw)
	if r.IsArray() {
		r = r.Get("0")
	}
	if t := r.Get("text"); t.Exists() {
		return strings.TrimSpace(t.String())
	}
	return s
}
