// Package history converts between the chat history shapes a UI sends and the
// pair form the conversation driver works with.
package history

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Pair is one turn of canonical history. Assistant is nil only while the
// reply for User is still pending.
type Pair struct {
	User      string  `json:"user"`
	Assistant *string `json:"assistant"`
}

// Answered returns a completed pair.
func Answered(user, assistant string) Pair {
	return Pair{User: user, Assistant: &assistant}
}

// Pending returns a pair still waiting for its reply.
func Pending(user string) Pair {
	return Pair{User: user}
}

// Reply returns the assistant text, or "" while pending.
func (p Pair) Reply() string {
	if p.Assistant == nil {
		return ""
	}
	return *p.Assistant
}

// Shape names the external representation a UI expects back.
type Shape string

const (
	ShapeMessages Shape = "messages" // [{"role":"user","content":"..."}, ...]
	ShapePairs    Shape = "tuples"   // [["user text","assistant text"], ...]
)

// ParseShape maps a UI-declared shape name to a Shape. Anything unknown is
// treated as messages.
func ParseShape(s string) Shape {
	switch s {
	case "tuples", "pairs":
		return ShapePairs
	default:
		return ShapeMessages
	}
}

// Entry is one externally supplied history record. It is either a
// role/content record or a two-element [user, assistant] pair; IsPair tells
// which. Content is always flattened to plain text.
type Entry struct {
	Role    string
	Content string

	IsPair    bool
	User      string
	Assistant *string
}

// UnmarshalJSON accepts both record forms and never fails: fields that are
// missing or of the wrong type become empty strings. Records that are neither
// form decode to an Entry with no role, which Normalize ignores.
func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = Entry{}
	r := gjson.ParseBytes(data)
	switch {
	case r.IsArray():
		items := r.Array()
		if len(items) != 2 {
			return nil
		}
		e.IsPair = true
		e.User = flatten(items[0])
		if items[1].Exists() && items[1].Type != gjson.Null {
			a := flatten(items[1])
			e.Assistant = &a
		}
	case r.IsObject():
		e.Role = r.Get("role").String()
		e.Content = flatten(r.Get("content"))
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsPair {
		return json.Marshal([2]*string{&e.User, e.Assistant})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{e.Role, e.Content})
}

// flatten reduces a content value to text. Content may be a plain string, a
// list whose first item carries a "text" field, or a record with "text".
func flatten(v gjson.Result) string {
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return ""
	case v.Type == gjson.String:
		return v.Str
	case v.IsArray():
		items := v.Array()
		if len(items) == 0 {
			return ""
		}
		return flatten(items[0])
	case v.IsObject():
		if t := v.Get("text"); t.Exists() {
			return t.String()
		}
		return v.Raw
	default:
		return v.String()
	}
}
