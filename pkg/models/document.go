package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned when a document root is valid JSON but not an object.
var ErrNotObject = errors.New("DOCUMENT_NOT_OBJECT: root JSON value must be an object")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is an immutable, order-preserving view over a financial model JSON
// document. All reads go through Node accessors, which never panic and return
// a missing node for absent paths.
type Document struct {
	Node
	raw []byte
}

// ParseDocument validates raw JSON and wraps it as a Document.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("DOCUMENT_INVALID_JSON: input is not valid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, ErrNotObject
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Document{Node: Node{res: res, present: true}, raw: buf}, nil
}

// MustParseDocument is ParseDocument for fixtures; it panics on error.
func MustParseDocument(data string) *Document {
	doc, err := ParseDocument([]byte(data))
	if err != nil {
		panic(err)
	}
	return doc
}

// Bytes returns a copy of the original JSON bytes.
func (d *Document) Bytes() []byte {
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out
}

// MarshalJSON emits the original document unchanged.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.Bytes(), nil
}

// =============================================================================
// NODE
// =============================================================================

// Node is one value inside a Document. The zero Node is "missing".
type Node struct {
	res     gjson.Result
	present bool
}

// Missing is the node returned for every absent path.
var Missing = Node{}

// Exists reports whether the key was present in the source, even as null.
func (n Node) Exists() bool { return n.present }

// IsNull reports an explicit JSON null.
func (n Node) IsNull() bool { return n.present && n.res.Type == gjson.Null }

// IsObject reports whether the node is a JSON object.
func (n Node) IsObject() bool { return n.present && n.res.IsObject() }

// IsArray reports whether the node is a JSON array.
func (n Node) IsArray() bool { return n.present && n.res.IsArray() }

// IsString reports whether the node is a JSON string.
func (n Node) IsString() bool { return n.present && n.res.Type == gjson.String }

// IsNumber reports whether the node is a JSON number.
func (n Node) IsNumber() bool { return n.present && n.res.Type == gjson.Number }

// IsBool reports whether the node is a JSON boolean.
func (n Node) IsBool() bool {
	return n.present && (n.res.Type == gjson.True || n.res.Type == gjson.False)
}

// Get looks up an exact object key. Keys are matched literally, so dots and
// wildcards in keys carry no path meaning. Duplicate keys resolve to the last
// occurrence.
func (n Node) Get(key string) Node {
	if !n.IsObject() {
		return Missing
	}
	out := Missing
	n.res.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = Node{res: v, present: true}
		}
		return true
	})
	return out
}

// Path walks a sequence of object keys.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.present {
			return Missing
		}
	}
	return cur
}

// Has reports whether an object carries the key, regardless of its value.
func (n Node) Has(key string) bool { return n.Get(key).present }

// Keys returns object keys in source order, without duplicates.
func (n Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	var keys []string
	seen := map[string]bool{}
	n.res.ForEach(func(k, _ gjson.Result) bool {
		key := k.String()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// Each iterates object entries in source order. Returning false stops.
func (n Node) Each(fn func(key string, v Node) bool) {
	for _, k := range n.Keys() {
		if !fn(k, n.Get(k)) {
			return
		}
	}
}

// Array returns array elements; non-arrays yield nil.
func (n Node) Array() []Node {
	if !n.IsArray() {
		return nil
	}
	items := n.res.Array()
	out := make([]Node, len(items))
	for i, it := range items {
		out[i] = Node{res: it, present: true}
	}
	return out
}

// Strings returns the string elements of an array, skipping non-strings.
func (n Node) Strings() []string {
	var out []string
	for _, it := range n.Array() {
		if it.IsString() {
			out = append(out, it.res.Str)
		}
	}
	return out
}

// Len is the number of entries of an object or array, else 0.
func (n Node) Len() int {
	switch {
	case n.IsObject():
		return len(n.Keys())
	case n.IsArray():
		return len(n.res.Array())
	}
	return 0
}

// NonEmptyObject reports an object with at least one key.
func (n Node) NonEmptyObject() bool { return n.IsObject() && n.Len() > 0 }

// Str returns the string form of scalar values. Numbers keep their JSON
// spelling; booleans become "true"/"false"; missing, null and containers
// return "".
func (n Node) Str() string {
	if !n.present {
		return ""
	}
	switch n.res.Type {
	case gjson.String:
		return n.res.Str
	case gjson.Number:
		return n.res.Raw
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	}
	return ""
}

// StrOr returns Str, or def when the node is missing, null or an empty string.
func (n Node) StrOr(def string) string {
	if s := n.Str(); s != "" {
		return s
	}
	return def
}

// Float returns the numeric value. Numeric strings such as "1,250.5" are
// accepted; everything else reports ok=false.
func (n Node) Float() (float64, bool) {
	if !n.present {
		return 0, false
	}
	switch n.res.Type {
	case gjson.Number:
		return n.res.Num, true
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(n.res.Str), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// FloatPtr returns a pointer to the numeric value, or nil.
func (n Node) FloatPtr() *float64 {
	f, ok := n.Float()
	if !ok {
		return nil
	}
	return &f
}

// FloatOr returns the numeric value or def.
func (n Node) FloatOr(def float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return def
}

// Bool returns a JSON boolean, accepting "true"/"false" strings too.
func (n Node) Bool() (bool, bool) {
	if !n.present {
		return false, false
	}
	switch n.res.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(n.res.Str)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Truthy follows JSON-document truthiness: missing, null, false, 0, "" and
// empty containers are false.
func (n Node) Truthy() bool {
	if !n.present {
		return false
	}
	switch n.res.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return n.res.Num != 0
	case gjson.String:
		return n.res.Str != ""
	}
	return n.Len() > 0
}

// Raw returns the node's JSON text.
func (n Node) Raw() string {
	if !n.present {
		return ""
	}
	return n.res.Raw
}

// Value converts the node into plain Go values (map[string]interface{},
// []interface{}, float64, string, bool, nil).
func (n Node) Value() interface{} {
	if !n.present {
		return nil
	}
	return n.res.Value()
}
