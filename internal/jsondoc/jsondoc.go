// Package jsondoc provides default-valued navigation over loosely typed JSON
// response bodies. Every remote-response parser goes through it instead of
// casting raw maps and slices.
package jsondoc

import "github.com/tidwall/gjson"

// Doc wraps a decoded JSON value and offers safe, default-valued lookups
// using gjson path syntax ("attributes.name", "links.next.href", ...).
type Doc struct {
	root gjson.Result
}

// Parse wraps a raw JSON body.
func Parse(data []byte) Doc {
	return Doc{root: gjson.ParseBytes(data)}
}

// String returns the string at path, or def when the path is absent or null.
func (d Doc) String(path, def string) string {
	v := d.root.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}

// Int returns the integer at path, or def when the path is absent or null.
func (d Doc) Int(path string, def int64) int64 {
	v := d.root.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.Int()
}

// Exists reports whether path resolves to a non-null value.
func (d Doc) Exists(path string) bool {
	v := d.root.Get(path)
	return v.Exists() && v.Type != gjson.Null
}

// Array returns the elements of the array at path, each wrapped as a Doc.
// A missing path or a non-array value yields an empty slice.
func (d Doc) Array(path string) []Doc {
	v := d.root.Get(path)
	if !v.Exists() || !v.IsArray() {
		return nil
	}
	elems := v.Array()
	docs := make([]Doc, 0, len(elems))
	for _, e := range elems {
		docs = append(docs, Doc{root: e})
	}
	return docs
}
