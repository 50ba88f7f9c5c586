package semantic

import (
	"slices"
	"strings"

	"peer-chat/application/http"
	"peer-chat/application/util/rule"
)

// Headers is a case-insensitive field mapping.
// Field names are folded into their canonical form (e.g. "content-type" -> "Content-Type").
type Headers struct{ underlying map[string][]string }

func NewHeaders(initial map[string][]string) Headers {
	clone := make(map[string][]string, len(initial))
	for k, v := range initial {
		clone[canonical(k)] = slices.Clone(v)
	}

	return Headers{underlying: clone}
}

// HeadersFrom folds raw fields into [Headers].
// A repeated field name keeps its last value, except for
// fields which cannot be combined into a single line (Set-Cookie).
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3-7
func HeadersFrom(fields []http.Field) Headers {
	h := NewHeaders(nil)
	for _, field := range fields {
		key, value := canonical(string(field.Name)), string(field.Value)
		if isListOnlyField(key) {
			h.underlying[key] = append(h.underlying[key], value)
			continue
		}
		h.underlying[key] = []string{value}
	}

	return h
}

// Fields returns all the key-values in the header.
func (h *Headers) Fields() map[string][]string {
	clone := make(map[string][]string, len(h.underlying))
	for k, v := range h.underlying {
		clone[k] = slices.Clone(v)
	}

	return clone
}

// ToRawFields renders the headers in name order.
// Set-Cookie gets one line per value. Others are joined with a comma.
func (h *Headers) ToRawFields() []http.Field {
	keys := make([]string, 0, len(h.underlying))
	for k := range h.underlying {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fields := make([]http.Field, 0, len(keys))
	for _, k := range keys {
		values := h.underlying[k]
		if len(values) == 0 {
			continue
		}

		if isListOnlyField(k) {
			for _, v := range values {
				fields = append(fields, http.Field{Name: []byte(k), Value: []byte(v)})
			}
			continue
		}

		fields = append(fields, http.Field{
			Name:  []byte(k),
			Value: []byte(strings.Join(values, ", ")),
		})
	}

	return fields
}

// Get returns the first value of key.
// For list-based field, use [Headers.Values].
func (h *Headers) Get(key string) (value string, ok bool) {
	v, ok := h.underlying[canonical(key)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h *Headers) Values(key string) (values []string, ok bool) {
	values, ok = h.underlying[canonical(key)]
	return
}

// Set overwrites existing values of key.
func (h *Headers) Set(key, value string) {
	h.init()
	h.underlying[canonical(key)] = []string{value}
}

func (h *Headers) Add(key, value string) {
	h.init()
	key = canonical(key)
	h.underlying[key] = append(h.underlying[key], value)
}

func (h *Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

func (h *Headers) init() {
	if h.underlying == nil {
		h.underlying = make(map[string][]string)
	}
}

func isListOnlyField(canonicalKey string) bool {
	return canonicalKey == "Set-Cookie"
}

func canonical(s string) string {
	if rule.IsValidToken(s) {
		s = toCanonicalFieldName(s)
	}
	return s
}

// This only works for valid token.
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}
