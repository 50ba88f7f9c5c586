package uri

import (
	"strings"

	"github.com/pkg/errors"
)

// Values maps a key to its values in the order of appearance.
type Values map[string][]string

// Get returns the first value of key. Missing key yields "".
func (v Values) Get(key string) string {
	if vs := v[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (v Values) Add(key, value string) {
	v[key] = append(v[key], value)
}

// Encode renders values in form-urlencoded form. Key order follows keys.
func (v Values) Encode(keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range v[key] {
			parts = append(parts, QueryEscape(key)+"="+QueryEscape(value))
		}
	}
	return strings.Join(parts, "&")
}

// ParseQuery parses a query string or a form-urlencoded body.
// Pairs without '=' are kept with an empty value.
func ParseQuery(raw string) (Values, error) {
	values := make(Values)

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")

		key, err := unescape(rawKey, true)
		if err != nil {
			return nil, errors.Wrapf(err, "unescaping key %q", rawKey)
		}
		value, err := unescape(rawValue, true)
		if err != nil {
			return nil, errors.Wrapf(err, "unescaping value of %q", key)
		}

		values.Add(key, value)
	}

	return values, nil
}
