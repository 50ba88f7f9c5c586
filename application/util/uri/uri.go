package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// URI keeps Path unescaped and RawQuery as received.
// The query stays escaped so that '&' and '=' inside values survive until [ParseQuery].
type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	RawQuery  *string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.3
func (u *URI) IsAbsoluteURI() bool {
	return u.Scheme != ""
}

// Query parses the raw query. A missing query yields empty [Values].
func (u *URI) Query() (Values, error) {
	if u.RawQuery == nil {
		return Values{}, nil
	}
	return ParseQuery(*u.RawQuery)
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	b := new(strings.Builder)
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	if u.Authority != nil {
		b.WriteString("//")
		b.WriteString(u.Authority.String())
	}

	b.WriteString(escape(u.Path, encodePath))

	if u.RawQuery != nil {
		b.WriteByte('?')
		b.WriteString(*u.RawQuery)
	}

	return b.String()
}

type Authority struct {
	Host string
	Port *uint16
}

func (a Authority) String() string {
	if a.Port == nil {
		return a.Host
	}
	return a.Host + ":" + strconv.FormatUint(uint64(*a.Port), 10)
}

// Parse parses an absolute URI (e.g. "http://127.0.0.1:9000/get-list")
// or an origin-form request target (e.g. "/get-list?peer=app1").
// Fragments are dropped.
func Parse(raw string) (URI, error) {
	if containsCTL(raw) {
		return URI{}, errors.New("URI should not contain CTL bytes")
	}

	var u URI

	scheme, rest, err := cutScheme(raw)
	if err != nil {
		return URI{}, errors.Wrap(err, "getting scheme")
	}
	u.Scheme = strings.ToLower(scheme)

	if strings.HasPrefix(rest, "//") {
		var authorityRaw string
		authorityRaw, rest = rest[2:], ""
		if i := strings.IndexAny(authorityRaw, "/?#"); i >= 0 {
			authorityRaw, rest = authorityRaw[:i], authorityRaw[i:]
		}

		authority, err := parseAuthority(authorityRaw)
		if err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}
		u.Authority = &authority
	}

	path, query := splitPathQuery(rest)

	if err := assertValidPath(path, u.Authority != nil); err != nil {
		return URI{}, errors.Wrap(err, "path is not valid")
	}
	if u.Path, err = unescape(path, false); err != nil {
		return URI{}, errors.Wrap(err, "unescaping path")
	}
	u.Path = removeDotSegments(u.Path)

	if len(query) > 0 {
		query = query[1:] // Strip '?'.
		if !isQueryValid(query) {
			return URI{}, errors.New("query is not valid")
		}
		u.RawQuery = &query
	}

	return u, nil
}

// ParseRequestTarget parses origin-form request target.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func ParseRequestTarget(raw string) (URI, error) {
	if !strings.HasPrefix(raw, "/") {
		return URI{}, errors.Errorf("origin-form target should start with '/': %q", raw)
	}
	return Parse(raw)
}

func cutScheme(raw string) (scheme, rest string, err error) {
	if strings.HasPrefix(raw, "/") {
		return "", raw, nil
	}

	before, after, found := strings.Cut(raw, ":")
	if !found {
		return "", before, nil
	}

	if err := assertValidScheme(before); err != nil {
		return "", "", err
	}

	return before, after, nil
}

func parseAuthority(raw string) (Authority, error) {
	if strings.Contains(raw, "@") {
		return Authority{}, errors.New("userinfo is not supported")
	}

	host, portPart := raw, ""
	if strings.HasPrefix(raw, "[") {
		// IP literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return Authority{}, errors.New("missing ']' in IP literal")
		}
		host, portPart = raw[:idx+1], raw[idx+1:]
	} else if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		host, portPart = raw[:idx], raw[idx:]
	}

	if host == "" {
		return Authority{}, errors.New("host is empty")
	}
	if !isValidHost(host) {
		return Authority{}, errors.Errorf("host is not valid: %q", host)
	}

	authority := Authority{Host: strings.ToLower(host)}

	port, hasPort, err := ParsePort(portPart)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing port")
	}
	if hasPort {
		authority.Port = &port
	}

	return authority, nil
}

// ParsePort parses ":port". Empty input means no port.
func ParsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}
	s = s[1:]

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	if s[0] == '0' && !(n == 0 && len(s) == 1) {
		return 0, false, errors.New("port has leading zero")
	}

	return uint16(n), true, nil
}

func splitPathQuery(raw string) (path, query string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	return raw, query
}
