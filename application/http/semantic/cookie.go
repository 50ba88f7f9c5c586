package semantic

import (
	"strconv"
	"strings"

	"peer-chat/application/util/rule"

	"github.com/pkg/errors"
)

// ParseCookies parses a Cookie field value into a name -> value mapping.
// Pairs with an invalid name are skipped. Later pairs win.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-5.4
func ParseCookies(raw string) map[string]string {
	cookies := make(map[string]string)

	for _, pair := range strings.Split(raw, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}

		name = strings.TrimSpace(name)
		if !rule.IsValidToken(name) {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		cookies[name] = value
	}

	return cookies
}

type SameSite string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
)

// SetCookie is a Set-Cookie field value.
type SetCookie struct {
	Name  string
	Value string

	Path     string
	MaxAge   int
	HttpOnly bool
	SameSite SameSite
}

var ErrInvalidCookie = errors.New("invalid cookie")

// Text renders the field value.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-4.1.1
func (c SetCookie) Text() (string, error) {
	if !rule.IsValidToken(c.Name) {
		return "", errors.Wrapf(ErrInvalidCookie, "name %q", c.Name)
	}
	for i := 0; i < len(c.Value); i++ {
		if !rule.IsCookieOctet(c.Value[i]) {
			return "", errors.Wrapf(ErrInvalidCookie, "value %q", c.Value)
		}
	}

	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(c.Value)

	if c.Path != "" {
		sb.WriteString("; Path=")
		sb.WriteString(c.Path)
	}
	if c.HttpOnly {
		sb.WriteString("; HttpOnly")
	}
	if c.SameSite != "" {
		sb.WriteString("; SameSite=")
		sb.WriteString(string(c.SameSite))
	}
	if c.MaxAge > 0 {
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(c.MaxAge))
	}

	return sb.String(), nil
}
