package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS         = []byte{SP, HTAB}
	CRLF        = []byte{CR, LF}
	Whitespaces = []byte{SP, HTAB, VT, FF, CR}

	// HeaderTerminator marks the end of the field section.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.1
	HeaderTerminator = []byte{CR, LF, CR, LF}
)

func IsWhitespace(r rune) bool {
	for _, ws := range Whitespaces {
		if r == rune(ws) {
			return true
		}
	}
	return false
}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

func IsHex(r rune) bool {
	return IsDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// IsCookieOctet reports whether c may appear unquoted in a cookie value.
// Reference: https://datatracker.ietf.org/doc/html/rfc6265#section-4.1.1
func IsCookieOctet(c byte) bool {
	switch {
	case c == 0x21:
		return true
	case 0x23 <= c && c <= 0x2B:
		return true
	case 0x2D <= c && c <= 0x3A:
		return true
	case 0x3C <= c && c <= 0x5B:
		return true
	case 0x5D <= c && c <= 0x7E:
		return true
	}
	return false
}
