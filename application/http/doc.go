// Package http implements the HTTP/1.1 message syntax on raw byte streams.
//
// Only Content-Length framing is understood. Each connection carries a single
// request and a single response.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
