// Package uri implements the subset of Uniform Resource Identifier (URI)
// handling an origin server needs: request-target parsing, percent-decoding
// and form-urlencoded query parsing.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://url.spec.whatwg.org/#application/x-www-form-urlencoded
package uri
