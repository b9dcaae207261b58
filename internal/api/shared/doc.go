// Package shared holds the pieces used by both the HTTP handlers and the
// middleware: context keys for the trace ID and the authenticated identity,
// strict JSON request decoding, and the uniform error envelope.
package shared
