// Package api exposes the task service over HTTP. Handlers decode and
// validate JSON bodies, read the caller identity placed in the request
// context by the auth middleware, and translate service errors into the
// uniform error envelope.
package api
