// Package middleware contains the HTTP middleware chain: trace IDs and
// request logging, panic recovery, bearer token authentication, role checks
// and Redis-backed rate limiting.
package middleware
