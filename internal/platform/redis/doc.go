// Package redis wires the optional Redis connection used by the API and
// implements a sliding-window rate limiter on Redis sorted sets.
package redis
