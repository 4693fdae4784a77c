package domain

import "errors"

var (
	// ErrConfiguration marks missing or rejected credentials. It is never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstreamGeneration marks a remote text or image service failure or an
	// empty result.
	ErrUpstreamGeneration = errors.New("upstream generation failed")
	// ErrRetryExhausted is returned once every attempt in the retry budget failed.
	ErrRetryExhausted = errors.New("all retries failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)
