package model

import "errors"

var (
	// ErrTransientFetch marks network, timeout and bot-challenge failures that may succeed on retry.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrExternalService marks a failure of a translation, entity or advisory collaborator.
	ErrExternalService = errors.New("external service failure")

	// ErrMalformedResponse marks collaborator output that could not be decoded.
	ErrMalformedResponse = errors.New("malformed collaborator response")

	// ErrInvalidWeights marks a weight table that is negative or sums above one.
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrInvalidConfig marks a store or process configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)
