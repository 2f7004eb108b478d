package common

import "errors"

// Error taxonomy shared by the client and the gateway. Callers should match
// these values with errors.Is; producers wrap them with fmt.Errorf("%w").
var (
	// ErrUnauthenticated means the operation needs a logged-on session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRequestDenied means the provider refused the request, usually
	// because the account does not own the content.
	ErrRequestDenied = errors.New("request denied")

	// ErrNetwork is a transient transport failure; the caller may retry.
	ErrNetwork = errors.New("network error")

	// ErrNotFound means an unknown app, depot, manifest or cache entry.
	ErrNotFound = errors.New("not found")

	// ErrMalformedTicket means a ticket artifact could not be decoded.
	ErrMalformedTicket = errors.New("malformed ticket")

	// ErrInvalidProductInfo means upstream product metadata has an unexpected shape.
	ErrInvalidProductInfo = errors.New("invalid product info")

	// ErrIO is a local filesystem failure.
	ErrIO = errors.New("io error")

	// ErrCorrupt means local content does not match the manifest.
	ErrCorrupt = errors.New("corrupt")

	// ErrInternal is an unexpected server side failure.
	ErrInternal = errors.New("internal error")

	// ErrTokenExpired is reported by the gateway for an expired session token.
	ErrTokenExpired = errors.New("token expired")
)
