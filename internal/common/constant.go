// Package common contains shared constants, sentinel errors and small helpers
// used by both the depotkeeper client and the content gateway.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultChunkSize is the upper bound of a single content read (1 MiB).
const DefaultChunkSize = 1 << 20

// Depot key length bounds, in bytes.
const (
	MinDepotKeySize = 16
	MaxDepotKeySize = 32
)
