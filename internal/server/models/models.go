// Package models defines the gateway's persisted records.
package models

import "time"

// User is an account that can log on with credentials. Salt and Verifier
// come from the client-side key derivation; the password is never stored.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	GuardCode string
}

// App is a catalog entry. ProductInfo holds the JSON node served to clients
// under apps.<id>. Free apps can be fetched by anonymous sessions.
type App struct {
	ID          uint32
	Name        string
	Free        bool
	ProductInfo []byte
}

type Depot struct {
	ID    uint32
	AppID uint32
	Name  string
	Key   []byte
}

// Manifest is the raw payload of one depot version.
type Manifest struct {
	DepotID      uint32
	ManifestID   uint64
	Payload      []byte
	RequiresCode bool
	CreatedAt    time.Time
}
