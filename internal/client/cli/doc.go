// Package cli provides the interactive depotkeeper client.
//
// App wires configuration, the local SQLite database, the gateway session
// and the ticket services, then runs a REPL. Every input line is looked up
// in a fixed command table (see commands); nothing typed by the operator is
// evaluated.
//
// Typical session:
//
//	dk (-)> anon
//	dk (anonymous online)> make 480 481 3183503801510301321
//	dk (anonymous online)> download 480 481 3183503801510301321
//
// Tickets written by make and bulk can later be loaded with no gateway
// connection; download then only needs the content URLs.
package cli
