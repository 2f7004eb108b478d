// Package client contains the client-side building blocks of depotkeeper.
//
// # Overview
//
// The package provides:
//  1. The Session and Directory contracts the rest of the client is written
//     against: login (anonymous or account), depot keys, manifest request
//     codes, raw manifests, product info and ranged content reads.
//  2. A gRPC implementation (GRPCClient) that attaches the session token via
//     an interceptor, forgets expired sessions and maps gRPC status codes to
//     the sentinels in internal/common.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Callers match failures with errors.Is against common.ErrUnauthenticated,
// common.ErrRequestDenied, common.ErrNotFound and common.ErrNetwork.
//
// # Concurrency
//
// A GRPCClient belongs to one logical session. Its token is guarded, so
// concurrent OpenFile calls from download workers are safe; login and
// logout should not race with other calls.
package client
