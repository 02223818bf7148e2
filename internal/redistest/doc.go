// Package redistest provides an in-process Redis protocol server for tests.
//
// The server listens on 127.0.0.1 with an ephemeral port, keeps an
// in-memory keyspace per database index and understands the subset of
// commands the client packages exercise: connection handshake, strings,
// hashes, lists, sets, sorted sets, expiry, MULTI/EXEC and pub/sub.
//
// Tests can override any command with Handle, inspect what was received
// with Received, and drop live connections with KillConnections to force
// the client through its reconnect path.
package redistest
