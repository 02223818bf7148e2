// Package domain defines the value types shared by the RESP client packages.
//
// Types here carry no I/O and no framework coupling:
//
//   - Endpoint: where and how to connect (host, port, password, db)
//   - KeyValue, ScoreValue, ChannelCount: multi-value command arguments
//   - SetCondition, Aggregate: command option enums
//   - DomainError: the client error taxonomy and its sentinels
package domain
