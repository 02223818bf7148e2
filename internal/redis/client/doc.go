// Package client implements the RESP protocol client: one TCP connection
// to one server, with connect-time AUTH and SELECT, transparent reconnect
// after idle disconnects, typed reply readers and pipelining.
//
// A Client serves one caller at a time. Concurrent callers each need
// their own Client (see package clientpool), and a subscription loop
// needs a dedicated one.
//
// Every I/O failure closes the socket; the next command reconnects.
// Server error replies leave the connection usable.
package client
