// Package connection owns the redis clients of one goresp-cli run.
//
// A Manager opens a single client lazily for one-shot commands and a
// client pool for concurrent ones (bench). Both share one request buffer
// pool whose statistics, with the client pool's, are exported through the
// metrics registry.
package connection
