// Package resp implements the client side of the Redis serialization
// protocol (RESP2).
//
// Writer frames command vectors into pooled buffers and flushes them with
// one scatter-gather write. Reader parses replies into the tagged Reply
// variant and decodes them into the shape a call site expects, selected by
// a Decoder tag:
//
//	r := resp.NewReader(conn)
//	v, err := r.Decode(resp.DecodeLong)
//
// Limits on line, bulk and array lengths bound what a misbehaving server
// can make the client allocate.
package resp
