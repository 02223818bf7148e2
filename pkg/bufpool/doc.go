// Package bufpool provides a fixed-size byte buffer pool for the RESP writer.
//
// The pool is a flat array of slots. Each slot either holds a buffer that is
// free for reuse or is empty. Taking a buffer swaps the slot to empty and
// returning one swaps an empty slot back to the buffer, so every transition is
// a single atomic operation on one slot:
//
//   - Get: scan for the first non-empty slot and take it; allocate on a miss
//   - Put: park the buffer in the first empty slot; drop it when the pool is full
//   - Clear: empty every slot
//
// A miss never blocks and never fails; the pool only bounds how much memory is
// retained for reuse. Buffers whose length differs from the configured buffer
// length are never parked.
//
// Usage:
//
//	p := bufpool.New(bufpool.WithBufferLength(1450), bufpool.WithMaxSize(500000))
//	b := p.Get()
//	defer p.Put(b)
//
// A single *Pool may be shared by any number of clients.
package bufpool
