// Package bufpool provides a fixed-size byte buffer pool for the RESP writer.
package bufpool

import "sync/atomic"

// Default sizing.
const (
	// DefaultBufferLength fits one TCP segment on a 1500 byte MTU link.
	DefaultBufferLength = 1450

	// DefaultMaxSize bounds the bytes the pool keeps parked (about 500KB).
	DefaultMaxSize = 500000

	// minBufferLength keeps a RESP header ("*<n>\r\n") inside one buffer.
	minBufferLength = 64
)

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	// Hits counts Get calls served from a parked buffer.
	Hits uint64
	// Misses counts Get calls that had to allocate.
	Misses uint64
	// Returned counts buffers parked by Put.
	Returned uint64
	// Dropped counts buffers Put refused (wrong length or pool full).
	Dropped uint64
	// Oversized counts GetSize calls answered with a dedicated allocation.
	Oversized uint64
}

// Pool is a lock-free pool of equally sized byte buffers.
type Pool struct {
	length int
	slots  []atomic.Pointer[[]byte]

	hits      atomic.Uint64
	misses    atomic.Uint64
	returned  atomic.Uint64
	dropped   atomic.Uint64
	oversized atomic.Uint64
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	length  int
	maxSize int
}

// WithBufferLength sets the length of every pooled buffer.
func WithBufferLength(n int) Option {
	return func(o *options) {
		o.length = n
	}
}

// WithMaxSize sets the number of bytes the pool may keep parked.
// The slot count is maxSize / bufferLength.
func WithMaxSize(n int) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// New creates a pool.
func New(opts ...Option) *Pool {
	o := options{
		length:  DefaultBufferLength,
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.length < minBufferLength {
		o.length = minBufferLength
	}

	slots := o.maxSize / o.length
	if slots < 1 {
		slots = 1
	}

	return &Pool{
		length: o.length,
		slots:  make([]atomic.Pointer[[]byte], slots),
	}
}

// BufferLength returns the length of pooled buffers.
func (p *Pool) BufferLength() int {
	return p.length
}

// Slots returns the number of parking slots.
func (p *Pool) Slots() int {
	return len(p.slots)
}

// Get returns a buffer of BufferLength bytes. Its contents are unspecified.
func (p *Pool) Get() []byte {
	for i := range p.slots {
		if b := p.slots[i].Swap(nil); b != nil {
			p.hits.Add(1)
			return *b
		}
	}
	p.misses.Add(1)
	return make([]byte, p.length)
}

// GetSize returns a buffer of at least size bytes.
// Requests larger than BufferLength get a dedicated allocation that Put will
// later refuse.
func (p *Pool) GetSize(size int) []byte {
	if size > p.length {
		p.oversized.Add(1)
		return make([]byte, size)
	}
	return p.Get()
}

// Put parks b for reuse. The caller must not touch b afterwards.
func (p *Pool) Put(b []byte) {
	if len(b) != p.length {
		p.dropped.Add(1)
		return
	}
	for i := range p.slots {
		if p.slots[i].CompareAndSwap(nil, &b) {
			p.returned.Add(1)
			return
		}
	}
	// Full; let the GC have it.
	p.dropped.Add(1)
}

// Clear empties every slot.
func (p *Pool) Clear() {
	for i := range p.slots {
		p.slots[i].Store(nil)
	}
}

// Grow returns a buffer of at least atLeast bytes holding b[from:from+n] at
// offset zero. The new length is double len(b), or atLeast when doubling is
// not enough. A pool-sized b is parked again.
func (p *Pool) Grow(b []byte, atLeast, from, n int) []byte {
	size := len(b) * 2
	if size < atLeast {
		size = atLeast
	}

	grown := make([]byte, size)
	if n > 0 {
		copy(grown, b[from:from+n])
	}
	if len(b) == p.length {
		p.Put(b)
	}
	return grown
}

// Parked returns the number of buffers currently parked.
func (p *Pool) Parked() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Returned:  p.returned.Load(),
		Dropped:   p.dropped.Load(),
		Oversized: p.oversized.Load(),
	}
}
