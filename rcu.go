package rtsync

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxReaders is the reader-table capacity used by NewRCU.
const DefaultMaxReaders = 128

// RCU stores a value of type T and provides concurrent read and write
// access to it. Multiple readers and writers are supported.
//
// Readers are always wait-free: opening and closing a read scope is a
// bounded number of atomic operations with no allocation. Readers never
// block writers; writers may block other writers.
//
// Overwritten values are put on a "zombie list", tagged with the epoch
// at which they were retired. Values no longer referred to by any open
// read scope are released by calling Reclaim. The principle is very
// similar to RCU, with two key differences:
//
//  1. reclamation is managed per object, not in a single global domain
//  2. reclamation does not happen automatically: call Reclaim
//     periodically (e.g. on a timer)
//
// An RCU must not be copied after first use.
type RCU[T any] struct {
	noCopy noCopy

	value atomic.Pointer[T]
	// epoch is the next retire tag. It starts at 1 and only grows; the
	// value 0 is reserved to mean "this reader holds no snapshot".
	// 64 bits cannot overflow in a process lifetime, and 64-bit atomics
	// are lock-free on every architecture the pause layer admits.
	epoch atomic.Uint64

	readers  []readerSlot[T]
	nextSlot atomic.Uint32

	mu      sync.Mutex // serializes writers and reclaimers; readers never take it
	zombies []zombie[T]
	drop    func(*T)
}

type zombie[T any] struct {
	epoch uint64 // epoch at which the value was retired
	value *T
}

// readerSlot is one pre-allocated reader record. minEpoch is written by
// the owning goroutine and read by reclaimers; value and depth are owned
// by the reader goroutine alone.
type readerSlot[T any] struct {
	// Padding so concurrently touched records do not share cache lines.
	_        [64]byte
	minEpoch atomic.Uint64 // 0 => no open read scope
	value    *T            // snapshot pointer; valid while minEpoch != 0
	depth    int           // read-scope nesting counter
}

// NewRCU creates an RCU holding initial, with room for DefaultMaxReaders
// reader registrations.
func NewRCU[T any](initial T) *RCU[T] {
	return NewRCUSized(initial, DefaultMaxReaders)
}

// NewRCUSized creates an RCU holding initial, with a fixed reader table
// of maxReaders records.
func NewRCUSized[T any](initial T, maxReaders int) *RCU[T] {
	if maxReaders <= 0 {
		panic("maxReaders must be > 0")
	}
	o := &RCU[T]{readers: make([]readerSlot[T], maxReaders)}
	o.value.Store(&initial)
	o.epoch.Store(1)
	return o
}

// SetDropFunc registers f to be called for every value the object stops
// referencing: retired values during Reclaim and the remaining values
// during Close. Useful when values hold resources that need
// deterministic release (pooled buffers, file handles). f must not
// panic. Must be called before the first Update, Reader or WriteLock.
func (o *RCU[T]) SetDropFunc(f func(*T)) {
	if o.nextSlot.Load() != 0 || o.epoch.Load() != 1 {
		panic("SetDropFunc after first use")
	}
	o.drop = f
}

// Reader assigns the next free reader record and returns a handle bound
// to it. Call once per reading goroutine and keep the handle for the
// goroutine's lifetime; the record is never returned to the table.
// A Reader must not be shared between goroutines.
//
// Panics when the reader table is exhausted; the fix is to construct the
// RCU with a larger table via NewRCUSized.
func (o *RCU[T]) Reader() *Reader[T] {
	id := o.nextSlot.Add(1) - 1
	if id >= uint32(len(o.readers)) {
		panic("reader table exhausted (raise maxReaders)")
	}
	return &Reader[T]{obj: o, slot: &o.readers[id]}
}

// Reader provides read access to the value. Reading must happen through
// a Reader.
type Reader[T any] struct {
	noCopy noCopy
	obj    *RCU[T]
	slot   *readerSlot[T]
}

// ReadLock opens a read scope and returns a ReadPtr for it. The value
// observed through the ReadPtr stays valid and unchanged until Unlock.
// Scopes may nest; nested scopes reuse the outer snapshot.
//
// Wait-free: a bounded number of the caller's own steps, regardless of
// concurrent writers and reclaimers.
func (r *Reader[T]) ReadLock() ReadPtr[T] {
	s := r.slot
	if s.depth == 0 {
		// Publish our epoch before loading the slot pointer. A reclaimer
		// that misses this store can only have read the record earlier,
		// when the scope was closed, and then the pointer loaded below is
		// at least as new as the epoch stored here. Both operations are
		// sequentially consistent.
		e := r.obj.epoch.Load() // never 0: the counter starts at 1
		s.minEpoch.Store(e)
		s.value = r.obj.value.Load()
	}
	s.depth++
	return ReadPtr[T]{r: r}
}

// Value returns a copy of the current value.
// Wait-free if copying T is wait-free.
func (r *Reader[T]) Value() T {
	p := r.ReadLock()
	v := *p.Get()
	p.Unlock()
	return v
}

// ReadPtr provides scoped read access to the value. It must not be
// copied; release it with Unlock exactly once.
type ReadPtr[T any] struct {
	noCopy noCopy
	r      *Reader[T]
}

// Get returns the snapshot observed when the scope was opened. The
// referent must not be mutated.
func (p *ReadPtr[T]) Get() *T {
	return p.r.slot.value
}

// Unlock closes the read scope. When the last nested scope closes, the
// reader stops pinning retired values.
func (p *ReadPtr[T]) Unlock() {
	s := p.r.slot
	if s.depth <= 0 {
		panic("unlock of unlocked ReadPtr")
	}
	s.depth--
	if s.depth == 0 {
		s.value = nil
		s.minEpoch.Store(0)
	}
}

// Update atomically replaces the current value with v, retiring the old
// one onto the zombie list. Allocates; may block other writers and
// reclaimers, never blocks readers.
func (o *RCU[T]) Update(v T) {
	o.exchangeAndRetire(&v)
}

func (o *RCU[T]) exchangeAndRetire(newValue *T) {
	old := o.value.Swap(newValue)

	o.mu.Lock()
	// The epoch increment happens inside the lock so zombies are strictly
	// ordered by epoch even under concurrent writers.
	o.zombies = append(o.zombies, zombie[T]{
		epoch: o.epoch.Add(1) - 1,
		value: old,
	})
	o.mu.Unlock()
}

// WriteLock copies the current value into a private buffer and returns a
// WritePtr exposing it for mutation. This is useful to modify e.g. only
// a single field of a larger struct. The buffer is atomically published
// when the WritePtr is unlocked.
func (o *RCU[T]) WriteLock() WritePtr[T] {
	return o.writeLock(false)
}

// WriteReclaimLock is WriteLock with a Reclaim run after the publish on
// Unlock.
func (o *RCU[T]) WriteReclaimLock() WritePtr[T] {
	return o.writeLock(true)
}

func (o *RCU[T]) writeLock(reclaimOnUnlock bool) WritePtr[T] {
	// Holding mu excludes reclaimers, so the copy source cannot be
	// released mid-copy even if this writer races with an Update that
	// retires it.
	o.mu.Lock()
	buf := *o.value.Load()
	o.mu.Unlock()
	return WritePtr[T]{obj: o, value: &buf, reclaim: reclaimOnUnlock}
}

// WritePtr provides scoped write access to a private copy of the value.
// It must not be copied; publish with Unlock exactly once.
type WritePtr[T any] struct {
	noCopy  noCopy
	obj     *RCU[T]
	value   *T
	reclaim bool
}

// Get returns the mutable buffer. Changes are not visible to readers
// until Unlock.
func (p *WritePtr[T]) Get() *T {
	if p.value == nil {
		panic("use of unlocked WritePtr")
	}
	return p.value
}

// Unlock atomically publishes the buffer and retires the previously
// current value.
func (p *WritePtr[T]) Unlock() {
	if p.value == nil {
		panic("unlock of unlocked WritePtr")
	}
	p.obj.exchangeAndRetire(p.value)
	p.value = nil
	if p.reclaim {
		p.obj.Reclaim()
	}
}

// Reclaim releases every retired value that is no longer referred to by
// an open read scope. May block writers and other reclaimers; never
// blocks readers.
func (o *RCU[T]) Reclaim() {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.zombies[:0]
	for i := range o.zombies {
		z := o.zombies[i]
		if o.pinned(z.epoch) {
			kept = append(kept, z)
			continue
		}
		if o.drop != nil {
			o.drop(z.value)
		}
	}
	// Clear the tail so released values are not kept reachable.
	for i := len(kept); i < len(o.zombies); i++ {
		o.zombies[i] = zombie[T]{}
	}
	o.zombies = kept
}

// pinned reports whether any reader record holds an epoch that protects
// a value retired at epoch e. The scan is not atomic across records,
// but a reader closing its scope mid-scan only makes the answer
// conservative: we keep a zombie we could have released.
func (o *RCU[T]) pinned(e uint64) bool {
	for i := range o.readers {
		re := o.readers[i].minEpoch.Load()
		if re != 0 && re <= e {
			return true
		}
	}
	return false
}

// Zombies returns the current length of the retire list.
func (o *RCU[T]) Zombies() int {
	o.mu.Lock()
	n := len(o.zombies)
	o.mu.Unlock()
	return n
}

// Close drains the retire list unconditionally and releases the current
// value. The RCU must not be used afterwards; the caller is responsible
// for making sure no read scope is still open.
func (o *RCU[T]) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.zombies {
		if o.drop != nil {
			o.drop(o.zombies[i].value)
		}
		o.zombies[i] = zombie[T]{}
	}
	o.zombies = nil

	if cur := o.value.Swap(nil); cur != nil && o.drop != nil {
		o.drop(cur)
	}
}
