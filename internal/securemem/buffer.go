// Package securemem provides secure handling of secret byte buffers:
// locked allocations, explicit zeroization, and the process entropy
// source.
package securemem

import (
	"runtime"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // process-wide toggle set from configuration
var lockingDisabled atomic.Bool

// SetLockingEnabled controls whether new buffers attempt to pin their
// pages into RAM. Pinning failures are always tolerated; disabling
// only skips the attempt.
func SetLockingEnabled(enabled bool) {
	lockingDisabled.Store(!enabled)
}

// Buffer holds a secret in memory that is pinned against swapping
// where the platform allows it and zeroed on Destroy.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewBuffer allocates a zeroed buffer of the given size. Failure to
// pin the pages is not an error; the buffer simply stays unlocked.
func NewBuffer(size int) (*Buffer, error) {
	buf := &Buffer{data: make([]byte, size)}
	if !lockingDisabled.Load() {
		buf.locked = mlock(buf.data)
	}

	// The finalizer covers callers that drop the buffer without
	// calling Destroy.
	runtime.SetFinalizer(buf, (*Buffer).Destroy)

	return buf, nil
}

// FromSlice copies data into a new buffer. The caller still owns the
// original slice and should zero it.
func FromSlice(data []byte) (*Buffer, error) {
	buf, err := NewBuffer(len(data))
	if err != nil {
		return nil, err
	}
	copy(buf.data, data)
	return buf, nil
}

// Bytes returns the live buffer, or nil once destroyed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the buffer length, or zero once destroyed.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// IsLocked reports whether the buffer's pages are pinned.
func (b *Buffer) IsLocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Destroy zeros the buffer, unpins its pages, and releases it. Calling
// Destroy again is a no-op.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}

	zero(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil

	runtime.SetFinalizer(b, nil)
}

// ZeroBytes overwrites b with zeros. KeepAlive stops the compiler from
// dropping the writes when b is about to go out of scope.
func ZeroBytes(b []byte) {
	zero(b)
	runtime.KeepAlive(b)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
