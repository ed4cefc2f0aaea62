package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// maxCString bounds ReadCString so a missing terminator cannot run away.
const maxCString = 1 << 30

// pointer converts an engine address into an unsafe.Pointer.
func pointer(p unpdf.Ptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p))
}

// Memory reads and writes the process address space the native library
// shares with Go.
type Memory struct{}

// Read copies length bytes at p into Go memory.
func (Memory) Read(p unpdf.Ptr, length int) ([]byte, error) {
	if p == 0 {
		return nil, errors.NilPointer(errors.PhaseMemory, "read")
	}
	if length < 0 {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint64(p), length)
	}
	out := make([]byte, length)
	copy(out, unsafe.Slice((*byte)(pointer(p)), length))
	return out, nil
}

// ReadCString copies the NUL-terminated string at p into Go memory.
func (Memory) ReadCString(p unpdf.Ptr) (string, error) {
	if p == 0 {
		return "", errors.NilPointer(errors.PhaseMemory, "read_cstring")
	}
	base := pointer(p)
	n := 0
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
		if n >= maxCString {
			return "", errors.OutOfBounds(errors.PhaseMemory, uint64(p), n)
		}
	}
	return string(unsafe.Slice((*byte)(base), n)), nil
}

// Write copies data to p.
func (Memory) Write(p unpdf.Ptr, data []byte) error {
	if p == 0 {
		return errors.NilPointer(errors.PhaseMemory, "write")
	}
	if len(data) == 0 {
		return nil
	}
	copy(unsafe.Slice((*byte)(pointer(p)), len(data)), data)
	return nil
}

type pinned struct {
	buf    []byte
	pinner runtime.Pinner
}

// arena hands out pinned Go buffers that native code may read during a
// call. Each buffer stays alive until Free.
type arena struct {
	live map[unpdf.Ptr]*pinned
	mu   sync.Mutex
}

func newArena() *arena {
	return &arena{live: make(map[unpdf.Ptr]*pinned)}
}

// Alloc returns the address of a zeroed, pinned buffer of size bytes.
func (a *arena) Alloc(size int) (unpdf.Ptr, error) {
	if size <= 0 {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, nil)
	}

	pn := &pinned{buf: make([]byte, size)}
	pn.pinner.Pin(&pn.buf[0])
	p := unpdf.Ptr(uintptr(unsafe.Pointer(&pn.buf[0])))

	a.mu.Lock()
	a.live[p] = pn
	a.mu.Unlock()
	return p, nil
}

// Free releases a buffer returned by Alloc. Unknown pointers are ignored.
func (a *arena) Free(p unpdf.Ptr, _ int) {
	a.mu.Lock()
	pn, ok := a.live[p]
	delete(a.live, p)
	a.mu.Unlock()

	if ok {
		pn.pinner.Unpin()
	}
}

// Len reports how many buffers are outstanding.
func (a *arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// release frees every outstanding buffer.
func (a *arena) release() {
	a.mu.Lock()
	live := a.live
	a.live = make(map[unpdf.Ptr]*pinned)
	a.mu.Unlock()

	for _, pn := range live {
		pn.pinner.Unpin()
	}
}
