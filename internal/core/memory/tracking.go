package memory

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/multierr"
)

// tracker is the debug registry shared by every allocation in the process.
// Worlds running on separate goroutines allocate concurrently, so the
// registry is mutex guarded and the counters are atomic.
type tracker struct {
	enabled     atomic.Bool
	allocations atomic.Int64
	bytes       atomic.Int64

	mu    sync.Mutex
	sizes map[unsafe.Pointer]uint64
}

var global = newTracker()

func newTracker() *tracker {
	t := &tracker{sizes: make(map[unsafe.Pointer]uint64, 64)}
	t.enabled.Store(defaultTracking)
	return t
}

// Zero-sized blocks share one address in the runtime and are never tracked.
func (t *tracker) register(p unsafe.Pointer, size uint64) {
	if size == 0 {
		return
	}
	t.mu.Lock()
	if _, ok := t.sizes[p]; ok {
		t.mu.Unlock()
		panic(fmt.Errorf("%w: %p", ErrAlreadyRegistered, p))
	}
	t.sizes[p] = size
	t.mu.Unlock()

	t.allocations.Add(1)
	t.bytes.Add(int64(size))
}

func (t *tracker) deregister(p unsafe.Pointer, size uint64) {
	if size == 0 {
		return
	}
	t.mu.Lock()
	recorded, ok := t.sizes[p]
	if ok {
		delete(t.sizes, p)
	}
	t.mu.Unlock()
	if !ok {
		panic(fmt.Errorf("%w: %p (double free or foreign block)", ErrNotRegistered, p))
	}

	t.allocations.Add(-1)
	if t.bytes.Add(-int64(recorded)) < 0 {
		panic(ErrNegativeBalance)
	}
}

// EnableTracking switches allocation bookkeeping on or off. Toggle it only
// while no blocks are outstanding: a block allocated untracked and freed
// tracked is reported as a foreign pointer.
func EnableTracking(on bool) {
	global.enabled.Store(on)
}

// Tracking reports whether allocation bookkeeping is active.
func Tracking() bool {
	return global.enabled.Load()
}

// Reset forgets every registered block and zeroes the counters.
func Reset() {
	global.mu.Lock()
	clear(global.sizes)
	global.allocations.Store(0)
	global.bytes.Store(0)
	global.mu.Unlock()
}

// Stats is a snapshot of the tracking counters. Both fields stay zero while
// tracking is disabled.
type Stats struct {
	LiveAllocations int64 `json:"live_allocations"`
	LiveBytes       int64 `json:"live_bytes"`
}

// Snapshot returns the current counters.
func Snapshot() Stats {
	return Stats{
		LiveAllocations: global.allocations.Load(),
		LiveBytes:       global.bytes.Load(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("non-freed allocations: %d, non-freed bytes: %d", s.LiveAllocations, s.LiveBytes)
}

// Leaks returns one ErrLeaked error per outstanding block, or nil when every
// tracked block has been freed.
func Leaks() error {
	type block struct {
		addr uintptr
		size uint64
	}
	global.mu.Lock()
	blocks := make([]block, 0, len(global.sizes))
	for p, size := range global.sizes {
		blocks = append(blocks, block{addr: uintptr(p), size: size})
	}
	global.mu.Unlock()

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].addr < blocks[j].addr })
	var err error
	for _, b := range blocks {
		err = multierr.Append(err, fmt.Errorf("%w: %#x (%d bytes)", ErrLeaked, b.addr, b.size))
	}
	return err
}
