package ecs

import (
	"math"

	"github.com/l1jgo/ecscore/internal/core/collections"
	"github.com/l1jgo/ecscore/internal/core/invariant"
)

const (
	PageBits = 12
	PageSize = 1 << PageBits
	PageMask = PageSize - 1
)

// EntityIndex is a sparse set mapping ids to records.
//
// dense holds the sentinel at 0, live ids in [1, aliveCount) and recycled
// ids, generation already bumped, in [aliveCount, dense.Len()). pages is
// the sparse side: records addressed by raw index, in lazily allocated
// pages of PageSize.
//
// Generations are 16 bits. After 65536 reuses of one slot a stale id
// aliases the live one again; nothing guards against that.
type EntityIndex struct {
	dense      collections.Vec[Id]
	pages      collections.Vec[collections.Arr[Record]]
	maxId      uint32
	aliveCount uint64
}

func NewEntityIndex() *EntityIndex {
	return NewEntityIndexWithCapacity(1)
}

// NewEntityIndexWithCapacity preallocates room for capacity dense slots,
// the sentinel included.
func NewEntityIndexWithCapacity(capacity int) *EntityIndex {
	dense := collections.NewVecZeroed[Id](max(capacity, 1))
	dense.SetMinCount(1, false)
	return &EntityIndex{
		dense:      dense,
		pages:      collections.NewVecZeroed[collections.Arr[Record]](1),
		aliveCount: 1,
	}
}

// Dispose frees every page and both buffers. Calling it again is a no-op.
func (e *EntityIndex) Dispose() {
	for i := 0; i < e.pages.Len(); i++ {
		e.pages.Ptr(i).Dispose()
	}
	e.pages.Dispose()
	e.dense.Dispose()
}

func (e *EntityIndex) ensurePage(index uint32) *collections.Arr[Record] {
	pageIndex := int(index >> PageBits)
	if pageIndex >= e.pages.Len() {
		e.pages.SetMinCount(pageIndex+1, true)
	}
	page := e.pages.Ptr(pageIndex)
	if page.IsNil() {
		*page = collections.NewArrZeroed[Record](PageSize)
	}
	return page
}

// GetAny returns the record for id's slot without checking liveness or
// generation. The slot's page must exist.
func (e *EntityIndex) GetAny(id Id) *Record {
	index := id.Index()
	page := e.pages.Ptr(int(index >> PageBits))
	record := page.Ptr(int(index & PageMask))
	invariant.Check(record.Dense != 0, "record of never allocated slot")
	return record
}

// Get returns the record of a live id. Passing a dead or unknown id is
// undefined unless invariant checks are enabled; use TryGet when validity
// is not already known.
func (e *EntityIndex) Get(id Id) *Record {
	record := e.GetAny(id)
	invariant.Check(record.Dense < e.aliveCount, "entity is not alive")
	invariant.Check(e.dense.At(int(record.Dense)) == id, "entity generation mismatch")
	return record
}

// TryGetAny returns the record for id's slot, or nil if the slot was never
// allocated.
func (e *EntityIndex) TryGetAny(id Id) *Record {
	index := id.Index()
	pageIndex := int(index >> PageBits)
	if pageIndex >= e.pages.Len() {
		return nil
	}
	page := e.pages.Ptr(pageIndex)
	if page.IsNil() {
		return nil
	}
	record := page.Ptr(int(index & PageMask))
	if record.Dense == 0 {
		return nil
	}
	return record
}

// TryGet returns the record of id if it is alive with a matching
// generation, nil otherwise.
func (e *EntityIndex) TryGet(id Id) *Record {
	record := e.TryGetAny(id)
	if record == nil || record.Dense >= e.aliveCount || e.dense.At(int(record.Dense)) != id {
		return nil
	}
	return record
}

func (e *EntityIndex) IsAlive(id Id) bool {
	return e.TryGet(id) != nil
}

// NewId returns a recycled id when one is waiting, otherwise mints the next
// raw index at generation 0.
func (e *EntityIndex) NewId() Id {
	if e.aliveCount != uint64(e.dense.Len()) {
		id := e.dense.At(int(e.aliveCount))
		e.aliveCount++
		return id
	}

	if e.maxId == math.MaxUint32 {
		panic("ecs: entity index exhausted")
	}
	e.maxId++
	id := NewId(e.maxId, 0)
	e.dense.Append(id)

	page := e.ensurePage(e.maxId)
	page.Ptr(int(e.maxId & PageMask)).Dense = e.aliveCount
	e.aliveCount++
	return id
}

// Delete frees id if it is alive. The last live id is swapped into the
// freed dense slot and the freed id, generation bumped, becomes the first
// recycled id.
func (e *EntityIndex) Delete(id Id) {
	record := e.TryGet(id)
	if record == nil {
		return
	}

	deleteIndex := record.Dense
	e.aliveCount--
	lastIndex := e.aliveCount
	lastEntity := e.dense.At(int(lastIndex))

	e.GetAny(lastEntity).Dense = deleteIndex
	*record = Record{Dense: lastIndex}

	e.dense.Set(int(deleteIndex), lastEntity)
	e.dense.Set(int(lastIndex), id.IncrementGeneration())
}

// AliveCount is the length of the live prefix of the dense array, sentinel
// included.
func (e *EntityIndex) AliveCount() int { return int(e.aliveCount) }

// Len is the dense array length: sentinel, live and recycled ids.
func (e *EntityIndex) Len() int { return e.dense.Len() }

// MaxId is the highest raw index minted so far.
func (e *EntityIndex) MaxId() uint32 { return e.maxId }

// PageCount reports how many record pages are allocated.
func (e *EntityIndex) PageCount() int {
	n := 0
	for i := 0; i < e.pages.Len(); i++ {
		if !e.pages.Ptr(i).IsNil() {
			n++
		}
	}
	return n
}

// Alive returns a copy of the live ids in dense order.
func (e *EntityIndex) Alive() []Id {
	if e.dense.IsNil() {
		return nil
	}
	return append([]Id(nil), e.dense.Slice()[1:e.aliveCount]...)
}
