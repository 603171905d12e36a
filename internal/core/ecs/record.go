package ecs

// TableRef locates the table holding an entity's components. Table storage
// is not implemented yet; every record carries the zero TableRef.
type TableRef uint32

// Record is the per-slot metadata kept in the sparse page table.
// Dense == 0 means the slot was never allocated: slot 0 of the dense array
// is a sentinel, so zero-filled pages read as empty.
type Record struct {
	Table TableRef
	Row   uint64
	Dense uint64
}

func (r Record) Equal(o Record) bool {
	return r.Table == o.Table && r.Row == o.Row && r.Dense == o.Dense
}
