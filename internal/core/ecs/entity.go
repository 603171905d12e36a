package ecs

import "fmt"

// Id is a packed 64-bit entity identifier:
//
//	bit 63      pair flag (reserved, never set by the index)
//	bits 32-47  generation, bumped each time the slot is recycled
//	bits 0-31   raw slot index
//
// Equality is equality of the full packed value.
type Id uint64

const (
	PairFlag       Id = 1 << 63
	GenerationMask Id = 0xFFFF << generationShift
	IndexMask      Id = 0xFFFF_FFFF

	generationShift = 32
)

func NewId(index uint32, generation uint16) Id {
	return Id(uint64(generation)<<generationShift | uint64(index))
}

func IdFromUint64(v uint64) Id { return Id(v) }

func (id Id) Uint64() uint64     { return uint64(id) }
func (id Id) Index() uint32      { return uint32(id & IndexMask) }
func (id Id) Generation() uint16 { return uint16((id & GenerationMask) >> generationShift) }
func (id Id) IsZero() bool       { return id == 0 }

// HasPairFlag reports whether bit 63 is set. The index never sets or reads
// it.
func (id Id) HasPairFlag() bool { return id&PairFlag != 0 }

// IncrementGeneration returns id with its generation bumped by one, wrapping
// at 65536. Only bits 32-47 change.
func (id Id) IncrementGeneration() Id {
	return id&^GenerationMask | Id(id.Generation()+1)<<generationShift
}

func (id Id) String() string {
	return fmt.Sprintf("Id(%d:%d)", id.Index(), id.Generation())
}

// Entity is a handle pairing an Id with the World that issued it.
type Entity struct {
	world *World
	id    Id
}

func (e Entity) Id() Id         { return e.id }
func (e Entity) World() *World  { return e.world }
func (e Entity) IsAlive() bool  { return e.world.Alive(e.id) }
func (e Entity) String() string { return e.id.String() }

// Delete removes the entity if it is still alive.
func (e Entity) Delete() {
	e.world.DeleteEntity(e.id)
}
