package ecs

import (
	"math/rand/v2"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/ecscore/internal/core/invariant"
	"github.com/l1jgo/ecscore/internal/core/memory"
)

func TestMain(m *testing.M) {
	memory.EnableTracking(true)
	invariant.SetEnabled(true)
	os.Exit(m.Run())
}

func balanced(t *testing.T) {
	t.Helper()
	memory.Reset()
	t.Cleanup(func() {
		assert.Equal(t, memory.Stats{}, memory.Snapshot(), "allocations left behind")
		assert.NoError(t, memory.Leaks())
		memory.Reset()
	})
}

// checkIndex verifies that every dense slot past the sentinel is pointed
// back at by its record.
func checkIndex(t *testing.T, e *EntityIndex) {
	t.Helper()
	require.LessOrEqual(t, e.AliveCount(), e.Len())
	require.Equal(t, Id(0), e.dense.At(0), "sentinel")
	for i := 1; i < e.Len(); i++ {
		id := e.dense.At(i)
		require.Equal(t, uint64(i), e.GetAny(id).Dense, "dense[%d] = %v", i, id)
		require.Equal(t, i < e.AliveCount(), e.IsAlive(id), "dense[%d] = %v", i, id)
	}
}

func TestIdPacking(t *testing.T) {
	id := NewId(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint16(3), id.Generation())
	assert.False(t, id.HasPairFlag())
	assert.Equal(t, uint64(3)<<32|7, id.Uint64())
	assert.Equal(t, id, IdFromUint64(id.Uint64()))
	assert.Equal(t, "Id(7:3)", id.String())

	next := id.IncrementGeneration()
	assert.Equal(t, uint32(7), next.Index())
	assert.Equal(t, uint16(4), next.Generation())

	flagged := id | PairFlag
	assert.True(t, flagged.HasPairFlag())
	assert.Equal(t, PairFlag, flagged.IncrementGeneration()&PairFlag, "only generation bits change")

	wrapped := NewId(1, 0xFFFF).IncrementGeneration()
	assert.Equal(t, NewId(1, 0), wrapped)
}

func TestCreateDeleteSingle(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	e1 := e.NewId()
	assert.NotZero(t, e1.Index())
	assert.Equal(t, uint16(0), e1.Generation())
	assert.True(t, e.IsAlive(e1))
	assert.Equal(t, 2, e.AliveCount())

	e.Delete(e1)
	assert.False(t, e.IsAlive(e1))
	assert.Nil(t, e.TryGet(e1))
	assert.NotNil(t, e.TryGetAny(e1))
	checkIndex(t, e)
}

func TestRecycledIdKeepsStaleHandleDead(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	e1 := e.NewId()
	e.Delete(e1)
	e2 := e.NewId()

	assert.Equal(t, e1.Index(), e2.Index())
	assert.Equal(t, uint16(1), e2.Generation())
	assert.True(t, e.IsAlive(e2))
	assert.False(t, e.IsAlive(e1), "stale handle must stay dead after its slot is reused")
	assert.Equal(t, uint32(1), e.MaxId())
	checkIndex(t, e)
}

func TestDeleteTwiceIsNoop(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	a := e.NewId()
	b := e.NewId()
	e.Delete(a)

	alive, n, maxId := e.AliveCount(), e.Len(), e.MaxId()
	dense := append([]Id(nil), e.dense.Slice()...)

	e.Delete(a)
	assert.False(t, e.IsAlive(a))
	assert.True(t, e.IsAlive(b))
	assert.Equal(t, alive, e.AliveCount())
	assert.Equal(t, n, e.Len())
	assert.Equal(t, maxId, e.MaxId())
	assert.Equal(t, dense, e.dense.Slice())
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()
	e.NewId()

	e.Delete(NewId(9000, 0))
	e.Delete(NewId(1, 5))
	e.Delete(0)
	assert.Equal(t, 2, e.AliveCount())
	checkIndex(t, e)
}

func TestDeleteSwapsLastIntoHole(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	a, b, c := e.NewId(), e.NewId(), e.NewId()
	e.Delete(a)

	assert.Equal(t, []Id{c, b}, e.Alive())
	assert.Equal(t, uint64(1), e.Get(c).Dense)
	assert.Equal(t, a.IncrementGeneration(), e.dense.At(3))
	checkIndex(t, e)

	// the most recently freed id is reissued first
	e.Delete(b)
	assert.Equal(t, b.IncrementGeneration(), e.NewId())
	assert.Equal(t, a.IncrementGeneration(), e.NewId())
	assert.Equal(t, NewId(4, 0), e.NewId())
	checkIndex(t, e)
}

func TestBulkChurnReusesPages(t *testing.T) {
	balanced(t)

	const n = 100_000
	e := NewEntityIndex()
	defer e.Dispose()

	ids := make([]Id, n)
	for i := range ids {
		ids[i] = e.NewId()
	}
	pages := e.PageCount()
	assert.Equal(t, n>>PageBits+1, pages)
	assert.Equal(t, n+1, e.AliveCount())

	for i := n - 1; i >= 0; i-- {
		e.Delete(ids[i])
	}
	assert.Equal(t, 1, e.AliveCount())

	live := memory.Snapshot()
	for i := 0; i < n; i++ {
		id := e.NewId()
		require.Equal(t, uint16(1), id.Generation())
		require.Equal(t, ids[i].Index(), id.Index())
	}
	assert.Equal(t, n+1, e.AliveCount())
	assert.Equal(t, pages, e.PageCount())
	assert.Equal(t, uint32(n), e.MaxId())
	assert.Equal(t, live, memory.Snapshot(), "reuse must not allocate")

	for _, id := range ids {
		require.False(t, e.IsAlive(id))
	}
}

func TestRandomChurnKeepsIndexConsistent(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	rng := rand.New(rand.NewPCG(1, 2))
	alive := make(map[Id]struct{})
	var dead []Id

	for step := 0; step < 20_000; step++ {
		if len(alive) == 0 || rng.IntN(3) != 0 {
			id := e.NewId()
			_, dup := alive[id]
			require.False(t, dup, "id %v issued twice", id)
			alive[id] = struct{}{}
			continue
		}
		for id := range alive {
			e.Delete(id)
			delete(alive, id)
			dead = append(dead, id)
			break
		}
	}

	checkIndex(t, e)
	assert.Equal(t, len(alive)+1, e.AliveCount())
	for id := range alive {
		assert.True(t, e.IsAlive(id))
	}
	for _, id := range dead {
		assert.False(t, e.IsAlive(id))
	}
}

func TestGetPanicsOnDeadId(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	defer e.Dispose()

	a := e.NewId()
	e.NewId()
	require.NotPanics(t, func() { e.Get(a) })

	e.Delete(a)
	assert.PanicsWithError(t, invariant.ErrViolated.Error()+": entity is not alive", func() { e.Get(a) })

	b := e.NewId()
	assert.Equal(t, a.Index(), b.Index())
	assert.PanicsWithError(t, invariant.ErrViolated.Error()+": entity generation mismatch", func() { e.Get(a) })

	assert.Panics(t, func() { e.GetAny(NewId(100, 0)) })
}

func TestWithCapacity(t *testing.T) {
	balanced(t)

	e := NewEntityIndexWithCapacity(1024)
	defer e.Dispose()

	before := memory.Snapshot()
	for i := 0; i < 1000; i++ {
		e.NewId()
	}
	after := memory.Snapshot()
	assert.Equal(t, before.LiveAllocations+1, after.LiveAllocations, "only the first page is new")
}

func TestIndexDisposeTwice(t *testing.T) {
	balanced(t)

	e := NewEntityIndex()
	for i := 0; i < 5000; i++ {
		e.NewId()
	}
	assert.Equal(t, 2, e.PageCount())
	e.Dispose()
	e.Dispose()
	assert.Equal(t, 0, e.PageCount())
}

func TestWorldDeleteClearsComponents(t *testing.T) {
	balanced(t)

	w := NewWorld()
	defer w.Dispose()

	pos := RegisterStore[[2]float32](w)
	hp := RegisterStore[int32](w)
	assert.Equal(t, 2, w.Registry().Len())

	a := w.Entity()
	b := w.Entity()
	pos.Set(a.Id(), [2]float32{1, 2})
	hp.Set(a.Id(), 10)
	hp.Set(b.Id(), 20)
	hp.Set(b.Id(), 25)

	got, ok := hp.Get(b.Id())
	require.True(t, ok)
	assert.Equal(t, int32(25), got)
	assert.Equal(t, 2, hp.Len())

	a.Delete()
	assert.False(t, a.IsAlive())
	assert.False(t, pos.Has(a.Id()))
	assert.False(t, hp.Has(a.Id()))
	assert.True(t, hp.Has(b.Id()))
	assert.Equal(t, 1, hp.Len())

	a.Delete()
	assert.Equal(t, 1, hp.Len())
}

func TestWorldDestroyQueue(t *testing.T) {
	balanced(t)

	w := NewWorldWithCapacity(16)
	defer w.Dispose()

	tags := RegisterStore[string](w)
	var ids []Id
	for i := 0; i < 10; i++ {
		id := w.CreateEntity()
		tags.Set(id, "npc")
		ids = append(ids, id)
	}
	w.MarkForDestruction(ids[2])
	w.MarkForDestruction(ids[5])
	w.MarkForDestruction(ids[2])
	assert.True(t, w.Alive(ids[2]), "deletion is deferred")

	assert.Equal(t, 2, w.FlushDestroyQueue())
	assert.False(t, w.Alive(ids[2]))
	assert.False(t, w.Alive(ids[5]))
	assert.Equal(t, 8, tags.Len())
	assert.Equal(t, 0, w.FlushDestroyQueue())
	assert.Equal(t, 9, w.Index().AliveCount())
}

func TestEachJoinsStores(t *testing.T) {
	balanced(t)

	w := NewWorld()
	defer w.Dispose()

	pos := RegisterStore[int](w)
	vel := RegisterStore[int](w)
	tag := RegisterStore[string](w)

	var both []Id
	for i := 0; i < 20; i++ {
		id := w.CreateEntity()
		pos.Set(id, i)
		if i%2 == 0 {
			vel.Set(id, i*10)
		}
		if i%4 == 0 {
			tag.Set(id, "x")
			both = append(both, id)
		}
	}

	n := 0
	Each2(pos, vel, func(id Id, p, v int) {
		assert.Equal(t, p*10, v)
		n++
	})
	assert.Equal(t, 10, n)

	var seen []Id
	Each3(pos, vel, tag, func(id Id, _ int, _ int, s string) {
		assert.Equal(t, "x", s)
		seen = append(seen, id)
	})
	assert.ElementsMatch(t, both, seen)
}

func TestWorldDisposeTwice(t *testing.T) {
	balanced(t)

	w := NewWorld()
	s := RegisterStore[uint8](w)
	for i := 0; i < 100; i++ {
		s.Set(w.CreateEntity(), uint8(i))
	}
	w.Dispose()
	w.Dispose()
}
