package scenario

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/l1jgo/ecscore/internal/core/collections"
	"github.com/l1jgo/ecscore/internal/core/ecs"
	"github.com/l1jgo/ecscore/internal/core/hash"
)

// Result summarizes one replayed scenario.
type Result struct {
	Name    string `json:"name"`
	Steps   int    `json:"steps"`
	Created int    `json:"created"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

// Runner replays scenarios. It holds no per-run state and may be shared by
// goroutines that each use their own World.
type Runner struct {
	log    *zap.Logger
	hasher hash.Func[uint64]
}

// NewRunner returns a runner whose map steps hash keys with hasher
// (hash.Value when nil).
func NewRunner(log *zap.Logger, hasher hash.Func[uint64]) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if hasher == nil {
		hasher = hash.Value[uint64]
	}
	return &Runner{log: log, hasher: hasher}
}

// state is what the steps of one run share: ids from create steps not yet
// deleted, and every handle deleted so far.
type state struct {
	world    *ecs.World
	captured []ecs.Id
	deleted  []ecs.Id
	result   Result
}

// Run replays sc on w, which should be fresh. Failed expectations are
// collected and returned together; replay continues past them.
func (r *Runner) Run(w *ecs.World, sc *Scenario) (Result, error) {
	s := &state{world: w, result: Result{Name: sc.Name}}
	log := r.log.With(zap.String("scenario", sc.Name))

	var errs error
	for i, st := range sc.Steps {
		var err error
		switch st.Op {
		case OpCreate:
			s.create(max(st.Count, 1))
		case OpDelete:
			s.delete(st.Order == "reverse")
		case OpDeleteTwice:
			err = s.deleteTwice()
		case OpExpect:
			err = s.expect(st.Expect)
		case OpMap:
			err = r.mapStep(st)
		default:
			err = fmt.Errorf("%w: unknown op %q", ErrInvalid, st.Op)
		}
		s.result.Steps++
		if err != nil {
			s.result.Failed++
			log.Debug("step failed", zap.Int("step", i), zap.String("op", st.Op), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s step %d (%s): %w", sc.Name, i, st.Op, err))
		}
	}
	log.Debug("scenario done",
		zap.Int("created", s.result.Created),
		zap.Int("deleted", s.result.Deleted),
		zap.Int("failed", s.result.Failed),
	)
	return s.result, errs
}

func (s *state) create(n int) {
	for i := 0; i < n; i++ {
		s.captured = append(s.captured, s.world.CreateEntity())
	}
	s.result.Created += n
}

func (s *state) delete(reverse bool) {
	ids := s.captured
	if reverse {
		ids = slices.Clone(ids)
		slices.Reverse(ids)
	}
	for _, id := range ids {
		s.world.DeleteEntity(id)
	}
	s.deleted = append(s.deleted, ids...)
	s.result.Deleted += len(ids)
	s.captured = s.captured[:0]
}

func (s *state) deleteTwice() error {
	if len(s.captured) == 0 {
		return fmt.Errorf("no captured entity")
	}
	id := s.captured[0]
	s.captured = s.captured[1:]

	idx := s.world.Index()
	s.world.DeleteEntity(id)
	alive, n, maxId := idx.AliveCount(), idx.Len(), idx.MaxId()
	s.world.DeleteEntity(id)

	s.deleted = append(s.deleted, id)
	s.result.Deleted++
	if idx.AliveCount() != alive || idx.Len() != n || idx.MaxId() != maxId {
		return fmt.Errorf("second delete of %v changed the index", id)
	}
	if s.world.Alive(id) {
		return fmt.Errorf("%v alive after delete", id)
	}
	return nil
}

func (s *state) expect(e Expect) error {
	idx := s.world.Index()
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if e.AliveCount != nil && idx.AliveCount() != *e.AliveCount {
		fail("alive_count: got %d, want %d", idx.AliveCount(), *e.AliveCount)
	}
	if e.Pages != nil && idx.PageCount() != *e.Pages {
		fail("pages: got %d, want %d", idx.PageCount(), *e.Pages)
	}
	if e.MaxId != nil && idx.MaxId() != *e.MaxId {
		fail("max_id: got %d, want %d", idx.MaxId(), *e.MaxId)
	}
	for _, id := range s.captured {
		if e.Alive != nil && s.world.Alive(id) != *e.Alive {
			fail("alive: %v is %t, want %t", id, !*e.Alive, *e.Alive)
			break
		}
	}
	for _, id := range s.captured {
		if e.Generation != nil && id.Generation() != *e.Generation {
			fail("generation: %v, want %d", id, *e.Generation)
			break
		}
	}
	if e.StaleDead != nil && *e.StaleDead {
		for _, id := range s.deleted {
			if s.world.Alive(id) {
				fail("stale_dead: %v still alive", id)
				break
			}
		}
	}
	if e.Reused != nil {
		seen := make(map[uint32]struct{}, len(s.deleted))
		for _, id := range s.deleted {
			seen[id.Index()] = struct{}{}
		}
		for _, id := range s.captured {
			if _, ok := seen[id.Index()]; ok != *e.Reused {
				fail("reused: index of %v reused=%t, want %t", id, ok, *e.Reused)
				break
			}
		}
	}
	if e.Buckets != nil {
		fail("buckets: only valid on map steps")
	}
	return errs
}

// mapStep adds Count keys to a fresh map, checks the bucket count, reads
// every key back and removes them again.
func (r *Runner) mapStep(st Step) (err error) {
	m := collections.NewMapWithHasher[uint64, uint64](r.hasher)
	defer m.Dispose()

	for k := uint64(0); k < uint64(st.Count); k++ {
		if err := m.Add(k, k*k); err != nil {
			return fmt.Errorf("add %d: %w", k, err)
		}
	}
	if st.Buckets != nil && m.Buckets() != *st.Buckets {
		err = multierr.Append(err, fmt.Errorf("buckets: got %d, want %d", m.Buckets(), *st.Buckets))
	}
	for k := uint64(0); k < uint64(st.Count); k++ {
		v, ok := m.TryGet(k)
		if !ok || v != k*k {
			return multierr.Append(err, fmt.Errorf("key %d lost", k))
		}
	}
	for k := uint64(0); k < uint64(st.Count); k++ {
		m.Remove(k)
	}
	if m.Count() != 0 {
		err = multierr.Append(err, fmt.Errorf("count %d after removing every key", m.Count()))
	}
	return err
}
