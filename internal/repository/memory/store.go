// Package memory provides an in-process implementation of the persistence
// gateway. It backs the test suite and the single-process STORE=memory mode.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type bookmarkKey struct {
	studentID  int64
	propertyID int64
}

type state struct {
	seq             map[string]int64
	users           map[int64]models.User
	properties      map[int64]models.Property
	visits          map[int64]models.Visit
	leases          map[int64]models.Lease
	maintenance     map[int64]models.MaintenanceRequest
	events          map[int64]models.Event
	participants    map[int64]models.EventParticipant
	carpools        map[int64]models.Carpool
	carpoolRequests map[int64]models.CarpoolRequest
	notifications   map[int64]models.Notification
	// bookmark -> insertion sequence, for stable listing order
	bookmarks map[bookmarkKey]int64
}

func newState() state {
	return state{
		seq:             map[string]int64{},
		users:           map[int64]models.User{},
		properties:      map[int64]models.Property{},
		visits:          map[int64]models.Visit{},
		leases:          map[int64]models.Lease{},
		maintenance:     map[int64]models.MaintenanceRequest{},
		events:          map[int64]models.Event{},
		participants:    map[int64]models.EventParticipant{},
		carpools:        map[int64]models.Carpool{},
		carpoolRequests: map[int64]models.CarpoolRequest{},
		notifications:   map[int64]models.Notification{},
		bookmarks:       map[bookmarkKey]int64{},
	}
}

func (st *state) clone() state {
	c := state{
		seq:             cloneMap(st.seq),
		users:           cloneMap(st.users),
		properties:      cloneMap(st.properties),
		visits:          cloneMap(st.visits),
		leases:          cloneMap(st.leases),
		maintenance:     cloneMap(st.maintenance),
		events:          cloneMap(st.events),
		participants:    cloneMap(st.participants),
		carpools:        make(map[int64]models.Carpool, len(st.carpools)),
		carpoolRequests: cloneMap(st.carpoolRequests),
		notifications:   cloneMap(st.notifications),
		bookmarks:       cloneMap(st.bookmarks),
	}
	for id, cp := range st.carpools {
		c.carpools[id] = cloneCarpool(cp)
	}
	return c
}

func (st *state) next(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

func (st *state) username(id int64) string {
	return st.users[id].Username
}

// Store keeps every table in maps behind one mutex. A transaction holds the
// mutex for its whole duration and restores a snapshot on failure.
type Store struct {
	mu    sync.Mutex
	state state
}

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repos() repository.Repos {
	return s.repos(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("begin transaction", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	if err := fn(s.repos(true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) repos(inTx bool) repository.Repos {
	b := base{s: s, inTx: inTx}
	return repository.Repos{
		Users:           userRepo{b},
		Properties:      propertyRepo{b},
		Visits:          visitRepo{b},
		Leases:          leaseRepo{b},
		Maintenance:     maintenanceRepo{b},
		Events:          eventRepo{b},
		Participants:    participantRepo{b},
		Carpools:        carpoolRepo{b},
		CarpoolRequests: carpoolRequestRepo{b},
		Notifications:   notificationRepo{b},
		Bookmarks:       bookmarkRepo{b},
	}
}

// base gives every repository access to the shared state. Outside a
// transaction each call takes the mutex itself.
type base struct {
	s    *Store
	inTx bool
}

func (b base) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("memory store", err)
	}
	if !b.inTx {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	return fn(&b.s.state)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneCarpool(c models.Carpool) models.Carpool {
	c.Stops = append(make([]models.Stop, 0, len(c.Stops)), c.Stops...)
	return c
}

// ordered returns the values whose keep func is true, sorted by id.
func ordered[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
