// Package memstore is an in-process implementation of repository.Store. It
// backs tests and runs the service when no database is configured.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type grievanceRecord struct {
	g      domain.Grievance
	serial int64
}

type departmentRecord struct {
	dept   domain.Department
	serial int64
}

// Store keeps committed state behind a single mutex. Transactions stage their
// writes and validate grievance versions when they commit, so two
// transactions may read the same version but only one may write it.
type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	serial      int64
	seq         int64
	grievances  map[string]grievanceRecord
	tickets     map[string]string
	events      []domain.Event
	departments map[string]departmentRecord
	officers    map[string]domain.Officer
	citizens    map[string]domain.Citizen
}

var _ repository.Store = (*Store)(nil)

// New builds an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:         func() time.Time { return time.Now().UTC() },
		grievances:  make(map[string]grievanceRecord),
		tickets:     make(map[string]string),
		departments: make(map[string]departmentRecord),
		officers:    make(map[string]domain.Officer),
		citizens:    make(map[string]domain.Citizen),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repos returns repositories whose writes commit one call at a time.
func (s *Store) Repos() repository.Repositories {
	return newTxn(s, true).repos()
}

// InTx stages every write made by fn and applies them atomically if fn
// returns nil and no grievance version moved underneath.
func (s *Store) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTxn(s, false)
	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// EventCount returns the number of committed ledger entries.
func (s *Store) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Store) commit(t *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, staged := range t.grievances {
		if staged.created {
			if owner, ok := s.tickets[staged.g.TicketID]; ok && owner != id {
				return repository.ErrDuplicateTicketID
			}
			continue
		}
		current, ok := s.grievances[id]
		if !ok {
			return repository.ErrNotFound
		}
		if current.g.Version != staged.base {
			return repository.ErrVersionConflict
		}
	}
	for phone, citizen := range t.citizens {
		if existing, ok := s.citizens[phone]; ok && existing.ID != citizen.ID {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateCitizen, phone)
		}
	}

	for _, id := range t.grievanceOrder {
		staged := t.grievances[id]
		record, ok := s.grievances[id]
		if !ok {
			s.serial++
			record.serial = s.serial
			s.tickets[staged.g.TicketID] = id
		}
		record.g = cloneGrievance(staged.g)
		s.grievances[id] = record
	}
	for _, id := range t.departmentOrder {
		dept := t.departments[id]
		record, ok := s.departments[id]
		if !ok {
			s.serial++
			record.serial = s.serial
		}
		record.dept = dept
		s.departments[id] = record
	}
	for id, officer := range t.officers {
		s.officers[id] = officer
	}
	for phone, citizen := range t.citizens {
		s.citizens[phone] = citizen
	}
	for _, event := range t.events {
		s.seq++
		event.Sequence = s.seq
		s.events = append(s.events, cloneEvent(*event))
	}
	return nil
}

func cloneGrievance(g domain.Grievance) domain.Grievance {
	g.DepartmentID = cloneString(g.DepartmentID)
	g.AssignedOfficerID = cloneString(g.AssignedOfficerID)
	g.Location.Lat = cloneFloat(g.Location.Lat)
	g.Location.Lng = cloneFloat(g.Location.Lng)
	return g
}

func cloneEvent(e domain.Event) domain.Event {
	payload := make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		payload[k] = v
	}
	e.Payload = payload
	e.ActorID = cloneString(e.ActorID)
	return e
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
