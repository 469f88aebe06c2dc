package domain

import (
	"sort"
	"sync"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
)

// Record is the part of a persisted document the in-memory store relies on.
type Record interface {
	GetID() id.ID
	GetAccountID() id.ID
	GetVersion() int
	SetVersion(v int)
}

// MemoryStore keeps documents in a map with the same account scoping and
// version check as the Postgres repositories. It backs the MemoryRepository
// types used by unit tests.
type MemoryStore[T any, P interface {
	*T
	Record
}] struct {
	mu     sync.Mutex
	rows   map[id.ID]T
	entity string
	clone  func(T) T

	// BeforeUpdate, when set, runs before Update compares versions.
	// Tests use it to simulate a concurrent writer.
	BeforeUpdate func(stored P)
}

// NewMemoryStore creates an empty store. clone must deep-copy slices of T.
func NewMemoryStore[T any, P interface {
	*T
	Record
}](entity string, clone func(T) T) *MemoryStore[T, P] {
	return &MemoryStore[T, P]{
		rows:   make(map[id.ID]T),
		entity: entity,
		clone:  clone,
	}
}

func (s *MemoryStore[T, P]) copyOut(v T) P {
	c := s.clone(v)
	return P(&c)
}

func (s *MemoryStore[T, P]) Insert(p P) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.GetID()] = s.clone(*p)
}

func (s *MemoryStore[T, P]) Get(accountID, recordID id.ID) (P, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[recordID]
	if !ok || P(&v).GetAccountID() != accountID {
		return nil, apperror.NewNotFound(s.entity, recordID.String())
	}
	return s.copyOut(v), nil
}

func (s *MemoryStore[T, P]) Update(p P) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[p.GetID()]
	if !ok || P(&stored).GetAccountID() != p.GetAccountID() {
		return apperror.NewNotFound(s.entity, p.GetID().String())
	}
	if s.BeforeUpdate != nil {
		s.BeforeUpdate(P(&stored))
		s.rows[p.GetID()] = stored
	}
	if P(&stored).GetVersion() != p.GetVersion() {
		return apperror.NewConcurrentModification(s.entity, p.GetID().String())
	}
	p.SetVersion(p.GetVersion() + 1)
	s.rows[p.GetID()] = s.clone(*p)
	return nil
}

func (s *MemoryStore[T, P]) Delete(accountID, recordID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[recordID]
	if !ok || P(&v).GetAccountID() != accountID {
		return apperror.NewNotFound(s.entity, recordID.String())
	}
	delete(s.rows, recordID)
	return nil
}

// Filter returns copies of the records matching keep, ordered by ID
// (creation order for UUIDv7).
func (s *MemoryStore[T, P]) Filter(keep func(P) bool) []P {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []P
	for _, v := range s.rows {
		p := s.copyOut(v)
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].GetID(), out[j].GetID()
		return a.String() < b.String()
	})
	return out
}
