package incident

import (
	"context"
	"sort"
	"sync"
	"time"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	incidents map[domain.IncidentID]Incident
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{incidents: make(map[domain.IncidentID]Incident)}
}

func (s *InMemoryStore) Append(_ context.Context, inc Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents[inc.ID] = inc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.IncidentID) (Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	if !ok {
		return Incident{}, sentinel.ErrNotFound
	}
	return inc, nil
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Incident
	for _, inc := range s.incidents {
		if f.Status != "" && inc.Status != f.Status {
			continue
		}
		if f.Severity != "" && inc.Severity != f.Severity {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, id domain.IncidentID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incidents[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inc.Status == StatusResolved {
		return sentinel.ErrInvalidState
	}
	inc.Status = StatusResolved
	inc.ResolvedAt = &at
	s.incidents[id] = inc
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.IncidentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.incidents, id)
	return nil
}

func (s *InMemoryStore) CountOpen(_ context.Context, severity Severity) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, inc := range s.incidents {
		if inc.Status == StatusOpen && inc.Severity == severity {
			count++
		}
	}
	return count, nil
}
