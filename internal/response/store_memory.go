package response

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
	responses map[domain.ResponseID]Response
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{responses: make(map[domain.ResponseID]Response)}
}

func (s *InMemoryStore) Append(_ context.Context, r Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.responses[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.responses[r.ID] = r
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ResponseID) (Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[id]
	if !ok {
		return Response{}, sentinel.ErrNotFound
	}
	return r, nil
}

func (s *InMemoryStore) ListUnprocessed(_ context.Context, cycleID domain.CycleID, after time.Time) ([]Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Response
	for _, r := range s.responses {
		if r.Processed || r.CycleID != cycleID {
			continue
		}
		if !r.SubmittedAt.After(after) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *InMemoryStore) SetResolution(_ context.Context, id domain.ResponseID, candidateID domain.CandidateID, processed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.CandidateID = &candidateID
	r.Processed = processed
	s.responses[id] = r
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.ResponseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.responses, id)
	return nil
}
