package form

import (
	"context"
	"sync"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	forms map[domain.FormID]Form
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{forms: make(map[domain.FormID]Form)}
}

func (s *InMemoryStore) Save(_ context.Context, f Form) error {
	f.Reindex()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[f.ID] = f
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.FormID) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[id]
	if !ok {
		return Form{}, sentinel.ErrNotFound
	}
	return f, nil
}

func (s *InMemoryStore) FindByProviderRef(_ context.Context, provider, providerFormRef string) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.forms {
		if f.Provider == provider && f.ProviderFormRef == providerFormRef {
			return f, nil
		}
	}
	return Form{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByCycle(_ context.Context, cycleID domain.CycleID) ([]Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Form
	for _, f := range s.forms {
		if f.CycleID == cycleID {
			out = append(out, f)
		}
	}
	return out, nil
}
