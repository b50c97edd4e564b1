package candidate

import (
	"context"
	"sync"
	"time"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/email"
	"talenttrack/pkg/platform/sentinel"
)

// InMemoryStore keeps candidates plus an owned-email index under one lock, so
// the conditional insert is atomic the same way the postgres unique index
// makes it.
type InMemoryStore struct {
	mu         sync.RWMutex
	candidates map[domain.CandidateID]Candidate
	// emailOwner maps normalized address -> owning candidate.
	emailOwner map[string]domain.CandidateID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		candidates: make(map[domain.CandidateID]Candidate),
		emailOwner: make(map[string]domain.CandidateID),
	}
}

func (s *InMemoryStore) CreateIfEmailsAvailable(_ context.Context, c Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, addr := range c.Emails() {
		if _, taken := s.emailOwner[addr]; taken {
			return sentinel.ErrConflict
		}
	}
	s.candidates[c.ID] = c
	for _, addr := range c.Emails() {
		s.emailOwner[addr] = c.ID
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CandidateID) (Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return Candidate{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) FindByEmails(_ context.Context, emails []string, cycleID domain.CycleID) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.CandidateID]struct{})
	var out []Candidate
	for _, addr := range emails {
		owner, ok := s.emailOwner[email.Normalize(addr)]
		if !ok {
			continue
		}
		c := s.candidates[owner]
		if !cycleID.IsZero() && c.CycleID != cycleID {
			continue
		}
		if _, dup := seen[owner]; !dup {
			seen[owner] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AppendAlternateEmails(_ context.Context, id domain.CandidateID, emails []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	toAdd := make([]string, 0, len(emails))
	for _, addr := range email.NormalizeSet(emails...) {
		owner, taken := s.emailOwner[addr]
		if taken {
			if owner == id {
				continue
			}
			return sentinel.ErrConflict
		}
		toAdd = append(toAdd, addr)
	}
	if len(toAdd) == 0 {
		return nil
	}
	c.AlternateEmails = append(c.AlternateEmails, toAdd...)
	c.UpdatedAt = time.Now().UTC()
	s.candidates[id] = c
	for _, addr := range toAdd {
		s.emailOwner[addr] = id
	}
	return nil
}
