//go:build integration

package candidate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"talenttrack/internal/candidate"
	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
	"talenttrack/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *candidate.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = candidate.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "candidate_emails", "candidates")
	s.Require().NoError(err)
}

// TestConcurrentEmailClaim verifies that concurrent creation attempts sharing
// an email result in exactly one candidate. This is the storage-level
// uniqueness the reconciliation engine leans on instead of locking around its
// read-check-then-write sequence.
func (s *PostgresStoreSuite) TestConcurrentEmailClaim() {
	ctx := context.Background()
	cycleID := domain.NewCycleID()
	sharedEmail := "raced-" + uuid.NewString() + "@x.org"
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c := candidate.New(cycleID, sharedEmail, "Jane Doe", nil)
			err := s.store.CreateIfEmailsAvailable(ctx, c)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get the conflict error")

	matches, err := s.store.FindByEmails(ctx, []string{sharedEmail}, domain.CycleID{})
	s.Require().NoError(err)
	s.Len(matches, 1)
}

func (s *PostgresStoreSuite) TestAlternateEmailBlocksCreation() {
	ctx := context.Background()
	cycleID := domain.NewCycleID()

	first := candidate.New(cycleID, "jane@x.org", "Jane Doe", []string{"jd@x.org"})
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, first))

	// A second candidate claiming the alternate address conflicts.
	second := candidate.New(cycleID, "jd@x.org", "John Dorian", nil)
	err := s.store.CreateIfEmailsAvailable(ctx, second)
	s.ErrorIs(err, sentinel.ErrConflict)

	// And the failed create left no partial rows behind.
	_, err = s.store.FindByID(ctx, second.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindByEmails_DistinctAcrossAddressKinds() {
	ctx := context.Background()
	cycleID := domain.NewCycleID()

	jane := candidate.New(cycleID, "jane@x.org", "Jane Doe", []string{"jd@x.org"})
	mark := candidate.New(cycleID, "mark@x.org", "Mark Roe", nil)
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, jane))
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, mark))

	// Two of the lookup addresses hit jane; she must come back once.
	matches, err := s.store.FindByEmails(ctx, []string{"jane@x.org", "jd@x.org", "mark@x.org"}, domain.CycleID{})
	s.Require().NoError(err)
	s.Len(matches, 2)
}

func (s *PostgresStoreSuite) TestFindByEmails_CycleScoping() {
	ctx := context.Background()
	thisCycle := domain.NewCycleID()
	lastCycle := domain.NewCycleID()

	returning := candidate.New(lastCycle, "returning@x.org", "Returning Applicant", nil)
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, returning))

	// Unscoped lookup sees the earlier cycle's record.
	matches, err := s.store.FindByEmails(ctx, []string{"returning@x.org"}, domain.CycleID{})
	s.Require().NoError(err)
	s.Len(matches, 1)

	// Scoped lookup does not.
	matches, err = s.store.FindByEmails(ctx, []string{"returning@x.org"}, thisCycle)
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *PostgresStoreSuite) TestAppendAlternateEmails() {
	ctx := context.Background()
	cycleID := domain.NewCycleID()

	jane := candidate.New(cycleID, "jane@x.org", "Jane Doe", nil)
	other := candidate.New(cycleID, "other@x.org", "Other Person", nil)
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, jane))
	s.Require().NoError(s.store.CreateIfEmailsAvailable(ctx, other))

	s.Require().NoError(s.store.AppendAlternateEmails(ctx, jane.ID, []string{"jd@x.org"}))

	got, err := s.store.FindByID(ctx, jane.ID)
	s.Require().NoError(err)
	s.True(got.OwnsEmail("jd@x.org"))

	// Re-appending an owned address is a no-op.
	s.Require().NoError(s.store.AppendAlternateEmails(ctx, jane.ID, []string{"jane@x.org"}))

	// An address owned by someone else conflicts.
	err = s.store.AppendAlternateEmails(ctx, jane.ID, []string{"other@x.org"})
	s.ErrorIs(err, sentinel.ErrConflict)
}
