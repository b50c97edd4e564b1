package candidate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

func TestInMemoryStore_CreateIfEmailsAvailable(t *testing.T) {
	ctx := context.Background()
	cycle := domain.NewCycleID()

	t.Run("first claim succeeds", func(t *testing.T) {
		store := NewInMemoryStore()
		c := New(cycle, "jane@x.org", "Jane Doe", []string{"jd@x.org"})
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, c))

		found, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@x.org", found.Email)
		assert.Equal(t, []string{"jd@x.org"}, found.AlternateEmails)
	})

	t.Run("conflict on primary email", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, New(cycle, "jane@x.org", "Jane Doe", nil)))

		err := store.CreateIfEmailsAvailable(ctx, New(cycle, "jane@x.org", "Someone Else", nil))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("conflict on alternate email of existing candidate", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, New(cycle, "jane@x.org", "Jane Doe", []string{"jd@x.org"})))

		err := store.CreateIfEmailsAvailable(ctx, New(cycle, "jd@x.org", "Someone Else", nil))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("failed create claims no emails", func(t *testing.T) {
		store := NewInMemoryStore()
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, New(cycle, "jane@x.org", "Jane Doe", nil)))
		err := store.CreateIfEmailsAvailable(ctx, New(cycle, "new@x.org", "Someone Else", []string{"jane@x.org"}))
		require.ErrorIs(t, err, sentinel.ErrConflict)

		// new@x.org must still be free after the rejected insert.
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, New(cycle, "new@x.org", "Third Person", nil)))
	})
}

func TestInMemoryStore_AppendAlternateEmails(t *testing.T) {
	ctx := context.Background()
	cycle := domain.NewCycleID()

	t.Run("appends new addresses", func(t *testing.T) {
		store := NewInMemoryStore()
		c := New(cycle, "jane@x.org", "Jane Doe", nil)
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, c))

		require.NoError(t, store.AppendAlternateEmails(ctx, c.ID, []string{"Jane.Doe@Work.com"}))

		found, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"jane.doe@work.com"}, found.AlternateEmails)
	})

	t.Run("already owned address is a no-op", func(t *testing.T) {
		store := NewInMemoryStore()
		c := New(cycle, "jane@x.org", "Jane Doe", []string{"jd@x.org"})
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, c))

		require.NoError(t, store.AppendAlternateEmails(ctx, c.ID, []string{"JANE@X.ORG", "jd@x.org"}))

		found, err := store.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"jd@x.org"}, found.AlternateEmails)
	})

	t.Run("address owned elsewhere conflicts", func(t *testing.T) {
		store := NewInMemoryStore()
		a := New(cycle, "a@x.org", "A", nil)
		b := New(cycle, "b@x.org", "B", nil)
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, a))
		require.NoError(t, store.CreateIfEmailsAvailable(ctx, b))

		err := store.AppendAlternateEmails(ctx, a.ID, []string{"b@x.org"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		store := NewInMemoryStore()
		err := store.AppendAlternateEmails(ctx, domain.NewCandidateID(), []string{"x@x.org"})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
