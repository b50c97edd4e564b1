package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talenttrack/pkg/domain"
)

func testSections() []Section {
	return []Section{
		{
			Title: "About you",
			Questions: []Question{
				{ID: "q_name", Title: "Full name", Type: "short_text"},
				{ID: "q_email", Title: "Email address", Type: "email"},
			},
		},
		{
			Title: "Motivation",
			Questions: []Question{
				{ID: "q_why", Title: "Why this team?", Type: "long_text"},
			},
		},
	}
}

func TestRoleIndex(t *testing.T) {
	t.Run("resolves mapped questions", func(t *testing.T) {
		f := New(domain.NewCycleID(), "typeform", "abc123", "Apply", testSections(), map[string]FieldRole{
			"q_name":  FieldRolePersonName,
			"q_email": FieldRolePersonEmail,
		}, true)

		qid, ok := f.QuestionForRole(FieldRolePersonEmail)
		require.True(t, ok)
		assert.Equal(t, "q_email", qid)

		qid, ok = f.QuestionForRole(FieldRolePersonName)
		require.True(t, ok)
		assert.Equal(t, "q_name", qid)
	})

	t.Run("unmapped role is absent", func(t *testing.T) {
		f := New(domain.NewCycleID(), "typeform", "abc123", "Apply", testSections(), map[string]FieldRole{}, false)

		_, ok := f.QuestionForRole(FieldRolePersonEmail)
		assert.False(t, ok)
	})

	t.Run("duplicate role mappings resolve to document order", func(t *testing.T) {
		// Two questions mapped to person.email; the first in the parsed
		// structure must win on every load.
		f := New(domain.NewCycleID(), "typeform", "abc123", "Apply", testSections(), map[string]FieldRole{
			"q_email": FieldRolePersonEmail,
			"q_why":   FieldRolePersonEmail,
		}, true)

		for range 10 {
			f.Reindex()
			qid, ok := f.QuestionForRole(FieldRolePersonEmail)
			require.True(t, ok)
			assert.Equal(t, "q_email", qid)
		}
	})

	t.Run("mapping referencing a removed question still resolves", func(t *testing.T) {
		f := New(domain.NewCycleID(), "typeform", "abc123", "Apply", testSections(), map[string]FieldRole{
			"q_deleted": FieldRolePersonEmail,
		}, true)

		qid, ok := f.QuestionForRole(FieldRolePersonEmail)
		require.True(t, ok)
		assert.Equal(t, "q_deleted", qid)
	})

	t.Run("RoleOf returns none for unmapped question", func(t *testing.T) {
		f := New(domain.NewCycleID(), "typeform", "abc123", "Apply", testSections(), map[string]FieldRole{
			"q_email": FieldRolePersonEmail,
		}, true)

		assert.Equal(t, FieldRolePersonEmail, f.RoleOf("q_email"))
		assert.Equal(t, FieldRoleNone, f.RoleOf("q_why"))
	})
}
