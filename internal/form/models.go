// Package form holds the registry of connected external forms: their parsed
// question structure, the mapping from questions to semantic person fields,
// and whether the form may originate brand-new candidate records.
package form

import (
	"sort"
	"time"

	"talenttrack/pkg/domain"
)

// FieldRole labels what a question's answer means for candidate
// reconciliation. Unmapped questions carry FieldRoleNone.
type FieldRole string

const (
	FieldRoleNone        FieldRole = ""
	FieldRolePersonName  FieldRole = "person.name"
	FieldRolePersonEmail FieldRole = "person.email"
)

// Question is one question of the external form's parsed structure.
type Question struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

// Section groups questions in the order the provider presents them.
type Section struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Form describes one connected external form. Forms are created when the
// provider handshake is validated, replaced by admin action, and never
// deleted while responses reference them.
type Form struct {
	ID       domain.FormID
	CycleID  domain.CycleID
	Provider string
	// ProviderFormRef is the provider's own identifier for the form; inbound
	// submissions carry it instead of our ID.
	ProviderFormRef string
	Title           string
	Sections        []Section
	// FieldMappings maps question IDs to semantic roles. At most one question
	// should map to each role; see roleIndex for how duplicates are resolved.
	FieldMappings map[string]FieldRole
	// CanCreateCandidates marks a form authorized to originate brand-new
	// candidate records. Non-creating forms may only attach to existing ones.
	CanCreateCandidates bool
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// roleIndex is the precomputed role -> question-id index, built once on
	// construction/load so submissions never re-scan the mappings.
	roleIndex map[FieldRole]string
}

// Reindex rebuilds the role index. Stores call it after loading; New calls it
// on construction. When several questions map to the same role the first one
// in document order wins, which keeps the lookup deterministic.
func (f *Form) Reindex() {
	idx := make(map[FieldRole]string, 2)
	for _, section := range f.Sections {
		for _, q := range section.Questions {
			role, ok := f.FieldMappings[q.ID]
			if !ok || role == FieldRoleNone {
				continue
			}
			if _, taken := idx[role]; !taken {
				idx[role] = q.ID
			}
		}
	}
	// Mappings can reference questions missing from the parsed structure
	// (provider edited the form after mapping). Visit them in sorted order so
	// the fallback stays deterministic too.
	leftover := make([]string, 0, len(f.FieldMappings))
	for qid := range f.FieldMappings {
		leftover = append(leftover, qid)
	}
	sort.Strings(leftover)
	for _, qid := range leftover {
		role := f.FieldMappings[qid]
		if role == FieldRoleNone {
			continue
		}
		if _, taken := idx[role]; !taken {
			idx[role] = qid
		}
	}
	f.roleIndex = idx
}

// QuestionForRole returns the question ID mapped to the given role.
func (f *Form) QuestionForRole(role FieldRole) (string, bool) {
	if f.roleIndex == nil {
		f.Reindex()
	}
	qid, ok := f.roleIndex[role]
	return qid, ok
}

// RoleOf returns the semantic role of a question, FieldRoleNone when unmapped.
func (f *Form) RoleOf(questionID string) FieldRole {
	return f.FieldMappings[questionID]
}

// New constructs a Form with a fresh ID and a built role index.
func New(cycleID domain.CycleID, provider, providerFormRef, title string, sections []Section, mappings map[string]FieldRole, canCreate bool) Form {
	now := time.Now().UTC()
	f := Form{
		ID:                  domain.NewFormID(),
		CycleID:             cycleID,
		Provider:            provider,
		ProviderFormRef:     providerFormRef,
		Title:               title,
		Sections:            sections,
		FieldMappings:       mappings,
		CanCreateCandidates: canCreate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.Reindex()
	return f
}
