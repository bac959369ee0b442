package parser

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

func TestNew(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NotNil(t, p.re.userStory)
}

func TestNew_InvalidPattern(t *testing.T) {
	pc := config.DefaultPatterns()
	pc.Bullet = `(unclosed`

	_, err := New(WithPatterns(pc))
	require.Error(t, err)

	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "bullet", perr.Name)
}

func TestNew_EmptyPatternFallsBack(t *testing.T) {
	pc := config.DefaultPatterns()
	pc.Bullet = ""

	p, err := New(WithPatterns(pc))
	require.NoError(t, err)
	assert.False(t, p.re.bullet.MatchString("plain text"))
}

func TestParse_EndToEndExample(t *testing.T) {
	text := "As a user, I want to login so that I can access my account.\n- Rate limiting: must block after 5 failed attempts [high]"

	doc := Parse(text)
	require.Len(t, doc.Requirements, 2)

	story := doc.Requirements[0]
	assert.Equal(t, "REQ-001", story.ID)
	assert.Equal(t, models.KindUserStory, story.Kind)
	assert.Equal(t, "user", story.Actor)
	assert.Equal(t, "login", story.Goal)
	assert.Equal(t, "I can access my account", story.Value)
	assert.Equal(t, "Login", story.Title)
	assert.Equal(t, models.PriorityMedium, story.Priority)

	req := doc.Requirements[1]
	assert.Equal(t, "REQ-002", req.ID)
	assert.Equal(t, models.KindRequirement, req.Kind)
	assert.Equal(t, "Rate limiting", req.Title)
	assert.Equal(t, "must block after 5 failed attempts", req.Description)
	assert.Equal(t, models.PriorityHigh, req.Priority)

	assert.Equal(t, "Untitled Requirements", doc.Title)
	assert.Equal(t, "1.0.0", doc.Version)
	assert.Equal(t, 1, doc.Metadata.ByKind[models.KindUserStory])
	assert.Equal(t, 1, doc.Metadata.ByKind[models.KindRequirement])
	assert.Equal(t, 0, doc.Metadata.ByKind[models.KindFeature])
	assert.Equal(t, 1, doc.Metadata.ByPriority[models.PriorityHigh])
	assert.Equal(t, 1, doc.Metadata.ByPriority[models.PriorityMedium])
}

func TestParse_MultiLineUserStory(t *testing.T) {
	text := "As an admin,\nI want to export reports\nso that I can audit usage."

	doc := Parse(text)
	require.Len(t, doc.Requirements, 1)

	story := doc.Requirements[0]
	assert.Equal(t, "admin", story.Actor)
	assert.Equal(t, "export reports", story.Goal)
	assert.Equal(t, "I can audit usage", story.Value)
}

func TestParse_UserStoryWithoutValue(t *testing.T) {
	doc := Parse("As a guest, I want to browse the catalog.")
	require.Len(t, doc.Requirements, 1)
	assert.Equal(t, "browse the catalog", doc.Requirements[0].Goal)
	assert.Empty(t, doc.Requirements[0].Value)
}

func TestParse_UserStoryAnnotations(t *testing.T) {
	doc := Parse("As a buyer, I want to pay by card [high] @payments so that checkout is fast.")
	require.Len(t, doc.Requirements, 1)

	story := doc.Requirements[0]
	assert.Equal(t, models.PriorityHigh, story.Priority)
	assert.Equal(t, []string{"payments"}, story.Tags)
	assert.Equal(t, "pay by card", story.Goal)
}

func TestParse_UserStoryPeriodInsideGoal(t *testing.T) {
	doc := Parse("As a user, I want to use v1.2 of the API so that things work.")
	require.Len(t, doc.Requirements, 1)

	story := doc.Requirements[0]
	assert.Equal(t, "use v1.2 of the API", story.Goal)
	assert.Equal(t, "things work", story.Value)
}

func TestFeatureName(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"## Feature: Login", "Login", true},
		{"### Feature - Cart", "Cart", true},
		{"## Search Feature", "Search Feature", true},
		{"Feature: Checkout", "Checkout", true},
		{"## Non-feature notes", "", false},
		{"## Features overview", "", false},
		{"# Feature: Top level", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := p.featureName(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_HeadingMentioningFeatureIsNotABlock(t *testing.T) {
	doc := Parse("## Non-feature notes\n- Note: thing\n")
	require.Len(t, doc.Requirements, 1)

	r := doc.Requirements[0]
	assert.Equal(t, models.KindRequirement, r.Kind)
	assert.Equal(t, "Note", r.Title)
	assert.Equal(t, "thing", r.Description)
	assert.Zero(t, doc.Metadata.ByKind[models.KindFeature])
}

const shopDoc = `# Shop Requirements

Requirements for the online shop.

Version: 2.1.0
Author: Jane Doe

## Feature: Product Search
Customers find products quickly.
Priority: high
Depends on: Catalog Browsing
- Given a catalog with products
- Search results appear within 2 seconds @performance

## Feature: Catalog Browsing
- Categories are listed
`

func TestParse_DocumentHeader(t *testing.T) {
	doc := Parse(shopDoc)

	assert.Equal(t, "Shop Requirements", doc.Title)
	assert.Equal(t, "Requirements for the online shop.", doc.Description)
	assert.Equal(t, "2.1.0", doc.Version)
	assert.Equal(t, "Jane Doe", doc.Metadata.Author)
}

func TestParse_FeatureBlocks(t *testing.T) {
	doc := Parse(shopDoc)
	require.Len(t, doc.Requirements, 2)

	search := doc.Requirements[0]
	assert.Equal(t, "REQ-001", search.ID)
	assert.Equal(t, models.KindFeature, search.Kind)
	assert.Equal(t, "Product Search", search.Title)
	assert.Equal(t, "Customers find products quickly.", search.Description)
	assert.Equal(t, models.PriorityHigh, search.Priority)
	assert.Equal(t, []string{"REQ-002"}, search.Dependencies)
	assert.Equal(t, []string{
		"Given a catalog with products",
		"Search results appear within 2 seconds",
	}, search.AcceptanceCriteria)
	assert.Equal(t, []string{"performance"}, search.Tags)

	browse := doc.Requirements[1]
	assert.Equal(t, "Catalog Browsing", browse.Title)
	assert.Equal(t, []string{"Categories are listed"}, browse.AcceptanceCriteria)
	assert.Empty(t, browse.Dependencies)
}

func TestParse_InlineFeatureAndUnresolvedDependency(t *testing.T) {
	text := "Feature: Checkout\nDepends on: Payments Gateway\n1. Cart total is shown\n2) Order is confirmed\n"

	doc := Parse(text)
	require.Len(t, doc.Requirements, 1)

	checkout := doc.Requirements[0]
	assert.Equal(t, "Checkout", checkout.Title)
	assert.Equal(t, []string{"Payments Gateway"}, checkout.Dependencies)
	assert.Equal(t, []string{"Cart total is shown", "Order is confirmed"}, checkout.AcceptanceCriteria)
}

func TestParse_AcceptanceCriteriaParent(t *testing.T) {
	text := `- Login: users sign in with email
Acceptance Criteria:
- Valid credentials grant access
- [ ] Invalid credentials show an error
`
	doc := Parse(text)
	require.Len(t, doc.Requirements, 3)

	assert.Equal(t, models.KindRequirement, doc.Requirements[0].Kind)
	for _, ac := range doc.Requirements[1:] {
		assert.Equal(t, models.KindAcceptanceCriterion, ac.Kind)
		assert.Equal(t, "REQ-001", ac.ParentID)
		assert.Len(t, ac.AcceptanceCriteria, 1)
	}
	assert.Equal(t, "Invalid credentials show an error", doc.Requirements[2].Title)
}

func TestParse_OrphanedAcceptanceCriterion(t *testing.T) {
	doc := Parse("Acceptance Criteria:\n- Page loads fast\n")
	require.Len(t, doc.Requirements, 1)
	assert.Equal(t, models.KindAcceptanceCriterion, doc.Requirements[0].Kind)
	assert.Empty(t, doc.Requirements[0].ParentID)
}

func TestParse_MetadataLinesAreNotRequirements(t *testing.T) {
	doc := Parse("- Version: 3.0\n- Author: Sam\n- Export: produce CSV files")
	require.Len(t, doc.Requirements, 1)
	assert.Equal(t, "Export", doc.Requirements[0].Title)
}

func TestParse_EmptyAndUnstructured(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\n\t"},
		{"prose", "This paragraph mentions nothing recognizable at all."},
		{"heading only", "# Lonely Heading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Parse(tt.text)
			require.NotNil(t, doc)
			assert.NotNil(t, doc.Requirements)
			assert.Empty(t, doc.Requirements)
			assert.Equal(t, "1.0.0", doc.Version)
		})
	}
}

func TestParse_UniqueSequentialIDs(t *testing.T) {
	text := `# Mixed
As a user, I want to upload files so that I can share them.
As a user, I want to upload files so that I can share them.
- Storage: files are stored for 30 days
- Storage: files are stored for 30 days
## Feature: Sharing
- Links expire after a week
`
	doc := Parse(text)
	require.Len(t, doc.Requirements, 5)

	seen := make(map[string]bool)
	for i, r := range doc.Requirements {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.Equal(t, i+1, mustSeq(t, r.ID))
	}
}

func TestParse_Deterministic(t *testing.T) {
	first := Parse(shopDoc)
	second := Parse(shopDoc)
	assert.Equal(t, first, second)
}

func TestParse_TruncatesLongCriterionTitles(t *testing.T) {
	long := "The system records every field change with the previous value, the new value, the editor and a timestamp"
	doc := Parse("Acceptance Criteria:\n- " + long)
	require.Len(t, doc.Requirements, 1)

	ac := doc.Requirements[0]
	assert.LessOrEqual(t, len([]rune(ac.Title)), 80)
	assert.Equal(t, long, ac.Description)
}

func TestParseFile_NotFound(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	_, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "missing.md")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.md")
	require.NoError(t, writeFile(path, shopDoc))

	p, err := New()
	require.NoError(t, err)

	doc, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Shop Requirements", doc.Title)
	assert.Len(t, doc.Requirements, 2)
}
