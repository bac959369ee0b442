package features

import (
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/reqbdd/pkg/models"
)

// Keywords is an insertion-ordered keyword set without duplicates.
type Keywords []string

// Contains reports whether the set holds the keyword.
func (k Keywords) Contains(word string) bool {
	for _, w := range k {
		if w == word {
			return true
		}
	}
	return false
}

// Similarity returns the Jaccard similarity of two keyword sets.
// Two empty sets have similarity 0.
func Similarity(a, b Keywords) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// Keywords extracts the keyword set of a requirement from its title,
// description, goal and value.
func (e *Extractor) Keywords(r models.Requirement) Keywords {
	return e.keywords(strings.Join([]string{r.Title, r.Description, r.Goal, r.Value}, " "))
}

func (e *Extractor) keywords(text string) Keywords {
	out := Keywords{}
	for _, tok := range strings.Fields(normalize(text)) {
		if len([]rune(tok)) <= e.rules.MinKeywordLength || e.stop[tok] || out.Contains(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// normalize lowercases text and drops everything but letters, digits and
// whitespace. Stop words go through it too so "can't" matches "cant".
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keywordIndex maps each keyword to the requirements that contain it.
// Requirements sharing no keyword have similarity 0, which never passes a
// grouping threshold, so the index prunes comparisons without changing results.
type keywordIndex map[string]*roaring.Bitmap

func newKeywordIndex(sets []Keywords) keywordIndex {
	idx := make(keywordIndex)
	for i, set := range sets {
		for _, w := range set {
			bm, ok := idx[w]
			if !ok {
				bm = roaring.New()
				idx[w] = bm
			}
			bm.Add(uint32(i))
		}
	}
	return idx
}

// related returns the requirements sharing at least one keyword with set.
func (idx keywordIndex) related(set Keywords) *roaring.Bitmap {
	out := roaring.New()
	for _, w := range set {
		if bm, ok := idx[w]; ok {
			out.Or(bm)
		}
	}
	return out
}
