// Package parser turns free-form requirement text into typed requirement records.
//
// Extraction is a set of independent passes over the same text (user stories,
// feature sections, acceptance-criteria lists, bare requirement bullets). Every
// pass records the byte offset where a record starts; IDs are assigned only
// after all passes have run, in offset order, so identical input always yields
// identical IDs.
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

const (
	defaultTitle   = "Untitled Requirements"
	defaultVersion = "1.0.0"
	maxTitleRunes  = 80
)

var (
	featurePrefix = regexp.MustCompile(`(?i)^\s*feature\s*[:\-–]\s*`)
	checkbox      = regexp.MustCompile(`^\[[ xX]\]\s*`)
	nameSplitter  = regexp.MustCompile(`\s*(?:,|;|\band\b)\s*`)

	// metaLabels are "- Label: value" lines that describe the document, not a requirement.
	metaLabels = map[string]bool{
		"version": true, "author": true, "priority": true, "status": true,
		"date": true, "owner": true, "depends on": true,
	}
)

// Parser extracts requirements from text using a compiled pattern table.
type Parser struct {
	patterns config.PatternConfig
	re       *compiled
}

// Option is a functional option for configuring Parser.
type Option func(*Parser)

// WithPatterns replaces the default sentence patterns. Empty entries keep the default.
func WithPatterns(pc config.PatternConfig) Option {
	return func(p *Parser) {
		p.patterns = pc
	}
}

// New creates a parser. It fails if a configured pattern does not compile.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{patterns: config.DefaultPatterns()}
	for _, opt := range opts {
		opt(p)
	}

	re, err := compile(p.patterns)
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

var defaultParser = sync.OnceValue(func() *Parser {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
})

// Parse parses text with the default pattern table.
func Parse(text string) *models.ParsedDocument {
	return defaultParser().Parse(text)
}

// ParseFile reads a requirements file and parses it. A missing file yields a
// *NotFoundError; the read is not retried.
func (p *Parser) ParseFile(path string) (*models.ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.Parse(string(data)), nil
}

// candidate is a requirement found by one extraction pass, before ID assignment.
type candidate struct {
	offset    int
	req       models.Requirement
	dependsOn []string
	// anchor is the offset of the acceptance-criteria label that opened the
	// list this criterion belongs to, or -1.
	anchor int
}

// Parse extracts a document from text. It never fails: text without any
// recognizable pattern yields a document with zero requirements.
func (p *Parser) Parse(text string) *models.ParsedDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	offsets := lineOffsets(lines)

	doc := &models.ParsedDocument{
		Title:   defaultTitle,
		Version: defaultVersion,
	}

	titleIdx := p.extractTitle(lines, doc)
	doc.Description = p.extractDescription(lines, titleIdx)
	if m := p.re.version.FindStringSubmatch(text); m != nil {
		doc.Version = strings.TrimSpace(m[1])
	}
	var author string
	if m := p.re.author.FindStringSubmatch(text); m != nil {
		author = clean(strings.Trim(m[1], "*_ "))
	}

	var cands []candidate
	cands = append(cands, p.extractUserStories(text)...)
	cands = append(cands, p.extractSections(lines, offsets)...)
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].offset < cands[j].offset
	})

	doc.Requirements = resolve(cands)
	doc.Metadata = models.BuildMetadata(author, doc.Requirements)
	return doc
}

func lineOffsets(lines []string) []int {
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + 1
	}
	return offsets
}

// extractTitle sets the document title from the first level-1 heading, falling
// back to the first non-feature heading. It returns the title's line index or -1.
func (p *Parser) extractTitle(lines []string, doc *models.ParsedDocument) int {
	for i, line := range lines {
		if m := p.re.title.FindStringSubmatch(line); m != nil {
			doc.Title = stripMarkup(m[1])
			return i
		}
	}
	for i, line := range lines {
		if _, ok := p.featureName(line); ok {
			continue
		}
		if m := p.re.heading.FindStringSubmatch(line); m != nil {
			doc.Title = stripMarkup(m[1])
			return i
		}
	}
	return -1
}

// extractDescription returns the first plain paragraph after the title.
func (p *Parser) extractDescription(lines []string, titleIdx int) string {
	var parts []string
	for _, line := range lines[titleIdx+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		if p.re.version.MatchString(line) || p.re.author.MatchString(line) {
			continue
		}
		if _, ok := p.featureName(line); ok ||
			p.re.heading.MatchString(line) ||
			p.re.bullet.MatchString(line) ||
			p.re.criteriaHeading.MatchString(line) ||
			p.re.userStory.MatchString(line) {
			break
		}
		parts = append(parts, trimmed)
	}
	return clean(strings.Join(parts, " "))
}

// extractUserStories matches the story sentence across the whole text so that
// stories wrapped over several lines are still recognized.
func (p *Parser) extractUserStories(text string) []candidate {
	var out []candidate
	for _, m := range p.re.userStory.FindAllStringSubmatchIndex(text, -1) {
		actor := trimPunct(clean(group(text, m, 1)))
		goal := trimPunct(clean(p.stripAnnotations(group(text, m, 2))))
		value := trimPunct(clean(p.stripAnnotations(group(text, m, 3))))
		if actor == "" || goal == "" {
			continue
		}

		end := m[5]
		if len(m) > 7 && m[7] > end {
			end = m[7]
		}
		raw := text[m[0]:end]

		req := newRequirement(models.KindUserStory)
		req.Title = truncateRunes(capitalize(goal), maxTitleRunes)
		req.Description = clean(p.stripAnnotations(raw))
		req.Priority = p.priorityOf(raw)
		req.Actor = actor
		req.Goal = goal
		req.Value = value
		req.Tags = p.tagsOf(raw)

		out = append(out, candidate{offset: m[0], req: req, anchor: -1})
	}
	return out
}

// extractSections walks the text line by line collecting feature blocks,
// acceptance-criteria lists and bare "- Title: description" requirements.
func (p *Parser) extractSections(lines []string, offsets []int) []candidate {
	var (
		out         []candidate
		feature     *candidate
		description []string
		inCriteria  bool
		anchor      int
	)

	closeFeature := func() {
		if feature == nil {
			return
		}
		feature.req.Description = clean(strings.Join(description, " "))
		if feature.req.Description == "" {
			feature.req.Description = strings.Join(feature.req.AcceptanceCriteria, "; ")
		}
		out = append(out, *feature)
		feature, description = nil, nil
	}

	for i, line := range lines {
		off := offsets[i]

		if name, ok := p.featureName(line); ok {
			closeFeature()
			inCriteria = false
			req := newRequirement(models.KindFeature)
			req.Title = truncateRunes(trimPunct(clean(p.stripAnnotations(name))), maxTitleRunes)
			req.Priority = p.priorityOf(name)
			req.Tags = p.tagsOf(name)
			feature = &candidate{offset: off, req: req, anchor: -1}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		// A feature block runs until the next feature heading or the end of text.
		if feature != nil {
			p.appendToFeature(feature, &description, line)
			continue
		}

		if p.re.criteriaHeading.MatchString(line) {
			inCriteria = true
			anchor = off
			continue
		}
		if p.re.heading.MatchString(line) {
			inCriteria = false
			continue
		}
		if inCriteria {
			if text, ok := p.criterionText(line); ok {
				out = append(out, p.criterionCandidate(line, text, off, anchor))
				continue
			}
			inCriteria = false
		}

		if c, ok := p.bareRequirement(line, off); ok {
			out = append(out, c)
		}
	}
	closeFeature()

	return out
}

func (p *Parser) appendToFeature(feature *candidate, description *[]string, line string) {
	if p.re.criteriaHeading.MatchString(line) {
		return
	}
	if m := p.re.dependsOn.FindStringSubmatch(line); m != nil {
		feature.dependsOn = append(feature.dependsOn, splitNames(m[1])...)
		return
	}
	if m := p.re.priorityLine.FindStringSubmatch(line); m != nil {
		if pr, ok := models.ParsePriority(m[1]); ok {
			feature.req.Priority = pr
		}
		return
	}
	if p.re.heading.MatchString(line) {
		return
	}
	if text, ok := p.criterionText(line); ok {
		feature.req.AcceptanceCriteria = append(feature.req.AcceptanceCriteria, text)
		feature.req.Tags = models.AppendUnique(feature.req.Tags, p.tagsOf(line)...)
		return
	}
	*description = append(*description, p.stripAnnotations(strings.TrimSpace(line)))
}

// criterionText returns the text of a bulleted, numbered or Given/When/Then line.
func (p *Parser) criterionText(line string) (string, bool) {
	var text string
	if m := p.re.bullet.FindStringSubmatch(line); m != nil {
		text = m[1]
	} else if p.re.gherkinStep.MatchString(line) {
		text = line
	} else {
		return "", false
	}
	text = checkbox.ReplaceAllString(strings.TrimSpace(text), "")
	text = clean(p.stripAnnotations(text))
	return text, text != ""
}

func (p *Parser) criterionCandidate(line, text string, off, anchor int) candidate {
	req := newRequirement(models.KindAcceptanceCriterion)
	req.Title = truncateRunes(trimPunct(text), maxTitleRunes)
	req.Description = text
	req.Priority = p.priorityOf(line)
	req.AcceptanceCriteria = []string{text}
	req.Tags = p.tagsOf(line)
	return candidate{offset: off, req: req, anchor: anchor}
}

func (p *Parser) bareRequirement(line string, off int) (candidate, bool) {
	m := p.re.bareRequirement.FindStringSubmatch(line)
	if m == nil {
		return candidate{}, false
	}
	if p.re.version.MatchString(line) || p.re.author.MatchString(line) ||
		p.re.priorityLine.MatchString(line) || p.re.dependsOn.MatchString(line) {
		return candidate{}, false
	}

	title := trimPunct(clean(p.stripAnnotations(stripMarkup(m[1]))))
	lower := strings.ToLower(title)
	if title == "" || metaLabels[lower] || strings.HasPrefix(lower, "as a") {
		return candidate{}, false
	}

	req := newRequirement(models.KindRequirement)
	req.Title = truncateRunes(title, maxTitleRunes)
	req.Description = clean(p.stripAnnotations(m[2]))
	req.Priority = p.priorityOf(line)
	req.Tags = p.tagsOf(line)
	return candidate{offset: off, req: req, anchor: -1}, true
}

// featureName reports whether the line opens a feature block and returns its name.
func (p *Parser) featureName(line string) (string, bool) {
	if m := p.re.featureInline.FindStringSubmatch(line); m != nil {
		return stripMarkup(m[1]), true
	}
	if m := p.re.featureHeading.FindStringSubmatch(line); m != nil {
		name := stripMarkup(featurePrefix.ReplaceAllString(stripMarkup(m[1]), ""))
		if name == "" {
			name = stripMarkup(m[1])
		}
		return name, true
	}
	return "", false
}

func (p *Parser) priorityOf(s string) models.Priority {
	if m := p.re.priorityToken.FindStringSubmatch(s); m != nil {
		if pr, ok := models.ParsePriority(m[1]); ok {
			return pr
		}
	}
	return models.PriorityMedium
}

func (p *Parser) tagsOf(s string) []string {
	tags := []string{}
	for _, m := range p.re.tag.FindAllStringSubmatch(s, -1) {
		tags = models.AppendUnique(tags, strings.ToLower(m[1]))
	}
	return tags
}

// stripAnnotations removes priority tokens and @tags from text.
func (p *Parser) stripAnnotations(s string) string {
	s = p.re.priorityToken.ReplaceAllString(s, " ")
	return p.re.tag.ReplaceAllString(s, " ")
}

// resolve assigns sequential IDs in offset order, then links acceptance
// criteria to their parents and dependency names to feature IDs.
func resolve(cands []candidate) []models.Requirement {
	width := 3
	if n := len(strconv.Itoa(len(cands))); n > width {
		width = n
	}
	for i := range cands {
		cands[i].req.ID = fmt.Sprintf("REQ-%0*d", width, i+1)
	}

	featureIDs := make(map[string]string)
	for _, c := range cands {
		if c.req.Kind != models.KindFeature {
			continue
		}
		key := strings.ToLower(c.req.Title)
		if _, ok := featureIDs[key]; !ok {
			featureIDs[key] = c.req.ID
		}
	}

	reqs := make([]models.Requirement, len(cands))
	for i, c := range cands {
		req := c.req
		for _, name := range c.dependsOn {
			dep := name
			if id, ok := featureIDs[strings.ToLower(name)]; ok {
				if id == req.ID {
					continue
				}
				dep = id
			}
			req.Dependencies = models.AppendUnique(req.Dependencies, dep)
		}
		if req.Kind == models.KindAcceptanceCriterion && c.anchor >= 0 {
			req.ParentID = parentBefore(cands, c.anchor)
		}
		reqs[i] = req
	}
	return reqs
}

// parentBefore returns the nearest user story or requirement that starts before offset.
func parentBefore(cands []candidate, offset int) string {
	id := ""
	for _, c := range cands {
		if c.offset >= offset {
			break
		}
		if c.req.Kind == models.KindUserStory || c.req.Kind == models.KindRequirement {
			id = c.req.ID
		}
	}
	return id
}

func newRequirement(kind models.RequirementKind) models.Requirement {
	return models.Requirement{
		Kind:               kind,
		Priority:           models.PriorityMedium,
		AcceptanceCriteria: []string{},
		Dependencies:       []string{},
		Tags:               []string{},
	}
}

func group(text string, m []int, g int) string {
	if 2*g+1 >= len(m) || m[2*g] < 0 {
		return ""
	}
	return text[m[2*g]:m[2*g+1]]
}

func splitNames(s string) []string {
	var names []string
	for _, part := range nameSplitter.Split(s, -1) {
		if name := trimPunct(stripMarkup(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// clean collapses runs of whitespace into single spaces.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimPunct(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;:!")
}

func stripMarkup(s string) string {
	return strings.Trim(strings.TrimSpace(s), "*_`# ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-3])) + "..."
}
