package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/reqbdd/pkg/models"
	gotoml "github.com/pelletier/go-toml"
)

// Config holds all configuration options for reqbdd.
type Config struct {
	// Heuristic thresholds and word lists
	Rules RulesConfig `koanf:"rules" toml:"rules" validate:"required"`

	// Sentence patterns used by the parser
	Patterns PatternConfig `koanf:"patterns" toml:"patterns"`

	// Validation penalties
	Penalties PenaltyConfig `koanf:"penalties" toml:"penalties"`

	// Scenario generation defaults
	Generation GenerationConfig `koanf:"generation" toml:"generation"`

	// Document discovery
	Scan ScanConfig `koanf:"scan" toml:"scan"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// RulesConfig defines the keyword and clustering heuristics.
type RulesConfig struct {
	StopWords                   []string `koanf:"stop_words" toml:"stop_words"`
	MinKeywordLength            int      `koanf:"min_keyword_length" toml:"min_keyword_length" validate:"gte=0"`
	ExplicitSimilarity          float64  `koanf:"explicit_similarity" toml:"explicit_similarity" validate:"gte=0,lte=1"`
	ThematicSimilarity          float64  `koanf:"thematic_similarity" toml:"thematic_similarity" validate:"gte=0,lte=1"`
	CriteriaChunkSize           int      `koanf:"criteria_chunk_size" toml:"criteria_chunk_size" validate:"gte=1"`
	MaxFeatureRequirements      int      `koanf:"max_feature_requirements" toml:"max_feature_requirements" validate:"gte=1"`
	ComplexMemberCount          int      `koanf:"complex_member_count" toml:"complex_member_count" validate:"gte=1"`
	MediumMemberCount           int      `koanf:"medium_member_count" toml:"medium_member_count" validate:"gte=0"`
	FlowStepBonus               int      `koanf:"flow_step_bonus" toml:"flow_step_bonus" validate:"gte=0"`
	CriteriaPerScenarioEstimate int      `koanf:"criteria_per_scenario_estimate" toml:"criteria_per_scenario_estimate" validate:"gte=1"`
	AuthKeywords                []string `koanf:"auth_keywords" toml:"auth_keywords"`
	SearchKeywords              []string `koanf:"search_keywords" toml:"search_keywords"`
}

// PatternConfig holds the regular expressions the parser compiles.
type PatternConfig struct {
	Title           string `koanf:"title" toml:"title"`
	Version         string `koanf:"version" toml:"version"`
	Author          string `koanf:"author" toml:"author"`
	UserStory       string `koanf:"user_story" toml:"user_story"`
	FeatureInline   string `koanf:"feature_inline" toml:"feature_inline"`
	FeatureHeading  string `koanf:"feature_heading" toml:"feature_heading"`
	Heading         string `koanf:"heading" toml:"heading"`
	Bullet          string `koanf:"bullet" toml:"bullet"`
	BareRequirement string `koanf:"bare_requirement" toml:"bare_requirement"`
	PriorityToken   string `koanf:"priority_token" toml:"priority_token"`
	PriorityLine    string `koanf:"priority_line" toml:"priority_line"`
	DependsOn       string `koanf:"depends_on" toml:"depends_on"`
	CriteriaHeading string `koanf:"criteria_heading" toml:"criteria_heading"`
	GherkinStep     string `koanf:"gherkin_step" toml:"gherkin_step"`
	Tag             string `koanf:"tag" toml:"tag"`
}

// PenaltyConfig defines the score deduction per defect.
type PenaltyConfig struct {
	DuplicateID        int `koanf:"duplicate_id" toml:"duplicate_id" validate:"gte=0"`
	EmptyField         int `koanf:"empty_field" toml:"empty_field" validate:"gte=0"`
	OrphanedCriterion  int `koanf:"orphaned_criterion" toml:"orphaned_criterion" validate:"gte=0"`
	OversizedFeature   int `koanf:"oversized_feature" toml:"oversized_feature" validate:"gte=0"`
	UndefinedActor     int `koanf:"undefined_actor" toml:"undefined_actor" validate:"gte=0"`
	CircularDependency int `koanf:"circular_dependency" toml:"circular_dependency" validate:"gte=0"`
}

// GenerationConfig holds default scenario generation options.
type GenerationConfig struct {
	IncludeEdgeCases    bool   `koanf:"include_edge_cases" toml:"include_edge_cases"`
	IncludeErrorCases   bool   `koanf:"include_error_cases" toml:"include_error_cases"`
	IncludeIntegration  bool   `koanf:"include_integration" toml:"include_integration"`
	MaxScenariosPerFlow int    `koanf:"max_scenarios_per_flow" toml:"max_scenarios_per_flow" validate:"gte=1"`
	DetailLevel         string `koanf:"detail_level" toml:"detail_level" validate:"oneof=basic standard detailed"`
}

// ScanConfig controls which files are treated as requirement documents.
type ScanConfig struct {
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Include    []string `koanf:"include" toml:"include"`
	Exclude    []string `koanf:"exclude" toml:"exclude"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" validate:"gte=0"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" validate:"oneof=text json markdown md toon yaml"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultStopWords are dropped during keyword extraction in addition to short tokens.
var DefaultStopWords = []string{
	"about", "after", "also", "been", "before", "being", "both", "can't", "cannot",
	"could", "does", "each", "every", "from", "given", "have", "into", "just",
	"like", "make", "more", "most", "must", "need", "needs", "only", "other",
	"should", "some", "such", "than", "that", "their", "them", "then", "there",
	"these", "they", "this", "those", "through", "under", "until", "upon", "very",
	"want", "wants", "what", "when", "where", "which", "while", "will", "with",
	"within", "without", "would", "your", "able", "allow", "allows", "ensure",
	"system", "user", "users",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			StopWords:                   append([]string(nil), DefaultStopWords...),
			MinKeywordLength:            3,
			ExplicitSimilarity:          0.30,
			ThematicSimilarity:          0.40,
			CriteriaChunkSize:           5,
			MaxFeatureRequirements:      10,
			ComplexMemberCount:          5,
			MediumMemberCount:           2,
			FlowStepBonus:               3,
			CriteriaPerScenarioEstimate: 3,
			AuthKeywords: []string{
				"auth", "login", "log in", "logout", "sign in", "signin", "sign up",
				"signup", "register", "password", "credential", "session", "account access",
			},
			SearchKeywords: []string{"search", "filter"},
		},
		Patterns:  DefaultPatterns(),
		Penalties: DefaultPenalties(),
		Generation: GenerationConfig{
			IncludeEdgeCases:    true,
			IncludeErrorCases:   true,
			IncludeIntegration:  true,
			MaxScenariosPerFlow: 3,
			DetailLevel:         string(models.DetailStandard),
		},
		Scan: ScanConfig{
			Extensions: []string{".md", ".markdown", ".txt", ".story"},
			Exclude: []string{
				"node_modules/",
				"vendor/",
				".git/",
				".reqbdd/",
				"CHANGELOG.md",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".reqbdd/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// DefaultPatterns returns the built-in sentence patterns.
func DefaultPatterns() PatternConfig {
	return PatternConfig{
		Title:           `^\s*#\s+(.+?)\s*#*\s*$`,
		Version:         `(?im)^\s*[*_]*version[*_]*\s*[:=]\s*[*_]*\s*v?([0-9A-Za-z][\w.\-+]*)`,
		Author:          `(?im)^\s*[*_]*author[*_]*\s*[:=]\s*[*_]*\s*(.+?)\s*$`,
		UserStory:       `(?is)\bas\s+an?\s+([^,\n]+?)\s*,?\s+i\s+want\s+(?:to\s+)?(.+?)(?:\s*,?\s+so\s+that\s+(.+?))?\s*(?:[.!](?:\s|$)|\n\s*\n|\n\s*(?:[-*+#]|\d+[.)])|$)`,
		FeatureInline:   `^\s*(?:[*_]{2})?Feature(?:[*_]{2})?\s*:\s*(.+?)\s*$`,
		FeatureHeading:  `^\s*#{2,3}\s+((?:.*[\s*_])?[Ff]eature\b.*?)\s*#*\s*$`,
		Heading:         `^\s*#{1,6}\s+(.+?)\s*#*\s*$`,
		Bullet:          `^\s*(?:[-*+]|\d+[.)])\s+(.+?)\s*$`,
		BareRequirement: `^\s*[-*+]\s+([^:\[\]]+?)\s*:\s*(.+?)\s*$`,
		PriorityToken:   `(?i)\[\s*(high|medium|low)\s*\]`,
		PriorityLine:    `(?i)^\s*[-*+]?\s*[*_]*priority[*_]*\s*:\s*[*_]*\s*(high|medium|low)\b`,
		DependsOn:       `(?i)^\s*[-*+]?\s*depends\s+on\s*:\s*(.+?)\s*$`,
		CriteriaHeading: `(?i)^\s*(?:#{1,6}\s+)?(?:[*_]{2})?acceptance\s+criteria(?:[*_]{2})?\s*:?\s*$`,
		GherkinStep:     `(?i)^\s*(?:[-*+]\s+)?(given|when|then|and)\b\s*(.+?)\s*$`,
		Tag:             `(?:^|\s)@([A-Za-z][\w-]*)`,
	}
}

// DefaultPenalties returns the default score deductions.
func DefaultPenalties() PenaltyConfig {
	return PenaltyConfig{
		DuplicateID:        20,
		EmptyField:         15,
		OrphanedCriterion:  5,
		OversizedFeature:   10,
		UndefinedActor:     5,
		CircularDependency: 10,
	}
}

// GenerateOptions converts the generation defaults into pipeline options.
func (c *Config) GenerateOptions() models.GenerateOptions {
	return models.GenerateOptions{
		IncludeEdgeCases:            c.Generation.IncludeEdgeCases,
		IncludeErrorCases:           c.Generation.IncludeErrorCases,
		IncludeIntegrationScenarios: c.Generation.IncludeIntegration,
		MaxScenariosPerFlow:         c.Generation.MaxScenariosPerFlow,
		DetailLevel:                 models.DetailLevel(c.Generation.DetailLevel),
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched in order by LoadOrDefault.
var configNames = []string{
	"reqbdd.toml",
	"reqbdd.yaml",
	"reqbdd.yml",
	"reqbdd.json",
	".reqbdd.toml",
	".reqbdd.yaml",
	".reqbdd.yml",
	".reqbdd.json",
}

// LoadOrDefault loads the first config found in the current or .reqbdd directory,
// falling back to defaults when none exists. A config that exists but fails to
// load is an error.
func LoadOrDefault() (*Config, error) {
	searchDirs := []string{".", ".reqbdd"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}
	}

	return DefaultConfig(), nil
}

var configValidator = validator.New()

// Validate checks numeric ranges and enumerations.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// MarshalTOML renders the config as a commented TOML document.
func (c *Config) MarshalTOML() ([]byte, error) {
	content, err := gotoml.Marshal(*c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# reqbdd configuration\n")
	buf.WriteString("# Thresholds, penalties and sentence patterns used by the analysis pipeline.\n\n")
	buf.Write(content)
	return []byte(buf.String()), nil
}
