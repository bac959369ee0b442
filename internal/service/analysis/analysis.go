// Package analysis runs the requirements pipeline: parse, extract features,
// generate scenarios, validate, and order features for implementation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/panbanda/reqbdd/internal/cache"
	"github.com/panbanda/reqbdd/internal/fileproc"
	"github.com/panbanda/reqbdd/pkg/analyzer/features"
	"github.com/panbanda/reqbdd/pkg/analyzer/graph"
	"github.com/panbanda/reqbdd/pkg/analyzer/scenarios"
	"github.com/panbanda/reqbdd/pkg/analyzer/score"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
	"github.com/panbanda/reqbdd/pkg/parser"
)

// Service orchestrates requirement analysis.
type Service struct {
	config    *config.Config
	logger    *slog.Logger
	cache     *cache.Cache
	parser    *parser.Parser
	extractor *features.Extractor
	validator *score.Validator
	onStage   func(name string)
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache stores and reuses reports keyed by input and options.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithStageHook is called as each pipeline stage starts.
func WithStageHook(fn func(name string)) Option {
	return func(s *Service) {
		s.onStage = fn
	}
}

// New creates a new analysis service. It fails when a configured
// parser pattern does not compile.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := parser.New(parser.WithPatterns(s.config.Patterns))
	if err != nil {
		return nil, err
	}
	s.parser = p
	s.extractor = features.New(features.WithRules(s.config.Rules))
	s.validator = score.New(
		score.WithPenalties(s.config.Penalties),
		score.WithMaxFeatureRequirements(s.config.Rules.MaxFeatureRequirements),
	)
	return s, nil
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config {
	return s.config
}

// Parse extracts requirement records from text.
func (s *Service) Parse(text string) *models.ParsedDocument {
	return s.parser.Parse(text)
}

// Extract groups a parsed document's requirements into features.
func (s *Service) Extract(doc *models.ParsedDocument) []models.Feature {
	return s.extractor.Extract(doc)
}

// Generate produces scenarios for one feature. Options are checked first.
func (s *Service) Generate(f models.Feature, opts models.GenerateOptions) ([]models.Scenario, error) {
	return s.generator(nil).Generate(f, opts)
}

func (s *Service) generator(all []models.Feature) *scenarios.Generator {
	names := make(map[string]string, len(all))
	for _, f := range all {
		names[f.ID] = f.Name
	}
	return scenarios.New(scenarios.WithRules(s.config.Rules), scenarios.WithFeatureNames(names))
}

// Analyze runs the full pipeline over text. Invalid options fail before
// any stage runs; defects in the text are reported in the validation result.
func (s *Service) Analyze(text string, opts models.GenerateOptions) (*models.AnalysisReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil && s.cache.Enabled() {
		key = cache.Key(text, opts, s.config)
		if rep, ok := s.cache.Get(key); ok {
			s.logger.Debug("analysis cache hit", "key", key[:12])
			return rep, nil
		}
	}

	s.stage("parsing")
	doc := s.parser.Parse(text)
	s.logger.Debug("parsed requirements", "title", doc.Title, "requirements", len(doc.Requirements))

	s.stage("extracting features")
	feats := s.extractor.Extract(doc)
	s.logger.Debug("extracted features", "features", len(feats))

	s.stage("generating scenarios")
	gen := s.generator(feats)
	byFeature := make(map[string][]models.Scenario, len(feats))
	for _, f := range feats {
		generated, err := gen.Generate(f, opts)
		if err != nil {
			return nil, fmt.Errorf("generate scenarios for %s: %w", f.ID, err)
		}
		byFeature[f.ID] = generated
	}

	s.stage("validating")
	validation := s.validator.Validate(doc, feats)

	order, err := graph.ImplementationOrder(graph.FromFeatures(feats))
	if err != nil && !errors.Is(err, graph.ErrCyclic) {
		return nil, err
	}

	summary := Summarize(doc, feats, byFeature)
	rep := &models.AnalysisReport{
		Document:            *doc,
		Features:            feats,
		Scenarios:           byFeature,
		Summary:             summary,
		Recommendations:     Recommend(summary, feats, byFeature),
		Validation:          validation,
		ImplementationOrder: order,
		Options:             opts,
	}
	s.logger.Debug("analysis complete",
		"scenarios", summary.TotalScenarios,
		"score", validation.Score,
		"valid", validation.IsValid,
	)

	if key != "" {
		if err := s.cache.Set(key, rep); err != nil {
			s.logger.Warn("failed to cache analysis", "error", err)
		}
	}
	return rep, nil
}

func (s *Service) stage(name string) {
	if s.onStage != nil {
		s.onStage(name)
	}
}

// AnalyzeFiles reads documents concurrently, joins them in the given order,
// and analyzes the result as one text. A missing file is a *parser.NotFoundError.
func (s *Service) AnalyzeFiles(ctx context.Context, files []string, opts models.GenerateOptions, onProgress fileproc.ProgressFunc) (*models.AnalysisReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	text, err := s.ReadDocuments(ctx, files, onProgress)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded documents", "files", len(files), "bytes", len(text))
	return s.Analyze(text, opts)
}

// ReadDocuments loads files and joins their contents with blank lines.
// The first failure in input order is returned.
func (s *Service) ReadDocuments(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (string, error) {
	docs, errs := fileproc.ReadFiles(ctx, files, onProgress)
	if errs != nil {
		return "", firstFailure(files, errs)
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = strings.TrimRight(d.Content, "\n")
	}
	return strings.Join(parts, "\n\n"), nil
}

func firstFailure(files []string, errs *fileproc.ProcessingErrors) error {
	byPath := make(map[string]error, len(errs.Errors))
	for _, pe := range errs.Errors {
		byPath[pe.Path] = pe.Err
	}
	for _, path := range files {
		err, ok := byPath[path]
		if !ok {
			continue
		}
		if errors.Is(err, fs.ErrNotExist) {
			return &parser.NotFoundError{Path: path, Err: err}
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return errs
}
