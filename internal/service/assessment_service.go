package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/cache"
	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/metrics"
)

// HistoryRecorder persists assessment records. Implemented by
// repository.AssessmentRepository.
type HistoryRecorder interface {
	Record(ctx context.Context, record *domain.AssessmentRecord) error
}

// AssessmentService runs the four analyzers behind a result cache and records
// every call in metrics, logs and optional history. Infrastructure failures
// are logged and never change the result returned to the caller.
type AssessmentService struct {
	logger  *logrus.Logger
	cache   cache.Cache
	history HistoryRecorder
	metrics *metrics.Collector
	ttl     time.Duration

	// models holds a fingerprint per analyzer running a non-default table.
	models map[domain.AnalyzerKind]string

	adherence    *AdherencePredictor
	risk         *HealthRiskAssessment
	interactions *DrugInteractionChecker
	symptoms     *SymptomAnalyzer
}

// Option configures an AssessmentService.
type Option func(*AssessmentService)

// WithCache enables result caching. Entries use ttl, or the tier default when
// ttl is zero.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *AssessmentService) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithHistory records every assessment.
func WithHistory(h HistoryRecorder) Option {
	return func(s *AssessmentService) {
		s.history = h
	}
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *AssessmentService) {
		s.metrics = m
	}
}

// WithAdherenceModel replaces the default adherence coefficients.
func WithAdherenceModel(model AdherenceModel) Option {
	return func(s *AssessmentService) {
		s.adherence = NewAdherencePredictor(model)
		s.setModel(domain.AnalyzerAdherence, model)
	}
}

// WithInteractionKnowledgeBase replaces the default interaction table.
func WithInteractionKnowledgeBase(kb *InteractionKnowledgeBase) Option {
	return func(s *AssessmentService) {
		s.interactions = NewDrugInteractionChecker(kb)
		if kb != nil {
			s.setModel(domain.AnalyzerDrugInteraction, kb.Pairs())
		}
	}
}

// WithSymptomTable replaces the default symptom table.
func WithSymptomTable(table SymptomTable) Option {
	return func(s *AssessmentService) {
		s.symptoms = NewSymptomAnalyzer(table)
		if table != nil {
			s.setModel(domain.AnalyzerSymptom, table)
		}
	}
}

// NewAssessmentService creates the facade with the default model tables.
func NewAssessmentService(logger *logrus.Logger, opts ...Option) *AssessmentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &AssessmentService{
		logger:       logger,
		cache:        cache.Noop{},
		adherence:    NewAdherencePredictor(DefaultAdherenceModel()),
		risk:         NewHealthRiskAssessment(),
		interactions: NewDrugInteractionChecker(DefaultInteractionKnowledgeBase()),
		symptoms:     NewSymptomAnalyzer(DefaultSymptomTable()),
		models:       make(map[domain.AnalyzerKind]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictAdherence estimates medication adherence.
func (s *AssessmentService) PredictAdherence(ctx context.Context, in domain.AdherenceInput) (*domain.AdherenceResult, error) {
	return assess(ctx, s, domain.AnalyzerAdherence, in, func() domain.AdherenceResult {
		return s.adherence.Predict(in)
	})
}

// AssessHealthRisk classifies overall health risk.
func (s *AssessmentService) AssessHealthRisk(ctx context.Context, in domain.RiskInput) (*domain.RiskResult, error) {
	return assess(ctx, s, domain.AnalyzerHealthRisk, in, func() domain.RiskResult {
		return s.risk.Assess(in)
	})
}

// CheckDrugInteractions screens a medication list.
func (s *AssessmentService) CheckDrugInteractions(ctx context.Context, in domain.InteractionInput) (*domain.InteractionResult, error) {
	result, err := assess(ctx, s, domain.AnalyzerDrugInteraction, in, func() domain.InteractionResult {
		return s.interactions.Check(in)
	})
	if err != nil {
		return nil, err
	}
	for _, pair := range result.Interactions {
		s.metrics.ObserveInteraction(pair.Severity.String())
	}
	return result, nil
}

// AnalyzeSymptoms ranks possible conditions.
func (s *AssessmentService) AnalyzeSymptoms(ctx context.Context, in domain.SymptomInput) (*domain.SymptomResult, error) {
	return assess(ctx, s, domain.AnalyzerSymptom, in, func() domain.SymptomResult {
		return s.symptoms.Analyze(in)
	})
}

// Digest identifies an input for caching, history and clinician feedback.
// Analyzers configured with a custom table digest under that table's
// fingerprint, so services with different tables never share cache entries.
// It returns "" if the input cannot be encoded.
func (s *AssessmentService) Digest(kind domain.AnalyzerKind, input any) string {
	namespace := kind.String()
	if fingerprint := s.models[kind]; fingerprint != "" {
		namespace += "@" + fingerprint
	}
	key, err := cache.Key(namespace, input)
	if err != nil {
		return ""
	}
	return key
}

// RiskScore exposes the integer score behind AssessHealthRisk.
func (s *AssessmentService) RiskScore(in domain.RiskInput) int {
	return s.risk.Score(in)
}

func assess[Out domain.Outcome](ctx context.Context, s *AssessmentService, kind domain.AnalyzerKind, input any, run func() Out) (*Out, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	correlationID := domain.CorrelationIDFromContext(ctx)
	digest := s.Digest(kind, input)

	logger := s.logger.WithFields(logrus.Fields{
		"analyzer":       kind,
		"input_digest":   digest,
		"correlation_id": correlationID,
	})
	logger.Debug("Starting assessment")

	var result Out
	cached := false
	if digest != "" {
		cached = s.lookup(ctx, logger, digest, &result)
	}

	if !cached {
		result = run()
		if digest != "" {
			if err := s.cache.Set(ctx, digest, result, s.ttl); err != nil {
				logger.WithError(err).Warn("Failed to cache assessment result")
			}
		}
	}
	s.record(ctx, logger, kind, digest, correlationID, result)

	duration := time.Since(start)
	s.metrics.ObserveAssessment(kind.String(), result.OutcomeLevel(), duration)

	logger.WithFields(logrus.Fields{
		"outcome_level": result.OutcomeLevel(),
		"cache_hit":     cached,
		"duration_ms":   float64(duration.Microseconds()) / 1000,
	}).Info("Completed assessment")

	return &result, nil
}

func (s *AssessmentService) lookup(ctx context.Context, logger *logrus.Entry, digest string, dest any) bool {
	err := s.cache.Get(ctx, digest, dest)
	switch {
	case err == nil:
		s.metrics.ObserveCache(metrics.CacheHit)
		return true
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.ObserveCache(metrics.CacheMiss)
	default:
		s.metrics.ObserveCache(metrics.CacheError)
		logger.WithError(err).Warn("Result cache lookup failed")
	}
	return false
}

func (s *AssessmentService) record(ctx context.Context, logger *logrus.Entry, kind domain.AnalyzerKind, digest, correlationID string, result domain.Outcome) {
	if s.history == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		logger.WithError(err).Warn("Failed to encode assessment for history")
		return
	}

	record := &domain.AssessmentRecord{
		ID:            uuid.New(),
		Analyzer:      kind,
		InputDigest:   digest,
		OutcomeLevel:  result.OutcomeLevel(),
		Result:        payload,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.history.Record(ctx, record); err != nil {
		logger.WithError(err).Warn("Failed to record assessment history")
	}
}

func (s *AssessmentService) setModel(kind domain.AnalyzerKind, table any) {
	fingerprint, err := cache.Key("model", table)
	if err != nil {
		fingerprint = "custom"
	}
	s.models[kind] = fingerprint
}
