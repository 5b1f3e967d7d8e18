package risk

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/config"
)

// RiskVerdict is the immutable decision bundle produced for one login
// attempt. Classification and action are a deterministic function of the
// risk probability alone; everything else is derived context.
type RiskVerdict struct {
	RiskScore           float64        `json:"risk_score"`
	RiskPercentage      float64        `json:"risk_percentage"`
	Classification      Classification `json:"classification"`
	Action              Action         `json:"action"`
	Recommendation      string         `json:"recommendation"`
	AnalysisFactors     []string       `json:"analysis_factors"`
	Warnings            []string       `json:"warnings"`
	BehaviorConsistency int            `json:"behavior_consistency"`
	LocationContext     string         `json:"location_context"`
}

// Engine runs the full triage pipeline: normalize, score, classify,
// annotate, explain. It is stateless and safe for concurrent use.
type Engine struct {
	scorer    *Scorer
	policy    *Policy
	annotator *Annotator
	logger    *zap.Logger
}

// NewEngine wires the pipeline from configuration. scoreFn may be nil; the
// engine then always takes the scorer's fallback path.
func NewEngine(cfg config.EngineConfig, scoreFn ScoreFunc, logger *zap.Logger) (*Engine, error) {
	tables, err := LoadGeoTables(cfg.GeoTablesPath)
	if err != nil {
		return nil, err
	}
	return &Engine{
		scorer:    NewScorer(scoreFn, cfg.FallbackScore, time.Duration(cfg.ScorerTimeout)*time.Millisecond, logger),
		policy:    NewPolicy(cfg.MediumThreshold, cfg.HighThreshold),
		annotator: NewAnnotator(tables, cfg.HomeCountry),
		logger:    logger.With(zap.String("component", "risk_engine")),
	}, nil
}

// Policy exposes the engine's classification policy for store-side
// aggregates that must stay consistent with it.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Evaluate runs the pipeline for one attempt. Validation failures return an
// error; scorer failures do not — they degrade to the fallback probability
// and surface as a warning on the verdict.
func (e *Engine) Evaluate(ctx context.Context, attempt LoginAttempt) (*RiskVerdict, error) {
	features, err := Normalize(attempt)
	if err != nil {
		return nil, err
	}

	score := e.scorer.Score(ctx, features)
	classification, action := e.policy.Classify(score.Probability)
	if score.Fallback {
		// Without a real score the attempt lands in the cautious middle
		// tier: never waved through, never hard-blocked.
		classification, action = ClassificationMedium, ActionAllowWithOTP
	}

	locationContext := e.annotator.LocationContext(attempt.Country, attempt.City)
	behaviorConsistency := e.annotator.BehaviorConsistency(features.DeviceCode, attempt.DistanceKm)

	warnings := Warnings(attempt, score.Probability)
	if score.Fallback {
		warnings = append([]string{fallbackWarning(score.Reason)}, warnings...)
	}

	verdict := &RiskVerdict{
		RiskScore:           score.Probability,
		RiskPercentage:      math.Round(score.Probability*1000) / 10,
		Classification:      classification,
		Action:              action,
		Recommendation:      Recommendation(action),
		AnalysisFactors:     AnalysisFactors(attempt, features.DeviceCode, locationContext, behaviorConsistency),
		Warnings:            warnings,
		BehaviorConsistency: behaviorConsistency,
		LocationContext:     locationContext,
	}

	e.logger.Debug("evaluated login attempt",
		zap.String("user_id", attempt.UserID),
		zap.Float64("risk_score", verdict.RiskScore),
		zap.String("classification", string(classification)),
		zap.String("action", string(action)),
		zap.Bool("fallback", score.Fallback))

	return verdict, nil
}

func fallbackWarning(reason string) string {
	if reason == FallbackNotConfigured {
		return WarningScorerMissing
	}
	return WarningScorerFailed
}
