package risk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/metrics"
)

// ScoreFunc is the pluggable classifier contract: normalized features in,
// risk probability in [0,1] out. Implementations may block on I/O; the
// Scorer wraps every call with a timeout.
type ScoreFunc func(ctx context.Context, features Features) (float64, error)

// Fallback reasons, recorded per fallback for observability.
const (
	FallbackNotConfigured = "not_configured"
	FallbackError         = "error"
	FallbackTimeout       = "timeout"
	FallbackPanic         = "panic"
)

// ScoreResult carries the probability plus how it was obtained. When
// Fallback is true the probability is the configured fallback constant and
// Reason names why the primary path did not produce a score.
type ScoreResult struct {
	Probability float64
	Fallback    bool
	Reason      string
}

// Scorer wraps an optional scoring function with a mandatory fallback path.
// The fallback never raises; it is the guaranteed terminal branch.
type Scorer struct {
	fn            ScoreFunc
	fallbackScore float64
	timeout       time.Duration
	logger        *zap.Logger
}

// NewScorer builds a scorer. fn may be nil, in which case every call takes
// the fallback path. The constructor is the single place a scoring artifact
// is normalized into a callable; callers never branch on artifact shape.
func NewScorer(fn ScoreFunc, fallbackScore float64, timeout time.Duration, logger *zap.Logger) *Scorer {
	return &Scorer{
		fn:            fn,
		fallbackScore: fallbackScore,
		timeout:       timeout,
		logger:        logger.With(zap.String("component", "risk_scorer")),
	}
}

// Configured reports whether a primary scoring function is wired in.
func (s *Scorer) Configured() bool {
	return s.fn != nil
}

// Score produces a risk probability for the given features. Any failure of
// the primary path — error, timeout, panic, out-of-range output — falls
// through to the fallback probability instead of propagating.
func (s *Scorer) Score(ctx context.Context, features Features) ScoreResult {
	if s.fn == nil {
		metrics.ScorerFallbacksTotal.WithLabelValues(FallbackNotConfigured).Inc()
		return ScoreResult{Probability: s.fallbackScore, Fallback: true, Reason: FallbackNotConfigured}
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		probability float64
		err         error
		panicked    bool
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scorer panicked", zap.Any("panic", r))
				done <- outcome{panicked: true}
			}
		}()
		p, err := s.fn(scoreCtx, features)
		done <- outcome{probability: p, err: err}
	}()

	select {
	case <-scoreCtx.Done():
		metrics.ScorerFallbacksTotal.WithLabelValues(FallbackTimeout).Inc()
		s.logger.Warn("scorer timed out, using fallback",
			zap.Duration("timeout", s.timeout))
		return ScoreResult{Probability: s.fallbackScore, Fallback: true, Reason: FallbackTimeout}
	case out := <-done:
		metrics.ScoreDuration.Observe(time.Since(start).Seconds())
		if out.panicked {
			metrics.ScorerFallbacksTotal.WithLabelValues(FallbackPanic).Inc()
			return ScoreResult{Probability: s.fallbackScore, Fallback: true, Reason: FallbackPanic}
		}
		if out.err != nil || out.probability < 0 || out.probability > 1 {
			metrics.ScorerFallbacksTotal.WithLabelValues(FallbackError).Inc()
			s.logger.Warn("scorer failed, using fallback",
				zap.Error(out.err),
				zap.Float64("probability", out.probability))
			return ScoreResult{Probability: s.fallbackScore, Fallback: true, Reason: FallbackError}
		}
		return ScoreResult{Probability: out.probability}
	}
}
