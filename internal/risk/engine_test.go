package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/config"
	apperrors "github.com/bantai/bantai/internal/common/errors"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		FallbackScore:   0.25,
		DefaultAccuracy: 94,
		MediumThreshold: 0.30,
		HighThreshold:   0.70,
		ScorerTimeout:   200,
		HomeCountry:     "Philippines",
	}
}

func newTestEngine(t *testing.T, fn ScoreFunc) *Engine {
	t.Helper()
	engine, err := NewEngine(testEngineConfig(), fn, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func fixedScorer(probability float64) ScoreFunc {
	return func(ctx context.Context, features Features) (float64, error) {
		return probability, nil
	}
}

func TestEvaluateFallbackManilaLogin(t *testing.T) {
	engine := newTestEngine(t, nil)

	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "U_1023",
		Country:         "Philippines",
		City:            "Manila",
		HoursSinceLast:  2.0,
		DistanceKm:      15,
		DeviceType:      "mobile",
		LatencyMs:       45,
		IsAttackIP:      false,
		LoginSuccessful: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.25, verdict.RiskScore)
	assert.Equal(t, 25.0, verdict.RiskPercentage)
	assert.Equal(t, ClassificationMedium, verdict.Classification)
	assert.Equal(t, ActionAllowWithOTP, verdict.Action)
	assert.Equal(t, "Domestic location", verdict.LocationContext)
	assert.Equal(t, 85, verdict.BehaviorConsistency)
	assert.Equal(t, []string{WarningScorerMissing}, verdict.Warnings)
	assert.Equal(t, Recommendation(ActionAllowWithOTP), verdict.Recommendation)
	assert.Equal(t, []string{
		"Travel is plausible (Same location or local area)",
		"Behavior consistency: 85%",
		"Location: Domestic location",
		"Device type: mobile",
	}, verdict.AnalysisFactors)
}

func TestEvaluateHighRiskScenario(t *testing.T) {
	engine := newTestEngine(t, fixedScorer(0.85))

	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "U_5550",
		Country:         "Nigeria",
		City:            "Lagos",
		HoursSinceLast:  1.0,
		DistanceKm:      12000,
		DeviceType:      "desktop",
		LatencyMs:       2200,
		IsAttackIP:      true,
		LoginSuccessful: false,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.85, verdict.RiskScore)
	assert.Equal(t, 85.0, verdict.RiskPercentage)
	assert.Equal(t, ClassificationHigh, verdict.Classification)
	assert.Equal(t, ActionBlock, verdict.Action)
	assert.Equal(t, ContextThreat, verdict.LocationContext)
	assert.Equal(t, []string{
		WarningAttackIP,
		WarningFailedLogin,
		WarningAbnormalLatency,
		WarningImpossibleTravel,
		WarningHighRiskScore,
	}, verdict.Warnings)
}

func TestEvaluateClassificationFollowsScore(t *testing.T) {
	tests := []struct {
		name           string
		probability    float64
		classification Classification
		action         Action
	}{
		{"low", 0.10, ClassificationLow, ActionAllow},
		{"medium", 0.45, ClassificationMedium, ActionAllowWithOTP},
		{"high boundary", 0.70, ClassificationHigh, ActionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, fixedScorer(tt.probability))
			verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
				UserID:          "u1",
				Country:         "Philippines",
				City:            "Cebu",
				DeviceType:      "desktop",
				LoginSuccessful: true,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.classification, verdict.Classification)
			assert.Equal(t, tt.action, verdict.Action)
			assert.Equal(t, Recommendation(tt.action), verdict.Recommendation)
		})
	}
}

func TestEvaluatePercentageRounding(t *testing.T) {
	engine := newTestEngine(t, fixedScorer(0.3333))
	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		DeviceType:      "mobile",
		LoginSuccessful: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 33.3, verdict.RiskPercentage)
}

func TestEvaluateScorerErrorFallsBack(t *testing.T) {
	engine := newTestEngine(t, func(ctx context.Context, features Features) (float64, error) {
		return 0, errors.New("model artifact corrupted")
	})

	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		City:            "Manila",
		DeviceType:      "mobile",
		LoginSuccessful: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.25, verdict.RiskScore)
	assert.Equal(t, ClassificationMedium, verdict.Classification)
	assert.Equal(t, ActionAllowWithOTP, verdict.Action)
	assert.Contains(t, verdict.Warnings, WarningScorerFailed)
}

func TestEvaluateScorerPanicFallsBack(t *testing.T) {
	engine := newTestEngine(t, func(ctx context.Context, features Features) (float64, error) {
		panic("nil feature matrix")
	})

	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		DeviceType:      "tablet",
		LoginSuccessful: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.25, verdict.RiskScore)
	assert.Contains(t, verdict.Warnings, WarningScorerFailed)
}

func TestEvaluateScorerTimeoutFallsBack(t *testing.T) {
	engine := newTestEngine(t, func(ctx context.Context, features Features) (float64, error) {
		select {
		case <-time.After(5 * time.Second):
			return 0.9, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		DeviceType:      "mobile",
		LoginSuccessful: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.25, verdict.RiskScore)
	assert.Contains(t, verdict.Warnings, WarningScorerFailed)
}

func TestEvaluateOutOfRangeScoreFallsBack(t *testing.T) {
	for _, probability := range []float64{-0.1, 1.5} {
		engine := newTestEngine(t, fixedScorer(probability))
		verdict, err := engine.Evaluate(context.Background(), LoginAttempt{
			UserID:          "u1",
			Country:         "Philippines",
			DeviceType:      "mobile",
			LoginSuccessful: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.25, verdict.RiskScore)
	}
}

func TestEvaluateValidationError(t *testing.T) {
	engine := newTestEngine(t, fixedScorer(0.5))
	_, err := engine.Evaluate(context.Background(), LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		DeviceType:      "hologram",
		LoginSuccessful: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrValidation))
}

func TestScorerConfigured(t *testing.T) {
	assert.False(t, NewScorer(nil, 0.25, time.Second, zap.NewNop()).Configured())
	assert.True(t, NewScorer(fixedScorer(0.5), 0.25, time.Second, zap.NewNop()).Configured())
}
