package risk

import "fmt"

// Warning strings. The leading marker matches what the review dashboard
// renders verbatim.
const (
	WarningAttackIP         = "⚠ Known attack IP"
	WarningFailedLogin      = "⚠ Failed login attempt"
	WarningAbnormalLatency  = "⚠ Abnormal latency"
	WarningImpossibleTravel = "⚠ Impossible travel distance"
	WarningHighRiskScore    = "⚠ High risk score"
	WarningScorerMissing    = "⚠ Model unavailable"
	WarningScorerFailed     = "⚠ Model prediction failed"
)

// Warning trigger thresholds.
const (
	abnormalLatencyMs    = 2000
	impossibleTravelKm   = 10000
	highRiskWarningScore = 0.8
)

// AnalysisFactors composes the ordered human-readable factor list for a
// verdict: distance plausibility, behavior consistency, location context,
// and device category, in that order.
func AnalysisFactors(attempt LoginAttempt, deviceCode int, locationContext string, behaviorConsistency int) []string {
	factors := make([]string, 0, 4)

	switch {
	case attempt.DistanceKm < 50:
		factors = append(factors, "Travel is plausible (Same location or local area)")
	case attempt.DistanceKm < 1000:
		factors = append(factors, "Travel is plausible (Domestic travel)")
	default:
		factors = append(factors, "Long-distance travel detected")
	}

	factors = append(factors,
		fmt.Sprintf("Behavior consistency: %d%%", behaviorConsistency),
		fmt.Sprintf("Location: %s", locationContext),
		fmt.Sprintf("Device type: %s", DeviceName(deviceCode)),
	)
	return factors
}

// Warnings composes the ordered warning list. Each trigger is independent
// and appends exactly one entry when it holds.
func Warnings(attempt LoginAttempt, probability float64) []string {
	var warnings []string
	if attempt.IsAttackIP {
		warnings = append(warnings, WarningAttackIP)
	}
	if !attempt.LoginSuccessful {
		warnings = append(warnings, WarningFailedLogin)
	}
	if attempt.LatencyMs > abnormalLatencyMs {
		warnings = append(warnings, WarningAbnormalLatency)
	}
	if attempt.DistanceKm > impossibleTravelKm {
		warnings = append(warnings, WarningImpossibleTravel)
	}
	if probability > highRiskWarningScore {
		warnings = append(warnings, WarningHighRiskScore)
	}
	return warnings
}

// Recommendation returns the fixed recommendation template for an action.
func Recommendation(action Action) string {
	switch action {
	case ActionAllow:
		return "ALLOW: Legitimate travel with consistent behavior."
	case ActionAllowWithOTP:
		return "ALLOW with SMS OTP: Possible legitimate travel, verify with additional authentication."
	default:
		return "BLOCK: High risk detected, prevent access and require manual review."
	}
}
