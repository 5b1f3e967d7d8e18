package risk

// Classification buckets a risk probability into a categorical tier.
type Classification string

const (
	ClassificationLow    Classification = "LOW"
	ClassificationMedium Classification = "MEDIUM"
	ClassificationHigh   Classification = "HIGH"
)

// Action is the recommended access-control response for a classification.
type Action string

const (
	ActionAllow        Action = "ALLOW"
	ActionAllowWithOTP Action = "ALLOW_WITH_OTP"
	ActionBlock        Action = "BLOCK"
)

// Policy maps a risk probability to a classification and action. Thresholds
// are half-open at the upper bound: exactly mediumThreshold is MEDIUM and
// exactly highThreshold is HIGH.
type Policy struct {
	mediumThreshold float64
	highThreshold   float64
}

// NewPolicy builds a policy with the given tier boundaries.
func NewPolicy(mediumThreshold, highThreshold float64) *Policy {
	return &Policy{
		mediumThreshold: mediumThreshold,
		highThreshold:   highThreshold,
	}
}

// Classify maps probability to tier and action. This is the single source of
// truth for every downstream metric: "high risk" anywhere means a
// probability at or above the high threshold.
func (p *Policy) Classify(probability float64) (Classification, Action) {
	switch {
	case probability < p.mediumThreshold:
		return ClassificationLow, ActionAllow
	case probability < p.highThreshold:
		return ClassificationMedium, ActionAllowWithOTP
	default:
		return ClassificationHigh, ActionBlock
	}
}

// HighRiskPercentage is the display-percentage boundary for the HIGH tier,
// used by store-side aggregate queries.
func (p *Policy) HighRiskPercentage() float64 {
	return p.highThreshold * 100
}
