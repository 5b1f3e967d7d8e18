package risk

import "testing"

func TestPolicyClassify(t *testing.T) {
	policy := NewPolicy(0.30, 0.70)

	tests := []struct {
		name           string
		probability    float64
		classification Classification
		action         Action
	}{
		{"zero", 0.0, ClassificationLow, ActionAllow},
		{"just below medium", 0.29, ClassificationLow, ActionAllow},
		{"exactly medium threshold", 0.30, ClassificationMedium, ActionAllowWithOTP},
		{"low band", 0.25, ClassificationLow, ActionAllow},
		{"mid band", 0.50, ClassificationMedium, ActionAllowWithOTP},
		{"just below high", 0.69, ClassificationMedium, ActionAllowWithOTP},
		{"exactly high threshold", 0.70, ClassificationHigh, ActionBlock},
		{"high", 0.85, ClassificationHigh, ActionBlock},
		{"max", 1.0, ClassificationHigh, ActionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classification, action := policy.Classify(tt.probability)
			if classification != tt.classification {
				t.Errorf("Classify(%v) classification = %s, want %s", tt.probability, classification, tt.classification)
			}
			if action != tt.action {
				t.Errorf("Classify(%v) action = %s, want %s", tt.probability, action, tt.action)
			}
		})
	}
}

func TestPolicyHighRiskPercentage(t *testing.T) {
	policy := NewPolicy(0.30, 0.70)
	if got := policy.HighRiskPercentage(); got != 70 {
		t.Errorf("HighRiskPercentage() = %v, want 70", got)
	}
}
