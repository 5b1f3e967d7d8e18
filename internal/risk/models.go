package risk

import "time"

// AdminAction is the review feedback state of a verdict record. Records are
// created Pending Review; every other value is admin-initiated.
const (
	AdminActionPending          = "Pending Review"
	AdminActionFalsePositive    = "False Positive"
	AdminActionTruePositive     = "True Positive - Blocked"
	AdminActionConfirmedCorrect = "Confirmed Correct"
	AdminActionRequireOTP       = "Require OTP"
	AdminActionEscalated        = "Escalated"
)

var adminActions = map[string]bool{
	AdminActionPending:          true,
	AdminActionFalsePositive:    true,
	AdminActionTruePositive:     true,
	AdminActionConfirmedCorrect: true,
	AdminActionRequireOTP:       true,
	AdminActionEscalated:        true,
}

// ValidAdminAction reports whether an action string is part of the review
// vocabulary.
func ValidAdminAction(action string) bool {
	return adminActions[action]
}

// VerdictRecord is the persisted decision bundle: the raw attempt, the
// verdict, and the mutable admin-review fields. Records are never deleted in
// normal operation.
type VerdictRecord struct {
	ID          string       `json:"id"`
	Attempt     LoginAttempt `json:"attempt"`
	Verdict     RiskVerdict  `json:"verdict"`
	AdminAction string       `json:"admin_action"`
	ReviewedBy  string       `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// User is a monitored account with its known-good baselines.
type User struct {
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	HomeLocations []string  `json:"home_locations"`
	CommonDevices []string  `json:"common_devices"`
	CreatedAt     time.Time `json:"created_at"`
}

// VerdictFilter narrows listVerdicts. Zero values mean "no constraint".
type VerdictFilter struct {
	UserID         string
	Classification Classification
	From           *time.Time
	To             *time.Time
	Limit          int
}

// DashboardMetrics is the aggregate snapshot behind the overview dashboard.
type DashboardMetrics struct {
	TotalLogins int `json:"total_logins"`
	HighRisk    int `json:"high_risk"`
	Blocked     int `json:"blocked"`
	OTPRequired int `json:"otp_required"`
	AttackIPs   int `json:"attack_ips"`
}

// RiskReasons counts the dominant contributing signals across all records.
type RiskReasons struct {
	FailedLogins    int `json:"failed_logins"`
	AttackIPs       int `json:"attack_ips"`
	LongDistance    int `json:"long_distance"`
	AbnormalLatency int `json:"abnormal_latency"`
}

// UserStats summarizes one user's login history.
type UserStats struct {
	UserID            string     `json:"user_id"`
	TotalLogins       int        `json:"total_logins"`
	HighRiskLogins    int        `json:"high_risk_logins"`
	DistinctCountries int        `json:"distinct_countries"`
	AvgBehaviorScore  float64    `json:"avg_behavior_score"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}
