// Package risk implements the login-risk triage pipeline: feature
// normalization, risk scoring with a guaranteed fallback, classification and
// action policy, location-context annotation, explanation composing, and
// verdict persistence with admin review feedback.
package risk

import (
	"strings"

	apperrors "github.com/bantai/bantai/internal/common/errors"
)

// Device category ordinals. The scorer contract encodes the device category
// as a small ordinal rather than a string.
const (
	DeviceMobile  = 0
	DeviceDesktop = 1
	DeviceTablet  = 2
)

var deviceCodes = map[string]int{
	"mobile":  DeviceMobile,
	"desktop": DeviceDesktop,
	"tablet":  DeviceTablet,
}

var deviceNames = map[int]string{
	DeviceMobile:  "mobile",
	DeviceDesktop: "desktop",
	DeviceTablet:  "tablet",
}

// LoginAttempt is the raw input to the triage pipeline. Latency and distance
// may be zero for a user's first observed login; everything else is required.
type LoginAttempt struct {
	UserID          string  `json:"user_id"`
	Country         string  `json:"country"`
	City            string  `json:"city"`
	HoursSinceLast  float64 `json:"hours_since_last"`
	DistanceKm      float64 `json:"distance_km"`
	DeviceType      string  `json:"device_type"`
	LatencyMs       float64 `json:"latency_ms"`
	IPAddress       string  `json:"ip_address,omitempty"`
	IsAttackIP      bool    `json:"is_attack_ip"`
	LoginSuccessful bool    `json:"login_successful"`
}

// Features is the normalized numeric vector handed to the scorer. Field order
// matches the training contract: time diff, distance, device, attack IP,
// login success, latency.
type Features struct {
	TimeDiff   float64
	Distance   float64
	DeviceCode int
	AttackIP   int
	Success    int
	Latency    float64
}

// Vector returns the features as a flat slice in scorer order.
func (f Features) Vector() []float64 {
	return []float64{
		f.TimeDiff,
		f.Distance,
		float64(f.DeviceCode),
		float64(f.AttackIP),
		float64(f.Success),
		f.Latency,
	}
}

// Normalize validates a LoginAttempt and encodes it into Features. The
// device category must be one of mobile, desktop, tablet, and numeric fields
// must be non-negative. No side effects.
func Normalize(attempt LoginAttempt) (Features, error) {
	if strings.TrimSpace(attempt.UserID) == "" {
		return Features{}, apperrors.Validation("user_id is required")
	}
	if strings.TrimSpace(attempt.Country) == "" {
		return Features{}, apperrors.Validation("country is required")
	}

	code, ok := deviceCodes[strings.ToLower(strings.TrimSpace(attempt.DeviceType))]
	if !ok {
		return Features{}, apperrors.Validation("device_type must be one of mobile, desktop, tablet")
	}
	if attempt.HoursSinceLast < 0 {
		return Features{}, apperrors.Validation("hours_since_last must not be negative")
	}
	if attempt.DistanceKm < 0 {
		return Features{}, apperrors.Validation("distance_km must not be negative")
	}
	if attempt.LatencyMs < 0 {
		return Features{}, apperrors.Validation("latency_ms must not be negative")
	}

	f := Features{
		TimeDiff:   attempt.HoursSinceLast,
		Distance:   attempt.DistanceKm,
		DeviceCode: code,
		Latency:    attempt.LatencyMs,
	}
	if attempt.IsAttackIP {
		f.AttackIP = 1
	}
	if attempt.LoginSuccessful {
		f.Success = 1
	}
	return f, nil
}

// DeviceName maps a device ordinal back to its category name.
func DeviceName(code int) string {
	if name, ok := deviceNames[code]; ok {
		return name
	}
	return "unknown"
}
