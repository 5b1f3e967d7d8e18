package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bantai/bantai/internal/common/errors"
)

func TestNormalize(t *testing.T) {
	attempt := LoginAttempt{
		UserID:          "U_1023",
		Country:         "Philippines",
		City:            "Manila",
		HoursSinceLast:  2.0,
		DistanceKm:      15,
		DeviceType:      "mobile",
		LatencyMs:       45,
		IsAttackIP:      false,
		LoginSuccessful: true,
	}

	features, err := Normalize(attempt)
	require.NoError(t, err)

	assert.Equal(t, 2.0, features.TimeDiff)
	assert.Equal(t, 15.0, features.Distance)
	assert.Equal(t, DeviceMobile, features.DeviceCode)
	assert.Equal(t, 0, features.AttackIP)
	assert.Equal(t, 1, features.Success)
	assert.Equal(t, 45.0, features.Latency)
	assert.Equal(t, []float64{2.0, 15, 0, 0, 1, 45}, features.Vector())
}

func TestNormalizeDeviceEncoding(t *testing.T) {
	tests := []struct {
		device string
		code   int
	}{
		{"mobile", DeviceMobile},
		{"desktop", DeviceDesktop},
		{"tablet", DeviceTablet},
		{"Mobile", DeviceMobile},
		{" TABLET ", DeviceTablet},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			features, err := Normalize(LoginAttempt{
				UserID:     "u1",
				Country:    "Philippines",
				DeviceType: tt.device,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.code, features.DeviceCode)
		})
	}
}

func TestNormalizeFlagCoercion(t *testing.T) {
	features, err := Normalize(LoginAttempt{
		UserID:          "u1",
		Country:         "Nigeria",
		DeviceType:      "desktop",
		IsAttackIP:      true,
		LoginSuccessful: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, features.AttackIP)
	assert.Equal(t, 0, features.Success)
}

func TestNormalizeValidation(t *testing.T) {
	valid := LoginAttempt{
		UserID:          "u1",
		Country:         "Philippines",
		DeviceType:      "mobile",
		LoginSuccessful: true,
	}

	tests := []struct {
		name   string
		mutate func(*LoginAttempt)
	}{
		{"missing user", func(a *LoginAttempt) { a.UserID = "" }},
		{"missing country", func(a *LoginAttempt) { a.Country = " " }},
		{"unknown device", func(a *LoginAttempt) { a.DeviceType = "smartwatch" }},
		{"empty device", func(a *LoginAttempt) { a.DeviceType = "" }},
		{"negative hours", func(a *LoginAttempt) { a.HoursSinceLast = -1 }},
		{"negative distance", func(a *LoginAttempt) { a.DistanceKm = -0.5 }},
		{"negative latency", func(a *LoginAttempt) { a.LatencyMs = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := valid
			tt.mutate(&attempt)
			_, err := Normalize(attempt)
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrValidation),
				"expected validation error, got %v", err)
		})
	}
}

func TestDeviceName(t *testing.T) {
	assert.Equal(t, "mobile", DeviceName(DeviceMobile))
	assert.Equal(t, "desktop", DeviceName(DeviceDesktop))
	assert.Equal(t, "tablet", DeviceName(DeviceTablet))
	assert.Equal(t, "unknown", DeviceName(42))
}
