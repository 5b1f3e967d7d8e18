package risk

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/database"
	apperrors "github.com/bantai/bantai/internal/common/errors"
)

const threatListKey = "bantai:threatlist:attack_ips"

// ThreatList is the shared known-attack-IP set, kept in Redis so every
// instance sees updates immediately.
type ThreatList struct {
	redis  *database.RedisClient
	logger *zap.Logger
}

// NewThreatList creates a threat list over the given Redis client.
func NewThreatList(redis *database.RedisClient, logger *zap.Logger) *ThreatList {
	return &ThreatList{
		redis:  redis,
		logger: logger.With(zap.String("component", "threat_list")),
	}
}

// Add marks an IP as a known attack source.
func (t *ThreatList) Add(ctx context.Context, ip string) error {
	if ip == "" {
		return apperrors.Validation("ip is required")
	}
	if err := t.redis.Client.SAdd(ctx, threatListKey, ip).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrRedisError, "failed to add threat IP", http.StatusInternalServerError)
	}
	return nil
}

// Remove deletes an IP from the list. Removing an absent IP is not an error.
func (t *ThreatList) Remove(ctx context.Context, ip string) error {
	if err := t.redis.Client.SRem(ctx, threatListKey, ip).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrRedisError, "failed to remove threat IP", http.StatusInternalServerError)
	}
	return nil
}

// Contains reports whether an IP is on the list. Lookup failures are treated
// as a miss so a Redis outage cannot block logins on its own.
func (t *ThreatList) Contains(ctx context.Context, ip string) bool {
	if ip == "" {
		return false
	}
	found, err := t.redis.Client.SIsMember(ctx, threatListKey, ip).Result()
	if err != nil {
		t.logger.Warn("threat list lookup failed", zap.Error(err))
		return false
	}
	return found
}

// List returns all IPs currently on the list.
func (t *ThreatList) List(ctx context.Context) ([]string, error) {
	ips, err := t.redis.Client.SMembers(ctx, threatListKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRedisError, "failed to list threat IPs", http.StatusInternalServerError)
	}
	return ips, nil
}
