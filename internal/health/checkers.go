// Package health provides health check endpoints and dependency monitoring
// This file provides built-in health checkers for the service dependencies
package health

import (
	"context"
	"time"

	"github.com/bantai/bantai/internal/common/database"
)

func statusFor(err error, latency, degradedAfter time.Duration) ComponentStatus {
	now := time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		return ComponentStatus{
			Status:    "down",
			LatencyMS: float64(latency.Milliseconds()),
			Details:   err.Error(),
			CheckedAt: now,
		}
	}
	status := ComponentStatus{
		Status:    "up",
		LatencyMS: float64(latency.Milliseconds()),
		CheckedAt: now,
	}
	if latency > degradedAfter {
		status.Status = "degraded"
		status.Details = "high latency"
	}
	return status
}

// PostgresChecker checks the verdict store's PostgreSQL connection
type PostgresChecker struct {
	db       *database.PostgresDB
	critical bool
}

// NewPostgresChecker creates a new PostgresChecker (marked as critical)
func NewPostgresChecker(db *database.PostgresDB) *PostgresChecker {
	return &PostgresChecker{db: db, critical: true}
}

// Name returns the checker name
func (p *PostgresChecker) Name() string {
	return "database"
}

// IsCritical returns true if this component is critical for readiness
func (p *PostgresChecker) IsCritical() bool {
	return p.critical
}

// Check tests the PostgreSQL connection by running SELECT 1 and measuring latency
func (p *PostgresChecker) Check(ctx context.Context) ComponentStatus {
	start := time.Now()
	var one int
	err := p.db.Pool.QueryRow(ctx, "SELECT 1").Scan(&one)
	return statusFor(err, time.Since(start), 500*time.Millisecond)
}

// RedisChecker checks the threat-list/cache Redis connection
type RedisChecker struct {
	redis    *database.RedisClient
	critical bool
}

// NewRedisChecker creates a new RedisChecker (marked as critical)
func NewRedisChecker(redis *database.RedisClient) *RedisChecker {
	return &RedisChecker{redis: redis, critical: true}
}

// NewRedisCheckerOptional creates a non-critical RedisChecker
func NewRedisCheckerOptional(redis *database.RedisClient) *RedisChecker {
	return &RedisChecker{redis: redis, critical: false}
}

// Name returns the checker name
func (r *RedisChecker) Name() string {
	return "redis"
}

// IsCritical returns true if this component is critical for readiness
func (r *RedisChecker) IsCritical() bool {
	return r.critical
}

// Check tests the Redis connection by running PING and measuring latency
func (r *RedisChecker) Check(ctx context.Context) ComponentStatus {
	start := time.Now()
	_, err := r.redis.Client.Ping(ctx).Result()
	return statusFor(err, time.Since(start), 200*time.Millisecond)
}

// ElasticsearchChecker checks the optional verdict search index. Always
// non-critical: indexing is best effort.
type ElasticsearchChecker struct {
	es *database.ElasticsearchClient
}

// NewElasticsearchChecker creates a non-critical ElasticsearchChecker
func NewElasticsearchChecker(es *database.ElasticsearchClient) *ElasticsearchChecker {
	return &ElasticsearchChecker{es: es}
}

// Name returns the checker name
func (e *ElasticsearchChecker) Name() string {
	return "elasticsearch"
}

// IsCritical returns false; the search index never gates readiness
func (e *ElasticsearchChecker) IsCritical() bool {
	return false
}

// Check pings the Elasticsearch cluster and measures latency
func (e *ElasticsearchChecker) Check(ctx context.Context) ComponentStatus {
	start := time.Now()
	err := e.es.Ping()
	return statusFor(err, time.Since(start), time.Second)
}

// FuncChecker allows creating a health checker from a function
type FuncChecker struct {
	name     string
	check    func(context.Context) ComponentStatus
	critical bool
}

// NewFuncChecker creates a checker from a function
func NewFuncChecker(name string, check func(context.Context) ComponentStatus, critical bool) *FuncChecker {
	return &FuncChecker{
		name:     name,
		check:    check,
		critical: critical,
	}
}

// Name returns the checker name
func (f *FuncChecker) Name() string {
	return f.name
}

// IsCritical returns true if this component is critical for readiness
func (f *FuncChecker) IsCritical() bool {
	return f.critical
}

// Check calls the wrapped function
func (f *FuncChecker) Check(ctx context.Context) ComponentStatus {
	return f.check(ctx)
}
