package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/database"
	apperrors "github.com/bantai/bantai/internal/common/errors"
)

const dashboardCacheKey = "bantai:metrics:dashboard"
const dashboardCacheTTL = 30 * time.Second

// Store persists verdict records and users in PostgreSQL and serves the
// aggregate queries behind the dashboards. Dashboard aggregates are cached
// briefly in Redis.
type Store struct {
	db              *database.PostgresDB
	redis           *database.RedisClient
	logger          *zap.Logger
	defaultAccuracy int
	highRiskPct     float64
}

// NewStore creates the store and ensures the schema exists.
func NewStore(ctx context.Context, db *database.PostgresDB, redis *database.RedisClient, defaultAccuracy int, highRiskPct float64, logger *zap.Logger) (*Store, error) {
	s := &Store{
		db:              db,
		redis:           redis,
		logger:          logger.With(zap.String("component", "verdict_store")),
		defaultAccuracy: defaultAccuracy,
		highRiskPct:     highRiskPct,
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(50) PRIMARY KEY,
			username VARCHAR(100),
			email VARCHAR(255),
			home_locations TEXT,
			common_devices TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS verdict_records (
			id UUID PRIMARY KEY,
			user_id VARCHAR(50) NOT NULL REFERENCES users(user_id),
			country VARCHAR(100) NOT NULL,
			city VARCHAR(100),
			hours_since_last DOUBLE PRECISION DEFAULT 0,
			distance_km DOUBLE PRECISION DEFAULT 0,
			device_type VARCHAR(20) NOT NULL,
			latency_ms DOUBLE PRECISION DEFAULT 0,
			ip_address VARCHAR(64),
			is_attack_ip BOOLEAN DEFAULT false,
			login_successful BOOLEAN DEFAULT true,
			risk_score DOUBLE PRECISION NOT NULL,
			risk_percentage DOUBLE PRECISION NOT NULL,
			classification VARCHAR(10) NOT NULL,
			action VARCHAR(20) NOT NULL,
			recommendation TEXT,
			analysis_factors TEXT,
			warnings TEXT,
			behavior_consistency INTEGER DEFAULT 0,
			location_context VARCHAR(100),
			admin_action VARCHAR(50) DEFAULT 'Pending Review',
			reviewed_by VARCHAR(100),
			reviewed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_verdict_records_user_id ON verdict_records(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_records_created_at ON verdict_records(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_records_classification ON verdict_records(classification)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_records_admin_action ON verdict_records(admin_action)`,
	}

	for _, query := range queries {
		if _, err := s.db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// CreateVerdict persists one decision bundle atomically and returns the
// stored record. An unknown user gets a stub users row so the audit trail is
// never lost on a first-seen account.
func (s *Store) CreateVerdict(ctx context.Context, attempt LoginAttempt, verdict RiskVerdict) (*VerdictRecord, error) {
	record := &VerdictRecord{
		ID:          uuid.New().String(),
		Attempt:     attempt,
		Verdict:     verdict,
		AdminAction: AdminActionPending,
		CreatedAt:   time.Now().UTC(),
	}

	factors, err := json.Marshal(verdict.AnalysisFactors)
	if err != nil {
		return nil, apperrors.Persistence("marshal analysis factors", err)
	}
	warnings, err := json.Marshal(verdict.Warnings)
	if err != nil {
		return nil, apperrors.Persistence("marshal warnings", err)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.Persistence("begin verdict transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (user_id, username) VALUES ($1, $1) ON CONFLICT (user_id) DO NOTHING`,
		attempt.UserID); err != nil {
		return nil, apperrors.Persistence("ensure user", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO verdict_records (
			id, user_id, country, city, hours_since_last, distance_km, device_type,
			latency_ms, ip_address, is_attack_ip, login_successful,
			risk_score, risk_percentage, classification, action, recommendation,
			analysis_factors, warnings, behavior_consistency, location_context,
			admin_action, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		record.ID, attempt.UserID, attempt.Country, attempt.City,
		attempt.HoursSinceLast, attempt.DistanceKm, attempt.DeviceType,
		attempt.LatencyMs, attempt.IPAddress, attempt.IsAttackIP, attempt.LoginSuccessful,
		verdict.RiskScore, verdict.RiskPercentage, string(verdict.Classification),
		string(verdict.Action), verdict.Recommendation,
		string(factors), string(warnings), verdict.BehaviorConsistency, verdict.LocationContext,
		record.AdminAction, record.CreatedAt)
	if err != nil {
		return nil, apperrors.Persistence("insert verdict record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Persistence("commit verdict transaction", err)
	}
	return record, nil
}

const verdictColumns = `id, user_id, country, city, hours_since_last, distance_km, device_type,
	latency_ms, ip_address, is_attack_ip, login_successful,
	risk_score, risk_percentage, classification, action, recommendation,
	analysis_factors, warnings, behavior_consistency, location_context,
	admin_action, reviewed_by, reviewed_at, created_at`

func scanVerdict(row pgx.Row) (*VerdictRecord, error) {
	var (
		rec            VerdictRecord
		city, ip       *string
		recommendation *string
		factors        *string
		warnings       *string
		location       *string
		reviewedBy     *string
		classification string
		action         string
	)
	err := row.Scan(
		&rec.ID, &rec.Attempt.UserID, &rec.Attempt.Country, &city,
		&rec.Attempt.HoursSinceLast, &rec.Attempt.DistanceKm, &rec.Attempt.DeviceType,
		&rec.Attempt.LatencyMs, &ip, &rec.Attempt.IsAttackIP, &rec.Attempt.LoginSuccessful,
		&rec.Verdict.RiskScore, &rec.Verdict.RiskPercentage, &classification, &action,
		&recommendation, &factors, &warnings, &rec.Verdict.BehaviorConsistency, &location,
		&rec.AdminAction, &reviewedBy, &rec.ReviewedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Attempt.City = deref(city)
	rec.Attempt.IPAddress = deref(ip)
	rec.Verdict.Classification = Classification(classification)
	rec.Verdict.Action = Action(action)
	rec.Verdict.Recommendation = deref(recommendation)
	rec.Verdict.LocationContext = deref(location)
	rec.Verdict.AnalysisFactors = decodeStringList(deref(factors))
	rec.Verdict.Warnings = decodeStringList(deref(warnings))
	rec.ReviewedBy = deref(reviewedBy)
	return &rec, nil
}

// GetVerdict returns one record by id.
func (s *Store) GetVerdict(ctx context.Context, id string) (*VerdictRecord, error) {
	rec, err := scanVerdict(s.db.Pool.QueryRow(ctx,
		`SELECT `+verdictColumns+` FROM verdict_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.VerdictNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Persistence("get verdict record", err)
	}
	return rec, nil
}

// ListVerdicts returns records newest first, optionally narrowed by user,
// classification, and creation-time range.
func (s *Store) ListVerdicts(ctx context.Context, filter VerdictFilter) ([]*VerdictRecord, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		addCondition("user_id = $%d", filter.UserID)
	}
	if filter.Classification != "" {
		addCondition("classification = $%d", string(filter.Classification))
	}
	if filter.From != nil {
		addCondition("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("created_at <= $%d", *filter.To)
	}

	query := `SELECT ` + verdictColumns + ` FROM verdict_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Persistence("list verdict records", err)
	}
	defer rows.Close()

	var records []*VerdictRecord
	for rows.Next() {
		rec, err := scanVerdict(rows)
		if err != nil {
			return nil, apperrors.Persistence("scan verdict record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("list verdict records", err)
	}
	return records, nil
}

// ReviewVerdict sets the admin action, reviewer, and review timestamp on one
// record. Re-reviewing overwrites; only the latest review is kept.
// Last-writer-wins is acceptable for concurrent reviews of the same record.
func (s *Store) ReviewVerdict(ctx context.Context, id, adminAction, reviewer string) error {
	if !ValidAdminAction(adminAction) {
		return apperrors.Validation("unknown admin action: " + adminAction)
	}
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE verdict_records SET admin_action = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`,
		id, adminAction, reviewer, time.Now().UTC())
	if err != nil {
		return apperrors.Persistence("review verdict record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.VerdictNotFound(id)
	}
	s.invalidateDashboardCache(ctx)
	return nil
}

// DetectionAccuracy computes the share of reviewed records whose admin
// feedback agrees with the classification: a high-risk record marked
// "True Positive - Blocked" is correct, a non-high record marked
// "False Positive" is correct, and "Confirmed Correct" is correct by
// definition. With no reviewed records yet it returns the configured
// baseline instead of a computed statistic.
func (s *Store) DetectionAccuracy(ctx context.Context) (int, error) {
	var reviewed, correct int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE
				(risk_percentage >= $4 AND admin_action = $1) OR
				(risk_percentage < $4 AND admin_action = $2) OR
				admin_action = $3)
		 FROM verdict_records
		 WHERE admin_action IN ($1, $2, $3)`,
		AdminActionTruePositive, AdminActionFalsePositive, AdminActionConfirmedCorrect,
		s.highRiskPct).Scan(&reviewed, &correct)
	if err != nil {
		return 0, apperrors.Persistence("compute detection accuracy", err)
	}
	if reviewed == 0 {
		return s.defaultAccuracy, nil
	}
	return int(math.Round(float64(correct) / float64(reviewed) * 100)), nil
}

// FalsePositiveCount counts "False Positive" reviews created within the
// trailing window.
func (s *Store) FalsePositiveCount(ctx context.Context, windowDays int) (int, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)
	var count int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM verdict_records WHERE admin_action = $1 AND created_at >= $2`,
		AdminActionFalsePositive, cutoff).Scan(&count)
	if err != nil {
		return 0, apperrors.Persistence("count false positives", err)
	}
	return count, nil
}

// Dashboard returns the aggregate overview counters. Results are cached in
// Redis for a short interval since every dashboard page polls them.
func (s *Store) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	if cached := s.dashboardFromCache(ctx); cached != nil {
		return cached, nil
	}

	var m DashboardMetrics
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE risk_percentage >= $1),
			COUNT(*) FILTER (WHERE action = $2),
			COUNT(*) FILTER (WHERE action = $3),
			COUNT(*) FILTER (WHERE is_attack_ip)
		 FROM verdict_records`,
		s.highRiskPct, string(ActionBlock), string(ActionAllowWithOTP)).
		Scan(&m.TotalLogins, &m.HighRisk, &m.Blocked, &m.OTPRequired, &m.AttackIPs)
	if err != nil {
		return nil, apperrors.Persistence("compute dashboard metrics", err)
	}

	s.dashboardToCache(ctx, &m)
	return &m, nil
}

// Reasons counts the dominant contributing signals across all records.
func (s *Store) Reasons(ctx context.Context) (*RiskReasons, error) {
	var r RiskReasons
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE NOT login_successful),
			COUNT(*) FILTER (WHERE is_attack_ip),
			COUNT(*) FILTER (WHERE distance_km > 5000),
			COUNT(*) FILTER (WHERE latency_ms > 1000)
		 FROM verdict_records`).
		Scan(&r.FailedLogins, &r.AttackIPs, &r.LongDistance, &r.AbnormalLatency)
	if err != nil {
		return nil, apperrors.Persistence("compute risk reasons", err)
	}
	return &r, nil
}

// ListUsers returns all monitored users.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT user_id, username, email, home_locations, common_devices, created_at
		 FROM users ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.Persistence("list users", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		var username, email, homes, devices *string
		if err := rows.Scan(&u.UserID, &username, &email, &homes, &devices, &u.CreatedAt); err != nil {
			return nil, apperrors.Persistence("scan user", err)
		}
		u.Username = deref(username)
		u.Email = deref(email)
		u.HomeLocations = decodeStringList(deref(homes))
		u.CommonDevices = decodeStringList(deref(devices))
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("list users", err)
	}
	return users, nil
}

// GetUserStats summarizes one user's login history.
func (s *Store) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var exists bool
	if err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return nil, apperrors.Persistence("check user", err)
	}
	if !exists {
		return nil, apperrors.UserNotFound(userID)
	}

	stats := &UserStats{UserID: userID}
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE risk_percentage >= $2),
			COUNT(DISTINCT country),
			COALESCE(AVG(behavior_consistency), 0),
			MAX(created_at)
		 FROM verdict_records WHERE user_id = $1`,
		userID, s.highRiskPct).
		Scan(&stats.TotalLogins, &stats.HighRiskLogins, &stats.DistinctCountries,
			&stats.AvgBehaviorScore, &stats.LastLoginAt)
	if err != nil {
		return nil, apperrors.Persistence("compute user stats", err)
	}
	return stats, nil
}

func (s *Store) dashboardFromCache(ctx context.Context) *DashboardMetrics {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Client.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var m DashboardMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}

func (s *Store) dashboardToCache(ctx context.Context, m *DashboardMetrics) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.redis.Client.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL).Err(); err != nil {
		s.logger.Debug("failed to cache dashboard metrics", zap.Error(err))
	}
}

func (s *Store) invalidateDashboardCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Client.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Debug("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// decodeStringList parses a JSON-array text blob. Parse errors yield an
// empty list, never a failure: stored explanation blobs predate validation.
func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{}
	}
	return list
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
