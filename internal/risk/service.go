package risk

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/bantai/bantai/internal/common/errors"
	"github.com/bantai/bantai/internal/common/logger"
	"github.com/bantai/bantai/internal/metrics"
)

// Service ties the triage pipeline to persistence, the threat list, and the
// optional search index. It is the single entry point the HTTP layer calls.
type Service struct {
	engine  *Engine
	store   *Store
	threats *ThreatList
	indexer *Indexer
	audit   *logger.AuditLogger
	logger  *zap.Logger
}

// NewService assembles the risk service. threats and indexer may be nil when
// the deployment has no Redis threat list or Elasticsearch.
func NewService(engine *Engine, store *Store, threats *ThreatList, indexer *Indexer, audit *logger.AuditLogger, log *zap.Logger) *Service {
	return &Service{
		engine:  engine,
		store:   store,
		threats: threats,
		indexer: indexer,
		audit:   audit,
		logger:  log.With(zap.String("component", "risk_service")),
	}
}

// CreateVerdict evaluates a login attempt and persists the resulting record.
// If the attempt carries a source IP and the threat list knows it, the
// attack-IP flag is forced on before scoring.
func (s *Service) CreateVerdict(ctx context.Context, attempt LoginAttempt) (*VerdictRecord, error) {
	if !attempt.IsAttackIP && s.threats != nil && s.threats.Contains(ctx, attempt.IPAddress) {
		attempt.IsAttackIP = true
	}

	verdict, err := s.engine.Evaluate(ctx, attempt)
	if err != nil {
		return nil, err
	}

	record, err := s.store.CreateVerdict(ctx, attempt, *verdict)
	if err != nil {
		return nil, err
	}

	metrics.VerdictsTotal.WithLabelValues(string(verdict.Classification), string(verdict.Action)).Inc()
	s.audit.LogVerdictCreated(record.ID, attempt.UserID, string(verdict.Classification), string(verdict.Action))

	if s.indexer != nil {
		go s.indexer.IndexVerdict(record)
	}

	return record, nil
}

// GetVerdict returns one persisted record by id.
func (s *Service) GetVerdict(ctx context.Context, id string) (*VerdictRecord, error) {
	return s.store.GetVerdict(ctx, id)
}

// ListVerdicts returns persisted records newest first.
func (s *Service) ListVerdicts(ctx context.Context, filter VerdictFilter) ([]*VerdictRecord, error) {
	return s.store.ListVerdicts(ctx, filter)
}

// SearchVerdicts runs a free-text query over the search index.
func (s *Service) SearchVerdicts(q, userID string, classification Classification, limit int) (*SearchResult, error) {
	if s.indexer == nil {
		return nil, apperrors.Unavailable("verdict search")
	}
	return s.indexer.SearchVerdicts(q, userID, classification, limit)
}

// ReviewVerdict records admin feedback on one verdict.
func (s *Service) ReviewVerdict(ctx context.Context, id, adminAction, reviewer string) (*VerdictRecord, error) {
	if err := s.store.ReviewVerdict(ctx, id, adminAction, reviewer); err != nil {
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues(adminAction).Inc()
	s.audit.LogVerdictReviewed(id, reviewer, adminAction)

	record, err := s.store.GetVerdict(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.indexer != nil {
		go s.indexer.IndexVerdict(record)
	}
	return record, nil
}

// DetectionAccuracy reports how often admin feedback agreed with the engine.
func (s *Service) DetectionAccuracy(ctx context.Context) (int, error) {
	return s.store.DetectionAccuracy(ctx)
}

// FalsePositiveCount counts recent false-positive reviews.
func (s *Service) FalsePositiveCount(ctx context.Context, windowDays int) (int, error) {
	return s.store.FalsePositiveCount(ctx, windowDays)
}

// Dashboard returns the aggregate overview counters.
func (s *Service) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	return s.store.Dashboard(ctx)
}

// Reasons returns the contributing-signal counts.
func (s *Service) Reasons(ctx context.Context) (*RiskReasons, error) {
	return s.store.Reasons(ctx)
}

// ListUsers returns all monitored users.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.ListUsers(ctx)
}

// GetUserStats summarizes one user's login history.
func (s *Service) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	return s.store.GetUserStats(ctx, userID)
}

// AddThreatIP puts an IP on the shared attack list.
func (s *Service) AddThreatIP(ctx context.Context, actor, ip string) error {
	if s.threats == nil {
		return apperrors.Unavailable("threat list")
	}
	if err := s.threats.Add(ctx, ip); err != nil {
		return err
	}
	s.audit.LogThreatListChange(actor, "add", ip)
	return nil
}

// RemoveThreatIP takes an IP off the shared attack list.
func (s *Service) RemoveThreatIP(ctx context.Context, actor, ip string) error {
	if s.threats == nil {
		return apperrors.Unavailable("threat list")
	}
	if err := s.threats.Remove(ctx, ip); err != nil {
		return err
	}
	s.audit.LogThreatListChange(actor, "remove", ip)
	return nil
}

// ListThreatIPs returns the current attack list.
func (s *Service) ListThreatIPs(ctx context.Context) ([]string, error) {
	if s.threats == nil {
		return nil, apperrors.Unavailable("threat list")
	}
	return s.threats.List(ctx)
}
