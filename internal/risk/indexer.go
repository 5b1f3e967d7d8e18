package risk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/database"
	apperrors "github.com/bantai/bantai/internal/common/errors"
)

const verdictIndex = "bantai-verdicts"

const verdictIndexMapping = `{
	"mappings": {
		"properties": {
			"user_id": {"type": "keyword"},
			"country": {"type": "keyword"},
			"city": {"type": "keyword"},
			"device_type": {"type": "keyword"},
			"classification": {"type": "keyword"},
			"action": {"type": "keyword"},
			"admin_action": {"type": "keyword"},
			"location_context": {"type": "keyword"},
			"risk_score": {"type": "float"},
			"risk_percentage": {"type": "float"},
			"distance_km": {"type": "float"},
			"latency_ms": {"type": "float"},
			"is_attack_ip": {"type": "boolean"},
			"login_successful": {"type": "boolean"},
			"warnings": {"type": "text"},
			"analysis_factors": {"type": "text"},
			"created_at": {"type": "date"}
		}
	}
}`

// Indexer mirrors verdict records into Elasticsearch for ad-hoc search and
// SOC tooling. Indexing is best effort: a failure is logged, never surfaced
// to the login path. PostgreSQL remains the source of truth.
type Indexer struct {
	es     *database.ElasticsearchClient
	logger *zap.Logger
}

// NewIndexer creates the indexer and ensures the verdict index exists.
func NewIndexer(es *database.ElasticsearchClient, logger *zap.Logger) (*Indexer, error) {
	if err := es.EnsureIndex(verdictIndex, verdictIndexMapping); err != nil {
		return nil, fmt.Errorf("failed to ensure verdict index: %w", err)
	}
	return &Indexer{
		es:     es,
		logger: logger.With(zap.String("component", "verdict_indexer")),
	}, nil
}

type verdictDocument struct {
	UserID          string   `json:"user_id"`
	Country         string   `json:"country"`
	City            string   `json:"city"`
	DeviceType      string   `json:"device_type"`
	Classification  string   `json:"classification"`
	Action          string   `json:"action"`
	AdminAction     string   `json:"admin_action"`
	LocationContext string   `json:"location_context"`
	RiskScore       float64  `json:"risk_score"`
	RiskPercentage  float64  `json:"risk_percentage"`
	DistanceKm      float64  `json:"distance_km"`
	LatencyMs       float64  `json:"latency_ms"`
	IsAttackIP      bool     `json:"is_attack_ip"`
	LoginSuccessful bool     `json:"login_successful"`
	Warnings        []string `json:"warnings"`
	AnalysisFactors []string `json:"analysis_factors"`
	CreatedAt       string   `json:"created_at"`
}

// IndexVerdict writes one record to the search index.
func (i *Indexer) IndexVerdict(rec *VerdictRecord) {
	doc := verdictDocument{
		UserID:          rec.Attempt.UserID,
		Country:         rec.Attempt.Country,
		City:            rec.Attempt.City,
		DeviceType:      rec.Attempt.DeviceType,
		Classification:  string(rec.Verdict.Classification),
		Action:          string(rec.Verdict.Action),
		AdminAction:     rec.AdminAction,
		LocationContext: rec.Verdict.LocationContext,
		RiskScore:       rec.Verdict.RiskScore,
		RiskPercentage:  rec.Verdict.RiskPercentage,
		DistanceKm:      rec.Attempt.DistanceKm,
		LatencyMs:       rec.Attempt.LatencyMs,
		IsAttackIP:      rec.Attempt.IsAttackIP,
		LoginSuccessful: rec.Attempt.LoginSuccessful,
		Warnings:        rec.Verdict.Warnings,
		AnalysisFactors: rec.Verdict.AnalysisFactors,
		CreatedAt:       rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		i.logger.Warn("failed to marshal verdict document", zap.Error(err))
		return
	}
	if err := i.es.Index(verdictIndex, rec.ID, body); err != nil {
		i.logger.Warn("failed to index verdict",
			zap.String("record_id", rec.ID),
			zap.Error(err))
	}
}

// SearchResult carries matching verdict documents and the index-wide hit
// total for the query.
type SearchResult struct {
	Total    int               `json:"total"`
	Verdicts []json.RawMessage `json:"verdicts"`
}

// searchBody builds the Elasticsearch request: free text across the
// descriptive fields, exact terms for user and classification, newest first.
func searchBody(q, userID string, classification Classification, limit int) ([]byte, error) {
	var must []map[string]any
	if q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query": q,
				"fields": []string{
					"country", "city", "device_type", "location_context",
					"warnings", "analysis_factors", "admin_action",
				},
			},
		})
	}
	if userID != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"user_id": userID},
		})
	}
	if classification != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"classification": string(classification)},
		})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	return json.Marshal(map[string]any{
		"query": query,
		"sort":  []map[string]any{{"created_at": map[string]any{"order": "desc"}}},
		"size":  limit,
	})
}

// SearchVerdicts runs an ad-hoc query against the verdict index. Unlike
// indexing this is a read path, so failures surface to the caller.
func (i *Indexer) SearchVerdicts(q, userID string, classification Classification, limit int) (*SearchResult, error) {
	body, err := searchBody(q, userID, classification, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to build search query", err)
	}

	raw, err := i.es.Search(verdictIndex, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("verdict search failed", err)
	}

	var resp database.EsSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.Internal("failed to decode search response", err)
	}

	result := &SearchResult{
		Total:    resp.Hits.Total.Value,
		Verdicts: make([]json.RawMessage, 0, len(resp.Hits.Hits)),
	}
	for _, hit := range resp.Hits.Hits {
		result.Verdicts = append(result.Verdicts, hit.Source)
	}
	return result, nil
}
