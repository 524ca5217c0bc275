package service

import (
	"context"
	"intelliquery"
	"intelliquery/pkg"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type AuditEntry struct {
	RequestID    string    `json:"requestId,omitempty"`
	Query        string    `json:"query"`
	Column       string    `json:"column,omitempty"`
	ExtractedSQL string    `json:"extractedSql,omitempty"`
	CorrectedSQL string    `json:"correctedSql,omitempty"`
	Outcome      string    `json:"outcome"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuditService keeps a capped Redis list of answered questions. A nil *AuditService is valid
// and records nothing.
type AuditService struct {
	logger     zerolog.Logger
	client     *redis.Client
	key        string
	maxEntries int
}

// NewAuditService returns nil when no Redis host is configured.
func NewAuditService() *AuditService {
	if intelliquery.Redis == nil {
		return nil
	}
	cfg := intelliquery.GetConfig()
	return NewAuditServiceWithClient(intelliquery.Redis, cfg.Audit.Key, cfg.Audit.MaxEntries, intelliquery.Logger)
}

func NewAuditServiceWithClient(client *redis.Client, key string, maxEntries int, logger zerolog.Logger) *AuditService {
	return &AuditService{
		logger:     logger,
		client:     client,
		key:        key,
		maxEntries: maxEntries,
	}
}

func (slf *AuditService) Enabled() bool {
	return slf != nil && slf.client != nil
}

// Record never fails the caller; a Redis outage only costs the audit line.
func (slf *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if !slf.Enabled() {
		return
	}
	if entry.RequestID == "" {
		entry.RequestID = pkg.RequestIDFrom(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := pkg.RedisListPush(ctx, slf.client, slf.key, entry, slf.maxEntries); err != nil {
		slf.logger.Warn().Err(err).Str("key", slf.key).Msg("Failed to write audit entry")
	}
}

// Recent returns up to limit entries, newest first.
func (slf *AuditService) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if !slf.Enabled() || limit <= 0 {
		return []AuditEntry{}, nil
	}
	var entries []AuditEntry
	if err := pkg.RedisListTail(ctx, slf.client, slf.key, limit, &entries); err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	return entries, nil
}
