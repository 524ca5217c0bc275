package service

import (
	"context"
	"fmt"
	"intelliquery/pkg"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const auditKey = "intelliquery:audit"

func newRedisAudit(t *testing.T, maxEntries int) (*AuditService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuditServiceWithClient(client, auditKey, maxEntries, zerolog.Nop()), mr
}

func recordQueries(audit *AuditService, count int) {
	for i := 1; i <= count; i++ {
		audit.Record(context.Background(), AuditEntry{Query: fmt.Sprintf("question %d", i), Outcome: "answered"})
	}
}

func queriesOf(entries []AuditEntry) []string {
	queries := make([]string, 0, len(entries))
	for _, entry := range entries {
		queries = append(queries, entry.Query)
	}
	return queries
}

func TestAuditService_NilIsDisabled(t *testing.T) {
	var audit *AuditService

	assert.False(t, audit.Enabled())
	assert.NotPanics(t, func() {
		audit.Record(context.Background(), AuditEntry{Query: "what city", Outcome: "answered"})
	})

	entries, err := audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// ============ Redis-backed trail ============

func TestAuditService_KeepsOnlyMaxEntries(t *testing.T) {
	audit, mr := newRedisAudit(t, 3)
	require.True(t, audit.Enabled())

	recordQueries(audit, 5)

	stored, err := mr.List(auditKey)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	entries, err := audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"question 5", "question 4", "question 3"}, queriesOf(entries))
}

func TestAuditService_RecentNewestFirstWithLimit(t *testing.T) {
	audit, _ := newRedisAudit(t, 100)

	recordQueries(audit, 4)

	entries, err := audit.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"question 4", "question 3"}, queriesOf(entries))

	entries, err = audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"question 4", "question 3", "question 2", "question 1"}, queriesOf(entries))
}

func TestAuditService_RecordFillsRequestIDAndTime(t *testing.T) {
	audit, _ := newRedisAudit(t, 10)
	ctx := pkg.WithRequestID(context.Background(), "6f1c2a44-8d0e-4f3b-9a57-2d1e0c9b7a31")
	before := time.Now().UTC().Add(-time.Second)

	audit.Record(ctx, AuditEntry{Query: "who owns it", Column: "owner_name", Outcome: "no_data"})

	entries, err := audit.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "6f1c2a44-8d0e-4f3b-9a57-2d1e0c9b7a31", entries[0].RequestID)
	assert.Equal(t, "owner_name", entries[0].Column)
	assert.Equal(t, "no_data", entries[0].Outcome)
	assert.True(t, entries[0].CreatedAt.After(before), entries[0].CreatedAt)
}

func TestAuditService_EmptyListAndBadLimit(t *testing.T) {
	audit, _ := newRedisAudit(t, 10)

	entries, err := audit.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	recordQueries(audit, 1)
	entries, err = audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAuditService_RedisDownDoesNotFailRecord(t *testing.T) {
	audit, mr := newRedisAudit(t, 10)
	mr.Close()

	assert.NotPanics(t, func() { recordQueries(audit, 1) })
	_, err := audit.Recent(context.Background(), 5)
	assert.Error(t, err)
}
