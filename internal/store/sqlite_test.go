package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpilot/internal/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	missing, err := s.Load(ctx, types.AgentCopilot, "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sc := &types.SessionContext{
		SessionID:      "s-1",
		UserID:         "user-1",
		AgentKey:       types.AgentCopilot,
		LastIntent:     "general_query",
		LastOutputType: types.OutputPost,
	}
	sc.AppendTurn("user", "hello")
	sc.AppendTurn("assistant", "hi, how can I help?")
	require.NoError(t, s.Save(ctx, sc))

	got, err := s.Load(ctx, types.AgentCopilot, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", got.SessionID)
	assert.Equal(t, "general_query", got.LastIntent)
	assert.Equal(t, types.OutputPost, got.LastOutputType)
	require.Len(t, got.History, 2)
	assert.Equal(t, "hello", got.History[0].Content)
}

func TestSQLiteUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc := &types.SessionContext{SessionID: "s-1", UserID: "user-1", AgentKey: types.AgentContent}
	require.NoError(t, s.Save(ctx, sc))

	sc.LastIntent = "generate_post"
	require.NoError(t, s.Save(ctx, sc))

	got, err := s.Load(ctx, types.AgentContent, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "generate_post", got.LastIntent)
}

func TestSQLiteKeyIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &types.SessionContext{
		SessionID: "a", UserID: "user-1", AgentKey: types.AgentContent, LastIntent: "generate_post",
	}))
	require.NoError(t, s.Save(ctx, &types.SessionContext{
		SessionID: "b", UserID: "user-1", AgentKey: types.AgentLeads, LastIntent: "follow_up_lead",
	}))

	gotContent, err := s.Load(ctx, types.AgentContent, "user-1")
	require.NoError(t, err)
	gotLeads, err := s.Load(ctx, types.AgentLeads, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "generate_post", gotContent.LastIntent)
	assert.Equal(t, "follow_up_lead", gotLeads.LastIntent)
}

func TestSQLiteClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &types.SessionContext{
		SessionID: "s-1", UserID: "user-1", AgentKey: types.AgentCopilot,
	}))
	require.NoError(t, s.Clear(ctx, types.AgentCopilot, "user-1"))

	got, err := s.Load(ctx, types.AgentCopilot, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, s.Clear(ctx, types.AgentCopilot, "user-1"))
}

func TestSQLiteCorruptPayloadTreatedAsMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (agent_key, user_id, payload, updated_at)
VALUES ('copilot', 'user-1', 'not json at all', ?)`, time.Now().UTC())
	require.NoError(t, err)

	got, err := s.Load(ctx, types.AgentCopilot, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got, "corrupt payload should load as a fresh session")
}

func TestSQLiteSweep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (agent_key, user_id, payload, updated_at)
VALUES ('copilot', 'stale', '{}', ?)`, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, &types.SessionContext{
		SessionID: "fresh", UserID: "fresh", AgentKey: types.AgentCopilot,
	}))

	n, err := s.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stale, _ := s.Load(ctx, types.AgentCopilot, "stale")
	fresh, _ := s.Load(ctx, types.AgentCopilot, "fresh")
	assert.Nil(t, stale)
	assert.NotNil(t, fresh)
}
