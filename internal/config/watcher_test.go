package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizpilot/internal/perception"
	"bizpilot/internal/types"
)

const watcherTaxonomy = `
domains:
  - domain: content_agent
    keywords: [post]
    intents:
      - name: generate_post
        keywords: [post]
`

func TestTaxonomyWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(watcherTaxonomy), 0o644))

	reloaded := make(chan []perception.DomainTaxonomy, 1)
	w, err := NewTaxonomyWatcher(path, func(taxonomy []perception.DomainTaxonomy) {
		select {
		case reloaded <- taxonomy:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	updated := `
domains:
  - domain: leads_agent
    keywords: [lead]
    intents:
      - name: add_lead
        keywords: [add a lead]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case taxonomy := <-reloaded:
		require.Len(t, taxonomy, 1)
		assert.Equal(t, types.AgentLeads, taxonomy[0].Domain)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never delivered the reloaded taxonomy")
	}
}

func TestTaxonomyWatcherKeepsTablesOnBrokenWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(watcherTaxonomy), 0o644))

	reloaded := make(chan struct{}, 1)
	w, err := NewTaxonomyWatcher(path, func([]perception.DomainTaxonomy) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(":::: not yaml"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("broken taxonomy must not be delivered")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestTaxonomyWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(watcherTaxonomy), 0o644))

	reloaded := make(chan struct{}, 1)
	w, err := NewTaxonomyWatcher(path, func([]perception.DomainTaxonomy) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("unrelated file must not trigger a reload")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestTaxonomyWatcherStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(watcherTaxonomy), 0o644))

	w, err := NewTaxonomyWatcher(path, func([]perception.DomainTaxonomy) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
