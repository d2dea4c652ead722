package catalog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seovimalraj/cnc-quote-sub009/internal/catalog"
)

func writeCatalogFile(t *testing.T, dir string, cfg *catalog.Config) string {
	t.Helper()

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, "pricing.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestNewStore(t *testing.T) {
	t.Run("loads and hashes a valid document", func(t *testing.T) {
		path := writeCatalogFile(t, t.TempDir(), validConfig())

		store, err := catalog.NewStore(path)
		require.NoError(t, err)

		snap := store.Snapshot()
		require.Equal(t, "test-1", snap.Config.Version)
		require.NotEmpty(t, snap.Hash)
	})

	t.Run("fails on a missing file", func(t *testing.T) {
		_, err := catalog.NewStore(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})

	t.Run("fails on malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pricing.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := catalog.NewStore(path)
		require.Error(t, err)
	})

	t.Run("rejects an invalid document without defaulting", func(t *testing.T) {
		cfg := validConfig()
		cfg.Materials = nil
		path := writeCatalogFile(t, t.TempDir(), cfg)

		_, err := catalog.NewStore(path)
		require.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})
}

func TestStoreReload(t *testing.T) {
	t.Run("swaps in the new document", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCatalogFile(t, dir, validConfig())

		store, err := catalog.NewStore(path)
		require.NoError(t, err)
		originalHash := store.Snapshot().Hash

		next := validConfig()
		next.Version = "test-2"
		next.Risk.UpliftPct = 0.08
		writeCatalogFile(t, dir, next)

		snap, err := store.Reload()
		require.NoError(t, err)
		require.Equal(t, "test-2", snap.Config.Version)
		require.NotEqual(t, originalHash, snap.Hash)
		require.Equal(t, snap, store.Snapshot())
	})

	t.Run("keeps the previous good snapshot on failure", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCatalogFile(t, dir, validConfig())

		store, err := catalog.NewStore(path)
		require.NoError(t, err)
		before := store.Snapshot()

		broken := validConfig()
		broken.Machines = nil
		writeCatalogFile(t, dir, broken)

		_, err = store.Reload()
		require.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		require.Equal(t, before, store.Snapshot())
	})

	t.Run("store without a backing file cannot reload", func(t *testing.T) {
		snap, err := catalog.Parse(mustMarshal(t, validConfig()))
		require.NoError(t, err)

		store := catalog.NewStoreFromSnapshot(snap)
		_, err = store.Reload()
		require.Error(t, err)
	})
}

func TestSnapshotHash(t *testing.T) {
	t.Run("any config change produces a different hash", func(t *testing.T) {
		base, err := catalog.Parse(mustMarshal(t, validConfig()))
		require.NoError(t, err)

		changed := validConfig()
		changed.Finishes["anodize"] = catalog.Finish{AddPct: 0.11, MinFee: 5, LeadTimeDays: 2}
		other, err := catalog.Parse(mustMarshal(t, changed))
		require.NoError(t, err)

		require.NotEqual(t, base.Hash, other.Hash)
	})
}

func mustMarshal(t *testing.T, cfg *catalog.Config) []byte {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	return raw
}
