package local_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/hash/sha256"
	"github.com/JakeFAU/dream-symbol-crawler/internal/storage"
	"github.com/JakeFAU/dream-symbol-crawler/internal/storage/local"
)

func sampleRecord() crawler.SymbolRecord {
	return crawler.SymbolRecord{
		ID:       "auto_9460370b_水",
		Filename: "水.html",
		ZH:       crawler.LocaleBlock{Name: "水", Summary: "清水<br><br>浊水"},
		EN:       crawler.LocaleBlock{Name: "水", Summary: "Water & calm"},
		Meta: crawler.RecordMeta{
			SourceURL: "https://zh.test/jiemeng/water.htm",
			Origin:    crawler.SourceKindGenericZH,
			Keyword:   "水",
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("CreatesDirectory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "symbols.json")
		store, err := local.New(local.Config{Path: path}, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())
		assert.DirExists(t, filepath.Dir(path))
	})

	t.Run("MissingPath", func(t *testing.T) {
		t.Parallel()
		_, err := local.New(local.Config{}, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("ParentIsAFile", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{Path: filepath.Join(file, "symbols.json")}, nil, nil, nil)
		assert.Error(t, err)
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	store, err := local.New(local.Config{Path: filepath.Join(t.TempDir(), "symbols.json")}, nil, nil, nil)
	require.NoError(t, err)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "broken"`), 0o600))
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoFileExists(t, path)

	preserved := corruptCopies(t, path)
	require.Len(t, preserved, 1)
	raw, err := os.ReadFile(preserved[0])
	require.NoError(t, err)
	assert.Equal(t, `[{"id": "broken"`, string(raw))
}

func TestLoadCorruptFileKeepsEarlierCopies(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	for _, body := range []string{"{first", "{second"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := store.Load(context.Background())
		require.NoError(t, err)
	}

	preserved := corruptCopies(t, path)
	require.Len(t, preserved, 2)
	var bodies []string
	for _, p := range preserved {
		raw, err := os.ReadFile(p)
		require.NoError(t, err)
		bodies = append(bodies, string(raw))
	}
	assert.ElementsMatch(t, []string{"{first", "{second"}, bodies)
}

func TestPeekLeavesCorruptFileInPlace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	records, err := store.Peek(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.FileExists(t, path)
	assert.Empty(t, corruptCopies(t, path))

	require.NoError(t, store.Snapshot(context.Background(), []crawler.SymbolRecord{sampleRecord()}))
	peeked, err := store.Peek(context.Background())
	require.NoError(t, err)
	require.Len(t, peeked, 1)
	assert.Equal(t, sampleRecord(), peeked[0])
}

func corruptCopies(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + local.CorruptSuffix + "-*")
	require.NoError(t, err)
	return matches
}

func TestSnapshotRoundTripAndFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	rec := sampleRecord()
	require.NoError(t, store.Snapshot(context.Background(), []crawler.SymbolRecord{rec}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"id\""), text)
	assert.Contains(t, text, `"summary": "清水<br><br>浊水"`)
	assert.Contains(t, text, `"Water & calm"`)
	assert.NotContains(t, text, `\u`)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, rec, loaded[0])

	matches, err := filepath.Glob(path + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are renamed or removed")
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.Snapshot(context.Background(), nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestLoadLegacyRecordWithoutKeyword(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	legacy := `[{"id":"auto_1234abcd_猫","filename":"猫.html","zh":{"name":"猫","summary":"s"},"en":{"name":"cat","summary":"s"},"meta":{"source_url":"u","origin":"primary_detail"}}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "猫", records[0].CanonicalKeyword())
}

func TestSnapshotMirrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	mirror := new(storage.MockProvider)
	mirror.On("Save", mock.Anything, "snapshots/symbols.json", mock.MatchedBy(func(b []byte) bool {
		return strings.Contains(string(b), "auto_9460370b_水")
	})).Return(errors.New("bucket unavailable")).Once()

	store, err := local.New(local.Config{Path: path, MirrorObject: "snapshots/symbols.json"}, mirror, nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.Snapshot(context.Background(), []crawler.SymbolRecord{sampleRecord()}),
		"mirror failures never fail the local snapshot")
	assert.FileExists(t, path)
	mirror.AssertExpectations(t)
}

func TestSnapshotCanceled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	store, err := local.New(local.Config{Path: path}, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Snapshot(ctx, nil), context.Canceled)
	assert.NoFileExists(t, path)

	require.NoError(t, store.Snapshot(context.WithoutCancel(ctx), nil))
	assert.FileExists(t, path)
}

func TestSnapshotMirrorSkipsUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "symbols.json")
	mirror := new(storage.MockProvider)
	mirror.On("Save", mock.Anything, "symbols.json", mock.Anything).Return(nil).Twice()

	store, err := local.New(local.Config{Path: path, MirrorObject: "symbols.json"}, mirror, sha256.New(), nil)
	require.NoError(t, err)

	one := []crawler.SymbolRecord{sampleRecord()}
	require.NoError(t, store.Snapshot(context.Background(), one))
	require.NoError(t, store.Snapshot(context.Background(), one))
	require.NoError(t, store.Snapshot(context.Background(), nil))

	mirror.AssertNumberOfCalls(t, "Save", 2)
	mirror.AssertExpectations(t)
}
