// Package local persists the symbol snapshot as a JSON file on disk.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/storage"
)

// CorruptSuffix marks an unreadable snapshot that was moved aside. The full
// name is <path>.corrupt-<UTC timestamp>, with a counter when that exists.
const CorruptSuffix = ".corrupt"

// Config captures where the snapshot lives and where copies are mirrored.
type Config struct {
	// Path is the snapshot file. Its directory is created if missing.
	Path string `mapstructure:"snapshot_path" yaml:"snapshot_path"`
	// MirrorObject names the object written to the mirror provider.
	// Empty disables mirroring.
	MirrorObject string `mapstructure:"gcs_object" yaml:"gcs_object"`
}

// SnapshotStore reads and atomically rewrites the snapshot file.
type SnapshotStore struct {
	path         string
	mirror       storage.Provider
	mirrorObject string
	hasher       crawler.Hasher
	logger       *zap.Logger

	mu           sync.Mutex
	lastMirrored string
}

var _ crawler.SnapshotStore = (*SnapshotStore)(nil)

// New validates cfg and prepares the snapshot directory. hasher is optional;
// when set, a snapshot whose bytes match the last mirrored copy is not
// uploaded again.
func New(cfg Config, mirror storage.Provider, hasher crawler.Hasher, logger *zap.Logger) (*SnapshotStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(cfg.Path)
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat snapshot directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("snapshot directory %s is not a directory", dir)
	}

	return &SnapshotStore{
		path:         cfg.Path,
		mirror:       mirror,
		mirrorObject: cfg.MirrorObject,
		hasher:       hasher,
		logger:       logger,
	}, nil
}

// Path returns the snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields no records. A corrupt file
// is logged, moved aside with CorruptSuffix, and also yields no records.
func (s *SnapshotStore) Load(ctx context.Context) ([]crawler.SymbolRecord, error) {
	return s.read(ctx, true)
}

// Peek reads the snapshot like Load but never touches the file system, so
// a corrupt file stays where it is.
func (s *SnapshotStore) Peek(ctx context.Context) ([]crawler.SymbolRecord, error) {
	return s.read(ctx, false)
}

func (s *SnapshotStore) read(ctx context.Context, quarantine bool) ([]crawler.SymbolRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []crawler.SymbolRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	records, err := decode(data)
	if err != nil {
		s.logger.Warn("snapshot unreadable, treating as empty",
			zap.String("path", s.path), zap.Error(err))
		if quarantine {
			s.quarantine()
		}
		return []crawler.SymbolRecord{}, nil
	}
	return records, nil
}

// Snapshot replaces the file with records, then mirrors a copy if configured.
// The write goes to a temp file that is synced and renamed into place, so a
// crash leaves either the old or the new snapshot.
func (s *SnapshotStore) Snapshot(ctx context.Context, records []crawler.SymbolRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	data, err := encode(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeAtomic(data); err != nil {
		return err
	}
	s.mirrorCopy(ctx, data)
	return nil
}

// mirrorCopy uploads data to the mirror. Failures are logged only.
func (s *SnapshotStore) mirrorCopy(ctx context.Context, data []byte) {
	if s.mirror == nil || s.mirrorObject == "" {
		return
	}
	var digest string
	if s.hasher != nil {
		d, err := s.hasher.Hash(data)
		if err == nil && d == s.lastMirrored {
			s.logger.Debug("snapshot unchanged, mirror skipped", zap.String("object", s.mirrorObject))
			return
		}
		digest = d
	}
	if err := s.mirror.Save(ctx, s.mirrorObject, data); err != nil {
		s.logger.Warn("snapshot mirror failed",
			zap.String("object", s.mirrorObject), zap.Error(err))
		return
	}
	s.lastMirrored = digest
}

func (s *SnapshotStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // the site build reads this file
		cleanup()
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}

func (s *SnapshotStore) quarantine() {
	target := quarantineTarget(s.path, time.Now().UTC())
	if err := os.Rename(s.path, target); err != nil {
		s.logger.Warn("could not move corrupt snapshot aside",
			zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Info("corrupt snapshot preserved", zap.String("path", target))
}

// quarantineTarget picks a name that does not overwrite an earlier
// quarantined snapshot.
func quarantineTarget(path string, now time.Time) string {
	base := fmt.Sprintf("%s%s-%s", path, CorruptSuffix, now.Format("20060102T150405Z"))
	target := base
	for n := 1; ; n++ {
		if _, err := os.Lstat(target); errors.Is(err, os.ErrNotExist) {
			return target
		}
		target = fmt.Sprintf("%s-%d", base, n)
	}
}

func decode(data []byte) ([]crawler.SymbolRecord, error) {
	var records []crawler.SymbolRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", crawler.ErrCorruptState, err)
	}
	if records == nil {
		records = []crawler.SymbolRecord{}
	}
	return records, nil
}

// encode writes two-space indented JSON with non-ASCII text and HTML
// markup such as <br> left unescaped.
func encode(records []crawler.SymbolRecord) ([]byte, error) {
	if records == nil {
		records = []crawler.SymbolRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
