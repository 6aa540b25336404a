package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata. Any failure is a
// *FetchError or a context error.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Classifier discovers candidate tasks from a source profile's index pages.
type Classifier interface {
	Discover(ctx context.Context, profile SourceProfile) ([]CandidateTask, error)
}

// Extractor turns one candidate task into a locale block. It returns
// ErrNoContent when the page has nothing qualifying.
type Extractor interface {
	Extract(ctx context.Context, task CandidateTask) (LocaleBlock, error)
}

// SnapshotStore loads and rewrites the full record collection. Load may move
// an unreadable snapshot aside; Peek never modifies anything on disk.
type SnapshotStore interface {
	Load(ctx context.Context) ([]SymbolRecord, error)
	Peek(ctx context.Context) ([]SymbolRecord, error)
	Snapshot(ctx context.Context, records []SymbolRecord) error
}

// Clock abstracts time for pacing.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}
