package store

import (
	"fmt"
	"sync"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/naming"
)

// Catalog is an ordered record collection. Appended records are unique by
// keyword, id and filename. Order follows insertion and only matters for
// stable output.
type Catalog struct {
	mu         sync.RWMutex
	records    []crawler.SymbolRecord
	byKeyword  map[string]int
	byID       map[string]int
	byFilename map[string]int
}

// NewCatalog loads existing records. Every record is kept except a repeat of
// an id already loaded; those are counted in the returned int. When loaded
// records share a keyword or filename, the index points at the first one.
func NewCatalog(existing []crawler.SymbolRecord) (*Catalog, int) {
	c := &Catalog{
		records:    make([]crawler.SymbolRecord, 0, len(existing)),
		byKeyword:  make(map[string]int, len(existing)),
		byID:       make(map[string]int, len(existing)),
		byFilename: make(map[string]int, len(existing)),
	}
	dropped := 0
	for _, rec := range existing {
		if _, ok := c.byID[rec.ID]; ok && rec.ID != "" {
			dropped++
			continue
		}
		c.insert(rec)
	}
	return c, dropped
}

// Append adds rec and returns it as stored. It returns crawler.ErrDuplicate
// when the keyword or id is already present. A filename already used by
// another record is replaced with naming.AlternateFilename.
func (c *Catalog) Append(rec crawler.SymbolRecord) (crawler.SymbolRecord, error) {
	kw := rec.CanonicalKeyword()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[rec.ID]; ok {
		return crawler.SymbolRecord{}, fmt.Errorf("id %s: %w", rec.ID, crawler.ErrDuplicate)
	}
	if _, ok := c.byKeyword[kw]; ok && kw != "" {
		return crawler.SymbolRecord{}, fmt.Errorf("keyword %s: %w", kw, crawler.ErrDuplicate)
	}
	if _, taken := c.byFilename[rec.Filename]; taken {
		alt := naming.AlternateFilename(kw)
		if _, taken := c.byFilename[alt]; taken {
			return crawler.SymbolRecord{}, fmt.Errorf("filename %s: %w", alt, crawler.ErrDuplicate)
		}
		rec.Filename = alt
	}
	c.insert(rec)
	return rec, nil
}

// insert appends rec and indexes every key not yet taken. Callers hold the
// lock or own the catalog exclusively.
func (c *Catalog) insert(rec crawler.SymbolRecord) {
	idx := len(c.records)
	indexOnce(c.byID, rec.ID, idx)
	indexOnce(c.byKeyword, rec.CanonicalKeyword(), idx)
	indexOnce(c.byFilename, rec.Filename, idx)
	c.records = append(c.records, rec)
}

func indexOnce(index map[string]int, key string, idx int) {
	if key == "" {
		return
	}
	if _, ok := index[key]; !ok {
		index[key] = idx
	}
}

// Lookup returns the record stored under keyword.
func (c *Catalog) Lookup(keyword string) (crawler.SymbolRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byKeyword[keyword]
	if !ok {
		return crawler.SymbolRecord{}, false
	}
	return c.records[idx], true
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Clone returns a point-in-time copy suitable for serialization while the
// catalog keeps changing.
func (c *Catalog) Clone() []crawler.SymbolRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]crawler.SymbolRecord, len(c.records))
	copy(out, c.records)
	return out
}
