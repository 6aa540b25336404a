// Package dedup tracks which keywords and record ids are already known so a
// keyword is extracted at most once across runs.
package dedup

import (
	"sync"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/naming"
)

// Set is one membership set holding both keywords and ids. It is safe for
// concurrent use.
type Set struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{members: make(map[string]struct{})}
}

// Seed adds the keyword, id and Chinese name of every record. The name is
// an extra key so pages titled with a known keyword are not fetched again.
func (s *Set) Seed(records []crawler.SymbolRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		for _, key := range []string{rec.CanonicalKeyword(), rec.ID, rec.ZH.Name} {
			if key != "" {
				s.members[key] = struct{}{}
			}
		}
	}
}

// IsNew reports whether keyword has not been seen, either directly or
// through the id it would be stored under.
func (s *Set) IsNew(keyword string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.members[keyword]; ok {
		return false
	}
	_, ok := s.members[naming.ID(keyword)]
	return !ok
}

// Admit marks keyword and id as known.
func (s *Set) Admit(keyword, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[keyword] = struct{}{}
	if id != "" {
		s.members[id] = struct{}{}
	}
}

// Len returns the number of members, keywords and ids combined.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Filter splits tasks into those still new and those already known. Repeats
// of a keyword within tasks after its first occurrence count as known.
// Filtering does not admit anything.
func (s *Set) Filter(tasks []crawler.CandidateTask) (fresh, known []crawler.CandidateTask) {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.Keyword]; dup || !s.IsNew(t.Keyword) {
			known = append(known, t)
			continue
		}
		seen[t.Keyword] = struct{}{}
		fresh = append(fresh, t)
	}
	return fresh, known
}
