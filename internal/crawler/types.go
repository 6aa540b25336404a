package crawler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JakeFAU/dream-symbol-crawler/internal/naming"
)

// SourceKind identifies which extraction strategy a source requires.
type SourceKind string

// Supported source kinds. Adding a kind requires a matching extractor; the
// extract registry refuses to build when one is missing.
const (
	SourceKindPrimaryDetail SourceKind = "primary_detail"
	SourceKindGenericZH     SourceKind = "generic_zh"
	SourceKindGenericEN     SourceKind = "generic_en"
)

// Locale keys used inside a SymbolRecord.
const (
	LocaleZH = "zh"
	LocaleEN = "en"
)

// SourceKinds lists every known kind in a stable order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceKindPrimaryDetail, SourceKindGenericZH, SourceKindGenericEN}
}

// ParseSourceKind maps a configuration string onto a SourceKind.
func ParseSourceKind(raw string) (SourceKind, error) {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range SourceKinds() {
		if kind == known {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", raw)
}

// Locale reports which locale block the kind natively produces.
func (k SourceKind) Locale() string {
	if k == SourceKindGenericEN {
		return LocaleEN
	}
	return LocaleZH
}

// SourceProfile is the immutable descriptor of one scrape target.
type SourceProfile struct {
	Name               string
	Kind               SourceKind
	IndexURLs          []string
	LanguageTag        string
	URLIncludePatterns []string
	MinParagraphLength int
}

// MatchesPath reports whether href points at a detail page for this profile.
// Patterns are plain substrings compared against the lowercased href.
func (p SourceProfile) MatchesPath(href string) bool {
	lowered := strings.ToLower(href)
	for _, pattern := range p.URLIncludePatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// CandidateTask is a discovered keyword awaiting extraction. It is never persisted.
type CandidateTask struct {
	Keyword string
	Kind    SourceKind
	URL     string
	// Source names the profile that produced the task, for logging.
	Source string
}

// LocaleBlock is the per-locale content of a symbol record.
type LocaleBlock struct {
	Name     string `json:"name"`
	Subname  string `json:"subname"`
	Summary  string `json:"summary"`
	Psych1   string `json:"psych_1"`
	Psych2   string `json:"psych_2"`
	TradGood string `json:"trad_good"`
	TradBad  string `json:"trad_bad"`
}

// IsZero reports whether the block carries no displayable content.
func (b LocaleBlock) IsZero() bool {
	return strings.TrimSpace(b.Name) == "" && strings.TrimSpace(b.Summary) == ""
}

// RecordMeta carries provenance for a symbol record.
type RecordMeta struct {
	SourceURL string     `json:"source_url"`
	Origin    SourceKind `json:"origin"`
	Keyword   string     `json:"keyword,omitempty"`
}

// SymbolRecord is the durable unit written to the snapshot.
type SymbolRecord struct {
	ID       string      `json:"id"`
	Filename string      `json:"filename"`
	ZH       LocaleBlock `json:"zh"`
	EN       LocaleBlock `json:"en"`
	Meta     RecordMeta  `json:"meta"`
}

// CanonicalKeyword returns the keyword the record was built from. Records
// written before meta.keyword existed recover it from the id, and only
// fall back to the Chinese name when the id is not in the generated form.
func (r SymbolRecord) CanonicalKeyword() string {
	if r.Meta.Keyword != "" {
		return r.Meta.Keyword
	}
	if kw, ok := naming.KeywordFromID(r.ID); ok {
		return kw
	}
	return r.ZH.Name
}

// Validate checks the fields the site-build consumer relies on.
func (r SymbolRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("record id is empty")
	case r.Filename == "":
		return fmt.Errorf("record %s: filename is empty", r.ID)
	case r.ZH.IsZero():
		return fmt.Errorf("record %s: zh block is empty", r.ID)
	case r.EN.IsZero():
		return fmt.Errorf("record %s: en block is empty", r.ID)
	}
	return nil
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL string
	// DetectCharset decodes legacy encodings (GBK, Big5) to UTF-8.
	DetectCharset bool
	Headers       http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
