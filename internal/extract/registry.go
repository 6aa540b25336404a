// Package extract parses detail pages into locale blocks. Each source kind
// has exactly one extractor; the registry refuses to build if a known kind
// has none.
package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

// Default minimum paragraph lengths, in characters.
const (
	DefaultPrimaryMinParagraph   = 20
	DefaultGenericZHMinParagraph = 15
	DefaultGenericENMinParagraph = 30
)

// Config carries extraction tuning. MinParagraph sets per-kind defaults;
// a profile with a positive MinParagraphLength overrides it for the tasks it
// produced. Zero values select the built-in defaults.
type Config struct {
	MinParagraph map[crawler.SourceKind]int
	Profiles     []crawler.SourceProfile
}

// Registry dispatches a task to the extractor matching its source kind, or
// to the one built for its profile's own paragraph threshold.
type Registry struct {
	extractors map[crawler.SourceKind]crawler.Extractor
	bySource   map[string]crawler.Extractor
	logger     *zap.Logger
}

var _ crawler.Extractor = (*Registry)(nil)

// NewRegistry builds one extractor per known source kind.
func NewRegistry(fetcher crawler.Fetcher, lex *lexicon.Lexicon, cfg Config, logger *zap.Logger) (*Registry, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract: fetcher is required")
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		extractors: make(map[crawler.SourceKind]crawler.Extractor),
		bySource:   make(map[string]crawler.Extractor),
		logger:     logger,
	}
	for _, kind := range crawler.SourceKinds() {
		ext, err := newExtractor(kind, fetcher, lex, cfg.minParagraph(kind))
		if err != nil {
			return nil, err
		}
		r.extractors[kind] = ext
	}
	for _, p := range cfg.Profiles {
		if p.MinParagraphLength <= 0 || p.MinParagraphLength == cfg.minParagraph(p.Kind) {
			continue
		}
		ext, err := newExtractor(p.Kind, fetcher, lex, p.MinParagraphLength)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		r.bySource[sourceKey(p.Name, p.Kind)] = ext
	}
	return r, nil
}

func sourceKey(name string, kind crawler.SourceKind) string {
	return string(kind) + "/" + name
}

func newExtractor(kind crawler.SourceKind, fetcher crawler.Fetcher, lex *lexicon.Lexicon, minLen int) (crawler.Extractor, error) {
	switch kind {
	case crawler.SourceKindPrimaryDetail:
		return &primaryExtractor{fetcher: fetcher, lex: lex, minLen: minLen}, nil
	case crawler.SourceKindGenericZH:
		return &chineseExtractor{fetcher: fetcher, lex: lex, minLen: minLen}, nil
	case crawler.SourceKindGenericEN:
		return &englishExtractor{fetcher: fetcher, lex: lex, minLen: minLen}, nil
	default:
		return nil, fmt.Errorf("extract: no extractor for source kind %q", kind)
	}
}

// Extract runs the extractor registered for task.Source, falling back to
// the one for task.Kind.
func (r *Registry) Extract(ctx context.Context, task crawler.CandidateTask) (crawler.LocaleBlock, error) {
	ext, ok := r.bySource[sourceKey(task.Source, task.Kind)]
	if !ok {
		ext, ok = r.extractors[task.Kind]
	}
	if !ok {
		return crawler.LocaleBlock{}, fmt.Errorf("extract: unknown source kind %q", task.Kind)
	}
	block, err := ext.Extract(ctx, task)
	if err != nil {
		return crawler.LocaleBlock{}, fmt.Errorf("extract %s (%s): %w", task.Keyword, task.Kind, err)
	}
	r.logger.Debug("extracted",
		zap.String("keyword", task.Keyword),
		zap.String("source_kind", string(task.Kind)),
		zap.Int("summary_chars", lexicon.Len(block.Summary)),
	)
	return block, nil
}

func (c Config) minParagraph(kind crawler.SourceKind) int {
	if n, ok := c.MinParagraph[kind]; ok && n > 0 {
		return n
	}
	switch kind {
	case crawler.SourceKindPrimaryDetail:
		return DefaultPrimaryMinParagraph
	case crawler.SourceKindGenericZH:
		return DefaultGenericZHMinParagraph
	default:
		return DefaultGenericENMinParagraph
	}
}

func fetchDocument(ctx context.Context, fetcher crawler.Fetcher, rawURL string, detectCharset bool) (*goquery.Document, error) {
	resp, err := fetcher.Fetch(ctx, crawler.FetchRequest{URL: rawURL, DetectCharset: detectCharset})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, crawler.ErrNoContent)
	}
	return doc, nil
}

func firstHeading(doc *goquery.Document) string {
	return lexicon.Clean(doc.Find("h1").First().Text())
}

// paragraphs returns the cleaned text of every <p> under sel that is longer
// than minLen characters and free of blacklisted terms.
func paragraphs(sel *goquery.Selection, lex *lexicon.Lexicon, minLen int) []string {
	var out []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := lexicon.Clean(p.Text())
		if lexicon.Len(text) > minLen && !lex.MentionsBlacklisted(text) {
			out = append(out, text)
		}
	})
	return out
}

func firstN(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
