// Package discovery turns source index pages into candidate keyword tasks.
//
// Link classification is a heuristic: anchors are filtered by text length,
// text shape, a blacklist, and a per-source path predicate, then normalized
// by stripping dream-report prefixes. It makes no claim of correctness
// against arbitrary markup.
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

const (
	minTextLen = 2
	maxTextLen = 30
)

// Classifier implements crawler.Classifier over goquery-parsed index pages.
type Classifier struct {
	fetcher crawler.Fetcher
	lex     *lexicon.Lexicon
	logger  *zap.Logger
}

var _ crawler.Classifier = (*Classifier)(nil)

// New builds a Classifier.
func New(fetcher crawler.Fetcher, lex *lexicon.Lexicon, logger *zap.Logger) *Classifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{fetcher: fetcher, lex: lex, logger: logger}
}

// Discover fetches every index URL of profile and returns its candidate
// tasks, deduplicated by keyword (last seen wins). A failing index URL is
// logged and skipped; an error is returned only when ctx ends.
func (c *Classifier) Discover(ctx context.Context, profile crawler.SourceProfile) ([]crawler.CandidateTask, error) {
	byKeyword := make(map[string]crawler.CandidateTask)
	var order []string

	for _, indexURL := range profile.IndexURLs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discover %s: %w", profile.Name, err)
		}
		tasks, err := c.discoverIndex(ctx, profile, indexURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("discover %s: %w", profile.Name, ctx.Err())
			}
			c.logger.Warn("index fetch failed",
				zap.String("source", profile.Name),
				zap.String("url", indexURL),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("index scanned",
			zap.String("source", profile.Name),
			zap.String("url", indexURL),
			zap.Int("candidates", len(tasks)),
		)
		for _, task := range tasks {
			if _, seen := byKeyword[task.Keyword]; !seen {
				order = append(order, task.Keyword)
			}
			byKeyword[task.Keyword] = task
		}
	}

	out := make([]crawler.CandidateTask, 0, len(order))
	for _, kw := range order {
		out = append(out, byKeyword[kw])
	}
	return out, nil
}

func (c *Classifier) discoverIndex(
	ctx context.Context,
	profile crawler.SourceProfile,
	indexURL string,
) ([]crawler.CandidateTask, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}
	resp, err := c.fetcher.Fetch(ctx, crawler.FetchRequest{
		URL:           indexURL,
		DetectCharset: profile.Kind == crawler.SourceKindGenericZH,
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse index document: %w", err)
	}

	var tasks []crawler.CandidateTask
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		task, ok := c.classify(profile, base, lexicon.Clean(a.Text()), strings.TrimSpace(href))
		if ok {
			tasks = append(tasks, task)
		}
	})
	return tasks, nil
}

// classify applies the filter chain to one anchor.
func (c *Classifier) classify(
	profile crawler.SourceProfile,
	base *url.URL,
	text string,
	href string,
) (crawler.CandidateTask, bool) {
	if href == "" {
		return crawler.CandidateTask{}, false
	}
	if profile.Kind == crawler.SourceKindPrimaryDetail {
		if fromURL := keywordFromPath(href); fromURL != "" {
			text = fromURL
		}
	}
	if !c.acceptText(text) {
		return crawler.CandidateTask{}, false
	}
	if !profile.MatchesPath(href) {
		return crawler.CandidateTask{}, false
	}
	keyword, ok := c.normalize(text)
	if !ok {
		return crawler.CandidateTask{}, false
	}
	target, ok := resolveTarget(base, href)
	if !ok {
		return crawler.CandidateTask{}, false
	}
	return crawler.CandidateTask{
		Keyword: keyword,
		Kind:    profile.Kind,
		URL:     target,
		Source:  profile.Name,
	}, true
}

// acceptText runs the length, shape, and blacklist filters.
func (c *Classifier) acceptText(text string) bool {
	n := lexicon.Len(text)
	if n < minTextLen || n > maxTextLen {
		return false
	}
	if strings.HasPrefix(text, "%") || strings.HasPrefix(text, "#") || strings.Contains(text, "http") {
		return false
	}
	return !c.lex.IsBlacklisted(text)
}

// normalize strips a dream-report prefix and re-checks the blacklist. A
// prefix is only removed when at least two characters remain, so "梦见水"
// stays whole while "梦见大蛇" becomes "大蛇".
func (c *Classifier) normalize(text string) (string, bool) {
	keyword := strings.TrimSpace(text)
	if stripped := strings.TrimSpace(c.lex.StripPrefix(keyword)); lexicon.Len(stripped) > 1 {
		keyword = stripped
	}
	if lexicon.Len(keyword) <= 1 {
		return "", false
	}
	if c.lex.IsBlacklisted(keyword) {
		return "", false
	}
	return keyword, true
}

// keywordFromPath derives a keyword from the href's trailing path segment,
// percent-decoded with hyphen and underscore separators turned into spaces.
// It returns "" when the href ends in a slash or cannot be parsed.
func keywordFromPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	escaped := u.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	if segment == "" {
		return ""
	}
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return ""
	}
	decoded = strings.NewReplacer("-", " ", "_", " ").Replace(decoded)
	return lexicon.Clean(decoded)
}
