package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

const minPrimarySummary = 5

// primaryExtractor handles the curated dictionary source. Its pages carry
// short definitions, so the psychological and traditional fields are filled
// from templates.
type primaryExtractor struct {
	fetcher crawler.Fetcher
	lex     *lexicon.Lexicon
	minLen  int
}

func (e *primaryExtractor) Extract(ctx context.Context, task crawler.CandidateTask) (crawler.LocaleBlock, error) {
	doc, err := fetchDocument(ctx, e.fetcher, task.URL, false)
	if err != nil {
		return crawler.LocaleBlock{}, err
	}

	title := task.Keyword
	if heading := firstHeading(doc); heading != "" && !e.lex.MentionsBlacklisted(heading) {
		title = heading
	}

	var summary string
	if paras := paragraphs(doc.Selection, e.lex, e.minLen); len(paras) > 0 {
		summary = strings.Join(firstN(paras, 2), "<br><br>")
	} else if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		summary = lexicon.Clean(desc)
	}
	summary = e.lex.Debrand(summary)
	if lexicon.Len(summary) < minPrimarySummary {
		return crawler.LocaleBlock{}, crawler.ErrNoContent
	}

	return crawler.LocaleBlock{
		Name:     title,
		Subname:  task.Keyword,
		Summary:  summary,
		Psych1:   fmt.Sprintf("从心理学角度看，%s通常象征潜意识中的某种投射。", task.Keyword),
		TradGood: fmt.Sprintf("梦见%s，需结合梦境氛围判断吉凶。", task.Keyword),
	}, nil
}
