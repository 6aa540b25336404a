package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

var contentClass = regexp.MustCompile(`(content|detail|article|desc)`)

// Marker substrings used to route Chinese paragraphs into fields.
var (
	goodMarkers  = []string{"吉", "大吉"}
	badMarkers   = []string{"凶", "忌"}
	psychMarkers = []string{"心理", "意味"}
)

const (
	englishSummaryParagraphs = 3
	englishPsychPlaceholder  = "Psychological interpretation available in summary."
	chineseSubname           = "Chinese Interpretation"
	chineseGoodPlaceholder   = "（吉凶需根据具体情节分析）"
)

// chineseExtractor handles generic Chinese dream sites, which are often
// GBK-encoded and wrap the body in a "content"-like container.
type chineseExtractor struct {
	fetcher crawler.Fetcher
	lex     *lexicon.Lexicon
	minLen  int
}

func (e *chineseExtractor) Extract(ctx context.Context, task crawler.CandidateTask) (crawler.LocaleBlock, error) {
	doc, err := fetchDocument(ctx, e.fetcher, task.URL, true)
	if err != nil {
		return crawler.LocaleBlock{}, err
	}

	title := task.Keyword
	if heading := firstHeading(doc); heading != "" {
		title = heading
	}

	paras := paragraphs(contentContainer(doc), e.lex, e.minLen)
	if len(paras) == 0 {
		return crawler.LocaleBlock{}, crawler.ErrNoContent
	}
	summary := e.lex.Debrand(paras[0])
	if summary == "" {
		return crawler.LocaleBlock{}, crawler.ErrNoContent
	}

	block := crawler.LocaleBlock{
		Name:     title,
		Subname:  chineseSubname,
		Summary:  summary,
		Psych1:   fmt.Sprintf("梦见%s的心理学解析暂缺。", task.Keyword),
		TradGood: chineseGoodPlaceholder,
	}
	if psych := firstWith(paras, psychMarkers); psych != "" {
		block.Psych1 = e.lex.Debrand(psych)
	}
	if good := firstWith(paras, goodMarkers); good != "" {
		block.TradGood = e.lex.Debrand(good)
	}
	if bad := firstWith(paras, badMarkers); bad != "" {
		block.TradBad = e.lex.Debrand(bad)
	}
	return block, nil
}

// englishExtractor handles generic English dream dictionaries. Their prose
// is denser, so it uses a longer paragraph threshold and a longer summary.
type englishExtractor struct {
	fetcher crawler.Fetcher
	lex     *lexicon.Lexicon
	minLen  int
}

func (e *englishExtractor) Extract(ctx context.Context, task crawler.CandidateTask) (crawler.LocaleBlock, error) {
	doc, err := fetchDocument(ctx, e.fetcher, task.URL, false)
	if err != nil {
		return crawler.LocaleBlock{}, err
	}

	title := task.Keyword
	if heading := firstHeading(doc); heading != "" {
		title = heading
	}

	paras := paragraphs(doc.Selection, e.lex, e.minLen)
	if len(paras) == 0 {
		return crawler.LocaleBlock{}, crawler.ErrNoContent
	}
	summary := e.lex.Debrand(strings.Join(firstN(paras, englishSummaryParagraphs), "<br>"))
	if summary == "" {
		return crawler.LocaleBlock{}, crawler.ErrNoContent
	}

	return crawler.LocaleBlock{
		Name:    task.Keyword,
		Subname: title,
		Summary: summary,
		Psych1:  englishPsychPlaceholder,
	}, nil
}

// contentContainer picks the first div whose class looks like a content
// wrapper, falling back to <body> and then the whole document.
func contentContainer(doc *goquery.Document) *goquery.Selection {
	container := doc.Find("div[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return contentClass.MatchString(class)
	}).First()
	if container.Length() > 0 {
		return container
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func firstWith(paras []string, markers []string) string {
	for _, p := range paras {
		for _, m := range markers {
			if strings.Contains(p, m) {
				return p
			}
		}
	}
	return ""
}
