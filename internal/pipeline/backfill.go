package pipeline

import (
	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/naming"
)

const untranslatedNotice = "<strong>(此条目源自英文网站，暂未翻译)</strong><br><br>"

// buildRecord places the native block under its locale and synthesizes the
// other one, so every record carries both.
func buildRecord(task crawler.CandidateTask, native crawler.LocaleBlock) crawler.SymbolRecord {
	rec := crawler.SymbolRecord{
		ID:       naming.ID(task.Keyword),
		Filename: naming.Filename(task.Keyword),
		Meta: crawler.RecordMeta{
			SourceURL: task.URL,
			Origin:    task.Kind,
			Keyword:   task.Keyword,
		},
	}
	if task.Kind.Locale() == crawler.LocaleEN {
		rec.EN = native
		rec.ZH = chineseStandIn(task.Keyword, native)
	} else {
		rec.ZH = native
		rec.EN = englishStandIn(task.Kind, task.Keyword)
	}
	return rec
}

// chineseStandIn shows the English text under a translation-pending notice.
func chineseStandIn(keyword string, en crawler.LocaleBlock) crawler.LocaleBlock {
	zh := en
	zh.Name = keyword
	zh.Summary = untranslatedNotice + en.Summary
	return zh
}

func englishStandIn(kind crawler.SourceKind, keyword string) crawler.LocaleBlock {
	if kind == crawler.SourceKindPrimaryDetail {
		return crawler.LocaleBlock{
			Name:    keyword,
			Subname: "Interpretation",
			Summary: "Content available in Chinese.",
			Psych1:  "...",
		}
	}
	return crawler.LocaleBlock{
		Name:    keyword,
		Subname: "Chinese Source",
		Summary: "This entry comes from a Chinese source.",
		Psych1:  "...",
	}
}
