package config

// Fetcher identity sent with every request.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

var (
	chinesePatterns = []string{"jiemeng", "meng", ".htm", "show"}
	englishPatterns = []string{"/dream/", "/dictionary/", "/meaning/", "/symbol/", "encyclopaedia"}
)

// DefaultSources lists the sites crawled when no sources are configured.
// The primary source comes first so it wins keyword collisions.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:               "dreaminterpreter",
			SourceKind:         "primary_detail",
			IndexURLs:          []string{"https://dreaminterpreter.ai/zh-tw/dream-dictionary"},
			LanguageTag:        "zh-TW",
			URLIncludePatterns: []string{"/definition/"},
			MinParagraphLength: 20,
		},
		{
			Name:       "chinese",
			SourceKind: "generic_zh",
			IndexURLs: []string{
				"https://tools.2345.com/m/zhgjm.htm",
				"https://www.mxyn.com/",
				"https://www.ibazi.cn/jiemeng/",
			},
			LanguageTag:        "zh-CN",
			URLIncludePatterns: append([]string(nil), chinesePatterns...),
			MinParagraphLength: 15,
		},
		{
			Name:       "english",
			SourceKind: "generic_en",
			IndexURLs: []string{
				"https://www.dreamly-app.com/dream/",
				"https://dreamybot.com/",
				"https://www.dreammoods.com/",
				"https://baddreamdictionary.com/",
				"https://www.dreamdictionary.org/",
				"https://www.psychologistworld.com/dreams/dictionary/",
				"https://www.dreams.co.uk/sleep-matters-club/dream-encyclopaedia",
			},
			LanguageTag:        "en",
			URLIncludePatterns: append([]string(nil), englishPatterns...),
			MinParagraphLength: 30,
		},
		{
			Name:               "verywellmind",
			SourceKind:         "generic_en",
			IndexURLs:          []string{"https://www.verywellmind.com/dream-interpretation-what-do-dreams-mean-2795930"},
			LanguageTag:        "en",
			URLIncludePatterns: append(append([]string(nil), englishPatterns...), ".htm"),
			MinParagraphLength: 30,
		},
	}
}
