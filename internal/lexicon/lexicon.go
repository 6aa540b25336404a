// Package lexicon holds the fixed word lists used to filter link text and
// clean scraped content, plus the small text helpers built on them.
package lexicon

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	attribution   = regexp.MustCompile(`(?i)(Source|来源|From|Author|By)[:：].*?(\s|$)`)
)

// DefaultBlacklist lists navigation, brand, and UI terms that never name a dream symbol.
var DefaultBlacklist = []string{
	"Dream Interpreter AI", "Dream Interpreter", "DreamMoods", "Psychologist World",
	"Verywell Mind", "Dream Dictionary", "Baddream Dictionary", "DreamyBot",
	"Home", "Menu", "Search", "Account", "Login", "Sign Up", "About Us",
	"Terms", "Privacy", "Contact", "Blog", "Sitemap", "Dictionary",
	"Previous", "Next", "查看更多", "首页", "解梦", "查询", "八字", "算命",
	"English", "Español", "Français", "Deutsch", "Italiano", "Polski", "Português",
	"User", "Profile", "Logout", "All Dreams", "A-Z", "Categories",
	"周公解梦", "解梦大全", "梦境解析",
	"開始", "語言", "繁體", "简体", "Language", "Settings", "App Store", "Google Play",
	"Download", "Mobile", "View", "Read More", "Source", "Author",
	"%", "language", "start", "登录",
}

// DefaultBrands are stripped from summaries so pages do not advertise the origin site.
var DefaultBrands = []string{
	"Dream Interpreter AI", "DreamInterpreter.ai", "周公解梦大全查询", "2345",
	"DreamMoods", "Psychologist World", "Verywell", "Dream Dictionary",
	"DreamyBot", "第一星座", "爱八字",
}

// DefaultPrefixes are leading dream-report phrases removed from keywords.
// Longer prefixes come first so "梦见" wins over "梦".
var DefaultPrefixes = []string{"梦见", "梦到", "梦", "About "}

// Lexicon is immutable once built; share it freely between goroutines.
type Lexicon struct {
	blacklist      []string
	blacklistLower []string
	brands         []string
	prefixes       []string
}

// New builds a Lexicon, substituting the defaults for any empty list.
func New(blacklist, brands, prefixes []string) *Lexicon {
	if len(blacklist) == 0 {
		blacklist = DefaultBlacklist
	}
	if len(brands) == 0 {
		brands = DefaultBrands
	}
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	lex := &Lexicon{
		blacklist: compact(blacklist),
		brands:    compact(brands),
		prefixes:  append([]string(nil), prefixes...),
	}
	lex.blacklistLower = make([]string, len(lex.blacklist))
	for i, term := range lex.blacklist {
		lex.blacklistLower[i] = strings.ToLower(term)
	}
	return lex
}

// Default returns a Lexicon built from the compiled-in lists.
func Default() *Lexicon {
	return New(nil, nil, nil)
}

// IsBlacklisted reports whether text contains any blacklist term, ignoring case.
// Used on link text and headings, where a short UI label should never pass.
func (l *Lexicon) IsBlacklisted(text string) bool {
	lowered := strings.ToLower(text)
	for _, term := range l.blacklistLower {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// MentionsBlacklisted is the case-sensitive variant applied to body paragraphs.
func (l *Lexicon) MentionsBlacklisted(text string) bool {
	for _, term := range l.blacklist {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// StripPrefix removes the first matching dream-report prefix.
func (l *Lexicon) StripPrefix(text string) string {
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

// Debrand strips brand tokens and "Source:"-style attribution from text.
func (l *Lexicon) Debrand(text string) string {
	if text == "" {
		return ""
	}
	for _, brand := range l.brands {
		text = strings.ReplaceAll(text, brand, "")
	}
	text = attribution.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Clean collapses whitespace runs to single spaces and trims the result.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Len counts code points, not bytes, so CJK text is measured by characters.
func Len(text string) int {
	return utf8.RuneCountInString(text)
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
