package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	collyfetcher "github.com/JakeFAU/dream-symbol-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/lexicon"
)

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClassifier() *Classifier {
	return New(collyfetcher.New(collyfetcher.Config{}, nil), lexicon.Default(), nil)
}

func TestDiscoverBlacklistScenario(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/": `<html><body>
			<a href="/meaning/water">梦见水</a>
			<a href="/login">登录</a>
		</body></html>`,
	})
	profile := crawler.SourceProfile{
		Name:               "zh-test",
		Kind:               crawler.SourceKindGenericZH,
		IndexURLs:          []string{srv.URL + "/"},
		URLIncludePatterns: []string{"/meaning/", "login"},
	}

	tasks, err := newClassifier().Discover(context.Background(), profile)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "梦见水", tasks[0].Keyword)
	assert.Equal(t, srv.URL+"/meaning/water", tasks[0].URL)
	assert.Equal(t, crawler.SourceKindGenericZH, tasks[0].Kind)
}

func TestDiscoverFilterChain(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/dict/": `<html><body>
			<a href="/dream/snake">About Snakes</a>
			<a href="/dream/x">X</a>
			<a href="/dream/long">` + "A very long anchor text that keeps going past thirty" + `</a>
			<a href="/dream/pct">%开始 dreaming</a>
			<a href="/dream/hash">#top</a>
			<a href="/dream/url">see http://x</a>
			<a href="/dream/home">HOME</a>
			<a href="/about/cat">Cats</a>
			<a href="/dream/falling">  Falling
			 Teeth </a>
			<a href="/dream/falling-2">Falling Teeth</a>
		</body></html>`,
	})
	profile := crawler.SourceProfile{
		Name:               "en-test",
		Kind:               crawler.SourceKindGenericEN,
		IndexURLs:          []string{srv.URL + "/dict/"},
		URLIncludePatterns: []string{"/dream/"},
	}

	tasks, err := newClassifier().Discover(context.Background(), profile)
	require.NoError(t, err)

	got := map[string]string{}
	for _, task := range tasks {
		got[task.Keyword] = task.URL
	}
	assert.Equal(t, map[string]string{
		"Snakes": srv.URL + "/dream/snake",
		// last seen wins within a pass
		"Falling Teeth": srv.URL + "/dream/falling-2",
	}, got)
}

func TestDiscoverPrimaryPrefersPathSegment(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/zh-tw/dream-dictionary": `<html><body>
			<a href="/zh-tw/dream-dictionary/definition/%E8%9B%87">看看蛇的解释</a>
			<a href="/zh-tw/dream-dictionary/definition/big-black_dog">狗</a>
			<a href="/zh-tw/dream-dictionary/definition/">火车站</a>
			<a href="/zh-tw/dream-dictionary/definition/Login">登入</a>
			<a href="/zh-tw/other/%E6%B0%B4%E6%B1%A0">水池</a>
		</body></html>`,
	})
	profile := crawler.SourceProfile{
		Name:               "primary",
		Kind:               crawler.SourceKindPrimaryDetail,
		IndexURLs:          []string{srv.URL + "/zh-tw/dream-dictionary"},
		URLIncludePatterns: []string{"/definition/"},
	}

	tasks, err := newClassifier().Discover(context.Background(), profile)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, task := range tasks {
		got[task.Keyword] = true
	}
	assert.Equal(t, map[string]bool{"big black dog": true, "火车站": true}, got)
}

func TestDiscoverSkipsFailingIndex(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/ok": `<a href="/jiemeng/1.htm">梦见大蛇</a>`,
	})
	profile := crawler.SourceProfile{
		Name:               "zh",
		Kind:               crawler.SourceKindGenericZH,
		IndexURLs:          []string{srv.URL + "/gone", srv.URL + "/ok"},
		URLIncludePatterns: []string{"jiemeng"},
	}

	tasks, err := newClassifier().Discover(context.Background(), profile)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "大蛇", tasks[0].Keyword)
}

func TestDiscoverCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClassifier().Discover(ctx, crawler.SourceProfile{IndexURLs: []string{"http://127.0.0.1:1/"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlacklistNeverPasses(t *testing.T) {
	t.Parallel()

	c := newClassifier()
	base, err := url.Parse("https://x.test/")
	require.NoError(t, err)
	profile := crawler.SourceProfile{Kind: crawler.SourceKindGenericEN, URLIncludePatterns: []string{"/dream/"}}
	for _, term := range lexicon.DefaultBlacklist {
		if lexicon.Len(term) < 2 {
			continue
		}
		for _, variant := range []string{term, swapCase(term)} {
			_, ok := c.classify(profile, base, variant, "/dream/"+url.PathEscape(variant))
			assert.False(t, ok, variant)
		}
	}
}

func TestKeywordFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/definition/%E8%9B%87":        "蛇",
		"/definition/flying-high":      "flying high",
		"/definition/":                 "",
		"https://x.test/definition/a_b": "a b",
		"/definition/%zz":              "",
	}
	for href, want := range cases {
		assert.Equal(t, want, keywordFromPath(href), href)
	}
}

func swapCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			out[i] = r - 'A' + 'a'
		}
	}
	return string(out)
}
