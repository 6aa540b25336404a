package dedup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/naming"
)

func TestSeedFromRecords(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed([]crawler.SymbolRecord{
		{ID: naming.ID("水"), Meta: crawler.RecordMeta{Keyword: "水"}},
		{ID: "auto_legacy_猫", ZH: crawler.LocaleBlock{Name: "猫"}},
	})

	assert.False(t, s.IsNew("水"))
	assert.False(t, s.IsNew("猫"), "legacy records fall back to zh.name")
	assert.True(t, s.IsNew("蛇"))
	assert.Equal(t, 4, s.Len())
}

func TestSeedLegacyRecordsSharingName(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed([]crawler.SymbolRecord{
		{ID: "auto_aaaaaaaa_蛇", ZH: crawler.LocaleBlock{Name: "周公解梦"}},
		{ID: "auto_bbbbbbbb_水", ZH: crawler.LocaleBlock{Name: "周公解梦"}},
	})

	assert.False(t, s.IsNew("蛇"))
	assert.False(t, s.IsNew("水"))
	assert.False(t, s.IsNew("周公解梦"))
	assert.Equal(t, 5, s.Len())
}

func TestIsNewMatchesDerivedID(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed([]crawler.SymbolRecord{{ID: naming.ID("falling"), ZH: crawler.LocaleBlock{Name: "坠落"}}})
	assert.False(t, s.IsNew("falling"))
}

func TestAdmit(t *testing.T) {
	t.Parallel()

	s := New()
	require.True(t, s.IsNew("water"))
	s.Admit("water", naming.ID("water"))
	assert.False(t, s.IsNew("water"))
	assert.Equal(t, 2, s.Len())

	s.Admit("fire", "")
	assert.False(t, s.IsNew("fire"))
	assert.Equal(t, 3, s.Len())
}

func TestFilter(t *testing.T) {
	t.Parallel()

	s := New()
	s.Admit("水", naming.ID("水"))
	tasks := []crawler.CandidateTask{
		{Keyword: "水", URL: "a"},
		{Keyword: "火", URL: "b"},
		{Keyword: "火", URL: "c"},
		{Keyword: "山", URL: "d"},
	}

	fresh, known := s.Filter(tasks)
	require.Len(t, known, 2)
	assert.Equal(t, "a", known[0].URL)
	assert.Equal(t, "c", known[1].URL)
	require.Len(t, fresh, 2)
	assert.Equal(t, "b", fresh[0].URL)
	assert.Equal(t, "d", fresh[1].URL)
	assert.True(t, s.IsNew("火"), "filtering does not admit")
}

func TestConcurrentAdmit(t *testing.T) {
	t.Parallel()

	s := New()
	var wg sync.WaitGroup
	for _, kw := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Admit(kw, naming.ID(kw))
			_ = s.IsNew(kw)
		}()
	}
	wg.Wait()
	assert.Equal(t, 12, s.Len())
}
