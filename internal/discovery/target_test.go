package discovery

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://Dreams.Example.com:443/dictionary/")
	require.NoError(t, err)

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{href: "water", want: "https://dreams.example.com/dictionary/water", ok: true},
		{href: "/meaning/water#top", want: "https://dreams.example.com/meaning/water", ok: true},
		{href: "/symbol?b=2&a=1", want: "https://dreams.example.com/symbol?a=1&b=2", ok: true},
		{href: "HTTP://Other.Example.com:80/dream/fire", want: "http://other.example.com/dream/fire", ok: true},
		{href: "  /dream/snake  ", want: "https://dreams.example.com/dream/snake", ok: true},
		{href: "mailto:editor@example.com", ok: false},
		{href: "javascript:void(0)", ok: false},
	}
	for _, tt := range tests {
		got, ok := resolveTarget(base, tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.href)
		}
	}
}
