package stac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{
			name: "relative sibling",
			base: "https://example.com/stac/catalog.json",
			href: "child.json",
			want: "https://example.com/stac/child.json",
		},
		{
			name: "relative subdirectory",
			base: "https://example.com/stac/catalog.json",
			href: "sub/collection.json",
			want: "https://example.com/stac/sub/collection.json",
		},
		{
			name: "absolute href wins",
			base: "https://example.com/stac/catalog.json",
			href: "https://other.org/catalog.json",
			want: "https://other.org/catalog.json",
		},
		{
			name: "parent directory",
			base: "https://example.com/stac/deep/catalog.json",
			href: "../other.json",
			want: "https://example.com/stac/other.json",
		},
		{
			name: "empty href",
			base: "https://example.com/stac/catalog.json",
			href: "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ResolveReference(tc.base, tc.href))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/STAC/catalog.json",
			want: "https://example.com/STAC/catalog.json",
		},
		{
			name: "strips default https port",
			in:   "https://example.com:443/catalog.json",
			want: "https://example.com/catalog.json",
		},
		{
			name: "strips default http port",
			in:   "http://example.com:80/catalog.json",
			want: "http://example.com/catalog.json",
		},
		{
			name: "keeps explicit nonstandard port",
			in:   "https://example.com:8443/catalog.json",
			want: "https://example.com:8443/catalog.json",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/catalog.json#section",
			want: "https://example.com/catalog.json",
		},
		{
			name: "sorts query parameters",
			in:   "https://example.com/search?f=json&b=2&a=1",
			want: "https://example.com/search?a=1&b=2&f=json",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("same resource maps to one key", func(t *testing.T) {
		t.Parallel()

		a, err := NormalizeURL("HTTPS://Example.com:443/catalog.json#top")
		require.NoError(t, err)
		b, err := NormalizeURL("https://example.com/catalog.json")
		require.NoError(t, err)
		require.Equal(t, a, b)
	})
}
