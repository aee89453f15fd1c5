package htmlimg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSources(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected []string
	}{
		{"empty", "", nil},
		{"no images", "<p>plain text</p>", nil},
		{"single image", `<img src="https://cdn.example.com/a.jpg">`, []string{"https://cdn.example.com/a.jpg"}},
		{
			"nested images keep order",
			`<div><p><img src="/one.png"></p><img src="/two.png"></div>`,
			[]string{"/one.png", "/two.png"},
		},
		{
			"duplicates preserved",
			`<img src="/same.jpg"><img src="/same.jpg">`,
			[]string{"/same.jpg", "/same.jpg"},
		},
		{"img without src", `<img alt="broken">`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := ExtractSources(tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sources)
		})
	}
}

func TestRewriteSources(t *testing.T) {
	resolve := func(src string) string {
		if strings.HasPrefix(src, "https://remote.example.com/") {
			return strings.Replace(src, "https://remote.example.com/", "https://media.local/", 1)
		}
		return ""
	}

	tests := []struct {
		name     string
		fragment string
		expected string
	}{
		{
			"remote src replaced",
			`<p><img src="https://remote.example.com/p/1.jpg"/></p>`,
			`<p><img src="https://media.local/p/1.jpg"/></p>`,
		},
		{
			"local src untouched",
			`<img src="https://media.local/p/2.jpg"/>`,
			`<img src="https://media.local/p/2.jpg"/>`,
		},
		{
			"surrounding markup survives",
			`<h3>Overview</h3><p>text <img src="https://remote.example.com/x.png"/> more</p>`,
			`<h3>Overview</h3><p>text <img src="https://media.local/x.png"/> more</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteSources(tt.fragment, resolve)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveAgainst(t *testing.T) {
	const base = "https://api.example.com/api"

	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"absolute passes through", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"path-only takes the base host", "/uploads/photo.png", "https://api.example.com/uploads/photo.png"},
		{"protocol-relative takes the base scheme", "//cdn.example.com/b.jpg", "https://cdn.example.com/b.jpg"},
		{"relative resolves against the base path", "img/c.png", "https://api.example.com/img/c.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveAgainst(base, tt.src))
		})
	}
}

func TestRewriteSourcesAllResolved(t *testing.T) {
	fragment := `<div><img src="/a.jpg"><img src="/b.jpg"></div>`

	got, err := RewriteSources(fragment, func(string) string { return "/rewritten.jpg" })
	require.NoError(t, err)

	sources, err := ExtractSources(got)
	require.NoError(t, err)
	assert.Equal(t, []string{"/rewritten.jpg", "/rewritten.jpg"}, sources)
}
