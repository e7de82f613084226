package urls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_RootPrefix(t *testing.T) {
	g := New("/", "https://example.com")

	assert.Equal(t, "/", g.Path())
	assert.Equal(t, "/docs/intro/setup", g.Path("docs", "intro", "setup"))
	assert.Equal(t, "/docs/setup", g.Path("docs", "", "setup"), "empty segments are skipped")
}

func TestPath_NestedPrefix(t *testing.T) {
	g := New("landing/help", "https://example.com")

	assert.Equal(t, "/landing/help", g.Path())
	assert.Equal(t, "/landing/help/blog/first-post", g.Path("blog", "first-post"))
}

func TestURL_JoinsSiteOrigin(t *testing.T) {
	g := New("/", "https://example.com/")

	assert.Equal(t, "https://example.com/blog", g.URL("blog"))
}

func TestBasePrefix_Normalized(t *testing.T) {
	assert.Equal(t, "", New("/", "").BasePrefix())
	assert.Equal(t, "docs", New("/docs/", "").BasePrefix())
}
