package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContentTree lays out the three content roots with a handful of
// cross-linkable files and returns a Renderer bound to them.
func testContentTree(t *testing.T) (*Renderer, string) {
	t.Helper()
	root := t.TempDir()

	files := []string{
		"docs/0-getting-started/01-introduction.md",
		"docs/0-getting-started/02-configuration.md",
		"docs/1-advanced/01-customization.md",
		"blog/2024-01-15-first-post/post.md",
		"pages/about.md",
	}
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# Title\n"), 0o644))
	}
	// A markdown file outside every content root.
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.md"), []byte("x"), 0o644))

	r := New(Options{
		DocsDir:    filepath.Join(root, "docs"),
		BlogDir:    filepath.Join(root, "blog"),
		PagesDir:   filepath.Join(root, "pages"),
		DocsPrefix: "docs",
		BlogPrefix: "blog",
		PathFunc: func(segments ...string) string {
			return "/" + strings.Join(segments, "/")
		},
	}, nil)
	return r, root
}

func TestResolveContentLinks_RewritesDocLink(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<p><a href="02-configuration.md">Config</a></p>`

	out, errs := r.ResolveContentLinks(html, source)

	require.Empty(t, errs)
	assert.Equal(t, `<p><a href="/docs/getting-started/configuration">Config</a></p>`, out)
}

func TestResolveContentLinks_RelativeTraversal(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/1-advanced/01-customization.md")
	html := `<a href="../0-getting-started/01-introduction.md">Intro</a>`

	out, errs := r.ResolveContentLinks(html, source)

	require.Empty(t, errs)
	assert.Contains(t, out, `href="/docs/getting-started/introduction"`)
}

func TestResolveContentLinks_PreservesFragment(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<a href="02-configuration.md#setup">Config</a>`

	out, errs := r.ResolveContentLinks(html, source)

	require.Empty(t, errs)
	assert.Contains(t, out, `href="/docs/getting-started/configuration#setup"`)
}

func TestResolveContentLinks_BlogPostTarget(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "pages/about.md")
	html := `<a href="../blog/2024-01-15-first-post/post.md">Post</a>`

	out, errs := r.ResolveContentLinks(html, source)

	require.Empty(t, errs)
	assert.Contains(t, out, `href="/blog/first-post"`)
}

func TestResolveContentLinks_PageTarget(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<a href="../../pages/about.md">About</a>`

	out, errs := r.ResolveContentLinks(html, source)

	require.Empty(t, errs)
	assert.Contains(t, out, `href="/about"`)
}

func TestResolveContentLinks_BrokenLink_DroppedWithWarning(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<p><a href="missing.md">Gone</a></p>`

	out, errs := r.ResolveContentLinks(html, source)

	assert.Equal(t, `<p>Gone</p>`, out, "link drops to its inner text")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Broken link")
	assert.Contains(t, errs[0], "01-introduction.md")
}

func TestResolveContentLinks_OutsideContentRoots_DroppedWithWarning(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<a href="../../stray.md">Stray</a>`

	out, errs := r.ResolveContentLinks(html, source)

	assert.Equal(t, `Stray`, out)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Cannot resolve URL")
}

func TestResolveContentLinks_AbsoluteURL_Untouched(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "docs/0-getting-started/01-introduction.md")
	html := `<a href="https://example.com/readme.md">External</a>`

	out, errs := r.ResolveContentLinks(html, source)

	assert.Equal(t, html, out)
	assert.Empty(t, errs)
}

func TestResolveContentLinks_NonMarkdownLinks_Ignored(t *testing.T) {
	r, root := testContentTree(t)
	source := filepath.Join(root, "pages/about.md")
	html := `<a href="/contact">Contact</a>`

	out, errs := r.ResolveContentLinks(html, source)

	assert.Equal(t, html, out)
	assert.Empty(t, errs)
}

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/a/b/../c", "/a/c"},
		{"/a/./b", "/a/b"},
		{"a/b/../../c", "c"},
		{"/a//b", "/a/b"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, normalizePath(c.in), c.in)
	}
}
