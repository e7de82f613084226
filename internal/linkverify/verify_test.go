package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pergament/internal/urls"
)

func writeExport(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestExtractLinksFromReader(t *testing.T) {
	htmlDoc := `<html><body>
		<a href="/docs/intro/start">Start here</a>
		<a href="https://other.example/page">External</a>
		<img src="/docs/media/intro/pic.png" alt="diagram">
		<a href="mailto:x@example.com">mail</a>
		<a href="#section">anchor</a>
	</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(htmlDoc), "https://acme.test")
	require.NoError(t, err)

	require.Len(t, links, 5)
	assert.Equal(t, "Start here", links[0].Text)
	assert.True(t, links[0].IsInternal)
	assert.False(t, links[1].IsInternal)
	assert.Equal(t, "img", links[2].Tag)
	assert.Equal(t, "diagram", links[2].Text)
	assert.True(t, links[3].IsInternal, "mailto counts as non-external")
	assert.True(t, links[4].IsInternal)
}

func TestExtractLinks_SameHostAbsoluteIsInternal(t *testing.T) {
	htmlDoc := `<a href="https://acme.test/docs">Docs</a>`

	links, err := ExtractLinksFromReader(strings.NewReader(htmlDoc), "https://acme.test")
	require.NoError(t, err)

	require.Len(t, links, 1)
	assert.True(t, links[0].IsInternal)
}

func TestVerify_CleanTree_NoProblems(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "index.html", `<a href="/docs/intro/start">go</a>`)
	writeExport(t, root, "docs/intro/start/index.html", `<a href="/">home</a>`)

	v := NewVerifier(root, urls.New("/", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	assert.Empty(t, problems)
}

func TestVerify_ReportsBrokenLink(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "index.html", `<a href="/docs/gone">missing page</a>`)

	v := NewVerifier(root, urls.New("/", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	require.Len(t, problems, 1)
	assert.Equal(t, "index.html", problems[0].SourceFile)
	assert.Equal(t, "/docs/gone", problems[0].URL)
	assert.Contains(t, problems[0].String(), "broken link")
}

func TestVerify_ExternalLinksNotChecked(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "index.html", `<a href="https://other.example/404">external</a>`)

	v := NewVerifier(root, urls.New("/", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	assert.Empty(t, problems)
}

func TestVerify_AssetReferences(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "index.html", `<img src="/media/ok.png"><img src="/media/missing.png">`)
	writeExport(t, root, "media/ok.png", "fake")

	v := NewVerifier(root, urls.New("/", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	require.Len(t, problems, 1)
	assert.Equal(t, "/media/missing.png", problems[0].URL)
}

func TestVerify_BasePrefixStripped(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "index.html", `<a href="/handbook/docs/intro/start">go</a>`)
	writeExport(t, root, "docs/intro/start/index.html", "x")

	v := NewVerifier(root, urls.New("handbook", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	assert.Empty(t, problems)
}

func TestVerify_RelativeLinkResolvedAgainstSourceDir(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "docs/intro/index.html", `<a href="sibling.html">sib</a>`)
	writeExport(t, root, "docs/intro/sibling.html", "x")

	v := NewVerifier(root, urls.New("/", "https://acme.test"))
	problems, err := v.Verify("https://acme.test")
	require.NoError(t, err)

	assert.Empty(t, problems)
}
