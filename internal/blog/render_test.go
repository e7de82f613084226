package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NotFound_ReturnsNil(t *testing.T) {
	repo, _ := testRepo(t)

	post, err := repo.Render("nope")
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestRender_StripsFirstH1AndCarriesMetadata(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-launch", "---\ntitle: Launch\ncategory: News\ntags:\n  - release\n---\n# Launch\n\n## Details\n\ntext\n")

	post, err := repo.Render("launch")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.NotContains(t, post.HTML, "<h1>")
	assert.Equal(t, "Launch", post.Title)
	assert.Equal(t, "News", post.Category)
	assert.Equal(t, []string{"release"}, post.Tags)
	require.Len(t, post.Headings, 1)
	assert.Equal(t, "details", post.Headings[0].Slug)
}

func TestRender_PreviousIsNewerNextIsOlder(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-oldest", "---\ntitle: Oldest\n---\nx\n")
	writePost(t, cfg, "2024-02-01-middle", "---\ntitle: Middle\n---\nx\n")
	writePost(t, cfg, "2024-03-01-newest", "---\ntitle: Newest\n---\nx\n")

	post, err := repo.Render("middle")
	require.NoError(t, err)
	require.NotNil(t, post)

	require.NotNil(t, post.Previous)
	assert.Equal(t, "Newest", post.Previous.Title)
	assert.Equal(t, "/blog/newest", post.Previous.URL)

	require.NotNil(t, post.Next)
	assert.Equal(t, "Oldest", post.Next.Title)
	assert.Equal(t, "/blog/oldest", post.Next.URL)
}

func TestRender_BoundaryPostsHaveNilNeighbors(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-only", "x\n")

	post, err := repo.Render("only")
	require.NoError(t, err)

	assert.Nil(t, post.Previous)
	assert.Nil(t, post.Next)
}

func TestRender_MediaPathRewrite(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-pics", "![cover](cover.png)\n")

	post, err := repo.Render("pics")
	require.NoError(t, err)

	assert.Contains(t, post.HTML, `src="/blog/media/pics/cover.png"`)
}

func TestRender_AbsoluteAndRootedMediaUntouched(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-pics", "![a](https://cdn.example.com/a.png)\n![b](/static/b.png)\n")

	post, err := repo.Render("pics")
	require.NoError(t, err)

	assert.Contains(t, post.HTML, `src="https://cdn.example.com/a.png"`)
	assert.Contains(t, post.HTML, `src="/static/b.png"`)
}

func TestRender_BrokenLinkDegradesToText(t *testing.T) {
	repo, cfg := testRepo(t)
	writePost(t, cfg, "2024-01-01-linky", "See [the guide](missing.md).\n")

	post, err := repo.Render("linky")
	require.NoError(t, err)

	assert.NotContains(t, post.HTML, "<a ")
	assert.Contains(t, post.HTML, "the guide")
	require.Len(t, post.LinkErrors, 1)
	assert.Contains(t, post.LinkErrors[0], "Broken link")
}
