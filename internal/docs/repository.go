// Package docs scans the numbered-chapter documentation convention
// (docs/{NN}-{slug}/{NN}-{slug}.md) into ordered chapters and pages, and
// renders individual pages through the Markdown pipeline.
//
// The filesystem is the sole source of truth: every query re-scans the
// directory, and a missing docs root simply means zero chapters.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/frontmatter"
	"git.home.luguber.info/inful/pergament/internal/markdown"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

var chapterDirRe = regexp.MustCompile(`^\d+-`)

// Repository reads documentation chapters and pages from the content tree.
type Repository struct {
	cfg      *config.Config
	renderer *markdown.Renderer
	urls     *urls.Generator
}

// NewRepository constructs a documentation repository.
func NewRepository(cfg *config.Config, renderer *markdown.Renderer, gen *urls.Generator) *Repository {
	return &Repository{cfg: cfg, renderer: renderer, urls: gen}
}

// Chapters returns all chapters sorted ascending by numeric directory
// prefix. The prefix is authoritative: "9-x" sorts before "10-y" even though
// lexicographic order says otherwise.
func (r *Repository) Chapters() ([]content.DocChapter, error) {
	docsDir := r.cfg.DocsDir()

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []content.DocChapter{}, nil
		}
		return nil, fmt.Errorf("read docs directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && chapterDirRe.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sortByNumericPrefix(names)

	chapters := make([]content.DocChapter, 0, len(names))
	for _, dirName := range names {
		slug := content.StripNumberPrefix(dirName)
		pages, err := r.pagesForChapter(filepath.Join(docsDir, dirName))
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, content.DocChapter{
			Title: content.TitleFromSlug(slug),
			Slug:  slug,
			Pages: pages,
		})
	}
	return chapters, nil
}

func (r *Repository) pagesForChapter(chapterPath string) ([]content.DocPage, error) {
	entries, err := os.ReadDir(chapterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []content.DocPage{}, nil
		}
		return nil, fmt.Errorf("read chapter directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sortByNumericPrefix(names)

	pages := make([]content.DocPage, 0, len(names))
	for _, fileName := range names {
		slug := stripPrefixAndExt(fileName)
		page, err := r.parsePageFile(filepath.Join(chapterPath, fileName), slug)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (r *Repository) parsePageFile(filePath, slug string) (content.DocPage, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return content.DocPage{}, fmt.Errorf("read page file: %w", err)
	}

	doc := frontmatter.Parse(string(raw))
	return content.DocPage{
		Title:   frontmatter.StringValue(doc.Attributes, "title", content.TitleFromSlug(slug)),
		Excerpt: frontmatter.StringValue(doc.Attributes, "excerpt", ""),
		Slug:    slug,
		Content: doc.Body,
		Meta:    doc.Attributes,
	}, nil
}

// Page looks up a single page. A nil page with nil error means not found.
func (r *Repository) Page(chapterSlug, pageSlug string) (*content.DocPage, error) {
	chapterDir, err := r.findChapterDir(chapterSlug)
	if err != nil || chapterDir == "" {
		return nil, err
	}

	filePath, err := r.findPageFile(chapterDir, pageSlug)
	if err != nil || filePath == "" {
		return nil, err
	}

	page, err := r.parsePageFile(filePath, pageSlug)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// FirstPage returns the slugs of the first chapter's first page. It does not
// fall through to a later chapter when the first chapter is empty.
func (r *Repository) FirstPage() (chapterSlug, pageSlug string, ok bool, err error) {
	chapters, err := r.Chapters()
	if err != nil {
		return "", "", false, err
	}
	if len(chapters) == 0 || len(chapters[0].Pages) == 0 {
		return "", "", false, nil
	}
	return chapters[0].Slug, chapters[0].Pages[0].Slug, true, nil
}

func (r *Repository) findChapterDir(chapterSlug string) (string, error) {
	docsDir := r.cfg.DocsDir()
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read docs directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && content.StripNumberPrefix(e.Name()) == chapterSlug {
			return filepath.Join(docsDir, e.Name()), nil
		}
	}
	return "", nil
}

func (r *Repository) findPageFile(chapterDir, pageSlug string) (string, error) {
	entries, err := os.ReadDir(chapterDir)
	if err != nil {
		return "", fmt.Errorf("read chapter directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") && stripPrefixAndExt(e.Name()) == pageSlug {
			return filepath.Join(chapterDir, e.Name()), nil
		}
	}
	return "", nil
}

// ResolveMediaPath maps "{chapterSlug}/{filename}" onto the real file inside
// the chapter directory, or returns false when either part is absent.
func (r *Repository) ResolveMediaPath(relativePath string) (string, bool) {
	parts := strings.SplitN(relativePath, "/", 2)
	if len(parts) < 2 {
		return "", false
	}
	chapterDir, err := r.findChapterDir(parts[0])
	if err != nil || chapterDir == "" {
		return "", false
	}
	filePath := filepath.Join(chapterDir, filepath.FromSlash(parts[1]))
	if _, err := os.Stat(filePath); err != nil {
		return "", false
	}
	return filePath, true
}

// ThemedImageVariants reports whether name.dark.ext / name.light.ext
// siblings exist for the given image inside the chapter directory.
func (r *Repository) ThemedImageVariants(chapterSlug, filename string) (hasDark, hasLight bool) {
	chapterDir, err := r.findChapterDir(chapterSlug)
	if err != nil || chapterDir == "" {
		return false, false
	}
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	ext = strings.TrimPrefix(ext, ".")

	_, darkErr := os.Stat(filepath.Join(chapterDir, name+".dark."+ext))
	_, lightErr := os.Stat(filepath.Join(chapterDir, name+".light."+ext))
	return darkErr == nil, lightErr == nil
}

func stripPrefixAndExt(fileName string) string {
	return content.StripNumberPrefix(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
}

// sortByNumericPrefix sorts names ascending by their numeric ordering
// prefix; names without one sort after, by name. The sort is stable so
// equal prefixes keep scan order.
func sortByNumericPrefix(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, iok := numericPrefix(names[i])
		nj, jok := numericPrefix(names[j])
		switch {
		case iok && jok && ni != nj:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
}

func numericPrefix(name string) (int, bool) {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(name) || name[i] != '-' {
		return 0, false
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
