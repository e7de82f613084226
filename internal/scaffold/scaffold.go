// Package scaffold creates content files with front-matter templates. It
// never overwrites: an existing target is always an error.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
)

// Service creates content skeletons under the configured content root.
type Service struct {
	cfg *config.Config
	now func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

var numberedEntryRe = regexp.MustCompile(`^(\d+)-(.+?)(\.md)?$`)

// PostOptions configures a new blog post.
type PostOptions struct {
	Title    string
	Category string
	Tags     []string
	Author   string
	Excerpt  string
	Date     time.Time // zero means today
}

// NewPost creates blog/YYYY-MM-DD-{slug}/post.md and returns the file path.
func (s *Service) NewPost(opts PostOptions) (string, error) {
	if opts.Title == "" {
		return "", fmt.Errorf("post title is required")
	}

	date := opts.Date
	if date.IsZero() {
		date = s.now()
	}

	slug := content.Slugify(opts.Title)
	dir := filepath.Join(s.cfg.BlogDir(), date.Format("2006-01-02")+"-"+slug)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("post directory already exists: %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	var fm strings.Builder
	fm.WriteString("title: " + quote(opts.Title) + "\n")
	fm.WriteString("excerpt: " + quote(opts.Excerpt) + "\n")
	if opts.Category != "" {
		fm.WriteString("category: " + quote(opts.Category) + "\n")
	}
	if len(opts.Tags) > 0 {
		fm.WriteString("tags:\n")
		for _, tag := range opts.Tags {
			fm.WriteString("  - " + quote(strings.TrimSpace(tag)) + "\n")
		}
	}
	if opts.Author != "" {
		fm.WriteString("author: " + quote(opts.Author) + "\n")
	}

	body := "---\n" + fm.String() + "---\n\n# " + opts.Title + "\n\nWrite your post content here.\n"
	path := filepath.Join(dir, "post.md")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// NewChapter creates the next numbered chapter directory for title.
func (s *Service) NewChapter(title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("chapter title is required")
	}

	slug := content.Slugify(title)
	if existing := s.findNumberedDir(s.cfg.DocsDir(), slug); existing != "" {
		return "", fmt.Errorf("chapter already exists: %s", existing)
	}

	prefix := nextPrefix(s.cfg.DocsDir())
	dir := filepath.Join(s.cfg.DocsDir(), prefix+"-"+slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// DocOptions configures a new documentation page.
type DocOptions struct {
	Chapter string // chapter slug; the directory is created when missing
	Title   string
	Excerpt string
	Order   string // numeric prefix; empty means next free slot
}

// NewDoc creates docs/{NN-chapter}/{NN-slug}.md and returns the file path.
func (s *Service) NewDoc(opts DocOptions) (string, error) {
	if opts.Chapter == "" || opts.Title == "" {
		return "", fmt.Errorf("chapter and title are required")
	}

	chapterDir := s.findNumberedDir(s.cfg.DocsDir(), opts.Chapter)
	order := opts.Order
	if chapterDir == "" {
		chapterDir = filepath.Join(s.cfg.DocsDir(), nextPrefix(s.cfg.DocsDir())+"-"+opts.Chapter)
		if err := os.MkdirAll(chapterDir, 0o755); err != nil {
			return "", err
		}
		if order == "" {
			order = "01"
		}
	}
	if order == "" {
		order = nextPrefix(chapterDir)
	}

	slug := content.Slugify(opts.Title)
	path := filepath.Join(chapterDir, padPrefix(order)+"-"+slug+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("file already exists: %s", path)
	}

	body := strings.Join([]string{
		"---",
		"title: " + opts.Title,
		"excerpt: " + quote(opts.Excerpt),
		"---",
		"",
		"# " + opts.Title,
		"",
		"Write your documentation here.",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// PageOptions configures a new standalone page.
type PageOptions struct {
	Title   string
	Excerpt string
	Layout  string
}

// NewPage creates pages/{slug}.md and returns the file path.
func (s *Service) NewPage(opts PageOptions) (string, error) {
	if opts.Title == "" {
		return "", fmt.Errorf("page title is required")
	}

	if err := os.MkdirAll(s.cfg.PagesDir(), 0o755); err != nil {
		return "", err
	}

	slug := content.Slugify(opts.Title)
	path := filepath.Join(s.cfg.PagesDir(), slug+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("page already exists: %s", path)
	}

	lines := []string{
		"---",
		"title: " + opts.Title,
		"excerpt: " + quote(opts.Excerpt),
	}
	if opts.Layout != "" {
		lines = append(lines, "layout: "+opts.Layout)
	}
	lines = append(lines,
		"---",
		"",
		"# "+opts.Title,
		"",
		"Write your page content here.",
		"",
	)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Init creates the content tree, a sample homepage and a starter
// configuration file. It refuses to touch an existing configuration.
func (s *Service) Init(configPath string) ([]string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("configuration already exists: %s", configPath)
	}

	created := []string{}
	for _, dir := range []string{s.cfg.DocsDir(), s.cfg.BlogDir(), s.cfg.PagesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, err
		}
		created = append(created, dir)
	}

	home := filepath.Join(s.cfg.PagesDir(), "home.md")
	if _, err := os.Stat(home); os.IsNotExist(err) {
		body := "---\ntitle: Home\n---\n\n# Welcome\n\nYour site starts here.\n"
		if err := os.WriteFile(home, []byte(body), 0o644); err != nil {
			return created, err
		}
		created = append(created, home)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig(s.cfg)), 0o644); err != nil {
		return created, err
	}
	created = append(created, configPath)
	return created, nil
}

func starterConfig(cfg *config.Config) string {
	return strings.Join([]string{
		"content_path: " + cfg.ContentPath,
		"prefix: /",
		"",
		"site:",
		"  name: " + quote(cfg.Site.Name),
		"  url: " + cfg.Site.URL,
		"  locale: " + cfg.Site.Locale,
		"",
		"homepage:",
		"  type: page",
		"  source: home",
		"",
		"docs:",
		"  enabled: true",
		"  title: " + quote(cfg.Docs.Title),
		"",
		"blog:",
		"  enabled: true",
		"  title: " + quote(cfg.Blog.Title),
		"  per_page: " + strconv.Itoa(cfg.Blog.PerPage),
		"",
		"pages:",
		"  enabled: true",
		"",
	}, "\n")
}

// findNumberedDir locates the directory whose name minus the numeric prefix
// equals slug. Empty when absent.
func (s *Service) findNumberedDir(root, slug string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() && content.StripNumberPrefix(entry.Name()) == slug {
			return filepath.Join(root, entry.Name())
		}
	}
	return ""
}

// nextPrefix returns the zero-padded successor of the highest numeric prefix
// among root's entries, "01" when there are none.
func nextPrefix(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "01"
	}

	max := 0
	for _, entry := range entries {
		m := numberedEntryRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return padPrefix(strconv.Itoa(max + 1))
}

func padPrefix(p string) string {
	if len(p) < 2 {
		return "0" + p
	}
	return p
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
