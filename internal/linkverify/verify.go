package linkverify

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/urls"
)

// Problem is one broken internal reference found in the exported tree.
type Problem struct {
	SourceFile string // exported HTML file, relative to the export root
	URL        string // the offending href/src
	Text       string // link text, for context
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: broken link %q (%s)", p.SourceFile, p.URL, p.Text)
}

// Verifier checks internal links in a static export directory.
type Verifier struct {
	root string
	urls *urls.Generator
}

func NewVerifier(exportRoot string, gen *urls.Generator) *Verifier {
	return &Verifier{root: exportRoot, urls: gen}
}

// Verify walks every .html file under the export root and checks that each
// internal link resolves to a file in the tree. External links are not
// fetched; this is a pure filesystem pass.
func (v *Verifier) Verify(baseURL string) ([]Problem, error) {
	problems := []Problem{}

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		links, err := ExtractLinks(path, baseURL)
		if err != nil {
			return fmt.Errorf("extract links from %s: %w", path, err)
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		for _, l := range links {
			if !l.IsInternal || !shouldVerify(l) {
				continue
			}
			if !v.targetExists(l.URL, filepath.Dir(path)) {
				problems = append(problems, Problem{SourceFile: filepath.ToSlash(rel), URL: l.URL, Text: l.Text})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return problems, nil
}

// targetExists resolves an internal URL to a candidate file in the export
// tree. A path maps either to the literal file or to <path>/index.html.
func (v *Verifier) targetExists(rawURL, sourceDir string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		// Fragment-only or query-only reference within the same page.
		return true
	}

	var candidate string
	if strings.HasPrefix(p, "/") {
		// Site-absolute: strip the configured base prefix if present.
		trimmed := strings.TrimPrefix(p, "/")
		if base := v.urls.BasePrefix(); base != "" {
			trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, base), "/")
		}
		candidate = filepath.Join(v.root, filepath.FromSlash(trimmed))
	} else {
		candidate = filepath.Join(sourceDir, filepath.FromSlash(p))
	}

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return true
	}
	if _, err := os.Stat(filepath.Join(candidate, "index.html")); err == nil {
		return true
	}
	return false
}
