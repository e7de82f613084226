package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pergament/internal/app"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/export"
	"git.home.luguber.info/inful/pergament/internal/linkverify"
	"git.home.luguber.info/inful/pergament/internal/metrics"
	"git.home.luguber.info/inful/pergament/internal/scaffold"
	"git.home.luguber.info/inful/pergament/internal/server"
	"git.home.luguber.info/inful/pergament/internal/state"
	"git.home.luguber.info/inful/pergament/internal/urls"
	"git.home.luguber.info/inful/pergament/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"pergament.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Addr string `help:"Listen address, overrides the configured one"`
	} `cmd:"" help:"Serve the site over HTTP"`

	Export struct {
		Output  string `short:"o" help:"Output directory for the static site" default:"./site"`
		Clean   bool   `help:"Remove the output directory before exporting"`
		Prefix  string `help:"Override the URL prefix for this export"`
		BaseURL string `name:"base-url" help:"Override the site URL for sitemap and feed"`
		Watch   bool   `short:"w" help:"Re-export when content changes"`
	} `cmd:"" help:"Export the site as static HTML"`

	Check struct {
		Dir string `arg:"" help:"Exported site directory to verify"`
	} `cmd:"" help:"Verify internal links in an exported site"`

	Search struct {
		Query string `arg:"" optional:"" help:"Search query; empty prints suggestions"`
	} `cmd:"" help:"Query the content index from the command line"`

	Init struct{} `cmd:"" help:"Create the content tree and a starter configuration"`

	New struct {
		Chapter struct {
			Title string `arg:"" help:"Chapter title"`
		} `cmd:"" help:"Create a documentation chapter"`

		Doc struct {
			Chapter string `required:"" help:"Chapter slug; created when missing"`
			Title   string `arg:"" help:"Page title"`
			Excerpt string `help:"Page excerpt"`
			Order   string `help:"Numeric sort-order prefix, e.g. 01"`
		} `cmd:"" help:"Create a documentation page"`

		Post struct {
			Title    string `arg:"" help:"Post title"`
			Category string `help:"Post category"`
			Tags     string `help:"Comma-separated tags"`
			Author   string `help:"Author name"`
			Excerpt  string `help:"Short excerpt"`
			Date     string `help:"Publish date (YYYY-MM-DD, defaults to today)"`
		} `cmd:"" help:"Create a blog post"`

		Page struct {
			Title   string `arg:"" help:"Page title"`
			Excerpt string `help:"Page excerpt"`
			Layout  string `help:"Layout name, e.g. landing"`
		} `cmd:"" help:"Create a standalone page"`
	} `cmd:"" help:"Scaffold new content"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch kctx.Command() {
	case "serve":
		err = runServe()
	case "export":
		err = runExport()
	case "check <dir>":
		err = runCheck()
	case "search <query>", "search":
		err = runSearch()
	case "init":
		err = runInit()
	case "new chapter <title>":
		err = runNewChapter()
	case "new doc <title>":
		err = runNewDoc()
	case "new post <title>":
		err = runNewPost()
	case "new page <title>":
		err = runNewPage()
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file; a missing file means defaults so
// the binary works against a bare content directory.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		slog.Debug("configuration file not found, using defaults", "path", CLI.Config)
		return config.Default(), nil
	}
	return config.Load(CLI.Config)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Serve.Addr != "" {
		cfg.Server.Addr = CLI.Serve.Addr
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{}
	if cfg.Server.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		opts.Registry = reg
		opts.Recorder = metrics.NewPrometheusRecorder(reg)
	}
	if cfg.Cache.Enabled {
		cache, err := state.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Cache = cache
	}

	ctx, cancel := signalContext()
	defer cancel()
	return server.New(a, opts).Start(ctx)
}

func runExport() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exporter, err := export.New(cfg, export.Options{
		OutputDir: CLI.Export.Output,
		Clean:     CLI.Export.Clean,
		Prefix:    CLI.Export.Prefix,
		BaseURL:   CLI.Export.BaseURL,
	}, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runOnce := func() error {
		summary, err := exporter.Run(ctx)
		if err != nil {
			return err
		}
		for _, warning := range summary.Warnings {
			slog.Warn(warning)
		}
		if len(summary.Warnings) > 0 {
			fmt.Printf("Static site generated with %d warning(s): %d files in %s\n",
				len(summary.Warnings), summary.Files, summary.Duration.Round(time.Millisecond))
		} else {
			fmt.Printf("Static site generated: %d files in %s\n",
				summary.Files, summary.Duration.Round(time.Millisecond))
		}
		return nil
	}

	if err := runOnce(); err != nil {
		return err
	}
	if !CLI.Export.Watch {
		return nil
	}

	watcher, err := watch.New(cfg.ContentPath, 500*time.Millisecond, func() {
		if err := runOnce(); err != nil {
			slog.Error("re-export failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func runCheck() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gen := urls.New(cfg.Prefix, cfg.Site.URL)
	problems, err := linkverify.NewVerifier(CLI.Check.Dir, gen).Verify(cfg.Site.URL)
	if err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Println("No broken links found.")
		return nil
	}
	for _, p := range problems {
		fmt.Println(p.String())
	}
	return fmt.Errorf("%d broken link(s)", len(problems))
}

func runSearch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(CLI.Search.Query)
	var hits []content.SearchHit
	if query == "" {
		hits, err = a.Search.Suggestions()
	} else {
		hits, err = a.Search.Search(query)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}

func runInit() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	created, err := scaffold.NewService(cfg).Init(CLI.Config)
	if err != nil {
		return err
	}
	for _, path := range created {
		fmt.Println("created:", path)
	}
	return nil
}

func runNewChapter() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, err := scaffold.NewService(cfg).NewChapter(CLI.New.Chapter.Title)
	if err != nil {
		return err
	}
	fmt.Println("created:", dir)
	return nil
}

func runNewDoc() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := scaffold.NewService(cfg).NewDoc(scaffold.DocOptions{
		Chapter: CLI.New.Doc.Chapter,
		Title:   CLI.New.Doc.Title,
		Excerpt: CLI.New.Doc.Excerpt,
		Order:   CLI.New.Doc.Order,
	})
	if err != nil {
		return err
	}
	fmt.Println("created:", path)
	return nil
}

func runNewPost() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := scaffold.PostOptions{
		Title:    CLI.New.Post.Title,
		Category: CLI.New.Post.Category,
		Author:   CLI.New.Post.Author,
		Excerpt:  CLI.New.Post.Excerpt,
	}
	if CLI.New.Post.Tags != "" {
		opts.Tags = strings.Split(CLI.New.Post.Tags, ",")
	}
	if CLI.New.Post.Date != "" {
		date, err := time.Parse("2006-01-02", CLI.New.Post.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", CLI.New.Post.Date, err)
		}
		opts.Date = date
	}

	path, err := scaffold.NewService(cfg).NewPost(opts)
	if err != nil {
		return err
	}
	fmt.Println("created:", path)
	return nil
}

func runNewPage() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := scaffold.NewService(cfg).NewPage(scaffold.PageOptions{
		Title:   CLI.New.Page.Title,
		Excerpt: CLI.New.Page.Excerpt,
		Layout:  CLI.New.Page.Layout,
	})
	if err != nil {
		return err
	}
	fmt.Println("created:", path)
	return nil
}
