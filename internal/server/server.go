// Package server serves the rendered site over HTTP. Pages are rendered per
// request from the filesystem; the optional render cache short-circuits the
// Markdown pipeline while the content fingerprint is unchanged.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pergament/internal/app"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/metrics"
	"git.home.luguber.info/inful/pergament/internal/state"
)

const shutdownTimeout = 10 * time.Second

// Options carries the optional server collaborators.
type Options struct {
	Recorder metrics.Recorder
	Cache    *state.Cache
	// Registry enables the /metrics endpoint when set and the metrics
	// toggle is on.
	Registry *prom.Registry
}

// Server is the HTTP serve mode.
type Server struct {
	app      *app.App
	rec      metrics.Recorder
	cache    *state.Cache
	registry *prom.Registry

	httpServer *http.Server
}

// New constructs a Server around an application graph.
func New(a *app.App, opts Options) *Server {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Server{
		app:      a,
		rec:      rec,
		cache:    opts.Cache,
		registry: opts.Registry,
	}
}

// Handler returns the full middleware-wrapped handler. Exposed so tests can
// drive the server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := s.routes()

	var h http.Handler = mux
	if p := s.app.URLs.BasePrefix(); p != "" {
		outer := http.NewServeMux()
		outer.Handle("/"+p+"/", http.StripPrefix("/"+p, mux))
		outer.Handle("/"+p, http.RedirectHandler("/"+p+"/", http.StatusMovedPermanently))
		h = outer
	}
	return s.withObservability(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.app.Cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) routes() *http.ServeMux {
	cfg := s.app.Cfg
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)

	if cfg.Docs.Enabled {
		dp := cfg.Docs.URLPrefix
		mux.HandleFunc("GET /"+dp+"/{$}", s.handleDocIndex)
		mux.HandleFunc("GET /"+dp+"/media/{chapter}/{file}", s.handleDocMedia)
		mux.HandleFunc("GET /"+dp+"/{chapter}/{page}", s.handleDocPage)
	}

	if cfg.Blog.Enabled {
		bp := cfg.Blog.URLPrefix
		mux.HandleFunc("GET /"+bp+"/{$}", s.handleBlogIndex)
		mux.HandleFunc("GET /"+bp+"/media/{slug}/{file}", s.handleBlogMedia)
		mux.HandleFunc("GET /"+bp+"/category/{slug}", s.handleBlogCategory)
		mux.HandleFunc("GET /"+bp+"/tag/{slug}", s.handleBlogTag)
		mux.HandleFunc("GET /"+bp+"/author/{slug}", s.handleBlogAuthor)
		mux.HandleFunc("GET /"+bp+"/{slug}", s.handleBlogPost)
		if cfg.Blog.Feed.Enabled {
			mux.HandleFunc("GET /"+bp+"/feed", s.handleFeed)
		}
	}

	if cfg.Search.Enabled {
		mux.HandleFunc("GET /search", s.handleSearch)
	}
	if cfg.Sitemap.Enabled {
		mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	}
	if cfg.Robots.Enabled {
		mux.HandleFunc("GET /robots.txt", s.handleRobots)
	}
	if cfg.LLMS.Enabled {
		mux.HandleFunc("GET /llms.txt", s.handleLLMS)
	}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.registry != nil && cfg.Server.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.registry))
	}

	if cfg.Pages.Enabled {
		mux.HandleFunc("GET /{slug}", s.handlePage)
	}

	return mux
}

// statusWriter captures the response code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("HTTP handler panic",
					slog.Any("panic", rec),
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))
				http.Error(sw, "internal server error", http.StatusInternalServerError)
			}

			dur := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = r.URL.Path
			}
			s.rec.ObserveHTTPRequest(route, sw.status, dur)
			slog.Info("HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(sw.status),
				slog.Duration("duration", dur),
				logfields.RemoteAddr(r.RemoteAddr))
		}()

		next.ServeHTTP(sw, r)
	})
}
