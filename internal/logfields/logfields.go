package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeyChapter    = "chapter"
	KeyPage       = "page"
	KeySlug       = "slug"
	KeyURL        = "url"
	KeyRunID      = "run_id"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyQuery      = "query"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func File(f string) slog.Attr            { return slog.String(KeyFile, f) }
func Chapter(c string) slog.Attr         { return slog.String(KeyChapter, c) }
func Page(p string) slog.Attr            { return slog.String(KeyPage, p) }
func Slug(s string) slog.Attr            { return slog.String(KeySlug, s) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Query(q string) slog.Attr           { return slog.String(KeyQuery, q) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(s int) slog.Attr             { return slog.Int(KeyStatus, s) }
func RemoteAddr(a string) slog.Attr      { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
