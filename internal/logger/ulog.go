package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fhuszti/media-pipeline/internal/api_context"
)

// ServiceName is attached to every record as the "svc" attribute.
const ServiceName = "media-pipeline"

var std *slog.Logger

// contextHandler appends what the context knows about the current work:
// the caller ("uid", "system" when anonymous), the chi request id and the
// media being handled.
type contextHandler struct{ h slog.Handler }

func (c contextHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return c.h.Enabled(ctx, lvl)
}

func (c contextHandler) Handle(ctx context.Context, r slog.Record) error {
	uid := "system"
	if p, ok := api_context.PrincipalFromContext(ctx); ok {
		uid = p.UserID
	}
	r.AddAttrs(slog.String("uid", uid))
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		r.AddAttrs(slog.String("req", reqID))
	}
	if id, ok := api_context.IDFromContext(ctx); ok {
		r.AddAttrs(slog.String("media", id.String()))
	}
	return c.h.Handle(ctx, r)
}

func (c contextHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return contextHandler{h: c.h.WithAttrs(a)}
}

func (c contextHandler) WithGroup(n string) slog.Handler {
	return contextHandler{h: c.h.WithGroup(n)}
}

// Options mirrors the LOG_* environment variables.
type Options struct {
	Format    string // json|text
	Level     string // debug|info|warn|error
	AddSource bool
}

// OptionsFromEnv reads LOG_FORMAT (default json), LOG_LEVEL (default info)
// and LOG_SOURCE (default false).
func OptionsFromEnv() Options {
	src, _ := strconv.ParseBool(os.Getenv("LOG_SOURCE"))
	return Options{
		Format:    strings.ToLower(os.Getenv("LOG_FORMAT")),
		Level:     os.Getenv("LOG_LEVEL"),
		AddSource: src,
	}
}

// New builds a logger writing to w.
func New(w io.Writer, o Options) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(o.Level), AddSource: o.AddSource}

	var base slog.Handler
	if o.Format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}
	return slog.New(contextHandler{h: base}).With("svc", ServiceName)
}

// Init installs the environment configured logger as the process default.
// Plain log.Printf output is routed through it too.
func Init() {
	std = New(os.Stdout, OptionsFromEnv())
	slog.SetDefault(std)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(std.Handler(), slog.LevelInfo).Writer())
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func active() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

func Info(ctx context.Context, msg string, attrs ...any)  { active().InfoContext(ctx, msg, attrs...) }
func Warn(ctx context.Context, msg string, attrs ...any)  { active().WarnContext(ctx, msg, attrs...) }
func Error(ctx context.Context, msg string, attrs ...any) { active().ErrorContext(ctx, msg, attrs...) }
func Debug(ctx context.Context, msg string, attrs ...any) { active().DebugContext(ctx, msg, attrs...) }

func Infof(ctx context.Context, format string, a ...any) {
	active().InfoContext(ctx, fmt.Sprintf(format, a...))
}

func Warnf(ctx context.Context, format string, a ...any) {
	active().WarnContext(ctx, fmt.Sprintf(format, a...))
}

func Errorf(ctx context.Context, format string, a ...any) {
	active().ErrorContext(ctx, fmt.Sprintf(format, a...))
}

func Debugf(ctx context.Context, format string, a ...any) {
	if !active().Enabled(ctx, slog.LevelDebug) {
		return
	}
	active().DebugContext(ctx, fmt.Sprintf(format, a...))
}
