package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scopeview/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created,
// e.g. "Built scope encoder (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Log Hooks
// =============================================================================

// logHooks writes pipeline and scope events to a logger at debug level.
// Failures are logged at warn level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.ScopeHooks    = (*logHooks)(nil)
)

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) complete(msg string, err error, kv ...any) {
	if err != nil {
		h.logger.Warn(msg+" failed", append(kv, "err", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *logHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h *logHooks) OnLoadComplete(_ context.Context, source string, opCount int, d time.Duration, err error) {
	h.complete("load", err, "source", source, "ops", opCount, "duration", d)
}

func (h *logHooks) OnHierarchyStart(_ context.Context, opCount int) {
	h.logger.Debug("hierarchy start", "ops", opCount)
}

func (h *logHooks) OnHierarchyComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.complete("hierarchy", err, "nodes", nodeCount, "duration", d)
}

func (h *logHooks) OnExpandStart(_ context.Context, scope string) {
	h.logger.Debug("expand start", "scope", scope)
}

func (h *logHooks) OnExpandComplete(_ context.Context, scope string, coreCount int, d time.Duration, err error) {
	h.complete("expand", err, "scope", scope, "core", coreCount, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.complete("render", err, "formats", formats, "duration", d)
}

func (h *logHooks) OnScopeBuilt(_ context.Context, scope string, s observability.ScopeStats) {
	h.logger.Debug("scope built",
		"scope", scope,
		"core", s.Core,
		"in_extract", s.InExtract,
		"out_extract", s.OutExtract,
		"library", s.Library,
		"annotations", s.Annotations)
}
