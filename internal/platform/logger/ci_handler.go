package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/ephemeraldb/internal/ciutil"
)

// CIHandler is a custom slog.Handler that adds CI environment metadata
// to log records, so that teardown failures can be traced to the job that
// leaked the database.
type CIHandler struct {
	// The underlying handler (usually JSON)
	handler slog.Handler
	// CI metadata to add to every log record
	metadata []slog.Attr
}

// NewCIHandler creates a new CIHandler that writes JSON to out,
// adding CI metadata to each log record.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	var handlerOpts slog.HandlerOptions
	if opts != nil {
		// Clone the options to avoid modifying the caller's options
		handlerOpts = *opts
	}

	return &CIHandler{
		handler:  slog.NewJSONHandler(out, &handlerOpts),
		metadata: getCIMetadata(),
	}
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{
		handler:  h.handler.WithAttrs(attrs),
		metadata: h.metadata,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{
		handler:  h.handler.WithGroup(name),
		metadata: h.metadata,
	}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()
	enhanced.AddAttrs(h.metadata...)
	return h.handler.Handle(ctx, enhanced)
}

// getCIMetadata collects identifiers of the current CI run. Only variables
// that are set are included.
func getCIMetadata() []slog.Attr {
	vars := []struct {
		env string
		key string
	}{
		{"GITHUB_RUN_ID", "ci_run_id"},
		{"GITHUB_JOB", "ci_job"},
		{"GITHUB_SHA", "ci_commit"},
		{"CI_PIPELINE_ID", "ci_run_id"},
		{"CI_JOB_NAME", "ci_job"},
		{"CI_COMMIT_SHA", "ci_commit"},
	}

	attrs := []slog.Attr{slog.Bool("ci", true)}
	seen := map[string]bool{}
	for _, v := range vars {
		if seen[v.key] {
			continue
		}
		if val := os.Getenv(v.env); val != "" {
			attrs = append(attrs, slog.String(v.key, val))
			seen[v.key] = true
		}
	}

	if ciutil.IsGitHubActions() {
		attrs = append(attrs, slog.String("ci_provider", "github_actions"))
	} else if ciutil.IsGitLabCI() {
		attrs = append(attrs, slog.String("ci_provider", "gitlab"))
	}

	return attrs
}
