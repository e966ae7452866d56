package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/assetdb"
	"github.com/roach88/assetvariant/internal/config"
	"github.com/roach88/assetvariant/internal/schema"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

const configFileName = config.FileName

// Error code constants - unified across all CLI commands. Variant pipeline
// problems use their diagnostic codes instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration file error
	ErrCodeSchema      = "E003" // Type schema failed to load
	ErrCodeIndex       = "E004" // Index database error
	ErrCodeNotFound    = "E005" // Asset or path not found
	ErrCodeNotVariant  = "E006" // Asset is not a variant
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadValue    = "E008" // Value could not be parsed for the field
)

// workspace is a loaded project: configuration, types, index and file host.
type workspace struct {
	cfg     *config.Config
	index   *store.Store
	project *assetdb.Project
	log     *slog.Logger
	report  *assetdb.ScanReport
}

// loadConfig finds the project configuration the way every command does.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Config != "" {
		return config.Load(opts.Config)
	}
	return config.Find(opts.Dir)
}

// newLogger builds the CLI logger from configuration. --verbose forces debug.
func newLogger(cfg *config.Config, opts *RootOptions, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

// openWorkspace loads configuration and schemas, opens the index and scans
// the asset tree so that the index matches the files on disk.
func openWorkspace(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*workspace, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err).WithCode(ErrCodeConfig)
	}
	log, err := newLogger(cfg, opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err).WithCode(ErrCodeConfig)
	}
	slog.SetDefault(log)

	log.Debug("loading schemas", "dir", cfg.Project.Schemas)
	types, err := schema.LoadDir(cfg.Project.Schemas)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load type schemas", err).WithCode(ErrCodeSchema)
	}
	log.Debug("schemas loaded", "types", types.Len())

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create index directory", err).WithCode(ErrCodeIndex)
		}
	}
	index, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open index", err).WithCode(ErrCodeIndex)
	}

	project, err := assetdb.Open(assetdb.Options{
		Root:   cfg.Project.Assets,
		Types:  types,
		Index:  index,
		Logger: log,
	})
	if err != nil {
		index.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open project", err)
	}

	report, err := project.Scan(ctx)
	if err != nil {
		index.Close()
		return nil, WrapExitError(ExitCommandError, "failed to scan assets", err).WithCode(ErrCodeIndex)
	}
	for _, problem := range report.Problems {
		log.Warn("asset not indexed", "error", problem)
	}

	return &workspace{cfg: cfg, index: index, project: project, log: log, report: report}, nil
}

func (w *workspace) Close() error {
	return w.index.Close()
}

// lookup resolves a GUID or asset-relative path. Paths given relative to the
// working directory are accepted too.
func (w *workspace) lookup(ctx context.Context, ref string) (store.Asset, error) {
	rec, err := w.project.Lookup(ctx, ref)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Asset{}, WrapExitError(ExitCommandError, "index lookup failed", err).WithCode(ErrCodeIndex)
	}
	if abs, absErr := filepath.Abs(ref); absErr == nil {
		if rel, relErr := w.project.Rel(abs); relErr == nil {
			if rec, err := w.project.Lookup(ctx, rel); err == nil {
				return rec, nil
			}
		}
	}
	return store.Asset{}, WrapExitError(ExitCommandError, fmt.Sprintf("asset not found: %s", ref), err).WithCode(ErrCodeNotFound)
}

// lookupVariant resolves ref and checks that it names a variant.
func (w *workspace) lookupVariant(ctx context.Context, ref string) (store.Asset, error) {
	rec, err := w.lookup(ctx, ref)
	if err != nil {
		return rec, err
	}
	if rec.Kind != store.KindVariant {
		return rec, NewExitError(ExitCommandError, fmt.Sprintf("%s is not a variant", rec.Path)).WithCode(ErrCodeNotVariant)
	}
	return rec, nil
}

// openSession starts an editing session on the variant ref.
func (w *workspace) openSession(ctx context.Context, ref string) (*variant.Session, store.Asset, error) {
	rec, err := w.lookupVariant(ctx, ref)
	if err != nil {
		return nil, rec, err
	}
	s, err := variant.OpenSession(ctx, variant.SessionConfig{
		Materializer: w.project.Materializer(),
		Artifacts:    w.project,
		Logger:       w.log,
	}, rec.GUID, variant.DisplayName(rec.Path))
	if err != nil {
		return nil, rec, WrapExitError(ExitCommandError, "failed to open variant", err)
	}
	return s, rec, nil
}
