package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/dotrain/internal/config"
	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/resolver"
	"github.com/roach88/dotrain/internal/store"
)

// Error codes used in CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeConfig      = "E003" // Config load or validation failed
	ErrCodeRegistry    = "E004" // Registry open/read/write failed
	ErrCodeProblems    = "E005" // Document has problems
	ErrCodeFatal       = "E006" // Document could not be parsed at all
	ErrCodeCompose     = "E007" // Composition failed
	ErrCodeResolve     = "E008" // Hash could not be resolved
	ErrCodeInvalidHash = "E009" // Argument is not a hash
	ErrCodeWriteFailed = "E010" // File write error
)

// LoadError is a setup failure that carries a response code.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// env is the per-invocation state shared by the document commands.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *store.Store
	cache    *metastore.Store
}

// openEnv loads the config, opens the registry when one is configured
// and builds the metadata cache. Overrides are applied to the loaded
// config before anything is opened.
func openEnv(opts *RootOptions, errW io.Writer, overrides ...func(*config.Config)) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: "invalid config", Err: err}
	}
	for _, o := range overrides {
		o(&cfg)
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: level}))

	e := &env{cfg: cfg, logger: logger}
	var sources []resolver.Source
	if cfg.Registry != "" {
		e.registry, err = store.Open(cfg.Registry)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeRegistry, Message: "open registry " + cfg.Registry, Err: err}
		}
		sources = append(sources, e.registry)
		logger.Debug("registry opened", "path", cfg.Registry)
	}
	e.cache = metastore.New(cfg.StoreOptions(logger, sources...))
	return e, nil
}

// Close releases the registry.
func (e *env) Close() error {
	if e.registry == nil {
		return nil
	}
	return e.registry.Close()
}

// parse reads a .rain file and parses it, resolving imports.
func (e *env) parse(ctx context.Context, path string) (*document.Document, error) {
	text, err := readFile(path)
	if err != nil {
		return nil, err
	}
	uri, err := fileURI(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "resolve path", Err: err}
	}
	e.logger.Debug("parsing document", "uri", uri)
	doc, err := document.CreateAsync(ctx, text, uri, e.cache, e.cfg.DocumentOptions(e.logger)...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeResolve, Message: "parse " + path, Err: err}
	}
	return doc, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &LoadError{Code: ErrCodeNotFound, Message: "file not found: " + path}
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeGeneric, Message: "read " + path, Err: err}
	}
	return string(data), nil
}

func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// loadFailure writes err through the formatter and converts it to an
// ExitError with the command-error code.
func loadFailure(f *OutputFormatter, err error) error {
	code, msg := ErrCodeGeneric, err.Error()
	var le *LoadError
	if errors.As(err, &le) {
		code, msg = le.Code, le.Message
		if le.Err != nil {
			msg += ": " + le.Err.Error()
		}
	}
	_ = f.Error(code, msg, nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

func newFormatter(opts *RootOptions, out, errW io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errW,
		Verbose:   opts.Verbose,
	}
}
