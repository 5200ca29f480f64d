package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/dotrain/internal/document"
	"github.com/roach88/dotrain/internal/metastore"
	"github.com/roach88/dotrain/internal/resolver"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "rain.cue"

// Config holds the tool settings.
type Config struct {
	Endpoints               []string
	IncludeDefaultEndpoints bool
	MaxImportDepth          int
	MaxNamespaceDepth       int
	FetchTimeout            time.Duration
	Retries                 int
	// Registry is the sqlite registry path; empty disables it.
	Registry string
}

// Default returns the settings used without a config file.
func Default() Config {
	return Config{
		MaxImportDepth:    document.DefaultMaxImportDepth,
		MaxNamespaceDepth: document.DefaultMaxNamespaceDepth,
		FetchTimeout:      metastore.DefaultFetchTimeout,
		Retries:           resolver.DefaultSubgraphOptions().Retries,
	}
}

// Error is a config error, positioned when CUE reports a position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes CUE source against the schema.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, formatCUEError("cue", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	return decode(v)
}

func decode(v cue.Value) (Config, error) {
	var cfg Config

	f, err := field(v, "endpoints")
	if err != nil {
		return Config{}, err
	}
	if err := f.Decode(&cfg.Endpoints); err != nil {
		return Config{}, formatCUEError("endpoints", err)
	}
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = nil
	}

	if cfg.IncludeDefaultEndpoints, err = boolField(v, "include_default_endpoints"); err != nil {
		return Config{}, err
	}
	if cfg.MaxImportDepth, err = intField(v, "max_import_depth"); err != nil {
		return Config{}, err
	}
	if cfg.MaxNamespaceDepth, err = intField(v, "max_namespace_depth"); err != nil {
		return Config{}, err
	}
	if cfg.Retries, err = intField(v, "retries"); err != nil {
		return Config{}, err
	}
	if cfg.Registry, err = stringField(v, "registry"); err != nil {
		return Config{}, err
	}

	timeout, err := stringField(v, "fetch_timeout")
	if err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = time.ParseDuration(timeout); err != nil {
		return Config{}, &Error{Field: "fetch_timeout", Message: err.Error()}
	}

	// Catches what the field lookups cannot see, such as unknown fields.
	if err := v.Validate(); err != nil {
		return Config{}, formatCUEError("cue", err)
	}
	return cfg, nil
}

func field(v cue.Value, name string) (cue.Value, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if d, ok := f.Default(); ok {
		f = d
	}
	if err := f.Err(); err != nil {
		return f, formatCUEError(name, err)
	}
	return f, nil
}

func intField(v cue.Value, name string) (int, error) {
	f, err := field(v, name)
	if err != nil {
		return 0, err
	}
	n, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(name, err)
	}
	return int(n), nil
}

func boolField(v cue.Value, name string) (bool, error) {
	f, err := field(v, name)
	if err != nil {
		return false, err
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(name, err)
	}
	return b, nil
}

func stringField(v cue.Value, name string) (string, error) {
	f, err := field(v, name)
	if err != nil {
		return "", err
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(name, err)
	}
	return s, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(fieldName string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: fieldName, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Field: fieldName, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

// StoreOptions returns the cache options for this config. Extra sources,
// such as the registry, are queried before the subgraphs.
func (c Config) StoreOptions(logger *slog.Logger, sources ...resolver.Source) metastore.Options {
	sub := resolver.DefaultSubgraphOptions()
	sub.Retries = c.Retries
	return metastore.Options{
		IncludeDefaultEndpoints: c.IncludeDefaultEndpoints,
		Endpoints:               c.Endpoints,
		Sources:                 sources,
		Subgraph:                sub,
		FetchTimeout:            c.FetchTimeout,
		Logger:                  logger,
	}
}

// DocumentOptions returns the document options for this config.
func (c Config) DocumentOptions(logger *slog.Logger) []document.Option {
	opts := []document.Option{
		document.WithMaxImportDepth(c.MaxImportDepth),
		document.WithMaxNamespaceDepth(c.MaxNamespaceDepth),
	}
	if logger != nil {
		opts = append(opts, document.WithLogger(logger))
	}
	return opts
}
