package twigify

import (
	"io"
	"sync"
)

// TransformFunc returns a Stream that transforms the file at path, writing
// the result to w.
type TransformFunc func(path string, w io.Writer) *Stream

// Transformer creates Streams from a configuration that persists between
// invocations: each invocation's options are merged into the configuration
// left by the previous ones, so a setting stays in effect until an
// invocation sets it again. Each Stream keeps the configuration it was
// created with.
//
// A Transformer is safe for concurrent use; concurrent invocations see each
// other's settings in the order they resolve them.
type Transformer struct {
	mu      sync.Mutex
	cfg     Config
	compile Compiler
}

// NewTransformer returns a Transformer with the default configuration.
func NewTransformer() *Transformer {
	return &Transformer{cfg: DefaultConfig(), compile: DefaultCompiler}
}

// Default is the process-wide Transformer used by the package-level
// functions.
var Default = NewTransformer()

// SetCompiler replaces the template compiler.
func (t *Transformer) SetCompiler(c Compiler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compile = c
}

// Config returns the current configuration.
func (t *Transformer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// Resolve merges opts into the configuration and returns the result.
func (t *Transformer) Resolve(opts Options) Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = t.cfg.Merge(opts)
	return t.cfg
}

// TransformFile returns a Stream for the file at path. If path does not have
// one of the extensions selected by opts, the Stream discards its input and
// opts are not applied. A nil w discards the module source.
func (t *Transformer) TransformFile(path string, opts Options, w io.Writer) *Stream {
	if !IsEligible(path, ResolveExtensions(opts.Extensions)) {
		return skipStream(path)
	}
	var cfg = t.Resolve(opts)
	t.mu.Lock()
	var compile = t.compile
	t.mu.Unlock()
	return newStream(path, cfg, compile, w)
}

// CreateTransform returns a TransformFunc that applies opts to every file.
func (t *Transformer) CreateTransform(opts Options) TransformFunc {
	return func(path string, w io.Writer) *Stream {
		return t.TransformFile(path, opts, w)
	}
}

// TransformFile returns a Stream for the file at path using Default.
func TransformFile(path string, opts Options, w io.Writer) *Stream {
	return Default.TransformFile(path, opts, w)
}

// CreateTransform returns a TransformFunc using Default.
func CreateTransform(opts Options) TransformFunc {
	return Default.CreateTransform(opts)
}
