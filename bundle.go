package twigify

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type templateFile struct {
	name, content string
	onDisk        bool
}

// Modules maps template paths to their generated module source.
type Modules map[string]string

// Bundle is a collection of template files that are transformed together
// with the same options. It acts as a host for the transform when no bundler
// is involved, e.g. from the command line.
type Bundle struct {
	files                 []templateFile
	opts                  Options
	transformer           *Transformer
	err                   error
	watcher               *fsnotify.Watcher
	watching              bool
	recompilationCallback func(Modules)
}

// NewBundle returns an empty bundle using the default options.
func NewBundle() *Bundle {
	return &Bundle{transformer: NewTransformer()}
}

// WithOptions sets the options applied to every file in the bundle.
func (b *Bundle) WithOptions(opts Options) *Bundle {
	b.opts = opts
	return b
}

// WatchFiles tells the bundle to watch any template files added to it and
// transform them again when they change.  It should be called once, before
// adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// AddTemplateDir adds all files within the given directory (including
// sub-directories) that have an eligible extension.
func (b *Bundle) AddTemplateDir(root string) *Bundle {
	var exts = ResolveExtensions(b.opts.Extensions)
	var err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsEligible(path, exts) {
			return nil
		}
		b.AddTemplateFile(path)
		return nil
	})
	if err != nil {
		b.err = err
	}
	return b
}

// AddTemplateFile adds the given template file to this bundle.
// If WatchFiles is on, it will be subsequently watched for updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	content, err := os.ReadFile(filename)
	if err != nil {
		b.err = err
	}
	if b.err == nil && b.watcher != nil {
		b.err = b.watcher.Add(filename)
	}
	b.files = append(b.files, templateFile{filename, string(content), true})
	return b
}

// AddTemplateString adds the given template text to the bundle under the
// given path. The path need not exist; it determines eligibility and the
// template identifier.
func (b *Bundle) AddTemplateString(filename, content string) *Bundle {
	b.files = append(b.files, templateFile{filename, content, false})
	return b
}

// SetRecompilationCallback assigns the bundle a function to call with the
// new modules each time a watched file changes.
func (b *Bundle) SetRecompilationCallback(c func(Modules)) *Bundle {
	b.recompilationCallback = c
	return b
}

// Compile transforms every file in the bundle. Files without an eligible
// extension are left out of the result. When FailOnError is set the first
// compile error is returned; otherwise failed templates export undefined.
func (b *Bundle) Compile() (Modules, error) {
	if b.err != nil {
		return nil, b.err
	}

	var modules = make(Modules)
	for _, file := range b.files {
		var buf bytes.Buffer
		var stream = b.transformer.TransformFile(file.name, b.opts, &buf)
		if _, err := stream.Write([]byte(file.content)); err != nil {
			return nil, err
		}
		if err := stream.Close(); err != nil {
			return nil, err
		}
		if stream.State() == StateEmitted {
			modules[file.name] = buf.String()
		}
	}

	if b.watcher != nil && !b.watching {
		b.watching = true
		go b.recompiler()
	}
	return modules, nil
}

// Close stops watching files.
func (b *Bundle) Close() error {
	if b.watcher == nil {
		return nil
	}
	return b.watcher.Close()
}

func (b *Bundle) recompiler() {
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			// If it's a rename, then fsnotify has removed the watch.
			// Add it back, after a delay.
			if ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Println(err)
				}
			}

			// Transform all the templates again.
			var bundle = NewBundle().WithOptions(b.opts)
			for _, file := range b.files {
				if file.onDisk {
					bundle.AddTemplateFile(file.name)
				} else {
					bundle.AddTemplateString(file.name, file.content)
				}
			}
			var modules, err = bundle.Compile()
			if err != nil {
				Logger.Println(err)
				continue
			}

			if b.recompilationCallback != nil {
				b.recompilationCallback(modules)
			}
			Logger.Printf("update successful (%v)", ev)

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}
