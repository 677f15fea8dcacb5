package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robfig/twigify"
)

type flags struct {
	extensions          []string
	relativePath        bool
	allowInlineIncludes bool
	autoescape          bool
	replace             []string
	failOnError         bool
	config              string
	out                 string
	watch               bool
}

func newRootCmd() *cobra.Command {
	var f flags
	var cmd = &cobra.Command{
		Use:   "twigify [flags] PATH...",
		Short: "Precompile Twig templates into CommonJS modules",
		Long: `twigify compiles Twig templates into modules that register the
precompiled template with Twig.js.

Each PATH is a template file or a directory searched recursively for files
with a template extension. Modules are written to stdout, or with --out to
<out>/<path relative to PATH>.js.

Options are read from the --config YAML file; flags that are passed override
it.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &f, args)
		},
	}

	cmd.Flags().StringSliceVar(&f.extensions, "ext", nil,
		"Template extensions (default: .twig,.html)")
	cmd.Flags().BoolVar(&f.relativePath, "relative-path", false,
		"Identify templates by __filename and __dirname")
	cmd.Flags().BoolVar(&f.allowInlineIncludes, "allow-inline-includes", false,
		"Allow templates to include templates by inline source")
	cmd.Flags().BoolVar(&f.autoescape, "autoescape", false,
		"Escape output by default")
	cmd.Flags().StringArrayVar(&f.replace, "replace", nil,
		"Rewrite template ids, as old=new (can be repeated, first match wins)")
	cmd.Flags().BoolVar(&f.failOnError, "fail-on-error", false,
		"Stop at the first template that fails to compile")
	cmd.Flags().StringVarP(&f.config, "config", "c", "",
		"YAML file of options")
	cmd.Flags().StringVarP(&f.out, "out", "o", "",
		"Directory to write modules to (default: stdout)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false,
		"Compile again when templates change")
	return cmd
}

func run(cmd *cobra.Command, f *flags, paths []string) error {
	twigify.Logger = log.New(cmd.ErrOrStderr(), "", 0)

	opts, err := loadOptions(f.config)
	if err != nil {
		return err
	}
	if err = f.apply(cmd, &opts); err != nil {
		return err
	}

	var w = cmd.OutOrStdout()
	var bundle = twigify.NewBundle().WithOptions(opts).WatchFiles(f.watch)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			bundle.AddTemplateDir(path)
		} else {
			bundle.AddTemplateFile(path)
		}
	}
	bundle.SetRecompilationCallback(func(modules twigify.Modules) {
		if err := write(w, f.out, paths, modules); err != nil {
			twigify.Logger.Println(err)
		}
	})

	modules, err := bundle.Compile()
	if err != nil {
		return err
	}
	if err = write(w, f.out, paths, modules); err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	var ctx, stop = signal.NotifyContext(contextOf(cmd), os.Interrupt)
	defer stop()
	<-ctx.Done()
	return bundle.Close()
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// apply overrides opts with the flags that were passed.
func (f *flags) apply(cmd *cobra.Command, opts *twigify.Options) error {
	var changed = cmd.Flags().Changed
	if changed("ext") {
		opts.Extensions = f.extensions
	}
	if changed("relative-path") {
		opts.RelativePath = twigify.Bool(f.relativePath)
	}
	if changed("allow-inline-includes") {
		opts.AllowInlineIncludes = twigify.Bool(f.allowInlineIncludes)
	}
	if changed("autoescape") {
		opts.Autoescape = twigify.Bool(f.autoescape)
	}
	if changed("fail-on-error") {
		opts.FailOnError = twigify.Bool(f.failOnError)
	}
	if changed("replace") {
		var rp, err = parseReplacements(f.replace)
		if err != nil {
			return err
		}
		opts.ReplacePaths = rp
	}
	return nil
}

func loadOptions(path string) (twigify.Options, error) {
	if path == "" {
		return twigify.Options{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return twigify.Options{}, err
	}
	defer file.Close()
	opts, err := twigify.LoadOptions(file)
	if err != nil {
		return twigify.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

func parseReplacements(values []string) (twigify.ReplacePaths, error) {
	var rp = twigify.ReplacePaths{}
	for _, v := range values {
		search, replace, ok := strings.Cut(v, "=")
		if !ok || search == "" {
			return nil, fmt.Errorf("invalid --replace %q, expected old=new", v)
		}
		rp = append(rp, twigify.PathReplacement{Search: search, Replace: replace})
	}
	return rp, nil
}

// write outputs modules in path order. Without an output directory they are
// concatenated to w, each preceded by a comment naming its template.
func write(w io.Writer, out string, roots []string, modules twigify.Modules) error {
	var paths = make([]string, 0, len(modules))
	for path := range modules {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if out == "" {
			if _, err := fmt.Fprintf(w, "// %s%s\n", path, modules[path]); err != nil {
				return err
			}
			continue
		}
		var dest = filepath.Join(out, relativeTo(roots, path)+".js")
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, []byte(modules[path]), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// relativeTo returns path relative to the directory among roots that
// contains it, or its base name if none does.
func relativeTo(roots []string, path string) string {
	for _, root := range roots {
		if rel, err := filepath.Rel(root, path); err == nil &&
			rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(path)
}
