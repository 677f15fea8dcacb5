/*
Package twigify precompiles Twig templates into CommonJS modules for the
Twig.js runtime.

A bundler hands each source file to the transform. Files whose extension is
not configured (".twig" and ".html" by default) pass through untouched and
produce no output. The text of every other file is compiled to Twig.js tokens
and replaced by a module that registers the precompiled template:

  module.exports = Twig.twig({ id: "/app/views/index.twig", data:[...], precompiled: true, allowInlineIncludes: false, autoescape: false });

Usage example

Streams are io.WriteClosers. Write the template text, then Close to emit the
module source:

  var fn = twigify.CreateTransform(twigify.Options{
      ReplacePaths: twigify.ReplacePaths{{Search: "/app/views", Replace: "@views"}},
  })
  var s = fn("/srv/app/views/index.twig", w)
  s.Write(text)
  err := s.Close()

Options

Options that are not set keep the value left by earlier invocations on the same
Transformer, so a setting stays in effect until it is changed. The package-level
functions share the Default transformer; use NewTransformer for an isolated
configuration. The extension list is the exception: it applies to a single
invocation.

  extensions           extensions to transform, compared without case
  relativePath         identify templates by __filename and __dirname
  allowInlineIncludes  passed to Twig.twig
  autoescape           passed to Twig.twig
  replacePaths         rewrite the template path used as its id
  failOnError          abort on compile errors instead of exporting undefined

Options may be read from YAML with LoadOptions.

Errors

A template that fails to compile is reported on Logger as a single line
starting with "Twig compile error: ". Unless failOnError is set the stream
still succeeds and the module exports undefined.

Bundles

Without a bundler, a Bundle collects template files and directories and
compiles them all, optionally watching the files and compiling them again when
they change:

  modules, err := twigify.NewBundle().
      WatchFiles(dev).
      AddTemplateDir("views").
      SetRecompilationCallback(func(m twigify.Modules) { ... }).
      Compile()
*/
package twigify
