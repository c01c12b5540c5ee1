/*
Package hashtpl is a text template engine with #directive syntax.

Templates mix literal text with ${expression} interpolations and directives:

  #var(List users)
  #macro(row(u))<li>${u.name}</li>#end
  <ul>
  #for(u : users)
    ${row(u)}
  #else
    <li>nobody</li>
  #end
  </ul>

Usage example

Typically in a web application you have a directory containing views for all of
your pages.  For example:

  app/views/
  app/views/account/
  app/views/feed/
  ...

On startup, load the configuration and build an engine.  Templates are read
from the configured directory on first use and cached.  (Error checking is
skipped.)

  cfg, _ := config.ReadFile("hashtpl.yaml")
  engine, _ := hashtpl.NewBuilder(cfg).
      WatchFiles(mode == "dev").              // evict templates when they change
      GlobalsFile("views/globals.yaml").      // values visible to every template
      Build()

To render a page:

  tmpl, err := engine.GetTemplate("account/overview")
  if err != nil {
      ...
  }
  err = tmpl.Render(resp, map[string]interface{}{
      "user":    user,
      "account": account,
  })

Render converts Go values with data.New.  Templates that are rendered often
with the same data can be given a data.Map directly with Execute.

Localized templates

GetLocalizedTemplate looks for the most specific localized variant of a
template, e.g. "page_zh_CN.httl", then "page_zh.httl", then "page.httl".

Backends

Templates are rendered by the interpreter in package render, or, with
backend: javascript, compiled to JavaScript and run by package jsbackend.
Both produce the same output and errors.

Advanced Usage

The hashtpl package provides a friendly interface to its sub-packages.
Advanced usages like automated template rewriting will be better served by
using e.g. hashtpl/parse directly.
*/
package hashtpl
