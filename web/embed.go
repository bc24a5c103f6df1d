// Package web embeds the explorer's HTML templates and stylesheet.
package web

import "embed"

// TemplatesFS holds layouts, pages and HTMX partials under templates/.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS holds the stylesheet under static/.
//
//go:embed all:static
var StaticFS embed.FS
