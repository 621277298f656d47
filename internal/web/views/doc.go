// Package views renders the HTMX fragments served by the web package.
//
// Components live in views.templ; regenerate views_templ.go with
// `templ generate` after editing them.
package views
