// Package dashboard provides the embedded web widget for livecounter.
//
// This package uses Go's embed directive to include the widget HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The embedded assets are served by the server package at the root path ("/").
package dashboard

import "embed"

// Assets is an embedded filesystem containing the widget page.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Widget page with inline CSS and JavaScript
//
// The page subscribes to /api/sse, renders each field update, toggles the
// highlight class and reports visibilitychange to /api/visibility.
//
//go:embed assets/*
var Assets embed.FS
