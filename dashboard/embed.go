// Package dashboard provides the embedded status page.
//
// The page is compiled into the binary with the embed directive and served
// by the server package at "/". It polls /api/stats and follows /api/sse for
// received records.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the status page.
//
//	assets/
//	  index.html    - status page with inline CSS and JavaScript
//
// The {{.Title}} placeholder is replaced with the HTML-escaped service name
// when the page is served.
//
//go:embed assets/*
var Assets embed.FS
