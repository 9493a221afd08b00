// Package web embeds the browser editor.
package web

import "embed"

// Assets holds the static editor page under static/
//
//go:embed static
var Assets embed.FS
