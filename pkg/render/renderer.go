package render

import (
	"context"

	theme "github.com/goliatone/go-theme"
)

// Renderer converts a Plan into a byte representation (HTML, text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, plan Plan, options Options) ([]byte, error)
}

// Options carries per-request instructions renderers may honour.
type Options struct {
	// Title overrides the plan title.
	Title string

	// Theme supplies resolved theme tokens and CSS variables for renderers
	// that paint chrome.
	Theme *theme.RendererConfig
}
