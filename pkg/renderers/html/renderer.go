// Package html paints a materialised form plan as a standalone HTML document
// using the pongo2-backed template engine. Conditional behaviour lives in the
// engine; the markup only reflects the plan it is handed.
package html

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/render/template"
	"github.com/quotelane/go-quoteform/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	engine template.TemplateRenderer
}

// Option configures the renderer.
type Option func(*Renderer)

// WithTemplateEngine swaps the default embedded template engine, letting
// callers supply their own template set.
func WithTemplateEngine(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// New constructs an HTML renderer backed by the embedded templates.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.engine == nil {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			return nil, err
		}
		engine, err := gotemplate.New(gotemplate.WithFS(sub))
		if err != nil {
			return nil, err
		}
		r.engine = engine
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "html" }

// ContentType reports the MIME type of Render output.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render produces the full HTML document for a plan.
func (r *Renderer) Render(ctx context.Context, plan render.Plan, options render.Options) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("html: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := plan.Title
	if options.Title != "" {
		title = options.Title
	}
	if title == "" {
		title = "Quote form"
	}

	data := map[string]any{
		"title":    title,
		"sections": sectionContexts(plan.Sections),
		"theme":    themeContext(options.Theme),
	}

	out, err := r.engine.RenderTemplate("form", data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func sectionContexts(sections []render.Section) []map[string]any {
	out := make([]map[string]any, 0, len(sections))
	for _, sec := range sections {
		out = append(out, map[string]any{
			"id":        sec.ID,
			"title":     sec.Title,
			"optional":  sec.Optional,
			"collapsed": sec.Collapsed,
			"banner":    sec.Banner,
			"active":    sec.Active,
			"entries":   entryContexts(sec.Entries),
		})
	}
	return out
}

func entryContexts(entries []render.Entry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		dependents := make([]map[string]any, 0, len(entry.Dependents))
		for _, dependent := range entry.Dependents {
			dependents = append(dependents, fieldContext(dependent))
		}

		subforms := make([]map[string]any, 0, len(entry.Subforms))
		for _, sub := range entry.Subforms {
			subforms = append(subforms, map[string]any{
				"key":      sub.Key,
				"sections": sectionContexts(sub.Sections),
			})
		}

		out = append(out, map[string]any{
			"field":      fieldContext(entry.Field),
			"grouped":    entry.Grouped(),
			"dependents": dependents,
			"subforms":   subforms,
		})
	}
	return out
}

func fieldContext(view render.FieldView) map[string]any {
	field := view.Descriptor
	label := field.Label
	if label == "" {
		label = field.Property
	}

	value := stringValue(view.Value)
	options := make([]map[string]any, 0, len(field.Options))
	for _, option := range field.Options {
		options = append(options, map[string]any{
			"value":    option,
			"selected": optionSelected(view.Value, option),
		})
	}

	return map[string]any{
		"property":   field.Property,
		"label":      label,
		"help":       field.HelpText,
		"required":   field.Required,
		"affordance": string(view.Affordance),
		"inputType":  inputType(view.Affordance),
		"value":      value,
		"options":    options,
		"gated":      view.Gated(),
		"gateState":  string(view.GateState),
		"prompt":     field.ValidationPrompt,
	}
}

func optionSelected(value any, option string) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v == option
	case bool:
		return (v && strings.EqualFold(option, "YES")) || (!v && strings.EqualFold(option, "NO"))
	case []string:
		for _, entry := range v {
			if entry == option {
				return true
			}
		}
		return false
	case []any:
		for _, entry := range v {
			if stringValue(entry) == option {
				return true
			}
		}
		return false
	default:
		return stringValue(v) == option
	}
}

func inputType(affordance render.Affordance) string {
	switch affordance {
	case render.AffordanceDate:
		return "date"
	case render.AffordanceNumber:
		return "number"
	case render.AffordanceEmail:
		return "email"
	case render.AffordanceTel:
		return "tel"
	case render.AffordanceFile:
		return "file"
	default:
		return "text"
	}
}

func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{"cssVarsStyle": ""}
	}
	return map[string]any{
		"name":         cfg.Theme,
		"variant":      cfg.Variant,
		"cssVarsStyle": cssVarsStyle(cfg.CSSVars),
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
