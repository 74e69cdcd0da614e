package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/quotelane/go-quoteform/pkg/engine"
	"github.com/quotelane/go-quoteform/pkg/gate"
	"github.com/quotelane/go-quoteform/pkg/openapi"
	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/renderers/html"
	"github.com/quotelane/go-quoteform/pkg/renderers/tui"
	"github.com/quotelane/go-quoteform/pkg/schema"
	"github.com/quotelane/go-quoteform/pkg/schema/loader"
)

func main() {
	source := flag.String("source", "", "schema document path or URL (JSON or YAML)")
	operation := flag.String("operation", "", "treat the source as an OpenAPI document and use this operation's request body")
	rendererName := flag.String("renderer", "tui", "renderer to use: tui or html")
	validateURL := flag.String("validate-url", "", "validation service endpoint for gated fields")
	adviseURL := flag.String("advise-url", "", "advisory hint endpoint (optional)")
	output := flag.String("output", "", "output file (stdout if empty)")
	timeout := flag.Duration("timeout", 15*time.Second, "network timeout for schema and validation calls")
	flag.Parse()

	if strings.TrimSpace(*source) == "" {
		log.Fatal("missing -source: a schema document path or URL is required")
	}

	ctx := context.Background()

	s, err := loadSchema(ctx, *source, *operation, *timeout)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	validator, advisor := buildGateClients(*validateURL, *adviseURL, *timeout)

	e, err := engine.New(s, validator, advisor)
	if err != nil {
		log.Fatalf("Failed to build form engine: %v", err)
	}

	var out []byte
	switch *rendererName {
	case "tui":
		session, err := tui.New(e)
		if err != nil {
			log.Fatalf("Failed to start session: %v", err)
		}
		out, err = session.Run(ctx)
		if err != nil {
			log.Fatalf("Session failed: %v", err)
		}
	case "html":
		renderer, err := html.New()
		if err != nil {
			log.Fatalf("Failed to build renderer: %v", err)
		}
		out, err = renderer.Render(ctx, e.Materialize(), render.Options{})
		if err != nil {
			log.Fatalf("Failed to render form: %v", err)
		}
	default:
		log.Fatalf("Unknown renderer %q (want tui or html)", *rendererName)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func loadSchema(ctx context.Context, source, operation string, timeout time.Duration) (*schema.Schema, error) {
	isURL := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")

	if operation != "" {
		var (
			raw []byte
			err error
		)
		if isURL {
			raw, err = fetch(ctx, source, timeout)
		} else {
			raw, err = os.ReadFile(source)
		}
		if err != nil {
			return nil, err
		}
		return openapi.New().FromDocument(ctx, raw, operation)
	}

	l := loader.New(
		loader.WithHTTPClient(&http.Client{}),
		loader.WithRequestTimeout(timeout),
	)
	if isURL {
		return l.Load(ctx, schema.SourceFromURL(source))
	}
	return l.Load(ctx, schema.SourceFromFile(source))
}

func fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func buildGateClients(validateURL, adviseURL string, timeout time.Duration) (gate.Validator, gate.Advisor) {
	if strings.TrimSpace(validateURL) == "" {
		return nil, nil
	}

	opts := []gate.ClientOption{gate.WithTimeout(timeout)}
	if strings.TrimSpace(adviseURL) != "" {
		opts = append(opts, gate.WithAdviseURL(adviseURL))
	}
	client := gate.NewClient(validateURL, opts...)

	if strings.TrimSpace(adviseURL) == "" {
		return client, nil
	}
	return client, client
}
