package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cineconnect/cineconnect/internal/salesreport"
)

// Document kinds accepted by the render command.
const (
	KindSales   = "sales"
	KindReceipt = "receipt"
)

// RenderOptions defines available flags for the render command.
type RenderOptions struct {
	Kind       string
	Input      string
	Output     string
	Period     string
	JSONOutput bool
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// RenderSummary describes the JSON response for render.
type RenderSummary struct {
	Kind   string `json:"kind"`
	Output string `json:"output"`
	Pages  int    `json:"pages"`
	Bytes  int    `json:"bytes"`
}

// RenderCLI renders documents offline from JSON input files.
type RenderCLI struct {
	generator *salesreport.Generator
	validate  *validator.Validate
}

// NewRenderCLI constructs the render helper.
func NewRenderCLI(generator *salesreport.Generator) *RenderCLI {
	return &RenderCLI{generator: generator, validate: validator.New()}
}

// RenderCommand reads report or receipt data, renders it and writes the PDF.
// It returns the process exit code.
func (c *RenderCLI) RenderCommand(ctx context.Context, opts RenderOptions) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" {
		kind = KindSales
	}
	if kind != KindSales && kind != KindReceipt {
		_, _ = fmt.Fprintf(opts.Stderr, "render: unknown kind %q (expected sales or receipt)\n", opts.Kind)
		return 1
	}
	if strings.TrimSpace(opts.Output) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "render: --out is required")
		return 1
	}
	raw, err := c.readInput(opts)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: read input: %v\n", err)
		return 1
	}

	var rep salesreport.Report
	switch kind {
	case KindReceipt:
		var data salesreport.ReceiptData
		if err := json.Unmarshal(raw, &data); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: decode receipt: %v\n", err)
			return 1
		}
		if err := data.Validate(c.validate); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
			return 2
		}
		rep, err = c.generator.Receipt(ctx, data)
	default:
		var data salesreport.ReportData
		if err := json.Unmarshal(raw, &data); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: decode report data: %v\n", err)
			return 1
		}
		if err := data.Validate(c.validate); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
			return 2
		}
		period := strings.TrimSpace(opts.Period)
		if period == "" {
			period = data.Metadata.Period
		}
		if period == "" {
			period = "custom"
		}
		rep, err = c.generator.Generate(ctx, data, strings.ToLower(period))
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
		return 1
	}
	if err := os.WriteFile(opts.Output, rep.PDF, 0o644); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: write output: %v\n", err)
		return 1
	}

	summary := RenderSummary{Kind: kind, Output: opts.Output, Pages: rep.Pages, Bytes: len(rep.PDF)}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "wrote %s (%d pages, %d bytes)\n", summary.Output, summary.Pages, summary.Bytes)
	return 0
}

func (c *RenderCLI) readInput(opts RenderOptions) ([]byte, error) {
	if opts.Input == "" || opts.Input == "-" {
		return io.ReadAll(opts.Stdin)
	}
	return os.ReadFile(opts.Input)
}
