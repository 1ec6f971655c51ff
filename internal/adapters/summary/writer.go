// Package summary renders the outcome of a dispatch run for humans.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatJSON     = "json"
)

// StepSummaryEnv names the file CI runners collect step summaries from.
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

// Writer implements ports.SummaryWriter.
type Writer struct {
	out    io.Writer
	format string
	// stepSummary is appended to in markdown regardless of format. Empty disables it.
	stepSummary string
}

// NewWriter creates a summary writer. When stepSummaryFile is non-empty the markdown
// summary is also appended to it.
func NewWriter(out io.Writer, format, stepSummaryFile string) (*Writer, error) {
	switch format {
	case "":
		format = FormatMarkdown
	case FormatMarkdown, FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown summary format %q", format)
	}
	return &Writer{out: out, format: format, stepSummary: stepSummaryFile}, nil
}

// WriteSummary renders report to the configured output.
func (w *Writer) WriteSummary(_ context.Context, report *domain.Report) error {
	var err error
	switch w.format {
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err = enc.Encode(report); err == nil {
			err = enc.Close()
		}
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	default:
		_, err = io.WriteString(w.out, Markdown(report))
	}
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if w.stepSummary == "" {
		return nil
	}
	f, err := os.OpenFile(w.stepSummary, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, Markdown(report)); err != nil {
		return fmt.Errorf("writing step summary: %w", err)
	}
	return nil
}

// Markdown formats the report the way CI step summaries display it.
func Markdown(report *domain.Report) string {
	var b strings.Builder
	b.WriteString("## Build Summary\n\n")
	fmt.Fprintf(&b, "- **Branch:** %s\n", report.Branch)
	fmt.Fprintf(&b, "- **Commit:** %s\n", report.FullSHA)
	fmt.Fprintf(&b, "- **Short SHA:** %s\n", report.ShortSHA)
	b.WriteString("- **Tags:**\n")
	for _, t := range report.Tags {
		fmt.Fprintf(&b, "  - `%s`\n", t)
	}
	if report.Pushed {
		fmt.Fprintf(&b, "- **Pushed:** yes (cache `%s`)\n", report.CacheRef)
	} else {
		b.WriteString("- **Pushed:** no (build only)\n")
	}
	return b.String()
}
