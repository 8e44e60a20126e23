package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"purchase-archiver/internal/pipeline"
)

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format   string
	quiet    bool
	useColor bool
	out      io.Writer
	errOut   io.Writer

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(format string, quiet, noColor bool) *OutputFormatter {
	useColor := !noColor &&
		isatty.IsTerminal(os.Stdout.Fd()) &&
		termenv.ColorProfile() != termenv.Ascii

	return &OutputFormatter{
		format:       format,
		quiet:        quiet,
		useColor:     useColor,
		out:          os.Stdout,
		errOut:       os.Stderr,
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // Green
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // Red
	}
}

// runReport is the JSON shape of a run summary.
type runReport struct {
	Pipeline string `json:"pipeline"`
	Scanned  int    `json:"scanned"`
	Emitted  int    `json:"emitted"`
}

// PrintSummary prints a run summary for the named pipeline.
func (f *OutputFormatter) PrintSummary(name string, summary pipeline.Summary) error {
	if f.quiet {
		fmt.Fprintf(f.out, "%d\n", summary.Emitted)
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(f.out).Encode(runReport{
			Pipeline: name,
			Scanned:  summary.Scanned,
			Emitted:  summary.Emitted,
		})
	case "table":
		return f.printSummaryTable(name, summary)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if f.quiet {
		return
	}
	if f.useColor {
		fmt.Fprintf(f.out, "%s %s\n", f.successStyle.Render("✓"), message)
		return
	}
	fmt.Fprintf(f.out, "✓ %s\n", message)
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if f.quiet {
		return
	}
	if f.useColor {
		fmt.Fprintf(f.errOut, "%s Error: %v\n", f.errorStyle.Render("✗"), err)
		return
	}
	fmt.Fprintf(f.errOut, "✗ Error: %v\n", err)
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Fprintf(f.out, "ℹ %s\n", message)
	}
}

// printSummaryTable prints a run summary in table format
func (f *OutputFormatter) printSummaryTable(name string, summary pipeline.Summary) error {
	w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PIPELINE\tSCANNED\tEMITTED")
	fmt.Fprintf(w, "%s\t%d\t%d\n", name, summary.Scanned, summary.Emitted)

	return nil
}
