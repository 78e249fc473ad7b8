// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Reporter defines the interface for writing run reports to an output.
type Reporter interface {
	// Write renders one report.
	Write(report *Report) error
	// Close finalizes the output and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format ("text" or "json") writing to outputPath,
// where "" and "stdout" mean standard output.
func New(format, outputPath string) (Reporter, error) {
	switch format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if outputPath == "" || outputPath == "stdout" {
		return NewStream(format, os.Stdout), nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	return NewWriter(format, f), nil
}

// NewStream builds a reporter over a writer it does not own; Close is a no-op.
func NewStream(format string, w io.Writer) Reporter {
	return NewWriter(format, &nopWriteCloser{w})
}

// NewWriter builds a reporter over an existing writer. Unknown formats fall
// back to text. The reporter takes ownership of w.
func NewWriter(format string, w io.WriteCloser) Reporter {
	if format == "json" {
		return &jsonReporter{w: w}
	}
	return &textReporter{w: w}
}

var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

type jsonReporter struct {
	w io.WriteCloser
}

func (r *jsonReporter) Write(report *Report) error {
	enc := jsonAPI.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (r *jsonReporter) Close() error { return r.w.Close() }

type textReporter struct {
	w io.WriteCloser
}

func (r *textReporter) Write(report *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s)\n", report.RunID, report.Duration.Round(time.Millisecond))
	for _, s := range report.Scenarios {
		fmt.Fprintf(&b, "\n%s %s\n", verdict(s.Passed), s.Name)
		for _, c := range s.Checks {
			fmt.Fprintf(&b, "  %s %s", verdict(c.Passed), c.Name)
			if c.Message != "" {
				fmt.Fprintf(&b, ": %s", c.Message)
			}
			b.WriteByte('\n')
		}
		for i, a := range s.Attempts {
			fmt.Fprintf(&b, "  attempt %d: %s %q", i+1, a.Outcome, a.Title)
			if a.Error != "" {
				fmt.Fprintf(&b, " (%s)", a.Error)
			}
			b.WriteByte('\n')
		}
		if s.Selected != nil {
			fmt.Fprintf(&b, "  selected: %s | %s | %s\n", s.Selected.Title, s.Selected.Department, s.Selected.Location)
		}
	}
	if report.Passed {
		b.WriteString("\nPASSED\n")
	} else {
		fmt.Fprintf(&b, "\nFAILED (%d failed checks)\n", report.Failures())
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *textReporter) Close() error { return r.w.Close() }

func verdict(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
