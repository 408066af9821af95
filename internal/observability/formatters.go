// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonathan/policy-generator/internal/orchestrator"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewLines is how many document lines PrintPreview shows
	previewLines = 8
)

// Entry summarizes one generated document.
type Entry struct {
	Result   *orchestrator.Result
	Filename string
	Copied   bool
	Err      error
}

// Printer handles formatted output for terminal summaries. It is safe for
// concurrent use.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or pads line to the box's inner width in runes.
func pad(line string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-n)
}

// PrintSummary outputs one line per requested policy type.
func (p *Printer) PrintSummary(entries []Entry, elapsed time.Duration) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	for _, e := range entries {
		if e.Err != nil || e.Result == nil {
			failed++
			label := "unknown"
			if e.Result != nil {
				label = e.Result.PolicyType.Label()
			}
			sb.WriteString(fmt.Sprintf("✗ %s\n", label))
			if e.Err != nil {
				sb.WriteString(fmt.Sprintf("    %v\n", e.Err))
			}
			continue
		}

		sb.WriteString(fmt.Sprintf("✓ %s (%s)\n", e.Result.PolicyType.Label(), e.Result.Source))
		sb.WriteString(fmt.Sprintf("    %d characters", utf8.RuneCountInString(e.Result.Policy)))
		if e.Filename != "" {
			sb.WriteString(", saved as " + e.Filename)
		}
		if e.Copied {
			sb.WriteString(", copied")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n%d of %d succeeded in %s", len(entries)-failed, len(entries), elapsed.Round(time.Millisecond)))
	p.printBox("POLICY GENERATION", sb.String())
}

// PrintPreview outputs the first lines of a document.
func (p *Printer) PrintPreview(result *orchestrator.Result) {
	if result == nil || result.Policy == "" {
		return
	}

	lines := strings.Split(strings.TrimRight(result.Policy, "\n"), "\n")
	shown := min(len(lines), previewLines)
	content := strings.Join(lines[:shown], "\n")
	if len(lines) > previewLines {
		content += fmt.Sprintf("\n... and %d more lines", len(lines)-previewLines)
	}

	p.printBox(strings.ToUpper(result.PolicyType.Label()), content)
}

// PrintNotice outputs a user notice on a single line.
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) PrintNotice(n orchestrator.Notice) {
	marker := "•"
	if n.Variant == orchestrator.VariantDestructive {
		marker = "!"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s: %s\n", marker, n.Title, n.Description)
}
