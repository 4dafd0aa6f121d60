// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/study-agent/internal/extract"
	"github.com/jonathan/study-agent/internal/study"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxLinesToShow is the default number of content lines to display per box
	maxLinesToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// preview returns the first maxLinesToShow non-empty lines of text.
func preview(text string) string {
	var lines []string
	skipped := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(lines) == maxLinesToShow {
			skipped++
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "(empty)"
	}
	if skipped > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more lines", skipped))
	}
	return strings.Join(lines, "\n")
}

// PrintDocument outputs what was extracted from an input document.
func (p *Printer) PrintDocument(name string, format extract.Format, data []byte, text string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("File:     %s\n", name))
	sb.WriteString(fmt.Sprintf("Format:   %s\n", format.Label()))
	sb.WriteString(fmt.Sprintf("Detected: %s\n", extract.DetectMIME(data)))
	sb.WriteString(fmt.Sprintf("Size:     %d bytes\n", len(data)))
	sb.WriteString(fmt.Sprintf("Text:     %d characters, %d words\n", utf8.RuneCountInString(text), len(strings.Fields(text))))
	sb.WriteString("\n")
	sb.WriteString(preview(text))

	p.printBox("EXTRACTED DOCUMENT", sb.String())
}

// PrintArtifacts outputs each generated study artifact in its own box.
func (p *Printer) PrintArtifacts(artifacts *study.Artifacts) {
	if artifacts == nil {
		return
	}

	p.printBox(fmt.Sprintf("SUMMARY (%s)", artifacts.ModelUsed), preview(artifacts.Summary))
	p.printBox("QUIZ", preview(artifacts.Quiz))
	p.printBox("KEYWORDS", preview(artifacts.Keywords))
	p.printBox("FLASHCARDS", preview(artifacts.Flashcards))
}
