// Package exporter renders scrape results as CSV, JSON, plain text or
// Markdown. Every encoder is pure: the same results always produce the
// same bytes.
package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

// ErrUnsupportedFormat is returned for unknown format names
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format names an export encoding
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

// Formats lists the accepted format names in display order.
var Formats = []Format{FormatCSV, FormatJSON, FormatText, FormatMarkdown}

// ParseFormat resolves a user-supplied format name. Matching is case
// insensitive and accepts a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type served for f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Exporter handles result export in various formats
type Exporter struct {
	title string
}

// New creates a new Exporter. title is used as the Markdown heading.
func New(title string) *Exporter {
	if title == "" {
		title = "Links"
	}
	return &Exporter{title: title}
}

// Export writes results to w in the given format
func (e *Exporter) Export(w io.Writer, results []string, format Format) error {
	switch format {
	case FormatCSV:
		return e.writeCSV(w, results)
	case FormatJSON:
		return e.writeJSON(w, results)
	case FormatText:
		return e.writeText(w, results)
	case FormatMarkdown:
		return e.writeMarkdown(w, results)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Render returns the export as a string
func (e *Exporter) Render(results []string, format Format) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf, results, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// writeCSV emits a URL header and one quoted value per line. Values are
// always quoted, unlike encoding/csv which quotes only when needed.
func (e *Exporter) writeCSV(w io.Writer, results []string) error {
	var b strings.Builder
	b.WriteString("URL\n")
	for _, r := range results {
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(r, `"`, `""`))
		b.WriteString("\"\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (e *Exporter) writeJSON(w io.Writer, results []string) error {
	if results == nil {
		results = []string{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (e *Exporter) writeText(w io.Writer, results []string) error {
	_, err := io.WriteString(w, strings.Join(results, "\n"))
	return err
}

func (e *Exporter) writeMarkdown(w io.Writer, results []string) error {
	md := markdown.NewMarkdown(w)
	md.H1(e.title)
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No links found.")
		return md.Build()
	}

	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{strconv.Itoa(i + 1), escapeCell(r)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL"},
		Rows:   rows,
	})
	return md.Build()
}

// escapeCell keeps a pipe inside a URL from splitting the table row
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
