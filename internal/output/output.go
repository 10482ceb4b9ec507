// Package output writes command results as pretty text, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format selects how results are written.
type Format string

const (
	Pretty Format = "pretty"
	JSON   Format = "json"
	YAML   Format = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []Format{Pretty, JSON, YAML}

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q (want pretty, json or yaml)", s)
}

// Writer renders values to Out.
type Writer struct {
	Out    io.Writer
	Format Format
	// Query is a jq expression applied to structured output.
	Query string
	// Color highlights structured output and styles tables.
	Color bool
	Width int
}

// New returns a Writer, enabling color and reading the width when out is a terminal.
func New(out io.Writer, format Format, query string) *Writer {
	w := &Writer{Out: out, Format: format, Query: query, Width: 80}
	if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) {
		w.Color = true
		if width, _, err := term.GetSize(f.Fd()); err == nil && width >= 40 {
			w.Width = width
		}
	}
	return w
}

// Structured reports whether values are written as data rather than text.
func (w *Writer) Structured() bool {
	return w.Format != Pretty || w.Query != ""
}

// Write renders v. In pretty format without a query, pretty is called instead.
func (w *Writer) Write(v any, pretty func() string) error {
	if !w.Structured() {
		_, err := io.WriteString(w.Out, pretty())
		return err
	}

	data, err := normalize(v)
	if err != nil {
		return err
	}
	if w.Query != "" {
		if data, err = Query(w.Query, data); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	lexer := "json"
	if w.Format == YAML {
		lexer = "yaml"
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return err
		}
	}

	if w.Color {
		return quick.Highlight(w.Out, buf.String(), lexer, "terminal256", "monokai")
	}
	_, err = w.Out.Write(buf.Bytes())
	return err
}

// Query runs a jq expression over data. A single result is returned as is,
// several are returned as a list.
func Query(expr string, data any) (any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq query: %w", err)
	}

	var results []any
	iter := q.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if halt, ok := err.(*gojq.HaltError); ok && halt.Value() == nil {
				break
			}
			return nil, err
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// Table renders rows under headers.
func (w *Writer) Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		Rows(rows...)
	if w.Color {
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D7FF")).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	} else {
		cell := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(int, int) lipgloss.Style { return cell })
	}
	return t.String() + "\n"
}

// normalize converts v into the plain maps and slices gojq and yaml expect,
// keyed by the JSON field names.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
