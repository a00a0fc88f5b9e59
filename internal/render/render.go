// Package render writes experiments and tables to the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/tunelab/tunestore/internal/dataset"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxCellWidth caps the display width of one table cell.
const MaxCellWidth = 32

var printer = message.NewPrinter(language.English)

// Count formats n with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// IsTerminal reports whether w is a terminal. Pipes and files get
// tab-separated output instead of padded columns.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Table writes headers and rows. Padded, truncated columns when pretty is
// set; tab-separated values otherwise.
func Table(w io.Writer, pretty bool, headers []string, rows [][]string) error {
	if !pretty {
		return writeTSV(w, headers, rows)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i := range min(len(r), len(widths)) {
			widths[i] = max(widths[i], min(runewidth.StringWidth(r[i]), MaxCellWidth))
		}
	}

	if err := writeRow(w, headers, widths); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	if err := writeRow(w, rule, widths); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(w, r, widths); err != nil {
			return err
		}
	}
	return nil
}

// Frame writes up to limit rows of t (all rows when limit <= 0).
func Frame(w io.Writer, pretty bool, t *dataset.Table, limit int) error {
	page := t.Slice(0, limit)
	cols := page.Columns()
	rows := make([][]string, page.Len())
	for i := range rows {
		r := make([]string, len(cols))
		for j, c := range cols {
			r[j] = page.Value(i, c).String()
		}
		rows[i] = r
	}
	if err := Table(w, pretty, cols, rows); err != nil {
		return err
	}
	if rest := t.Len() - page.Len(); rest > 0 && pretty {
		_, err := fmt.Fprintf(w, "... %s more rows\n", Count(rest))
		return err
	}
	return nil
}

// KeyValues writes one "key  value" line per pair with the keys aligned.
func KeyValues(w io.Writer, pairs [][2]string) error {
	width := 0
	for _, p := range pairs {
		width = max(width, runewidth.StringWidth(p[0]))
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s  %s\n", padRight(p[0], width), p[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		var s string
		if i < len(cells) {
			s = truncate(cells[i], width)
		}
		if i < len(widths)-1 {
			s = padRight(s, width)
		}
		parts[i] = s
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, "  "))
	return err
}

func writeTSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(r, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// truncate shortens s to the given display width, replacing the tail with "…".
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
