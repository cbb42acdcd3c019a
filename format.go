package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Statusf prints a progress line to stderr unless --quiet is set. Status
// lines never go to stdout, which is reserved for results.
func (cc *CLIContext) Statusf(format string, args ...any) {
	if cc.Flags.Quiet {
		return
	}

	fmt.Fprintf(cc.Err, format, args...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// binaryUnits runs largest first so the first fitting unit wins.
var binaryUnits = []struct {
	label string
	size  int64
}{
	{"TB", 1 << 40},
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
}

// formatSize renders n bytes with one decimal in the largest binary unit
// that fits, e.g. "1.5 KB".
func formatSize(n int64) string {
	for _, u := range binaryUnits {
		if n >= u.size {
			return fmt.Sprintf("%.1f %s", float64(n)/float64(u.size), u.label)
		}
	}

	return fmt.Sprintf("%d B", n)
}

// formatTime renders like ls -l: clock time within the current year, the
// year otherwise, "-" when unknown.
func formatTime(t time.Time) string {
	switch {
	case t.IsZero():
		return "-"
	case t.Year() == time.Now().Year():
		return t.Format("Jan _2 15:04")
	default:
		return t.Format("Jan _2  2006")
	}
}

// printTable writes headers and rows as space-aligned columns.
func printTable(w io.Writer, headers []string, rows [][]string) {
	all := append([][]string{headers}, rows...)
	widths := columnWidths(all)

	for _, row := range all {
		var b strings.Builder

		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}

			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}

		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func columnWidths(rows [][]string) []int {
	var widths []int

	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}

			widths[i] = max(widths[i], len(cell))
		}
	}

	return widths
}

// printKV writes "Label:  value" lines aligned on the longest label.
// Pairs with an empty value are skipped but still count toward the width.
func printKV(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0])+1)
	}

	for _, p := range pairs {
		if p[1] != "" {
			fmt.Fprintf(w, "%-*s  %s\n", width, p[0]+":", p[1])
		}
	}
}
