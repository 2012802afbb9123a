// Package output provides window report formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/recomb-window/internal/window"
)

// Columns is the fixed report header.
var Columns = []string{"chromosome", "interval", "mean_recomb_rate"}

// CSVWriter writes windows as comma-separated rows.
type CSVWriter struct {
	w    *bufio.Writer
	rows int
}

// NewCSVWriter creates a new CSV report writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (cw *CSVWriter) WriteHeader() error {
	_, err := cw.w.WriteString(strings.Join(Columns, ",") + "\n")
	return err
}

// Write writes a single window as "<chrom>,<start>-<end>,<mean>".
func (cw *CSVWriter) Write(w window.Window) error {
	values := []string{
		w.Chrom,
		FormatSpan(w.Start, w.End),
		FormatRate(w.MeanRate),
	}
	cw.rows++
	_, err := cw.w.WriteString(strings.Join(values, ",") + "\n")
	return err
}

// WriteAll writes every window of every chromosome in order.
func (cw *CSVWriter) WriteAll(cws []window.ChromosomeWindows) error {
	for _, c := range cws {
		for _, w := range c.Windows {
			if err := cw.Write(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rows returns the number of window rows written.
func (cw *CSVWriter) Rows() int {
	return cw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	return cw.w.Flush()
}

// FormatSpan formats a window span as "start-end".
func FormatSpan(start, end int64) string {
	return strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
}

// FormatRate formats a mean rate in its shortest decimal form, without an exponent.
func FormatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReportPath returns path with its extension replaced by ".csv".
func ReportPath(path string) string {
	if path == "" || path == "-" {
		return path
	}
	base := path
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexAny(path, `/\`)+1 {
		base = path[:i]
	}
	return base + ".csv"
}
