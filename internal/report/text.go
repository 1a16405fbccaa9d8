package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/vigireport/internal/model"
)

// indent is one level of the reaction tree.
const indent = "    "

// TextWriter outputs the report in the layout of the VigiAccess result page.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeReactions(&sb, report)
	for i, d := range report.Distributions {
		if i == 0 {
			sb.WriteString("\n")
		}
		w.writeDistribution(&sb, d)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString("VigiAccess™ FAQ\n")
	sb.WriteString("Hover to show search tips\n")
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s contains the active ingredient(s): %s.\n", report.SearchTerm, capitalize(report.SearchTerm))
	sb.WriteString("Result is presented for the active ingredient(s).\n")
	fmt.Fprintf(sb, "Total number of records retrieved: %d. Hover to show information\n", report.TotalCount)
}

func (w *TextWriter) writeReactions(sb *strings.Builder, report *model.Report) {
	sb.WriteString("Distribution\n")
	sb.WriteString("Adverse drug reactions (ADRs)\n")
	sb.WriteString("\n")
	for _, l := range report.Lines {
		fmt.Fprintf(sb, "%s%s (%d)\n", strings.Repeat(indent, l.Depth), l.Text, l.Count)
	}
}

func (w *TextWriter) writeDistribution(sb *strings.Builder, d model.Distribution) {
	sb.WriteString(d.Title + "\n")
	sb.WriteString(d.Column + " \tCount \tPercentage\n")
	for _, row := range d.Rows {
		fmt.Fprintf(sb, "%s \t%d \t%s\n", row.Description, row.Count, percentText(row))
	}
}

// percentText renders a row's percentage, or n/a when there is none.
func percentText(row model.DistributionRow) string {
	if !row.HasPercent {
		return "n/a"
	}
	return strconv.Itoa(row.Percent)
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
