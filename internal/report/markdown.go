package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/vigireport/internal/model"
)

// MarkdownWriter outputs reports in Markdown format with a mermaid pie
// chart per distribution.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeReactions(md, report)
	for _, d := range report.Distributions {
		w.writeDistribution(md, d)
	}
	w.writeUnknown(md, report)
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("VigiAccess Report: " + report.SearchTerm)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Search Term", report.SearchTerm},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Records", strconv.Itoa(report.TotalCount)},
			{"Reaction Groups", strconv.Itoa(report.CategoryCount())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeReactions(md *markdown.Markdown, report *model.Report) {
	md.H2("Adverse drug reactions (ADRs)")
	md.PlainText("")

	if len(report.Lines) == 0 {
		md.PlainText("No reactions reported.")
		md.PlainText("")
		return
	}

	var rows [][]string
	group := ""
	for _, l := range report.Lines {
		if l.Depth == model.DepthCategory {
			group = l.Text
			rows = append(rows, []string{"**" + escapeCell(l.Text) + "**", "", "**" + strconv.Itoa(l.Count) + "**"})
			continue
		}
		rows = append(rows, []string{escapeCell(group), escapeCell(l.Text), strconv.Itoa(l.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Group", "Reaction", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDistribution(md *markdown.Markdown, d model.Distribution) {
	md.H2(d.Title)
	md.PlainText("")

	rows := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		pct := percentText(row)
		if row.HasPercent {
			pct += "%"
		}
		rows[i] = []string{escapeCell(row.Description), strconv.Itoa(row.Count), pct}
	}
	md.Table(markdown.TableSet{
		Header: []string{d.Column, "Count", "Percentage"},
		Rows:   rows,
	})
	md.PlainText("")

	if d.Unavailable {
		md.Warningf("The counts of %q sum to zero; percentages are not available.", d.Title)
		md.PlainText("")
		return
	}
	w.writePieChart(md, d)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, d model.Distribution) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(d.Title),
		piechart.WithShowData(true),
	)
	for _, row := range d.Rows {
		if row.Count > 0 {
			chart.LabelAndIntValue(row.Description, uint64(row.Count)) //nolint:gosec // counts are non-negative
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeUnknown(md *markdown.Markdown, report *model.Report) {
	md.H2("Unknown Characters")
	md.PlainText("")

	if len(report.Unknown) == 0 {
		md.Tip("Every character was de-obfuscated.")
		md.PlainText("")
		return
	}

	md.Cautionf("%d unknown character(s) were removed from the output. Labels containing them may be incomplete.",
		len(report.Unknown))
	md.PlainText("")

	rows := make([][]string, len(report.Unknown))
	for i, u := range report.Unknown {
		hint := u.Hint
		if hint == "" {
			hint = "-"
		}
		rows[i] = []string{
			fmt.Sprintf("U+%04X", u.CodePoint),
			"`" + u.Char + "`",
			u.Name,
			hint,
			strconv.Itoa(u.Occurrences),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Code Point", "Char", "Name", "Hint", "Occurrences"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *model.Report) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Digest `%s`*", report.Digest())
}

// escapeCell keeps table cells on a single row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
