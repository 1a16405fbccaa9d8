// Package report renders a model.Report.
//
// Three formats are supported:
//   - TextWriter: the plain text layout of the WHO database dump, with the
//     reaction tree indented four spaces per level and tab separated
//     distribution tables
//   - MarkdownWriter: tables and mermaid pie charts for sharing
//   - JSONWriter: structured output for tooling
//
// WriteFile publishes a rendered report atomically.
package report
