package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vigireport/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport("covid-19 vaccine")
	report.GeneratedAt = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	report.DrugID = "encrypted-drug-id"
	report.TotalCount = 30
	report.AddLines(
		model.Line{Text: "NERVOUS SYSTEM DISORDERS", Count: 20, Depth: model.DepthCategory},
		model.Line{Text: "HEADACHE", Count: 12, Depth: model.DepthDetail},
		model.Line{Text: "DIZZINESS", Count: 8, Depth: model.DepthDetail},
		model.Line{Text: "GENERAL DISORDERS", Count: 10, Depth: model.DepthCategory},
	)
	report.Distributions = []model.Distribution{
		{
			Title:  "Geographical distribution",
			Column: "Continent",
			Total:  4,
			Rows: []model.DistributionRow{
				{Description: "Europe", Count: 3, Percent: 75, HasPercent: true},
				{Description: "Asia", Count: 1, Percent: 25, HasPercent: true},
			},
		},
		{
			Title:       "Age group distribution",
			Column:      "Age group",
			Unavailable: true,
			Rows: []model.DistributionRow{
				{Description: "Unknown", Count: 0},
			},
		},
	}
	return report
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the legacy layout", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := strings.Join([]string{
			"",
			"VigiAccess™ FAQ",
			"Hover to show search tips",
			"",
			"covid-19 vaccine contains the active ingredient(s): Covid-19 vaccine.",
			"Result is presented for the active ingredient(s).",
			"Total number of records retrieved: 30. Hover to show information",
			"Distribution",
			"Adverse drug reactions (ADRs)",
			"",
			"    NERVOUS SYSTEM DISORDERS (20)",
			"        HEADACHE (12)",
			"        DIZZINESS (8)",
			"    GENERAL DISORDERS (10)",
			"",
			"Geographical distribution",
			"Continent \tCount \tPercentage",
			"Europe \t3 \t75",
			"Asia \t1 \t25",
			"Age group distribution",
			"Age group \tCount \tPercentage",
			"Unknown \t0 \tn/a",
			"",
		}, "\n")

		if got := buf.String(); got != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and charts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# VigiAccess Report: covid-19 vaccine",
			"## Adverse drug reactions (ADRs)",
			"HEADACHE",
			"## Geographical distribution",
			"```mermaid",
			"75%",
			"n/a",
			"## Unknown Characters",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("lists unknown characters", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Unknown = []model.UnknownChar{
			{CodePoint: 0xA4D5, Char: "\uA4D5", Name: "LISU LETTER THA", Occurrences: 2},
		}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "U+A4D5") {
			t.Error("expected code point in output")
		}
		if !strings.Contains(output, "LISU LETTER THA") {
			t.Error("expected character name in output")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON with digest", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["search_term"] != "covid-19 vaccine" {
			t.Errorf("unexpected search_term: %v", decoded["search_term"])
		}
		if decoded["digest"] != report.Digest() {
			t.Errorf("unexpected digest: %v", decoded["digest"])
		}
		if _, ok := decoded["Summary"]; ok {
			t.Error("summary should not be serialized")
		}
	})

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected a single trailing newline")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"search_term\"") {
			t.Error("expected indented output")
		}
	})
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: FormatText, want: "*report.TextWriter"},
		{format: "", want: "*report.TextWriter"},
		{format: FormatMarkdown, want: "*report.MarkdownWriter"},
		{format: FormatJSON, want: "*report.JSONWriter"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			w, err := NewWriter(tt.format, io.Discard)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch w.(type) {
			case *TextWriter, *MarkdownWriter, *JSONWriter:
			default:
				t.Errorf("unexpected writer type %T, want %s", w, tt.want)
			}
		})
	}
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write(*model.Report) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewTextWriter(&a), NewJSONWriter(&b))
		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewTextWriter(&buf))
		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not have been called")
		}
	})
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	t.Run("publishes the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "report.txt")
		err := WriteFile(path, func(w io.Writer) error {
			_, err := NewTextWriter(w).Write(createTestReport())
			return err
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "HEADACHE (12)") {
			t.Error("expected report content")
		}
	})

	t.Run("leaves nothing behind on failure", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "report.txt")
		wantErr := errors.New("render failed")

		err := WriteFile(path, func(w io.Writer) error {
			if _, err := io.WriteString(w, "partial"); err != nil {
				return err
			}
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected render error, got %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty directory, found %d entries", len(entries))
		}
	})

	t.Run("keeps the previous file on failure", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "report.txt")
		if err := os.WriteFile(path, []byte("previous"), 0o600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		_ = WriteFile(path, func(io.Writer) error { //nolint:errcheck // failure is the point
			return errors.New("render failed")
		})

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(data) != "previous" {
			t.Errorf("expected previous content, got %q", data)
		}
	})
}
