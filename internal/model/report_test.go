package model

import (
	"testing"
)

func TestNewReport(t *testing.T) {
	t.Parallel()

	r := NewReport("covid-19 vaccine")
	if r.SearchTerm != "covid-19 vaccine" {
		t.Errorf("expected search term to be kept, got %q", r.SearchTerm)
	}
	if r.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
	if r.Lines == nil || r.Distributions == nil || r.Unknown == nil {
		t.Error("expected slices to be initialized")
	}
}

func TestReportCategoryCount(t *testing.T) {
	t.Parallel()

	r := NewReport("term")
	r.AddLines(
		Line{Text: "Cardiac disorders", Count: 10, Depth: DepthCategory},
		Line{Text: "Palpitations", Count: 6, Depth: DepthDetail},
		Line{Text: "Tachycardia", Count: 4, Depth: DepthDetail},
		Line{Text: "Eye disorders", Count: 2, Depth: DepthCategory},
	)

	if got := r.CategoryCount(); got != 2 {
		t.Errorf("expected 2 categories, got %d", got)
	}
}

func TestReportDigest(t *testing.T) {
	t.Parallel()

	build := func(count int) *Report {
		r := NewReport("term")
		r.TotalCount = 100
		r.AddLines(Line{Text: "Cardiac disorders", Count: count, Depth: DepthCategory})
		return r
	}

	t.Run("same results give the same digest", func(t *testing.T) {
		t.Parallel()
		a, b := build(10), build(10)
		if a.Digest() != b.Digest() {
			t.Error("expected equal digests")
		}
		if len(a.Digest()) != 64 {
			t.Errorf("expected 64 hex characters, got %d", len(a.Digest()))
		}
	})

	t.Run("different counts give different digests", func(t *testing.T) {
		t.Parallel()
		if build(10).Digest() == build(11).Digest() {
			t.Error("expected digests to differ")
		}
	})

	t.Run("unknown characters do not affect the digest", func(t *testing.T) {
		t.Parallel()
		a, b := build(10), build(10)
		b.Unknown = append(b.Unknown, UnknownChar{CodePoint: 0x2603, Char: "☃", Name: "SNOWMAN"})
		if a.Digest() != b.Digest() {
			t.Error("expected equal digests")
		}
	})
}

func TestUnknownCharDiagnostic(t *testing.T) {
	t.Parallel()

	u := UnknownChar{Char: "☃", Name: "SNOWMAN"}
	if got := u.Diagnostic(); got != "☃---SNOWMAN" {
		t.Errorf("unexpected diagnostic %q", got)
	}
}
