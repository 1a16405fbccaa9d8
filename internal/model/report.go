package model

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/sha3"
)

// Report is the resolved result of one run.
type Report struct {
	// SearchTerm is the term the drug was looked up by.
	SearchTerm string `json:"search_term"`

	// DrugID is the encrypted drug identifier returned by the search.
	DrugID string `json:"drug_id"`

	// GeneratedAt is when the run started.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalCount is the number of individual case reports.
	TotalCount int `json:"total_count"`

	// Lines holds the reaction tree in the order it was received.
	Lines []Line `json:"lines"`

	// Distributions holds the percentage tables.
	Distributions []Distribution `json:"distributions"`

	// Unknown lists the code points the translator could not classify.
	Unknown []UnknownChar `json:"unknown_characters"`

	// Summary is the raw aggregate response, shared between pipeline steps.
	Summary *Summary `json:"-"`
}

// NewReport returns an empty report for term.
func NewReport(term string) *Report {
	return &Report{
		SearchTerm:    term,
		GeneratedAt:   time.Now(),
		Lines:         make([]Line, 0),
		Distributions: make([]Distribution, 0),
		Unknown:       make([]UnknownChar, 0),
	}
}

// Line is one resolved entry of the reaction tree.
type Line struct {
	// Text is the de-obfuscated description.
	Text string `json:"text"`

	// Count is the number of reports.
	Count int `json:"count"`

	// Depth is 1 for a category and 2 for a detail term.
	Depth int `json:"depth"`
}

// Line depths.
const (
	DepthCategory = 1
	DepthDetail   = 2
)

// AddLines appends lines to the reaction tree.
func (r *Report) AddLines(lines ...Line) {
	r.Lines = append(r.Lines, lines...)
}

// CategoryCount returns the number of category lines.
func (r *Report) CategoryCount() int {
	n := 0
	for _, l := range r.Lines {
		if l.Depth == DepthCategory {
			n++
		}
	}
	return n
}

// Distribution is a percentage table.
type Distribution struct {
	// Title is the section heading, e.g. "Geographical distribution".
	Title string `json:"title"`

	// Column is the label of the first column, e.g. "Continent".
	Column string `json:"column"`

	// Rows holds one row per record, in service order.
	Rows []DistributionRow `json:"rows"`

	// Total is the sum of all counts.
	Total int `json:"total"`

	// Unavailable is set when percentages could not be computed.
	Unavailable bool `json:"unavailable,omitempty"`
}

// DistributionRow is one row of a Distribution.
type DistributionRow struct {
	Description string `json:"description"`
	Count       int    `json:"count"`

	// Percent is floor(100*Count/Total). It is meaningless when
	// HasPercent is false.
	Percent    int  `json:"percent"`
	HasPercent bool `json:"has_percent"`
}

// UnknownChar is a ledger entry attached to a report.
type UnknownChar struct {
	CodePoint   int    `json:"code_point"`
	Char        string `json:"char"`
	Name        string `json:"name"`
	Hint        string `json:"hint,omitempty"`
	Occurrences int    `json:"occurrences"`
	FirstSeenIn string `json:"first_seen_in"`
}

// Diagnostic renders the entry as "<char>---<name>".
func (u UnknownChar) Diagnostic() string {
	return u.Char + "---" + u.Name
}

// digestContent is the part of a report that identifies its results.
type digestContent struct {
	SearchTerm    string         `json:"search_term"`
	TotalCount    int            `json:"total_count"`
	Lines         []Line         `json:"lines"`
	Distributions []Distribution `json:"distributions"`
}

// Digest returns a SHA3-256 hex digest of the report's results. Two runs
// with the same digest returned identical statistics.
func (r *Report) Digest() string {
	data, err := json.Marshal(digestContent{
		SearchTerm:    r.SearchTerm,
		TotalCount:    r.TotalCount,
		Lines:         r.Lines,
		Distributions: r.Distributions,
	})
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
