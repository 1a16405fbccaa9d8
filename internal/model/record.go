package model

// Category is a top-level adverse reaction group (system organ class)
// returned by the distribution endpoint.
type Category struct {
	// Description is the obfuscated category label.
	Description string

	// Count is the number of reports in the category.
	Count int

	// SocID is the encrypted category identifier used to fetch details.
	SocID string
}

// Detail is one reaction term inside a category page.
type Detail struct {
	// Description is the obfuscated term.
	Description string

	// Count is the number of reports for the term.
	Count int
}

// Record is one row of a side distribution (continent, age group, sex,
// year).
type Record struct {
	Description string
	Count       int

	// Obfuscated is set when the service sent the description as an
	// obfuscated label rather than plain text such as "2021".
	Obfuscated bool
}

// Summary is the aggregate response for one drug.
type Summary struct {
	// TotalCount is the number of individual case reports.
	TotalCount int

	// Reactions lists the reaction categories in service order.
	Reactions []Category

	Continent []Record
	AgeGroup  []Record
	Sex       []Record
	Year      []Record
}
