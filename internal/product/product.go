// Package product defines the product record extracted from listing pages
// and the normalization, validation and deduplication applied to raw DOM
// findings before they are handed to storage.
package product

import "time"

// Record represents one product entry mined from a listing page. Optional
// numeric fields are pointers so "absent" and "zero" stay distinguishable;
// ProductURL is the identity used for deduplication.
type Record struct {
	Title       string
	ProductURL  string
	ImageURL    string
	Price       *float64
	Currency    string
	RawPrice    string
	Rating      *float64
	ReviewCount *int
	InStock     *bool
	Brand       string
	SKU         string
	Description string
}

// Result is the outcome of one extraction call against a results page.
// Products preserve discovery order and are already deduplicated.
type Result struct {
	ID       string
	PageURL  string
	Platform string
	Products []Record
	Strategy string
	Success  bool
	// Duplicates counts raw hits that collapsed into an already-seen
	// product URL during dedup.
	Duplicates int
	// LowConfidence marks the ambiguous empty outcome: no strategy produced
	// anything and the page did not state "no results" either. The page may
	// be genuinely empty or the layout may be one the cascade cannot read.
	LowConfidence bool
	Error         string
	CreatedAt     time.Time
	Duration      time.Duration
}

// Float returns a pointer to v; a small helper for optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
