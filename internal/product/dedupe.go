package product

// Dedupe collapses records sharing a ProductURL, preserving first-seen order.
// The first occurrence establishes the record; later duplicates only fill
// fields the existing record is missing, never overwriting a populated one.
// Different strategies often see the same product with different partial
// fields, so the merge recovers a more complete record than any single hit.
func Dedupe(records []Record) []Record {
	byURL := make(map[string]int, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if r.ProductURL == "" {
			continue
		}
		idx, seen := byURL[r.ProductURL]
		if !seen {
			byURL[r.ProductURL] = len(out)
			out = append(out, r)
			continue
		}
		merge(&out[idx], r)
	}
	return out
}

func merge(dst *Record, src Record) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.ImageURL == "" {
		dst.ImageURL = src.ImageURL
	}
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.Currency == "" {
		dst.Currency = src.Currency
	}
	if dst.RawPrice == "" {
		dst.RawPrice = src.RawPrice
	}
	if dst.Rating == nil {
		dst.Rating = src.Rating
	}
	if dst.ReviewCount == nil {
		dst.ReviewCount = src.ReviewCount
	}
	if dst.InStock == nil {
		dst.InStock = src.InStock
	}
	if dst.Brand == "" {
		dst.Brand = src.Brand
	}
	if dst.SKU == "" {
		dst.SKU = src.SKU
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
}
