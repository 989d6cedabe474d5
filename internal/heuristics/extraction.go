package heuristics

// Extraction-side cascades are plain CSS: they run against a settled HTML
// snapshot, not a live session, so no XPath restatements are needed.

// ResultContainers scope the card scan to likely listing regions, keeping
// banners and footers out of the picture. `main` is the terminal fallback.
var ResultContainers = []string{
	`ul.products`,
	`ul.product-list`,
	`ul.search-results`,
	`div.products`,
	`div.product-list`,
	`div.search-results`,
	`div[class*="listing" i]`,
	`div[class*="product-grid" i]`,
	`div[data-component*="product" i]`,
	`div[data-testid*="result" i]`,
	`section[class*="grid" i]`,
	`section[class*="listing" i]`,
	`section[class*="catalog" i]`,
	`div[class*="grid" i]`,
	`section[class*="product" i]`,
	`section[class*="result" i]`,
	`main`,
}

// ProductCards locate the element believed to represent one listing entry.
var ProductCards = []string{
	`[data-component="product"]`,
	`[data-qa*="product" i]`,
	`[data-testid*="product" i]`,
	`[data-cy*="product" i]`,
	`[itemscope][itemtype*="schema.org/Product" i]`,
	`div[data-product-id]`,
	`article[data-product-id]`,
	`div[data-asin]`,
	`li[data-asin]`,
	`li[data-id*="product" i]`,
	`div[data-testid*="product-card" i]`,
	`li[class*="product" i]`,
	`li[class*="grid" i]`,
	`div[class*="product" i]`,
	`div[class*="item" i]`,
	`div[class*="card" i]`,
	`div[class*="result" i]`,
	`article[class*="product" i]`,
	`article[class*="item" i]`,
}

// Per-field cascades within a card. Each stops at its first non-empty hit.
var (
	TitleSelectors = []string{
		`[itemprop="name"]`,
		`a[title]`,
		`a[class*="title" i]`,
		`a[data-testid*="title" i]`,
		`h1`, `h2`, `h3`, `h4`,
		`[class*="title" i]`,
		`[class*="name" i]`,
		`[aria-label*="product" i]`,
	}

	LinkSelectors = []string{
		`a[href*="/product" i]`,
		`a[href*="/item" i]`,
		`a[href*="/p/" i]`,
		`a[href*="?pid=" i]`,
		`a[data-testid*="product" i]`,
		`a[href]`,
		`[itemprop="url"]`,
	}

	ImageSelectors = []string{
		`img[src]`,
		`img[data-src]`,
		`img[data-original]`,
		`img[data-lazy-src]`,
		`img[data-srcset]`,
		`source[data-srcset]`,
		`[data-background-image]`,
		`[itemprop="image"]`,
	}

	PriceSelectors = []string{
		`meta[itemprop="price"][content]`,
		`[itemprop="price"]`,
		`[class*="price" i]`,
		`[class*="offer" i]`,
		`[data-price]`,
		`span[class*="amount" i]`,
	}

	CurrencySelectors = []string{
		`meta[itemprop="priceCurrency"][content]`,
		`[class*="currency" i]`,
		`span[data-currency]`,
	}

	RatingSelectors = []string{
		`[itemprop="ratingValue"]`,
		`[class*="rating" i]`,
		`[aria-label*="rating" i]`,
	}

	ReviewSelectors = []string{
		`[itemprop="reviewCount"]`,
		`[class*="review" i]`,
		`[aria-label*="review" i]`,
	}

	AvailabilitySelectors = []string{
		`[itemprop="availability"]`,
		`[class*="stock" i]`,
		`[class*="avail" i]`,
	}

	BrandSelectors = []string{
		`[itemprop="brand"]`,
		`[class*="brand" i]`,
		`[data-brand]`,
	}

	SKUSelectors = []string{
		`[itemprop="sku"]`,
		`[data-sku]`,
		`[data-product-sku]`,
		`[class*="sku" i]`,
	}

	DescriptionSelectors = []string{
		`[itemprop="description"]`,
		`[class*="description" i]`,
		`[class*="subtitle" i]`,
		`p`,
	}
)

// BlacklistedSections are structural ancestors whose descendants are never
// treated as product cards. Checked by walking up to six ancestors.
var BlacklistedSections = map[string]bool{
	"header": true,
	"nav":    true,
	"footer": true,
	"aside":  true,
	"form":   true,
}

// ProductJSONKeys maps record fields to the key synonyms seen in inline JSON
// payloads. Used by the generic JSON mining strategy.
var ProductJSONKeys = map[string][]string{
	"title":        {"name", "title", "productName", "product_name", "label"},
	"url":          {"url", "link", "productUrl", "productURL", "href", "canonicalUrl"},
	"image":        {"image", "imageUrl", "imageURL", "thumbnail", "thumbnailUrl", "mediaUrl", "picture"},
	"price":        {"price", "salePrice", "offerPrice", "priceValue", "price_amount", "priceWithTax"},
	"currency":     {"currency", "currencyCode", "priceCurrency"},
	"brand":        {"brand", "manufacturer", "maker"},
	"sku":          {"sku", "id", "productId", "product_id", "itemId"},
	"description":  {"description", "shortDescription", "summary"},
	"rating":       {"rating", "ratingValue", "averageRating", "reviewRating"},
	"reviewCount":  {"reviewCount", "reviewsCount", "numberOfReviews", "ratingCount"},
	"availability": {"availability", "stockStatus", "availabilityStatus"},
}

// ProductContainerJSONKeys name the JSON keys worth descending into when
// mining inline payloads for product objects.
var ProductContainerJSONKeys = []string{
	"product", "item", "sku", "listing", "result", "entries", "records",
}
