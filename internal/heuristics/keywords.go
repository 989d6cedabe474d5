package heuristics

// NoResultsPhrases mark a listing page that explicitly states an empty result
// set. Matched case-insensitively against the page body text.
var NoResultsPhrases = []string{
	"no results",
	"no results found",
	"no result found",
	"0 results",
	"0 result",
	"no product",
	"nothing found",
	"did not find anything",
	"we did not find",
	"try another search",
	"try a different search",
}

// LinkBlacklist rejects hrefs that can never be product pages.
var LinkBlacklist = []string{
	"login", "register", "signup", "account", "profile", "help", "faq", "contact",
	"privacy", "terms", "policy", "cart", "wishlist", "checkout", "track", "order",
	"facebook", "instagram", "whatsapp", "twitter", "youtube", "pinterest",
	"linkedin", "support", "mailto:", "tel:", "javascript:", "gift-card", "loyalty",
}

// ProductPathKeywords accept a URL path/query/fragment as product-like.
var ProductPathKeywords = []string{
	"/product", "/products", "/item", "/items", "/p/", "/dp/", "/pd/", "/pdp",
	"/shop/", "/store/", "/catalog", "/listing", "/sku", "/detail", "/details",
	"/gp/", "/itm", "/prod", "collection", "collections", "category", "categories",
	"productId", "sku=", "pid=", "variant=", "model=", "/buy/", "/sale/",
}

// NegativePathKeywords veto a path even if it otherwise looks product-like.
var NegativePathKeywords = []string{
	"search", "account", "contact", "login", "register", "wishlist", "cart",
	"help", "support", "faq", "privacy", "terms",
}

// NavWords flag link text that belongs to site chrome, not products.
var NavWords = []string{
	"home", "about", "contact", "help", "account", "login", "register", "signup",
	"wishlist", "cart", "track", "order", "policy", "privacy", "terms", "faq",
	"support", "customer care", "service", "blog", "news", "store locator",
}

// Store-likelihood vocabularies used when screening search-engine results for
// e-commerce sites.
var (
	StoreDomainKeywords = []string{
		"shop", "store", "buy", "cart", "checkout", "ecommerce",
		"marketplace", "retail", "purchase", "merchant", "seller",
		"vendor", "commerce", "mall", "boutique", "bazaar", "mart",
		"sale", "deals", "outlet", "market",
	}

	StorePathKeywords = []string{
		"/product", "/products", "/shop", "/store", "/item", "/items",
		"/buy", "/purchase", "/order", "/cart", "/checkout", "/basket",
		"/bag", "/wishlist", "/listing", "/catalog", "/category",
		"/categories", "/deal", "/deals", "/sale", "/collections",
	}

	StoreTextSignals = []string{
		"shop now", "shop online", "buy now", "buy online", "add to cart",
		"add-to-cart", "in stock", "free shipping", "best price",
		"order now", "secure checkout", "$", "₹", "rs.", "usd", "eur", "gbp",
	}

	StoreTLDSuffixes = []string{
		".store", ".shop", ".shopping", ".boutique", ".market", ".mall", ".sale",
	}
)
