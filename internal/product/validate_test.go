package product

import "testing"

func TestProductLikePath(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"https://shop.example/product/123", true},
		{"https://shop.example/dp/B01ABC", true},
		{"https://shop.example/x?sku=42", true},
		{"https://shop.example/brand-new-sneaker-2024.html", true},
		{"https://shop.example/login", false},
		{"https://shop.example/search?q=x", false},
		{"https://shop.example/", false},
		{"https://shop.example/home", false},
		{"https://shop.example/a/b/c", true},
	}
	for _, tt := range tests {
		if got := ProductLikePath(tt.href); got != tt.want {
			t.Errorf("ProductLikePath(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestBlacklistedLink(t *testing.T) {
	for _, href := range []string{
		"javascript:void(0)",
		"mailto:sales@example.com",
		"tel:+1555000",
		"https://shop.example/cart",
		"https://facebook.com/shopexample",
		"",
	} {
		if !BlacklistedLink(href) {
			t.Errorf("BlacklistedLink(%q) = false, want true", href)
		}
	}
	if BlacklistedLink("https://shop.example/product/123") {
		t.Error("product link should not be blacklisted")
	}
}

func TestLooksLikeNav(t *testing.T) {
	if !LooksLikeNav("Contact Us") {
		t.Error("nav text should be flagged")
	}
	if !LooksLikeNav("+919876543210") {
		t.Error("phone number should be flagged")
	}
	if LooksLikeNav("Wireless Earbuds Pro") {
		t.Error("product title should not be flagged")
	}
}

func TestValid(t *testing.T) {
	ok := Record{
		Title:      "Blue Sneaker",
		ProductURL: "https://shop.example/product/123",
	}
	if !Valid(ok) {
		t.Error("product-like URL with title should be valid")
	}

	// Price+title compensates for a non-product-like path.
	priced := Record{
		Title:      "Blue Sneaker",
		ProductURL: "https://shop.example/x",
		Price:      Float(10),
	}
	if !Valid(priced) {
		t.Error("priced and titled record should be valid despite the weak path")
	}

	if Valid(Record{Title: "Blue Sneaker"}) {
		t.Error("record without URL must be invalid")
	}
	if Valid(Record{Title: "Login", ProductURL: "https://shop.example/product/1"}) {
		t.Error("nav-word title must be invalid")
	}
	if Valid(Record{ProductURL: "https://shop.example/product/1"}) {
		t.Error("record with neither title nor price signal must be invalid")
	}
	if Valid(Record{Title: "X", ProductURL: "https://shop.example/product/1"}) {
		t.Error("single-character title must be invalid")
	}
}
