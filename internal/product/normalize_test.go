package product

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw      string
		want     float64
		wantNil  bool
		currency string
	}{
		{raw: "₹1,299.00", want: 1299.00, currency: "INR"},
		{raw: "$49.99", want: 49.99, currency: "USD"},
		{raw: "Free", wantNil: true, currency: ""},
		{raw: "EUR 12", want: 12.0, currency: "EUR"},
		{raw: "£5.50", want: 5.50, currency: "GBP"},
		{raw: "CAD 99", want: 99, currency: "CAD"},
		{raw: "Rs. 450", want: 450, currency: "INR"},
		{raw: "", wantNil: true, currency: ""},
		{raw: "$", wantNil: true, currency: "USD"},
	}

	for _, tt := range tests {
		price, currency := ParsePrice(tt.raw)
		if tt.wantNil {
			if price != nil {
				t.Errorf("ParsePrice(%q) price = %v, want nil", tt.raw, *price)
			}
		} else {
			if price == nil {
				t.Fatalf("ParsePrice(%q) price = nil, want %v", tt.raw, tt.want)
			}
			if *price != tt.want {
				t.Errorf("ParsePrice(%q) price = %v, want %v", tt.raw, *price, tt.want)
			}
		}
		if currency != tt.currency {
			t.Errorf("ParsePrice(%q) currency = %q, want %q", tt.raw, currency, tt.currency)
		}
	}
}

func TestPriceFromText(t *testing.T) {
	got := PriceFromText("Limited offer! Now only $49.99 with free shipping")
	if got != "$49.99" {
		t.Errorf("PriceFromText = %q, want %q", got, "$49.99")
	}
	if got := PriceFromText("no money here"); got != "" {
		t.Errorf("PriceFromText on plain text = %q, want empty", got)
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Blue \n\t Sneaker  "); got != "Blue Sneaker" {
		t.Errorf("CleanText = %q", got)
	}
	if got := CleanText("   "); got != "" {
		t.Errorf("CleanText on whitespace = %q, want empty", got)
	}
}

func TestInferInStock(t *testing.T) {
	if v := InferInStock("https://schema.org/InStock"); v == nil || !*v {
		t.Error("schema.org/InStock should infer true")
	}
	if v := InferInStock("Out of stock"); v == nil || *v {
		t.Error("out of stock should infer false")
	}
	if v := InferInStock("Currently unavailable"); v == nil || *v {
		t.Error("unavailable should infer false")
	}
	if v := InferInStock("ships in 2 days"); v != nil {
		t.Error("unknown availability text should infer nil")
	}
	if v := InferInStock(""); v != nil {
		t.Error("empty availability should infer nil")
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://shop.example/search?q=x", "/product/123", "https://shop.example/product/123"},
		{"https://shop.example/a/b", "img/p.jpg", "https://shop.example/a/img/p.jpg"},
		{"https://shop.example", "https://cdn.example/p.jpg", "https://cdn.example/p.jpg"},
		{"https://shop.example", "", ""},
	}
	for _, tt := range tests {
		if got := AbsoluteURL(tt.base, tt.href); got != tt.want {
			t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestParseFloatAndInt(t *testing.T) {
	if v := ParseFloat("4.3 out of 5"); v == nil || *v != 4.3 {
		t.Errorf("ParseFloat = %v, want 4.3", v)
	}
	if v := ParseInt("(1,024 reviews)"); v == nil || *v != 1024 {
		t.Errorf("ParseInt = %v, want 1024", v)
	}
	if v := ParseFloat("stars"); v != nil {
		t.Errorf("ParseFloat on no digits = %v, want nil", v)
	}
}
