package product

import (
	"reflect"
	"testing"
)

func TestDedupe_MergeFillsOnlyMissingFields(t *testing.T) {
	url := "https://shop.example/product/1"
	records := []Record{
		{ProductURL: url, Title: "Blue Sneaker", Price: Float(10)},
		{ProductURL: url, Price: nil, Brand: "X", Title: "Different Title"},
	}

	out := Dedupe(records)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	got := out[0]
	if got.Price == nil || *got.Price != 10 {
		t.Error("merge must not destroy a previously set price")
	}
	if got.Brand != "X" {
		t.Error("merge must fill the missing brand")
	}
	if got.Title != "Blue Sneaker" {
		t.Error("merge must keep the first title")
	}
}

func TestDedupe_PreservesInsertionOrder(t *testing.T) {
	records := []Record{
		{ProductURL: "https://shop.example/product/b", Title: "B"},
		{ProductURL: "https://shop.example/product/a", Title: "A"},
		{ProductURL: "https://shop.example/product/b", Title: "B again"},
	}
	out := Dedupe(records)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Title != "B" || out[1].Title != "A" {
		t.Errorf("order not preserved: %q, %q", out[0].Title, out[1].Title)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	records := []Record{
		{ProductURL: "https://shop.example/product/1", Title: "One", Price: Float(5)},
		{ProductURL: "https://shop.example/product/2", Title: "Two"},
		{ProductURL: "https://shop.example/product/1", Brand: "Acme"},
	}
	once := Dedupe(records)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("deduplicating its own output must be a no-op")
	}
}

func TestDedupe_DropsRecordsWithoutURL(t *testing.T) {
	out := Dedupe([]Record{{Title: "orphan"}})
	if len(out) != 0 {
		t.Errorf("expected no records, got %d", len(out))
	}
}
