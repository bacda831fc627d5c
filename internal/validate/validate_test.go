package validate

import (
	"testing"

	"storefront/internal/domain"
)

func TestRequiredMessage(t *testing.T) {
	cases := map[string]string{
		"postalCode": "PostalCode is required.",
		"cvv":        "Cvv is required.",
		"name":       "Name is required.",
	}
	for in, want := range cases {
		if got := RequiredMessage(in); got != want {
			t.Fatalf("RequiredMessage(%q)=%q want %q", in, got, want)
		}
	}
}

func TestFieldsOnlyReportsEmpty(t *testing.T) {
	s := domain.ShippingDetails{Name: "Ann", Address: "", City: "Springfield", PostalCode: "12345", Country: "US"}
	errs := Fields(s.Fields())
	if len(errs) != 1 || errs["address"] != "Address is required." {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestWhitespaceCountsAsFilled(t *testing.T) {
	if !Required(" ") {
		t.Fatal("a single space is content")
	}
	s := domain.ShippingDetails{Name: "Ann", Address: " ", City: "Springfield", PostalCode: "12345", Country: "US"}
	if errs := Fields(s.Fields()); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestQtyClamp(t *testing.T) {
	for in, want := range map[int]int{-3: 1, 0: 1, 1: 1, 7: 7} {
		if got := Qty(in); got != want {
			t.Fatalf("Qty(%d)=%d want %d", in, got, want)
		}
	}
}

func TestIDAndPage(t *testing.T) {
	if _, ok := ID("0"); ok {
		t.Fatal("zero id must be rejected")
	}
	if n, ok := ID(" 12 "); !ok || n != 12 {
		t.Fatalf("ID parse: %d %v", n, ok)
	}
	if Page("x") != 1 || Page("3") != 3 {
		t.Fatal("page parse")
	}
}

func TestCategoryAndAvailability(t *testing.T) {
	if c, ok := Category("men's clothing"); !ok || c != "men's clothing" {
		t.Fatalf("category: %q %v", c, ok)
	}
	if _, ok := Category("<script>"); ok {
		t.Fatal("markup must be rejected")
	}
	if a, ok := Availability(""); !ok || a != "all" {
		t.Fatal("empty availability defaults to all")
	}
	if _, ok := Availability("maybe"); ok {
		t.Fatal("unknown availability accepted")
	}
}
