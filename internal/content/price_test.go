package content

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "whole", input: "12", want: 1200},
		{name: "halfCent", input: "12.5", want: 1250},
		{name: "twoDecimals", input: "0.99", want: 99},
		{name: "rounds", input: "1.006", want: 101},
		{name: "zero", input: "0", want: 0},
		{name: "whitespace", input: " 3.25 ", want: 325},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := ParsePrice(testCase.input)
			if err != nil {
				t.Fatalf("ParsePrice(%q) returned error: %v", testCase.input, err)
			}
			if got != testCase.want {
				t.Fatalf("ParsePrice(%q) = %d, want %d", testCase.input, got, testCase.want)
			}
		})
	}
}

func TestParsePriceRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "-1", "-0.01", "NaN", "Inf", "1e999"} {
		if _, err := ParsePrice(input); !errors.Is(err, ErrInvalidPrice) {
			t.Fatalf("ParsePrice(%q) error = %v, want ErrInvalidPrice", input, err)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{cents: 1250, want: "12.50"},
		{cents: 99, want: "0.99"},
		{cents: 0, want: "0.00"},
		{cents: 100000, want: "1000.00"},
		{cents: -1250, want: "-12.50"},
	}

	for _, testCase := range cases {
		if got := FormatPrice(testCase.cents); got != testCase.want {
			t.Fatalf("FormatPrice(%d) = %q, want %q", testCase.cents, got, testCase.want)
		}
	}
}

func TestPriceRoundTrip(t *testing.T) {
	cents, err := ParsePrice("12.5")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if got := FormatPrice(cents); got != "12.50" {
		t.Fatalf("round trip = %q, want %q", got, "12.50")
	}
}
