package extract

import "testing"

func TestDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		window string
		want   string
	}{
		{"ordinal of month", "Financial Stability Report – 12th of June 2025", "12th of June 2025"},
		{"plain of month", "released on 3 of March 2024 in Paris", "3 of March 2024"},
		{"month day year", "Published June 23, 2025 by the Banque", "June 23, 2025"},
		{"month ordinal no comma", "Updated March 1st 2025", "March 1st 2025"},
		{"slash numeric", "Release: 23/06/2025", "23/06/2025"},
		{"dash numeric", "Release: 1-7-2025", "1-7-2025"},
		{"case insensitive ordinal", "5TH OF MAY 2025", "5TH OF MAY 2025"},
		{"no date", "Monthly Business Survey", ""},
		{"day month year is not a listed shape", "published 3 March 2025, shows", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Date(tc.window); got != tc.want {
				t.Fatalf("Date(%q) = %q, want %q", tc.window, got, tc.want)
			}
		})
	}
}

func TestDatePatternOrderBeatsPosition(t *testing.T) {
	t.Parallel()

	// The numeric date appears first, but the "of" shape is tried first.
	window := "01/02/2024 draft, final version 2nd of February 2024"
	if got := Date(window); got != "2nd of February 2024" {
		t.Fatalf("unexpected date: %q", got)
	}

	// Within one shape the leftmost occurrence wins.
	window = "June 5, 2025 and later July 7, 2025"
	if got := Date(window); got != "June 5, 2025" {
		t.Fatalf("unexpected date: %q", got)
	}
}
