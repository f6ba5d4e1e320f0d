package maps

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{"plain decimal", "4.5", 4.5, true},
		{"comma decimal", "4,6", 4.6, true},
		{"embedded in text", "4.8 stars", 4.8, true},
		{"integer rating", "5", 5, true},
		{"above range", "9.3", 0, false},
		{"no digits", "New!", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRating(tt.raw)
			if !tt.valid {
				if got != nil {
					t.Errorf("parseRating(%q) = %v, want nil", tt.raw, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseRating(%q) = nil, want %v", tt.raw, tt.want)
			}
			if *got != tt.want {
				t.Errorf("parseRating(%q) = %v, want %v", tt.raw, *got, tt.want)
			}
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  int
		valid bool
	}{
		{"parenthesized", "(1,234)", 1234, true},
		{"dot separator", "2.918 reviews", 2918, true},
		{"bare number", "87", 87, true},
		{"no digits", "reviews", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseReviewCount(tt.raw)
			if !tt.valid {
				if got != nil {
					t.Errorf("parseReviewCount(%q) = %v, want nil", tt.raw, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseReviewCount(%q) = nil, want %d", tt.raw, tt.want)
			}
			if *got != tt.want {
				t.Errorf("parseReviewCount(%q) = %d, want %d", tt.raw, *got, tt.want)
			}
		})
	}
}

func TestCleanAddress(t *testing.T) {
	got := cleanAddress("\n12 Tahrir Square\nDowntown\nCairo\n")
	want := "12 Tahrir Square, Downtown, Cairo"
	if got != want {
		t.Errorf("cleanAddress = %q, want %q", got, want)
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tel:+20 2 2735 1234", "+20 2 2735 1234"},
		{"  02 2735 1234 ", "02 2735 1234"},
		{"02\n2735 1234", "02 2735 1234"},
	}
	for _, tt := range tests {
		if got := cleanPhone(tt.raw); got != tt.want {
			t.Errorf("cleanPhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
