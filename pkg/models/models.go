package models

// Business holds the data extracted for a single Google Maps listing.
// Name and MapURL are always set; every other field is optional and left
// at its zero value (nil for the numeric pointers) when the listing does
// not expose it or its text could not be parsed.
type Business struct {
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Category    string   `json:"category,omitempty"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Hours       string   `json:"hours,omitempty"`
	MapURL      string   `json:"map_url"`
}

// HasRating reports whether a rating was extracted.
func (b *Business) HasRating() bool {
	return b.Rating != nil
}

// HasReviewCount reports whether a review count was extracted.
func (b *Business) HasReviewCount() bool {
	return b.ReviewCount != nil
}
