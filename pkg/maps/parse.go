package maps

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ratingPattern = regexp.MustCompile(`\d+[.,]\d+|\d+`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// parseRating pulls a star rating out of localized text like "4,5" or
// "4.5 stars". Malformed or out-of-range text yields nil, never an
// error; a missing rating is not worth failing a listing over.
func parseRating(raw string) *float64 {
	match := ratingPattern.FindString(raw)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil || value < 0 || value > 5 {
		return nil
	}
	return &value
}

// parseReviewCount pulls an integer out of text like "(1,234)" or
// "2.918 reviews", stripping thousands separators first.
func parseReviewCount(raw string) *int {
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(raw)
	match := digitsPattern.FindString(cleaned)
	if match == "" {
		return nil
	}
	value, err := strconv.Atoi(match)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// cleanAddress flattens the multi-line address block into one line.
func cleanAddress(raw string) string {
	lines := strings.Split(raw, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, ", ")
}

// cleanPhone normalizes a phone string that may come from visible text
// or from a tel: href.
func cleanPhone(raw string) string {
	phone := strings.TrimPrefix(raw, "tel:")
	phone = strings.ReplaceAll(phone, "\n", " ")
	return strings.TrimSpace(phone)
}

// cleanHours flattens a multi-line opening-hours block; aria-label
// sourced strings come through unchanged.
func cleanHours(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\n", ", "))
}
