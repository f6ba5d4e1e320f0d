package maps

// Selectors for the Google Maps search results page and the listing
// detail panel. Google rotates class names now and then, so every field
// carries a fallback chain tried in order; the stable anchors are the
// role/feed container, the /maps/place/ link shape and the data-item-id
// attributes.

const (
	// feedSelector is the scrollable results panel.
	feedSelector = `div[role="feed"]`

	// listingLinkSelector matches one anchor per rendered listing.
	listingLinkSelector = `a[href*="/maps/place/"]`

	// endOfResultsSelector shows once the feed has nothing more to load.
	endOfResultsSelector = `span.HlvSq`
)

var (
	nameSelectors = []string{
		`h1.DUwDvf`,
		`h1.fontHeadlineLarge`,
		`h1`,
	}

	ratingSelectors = []string{
		`div.F7nice span:first-child`,
		`span.ceNzKf`,
		`span.MW4etd`,
	}

	reviewCountSelectors = []string{
		`div.F7nice span:last-child`,
		`span.UY7F9`,
		`button[jsaction*="reviews"]`,
	}

	categorySelectors = []string{
		`button[jsaction*="category"]`,
		`span.DkEaL`,
	}

	addressSelectors = []string{
		`button[data-item-id="address"]`,
		`div.rogA2c div.fontBodyMedium`,
	}

	phoneSelectors = []string{
		`button[data-item-id*="phone:tel"]`,
		`a[href^="tel:"]`,
	}

	websiteSelectors = []string{
		`a[data-item-id="authority"]`,
		`a[aria-label*="Website"]`,
	}
)

const (
	// phoneHrefSelector recovers the number from a tel: link when the
	// visible text is missing.
	phoneHrefSelector = `a[href^="tel:"]`

	// hoursAriaSelector exposes the week's opening hours as one
	// aria-label string.
	hoursAriaSelector = `div[aria-label*="hours"]`

	// hoursTextSelector is the visible fallback.
	hoursTextSelector = `div.t39EBf`
)
