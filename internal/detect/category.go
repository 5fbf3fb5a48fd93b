package detect

import "strings"

// CategoryOther is assigned when no spending category scores above zero.
const CategoryOther = "Other"

type spendingCategory struct {
	name     string
	keywords []string
}

// spendingCategories is scored in declaration order; ties go to the
// earlier entry.
var spendingCategories = []spendingCategory{
	{"Utilities", []string{"electric", "gas", "water", "power", "energy", "utility"}},
	{"Internet", []string{"internet", "wifi", "broadband", "fiber", "xfinity", "spectrum"}},
	{"Phone", []string{"phone", "mobile", "wireless", "cellular", "verizon", "t-mobile"}},
	{"Streaming", []string{"netflix", "hulu", "spotify", "disney", "hbo", "streaming", "prime video"}},
	{"Housing", []string{"rent", "mortgage", "lease", "hoa", "landlord"}},
	{"Insurance", []string{"insurance", "premium", "policy", "coverage"}},
	{"Credit Card", []string{"credit card", "card payment", "minimum payment", "visa", "mastercard", "amex"}},
}

// classify scores every category by keyword occurrences in text and
// returns the winner plus the number of times the running maximum was
// raised during the ordered scan. The raise count feeds the confidence
// bonus in Scan. A text hitting no category at all classifies as Other
// with zero raises.
func classify(text string) (string, int) {
	lower := strings.ToLower(text)

	best := CategoryOther
	bestCount := 0
	raises := 0
	for _, category := range spendingCategories {
		count := 0
		for _, keyword := range category.keywords {
			count += strings.Count(lower, keyword)
		}
		if count > bestCount {
			best = category.name
			bestCount = count
			raises++
		}
	}
	return best, raises
}
