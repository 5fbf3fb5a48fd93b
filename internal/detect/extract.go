package detect

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// amountRe matches $-prefixed numbers, commas and cents allowed.
var amountRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// dueDateRe looks for a date within 20 characters after "due" or
// "payment": either a month-name date ("Jun 15", "June 15, 2026") or a
// numeric slash/dash date ("6/15", "06-15-2026").
var dueDateRe = regexp.MustCompile(`(?i)(?:due|payment).{0,20}?` +
	`(?:((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?)\s+(\d{1,2})(?:,?\s*(\d{4}))?` +
	`|(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?)`)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// extractAmount returns the largest $-prefixed value in text. The
// largest dollar figure in a bill email is usually the total due. When
// no amount matches it returns (0, false).
func extractAmount(text string) (float64, bool) {
	matches := amountRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var max float64
	found := false
	for _, match := range matches {
		raw := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if !found || value > max {
			max = value
			found = true
		}
	}
	return max, found
}

// extractDueDate parses the first due date anchored near "due" or
// "payment". A month-name date without a year gets the current year; a
// two-digit numeric year is taken as 20xx. It returns (zero, false) when
// nothing matches or the matched date does not parse.
func extractDueDate(text string, now time.Time) (time.Time, bool) {
	match := dueDateRe.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	if match[1] != "" {
		month, ok := monthsByPrefix[strings.ToLower(match[1])[:3]]
		if !ok {
			return time.Time{}, false
		}
		day, err := strconv.Atoi(match[2])
		if err != nil || day < 1 || day > 31 {
			return time.Time{}, false
		}
		year := now.Year()
		if match[3] != "" {
			year, err = strconv.Atoi(match[3])
			if err != nil {
				return time.Time{}, false
			}
		}
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	}

	month, err := strconv.Atoi(match[4])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(match[5])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year := now.Year()
	if match[6] != "" {
		year, err = strconv.Atoi(match[6])
		if err != nil {
			return time.Time{}, false
		}
		if year < 100 {
			year += 2000
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
}
