package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
		found    bool
	}{
		{
			name:     "simple amount",
			text:     "pay $89.99 today",
			expected: 89.99,
			found:    true,
		},
		{
			name:     "maximum of several",
			text:     "minimum $25.00 of your $310.40 balance, late fee $5",
			expected: 310.40,
			found:    true,
		},
		{
			name:     "thousands separator",
			text:     "rent of $1,850.00 is due",
			expected: 1850.00,
			found:    true,
		},
		{
			name:     "space after dollar sign",
			text:     "total: $ 42.50",
			expected: 42.50,
			found:    true,
		},
		{
			name:     "whole dollars without cents",
			text:     "owe $120 by friday",
			expected: 120,
			found:    true,
		},
		{
			name:  "no dollar sign",
			text:  "you owe 89.99",
			found: false,
		},
		{
			name:  "empty text",
			text:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, found := extractAmount(tt.text)

			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, amount)
		})
	}
}

func TestExtractDueDate(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		expected time.Time
		found    bool
	}{
		{
			name:     "month name without year uses current year",
			text:     "your bill is due Jun 15",
			expected: time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "full month name with year",
			text:     "payment expected by June 15, 2027",
			expected: time.Date(2027, time.June, 15, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "numeric slash date",
			text:     "due 6/15",
			expected: time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "numeric dash date with two-digit year",
			text:     "due on 06-15-27",
			expected: time.Date(2027, time.June, 15, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "numeric date with four-digit year",
			text:     "payment due 12/01/2026",
			expected: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:  "date too far from anchor word",
			text:  "due sometime soon, probably around Jun 15",
			found: false,
		},
		{
			name:  "date without anchor word",
			text:  "see you Jun 15",
			found: false,
		},
		{
			name:  "impossible numeric month",
			text:  "due 13/40",
			found: false,
		},
		{
			name:  "no date at all",
			text:  "your bill is due",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dueDate, found := extractDueDate(tt.text, now)

			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, dueDate)
		})
	}
}
