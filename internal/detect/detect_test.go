package detect

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestScan_DiscardsEmailsWithoutKeywords(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{
			name:    "plain conversation",
			subject: "Lunch tomorrow?",
			body:    "Want to grab food around noon?",
		},
		{
			name:    "empty email",
			subject: "",
			body:    "",
		},
		{
			name:    "newsletter",
			subject: "Weekly digest",
			body:    "Here is what happened this week in the community.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Scan(Email{
				Subject: tt.subject,
				From:    "someone@example.com",
				Body:    tt.body,
			}, scanNow)

			assert.False(t, ok)
		})
	}
}

func TestScan_KeywordMatchingIsCaseInsensitive(t *testing.T) {
	_, ok := Scan(Email{
		Subject: "YOUR INVOICE",
		From:    "billing@example.com",
	}, scanNow)

	assert.True(t, ok)
}

func TestScan_ExampleScenario(t *testing.T) {
	candidate, ok := Scan(Email{
		Subject: "Invoice Due",
		From:    "City Power <billing@citypower.com>",
		Body:    "Your electric bill of $89.99 is due Jun 15",
	}, scanNow)

	require.True(t, ok)
	assert.Equal(t, "Utilities", candidate.Category)
	assert.Equal(t, 89.99, candidate.Amount)
	assert.Equal(t, time.Date(scanNow.Year(), time.June, 15, 0, 0, 0, 0, time.UTC), candidate.DueDate)
	assert.GreaterOrEqual(t, candidate.Confidence, 0.85)
	assert.Equal(t, "billing@citypower.com", candidate.Source)
	assert.Equal(t, "Invoice Due", candidate.Title)
}

func TestScan_AmountIsMaximumDollarFigure(t *testing.T) {
	candidate, ok := Scan(Email{
		Subject: "Statement ready",
		From:    "cards@example.com",
		Body:    "Minimum due $35.00, previous balance $12.50, total balance $1,204.75",
	}, scanNow)

	require.True(t, ok)
	assert.Equal(t, 1204.75, candidate.Amount)
}

func TestScan_MissingAmountDefaultsToZero(t *testing.T) {
	candidate, ok := Scan(Email{
		Subject: "Your bill is ready",
		From:    "billing@example.com",
		Body:    "Log in to view your bill.",
	}, scanNow)

	require.True(t, ok)
	assert.Equal(t, 0.0, candidate.Amount)
	// No amount bonus: 0.5 base plus at most date and category bonuses.
	assert.Less(t, candidate.Confidence, 0.7)
}

func TestScan_MissingDueDateDefaultsToTwoWeeksOut(t *testing.T) {
	candidate, ok := Scan(Email{
		Subject: "Receipt",
		From:    "shop@example.com",
		Body:    "Thanks for your purchase of $19.99.",
	}, scanNow)

	require.True(t, ok)
	assert.Equal(t, scanNow.AddDate(0, 0, 14), candidate.DueDate)
}

func TestScan_ConfidenceIsClamped(t *testing.T) {
	// Every category raises the running maximum once, so the raw score
	// would exceed the cap: 0.5 + 0.2 + 0.1 + 7*0.05 = 1.15.
	body := "bill of $120 due Jun 1 " +
		"electric " +
		strings.Repeat("internet ", 2) +
		strings.Repeat("phone ", 3) +
		strings.Repeat("netflix ", 4) +
		strings.Repeat("rent ", 5) +
		strings.Repeat("insurance ", 6) +
		strings.Repeat("credit card ", 7)

	candidate, ok := Scan(Email{
		Subject: "bill",
		From:    "megacorp@example.com",
		Body:    body,
	}, scanNow)

	require.True(t, ok)
	assert.Equal(t, 0.95, candidate.Confidence)
}

func TestScan_ConfidenceBounds(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{
			name:    "bare keyword only",
			subject: "statement",
			body:    "nothing else here",
		},
		{
			name:    "amount and date",
			subject: "Electric bill",
			body:    "Pay $45.00, due Jul 1",
		},
		{
			name:    "everything stacked",
			subject: "bill",
			body:    "electric internet internet phone phone phone $10 due 7/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, ok := Scan(Email{
				Subject: tt.subject,
				From:    "x@example.com",
				Body:    tt.body,
			}, scanNow)

			require.True(t, ok)
			assert.GreaterOrEqual(t, candidate.Confidence, 0.5)
			assert.LessOrEqual(t, candidate.Confidence, 0.95)
		})
	}
}

func TestScan_IsDeterministic(t *testing.T) {
	email := Email{
		Subject: "Re: Internet bill overdue",
		From:    "support@fastnet.example",
		Body:    "Your internet subscription payment of $79.95 is due Apr 2",
	}

	first, ok := Scan(email, scanNow)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		next, ok := Scan(email, scanNow)
		require.True(t, ok)
		assert.Equal(t, first, next)
	}
}

func TestScan_TitleRules(t *testing.T) {
	longSubject := "Invoice for your annual subscription renewal covering the next billing period"

	tests := []struct {
		name     string
		subject  string
		from     string
		body     string
		expected string
	}{
		{
			name:     "short subject kept verbatim",
			subject:  "Water bill March",
			from:     "billing@waterworks.example",
			body:     "water usage $30",
			expected: "Water bill March",
		},
		{
			name:     "leading reply prefix stripped",
			subject:  "Re: Water bill March",
			from:     "billing@waterworks.example",
			body:     "water usage $30",
			expected: "Water bill March",
		},
		{
			name:     "long subject truncated to 47 plus ellipsis",
			subject:  longSubject,
			from:     "billing@example.com",
			body:     "$10",
			expected: longSubject[:47] + "...",
		},
		{
			name:     "bare keyword subject synthesized from sender",
			subject:  "invoice",
			from:     "City Power <billing@citypower.com>",
			body:     "electric service $55",
			expected: "billing - Utilities",
		},
		{
			name:     "empty subject synthesized from sender",
			subject:  "",
			from:     "netflix@billing.netflix.example",
			body:     "your netflix subscription payment of $15.49",
			expected: "netflix - Streaming",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, ok := Scan(Email{
				Subject: tt.subject,
				From:    tt.from,
				Body:    tt.body,
			}, scanNow)

			require.True(t, ok)
			assert.Equal(t, tt.expected, candidate.Title)
		})
	}
}

func TestScan_TruncatedTitleLength(t *testing.T) {
	subject := strings.Repeat("a", 60) + " bill"

	candidate, ok := Scan(Email{
		Subject: subject,
		From:    "x@example.com",
	}, scanNow)

	require.True(t, ok)
	assert.Len(t, candidate.Title, 50)
	assert.True(t, strings.HasSuffix(candidate.Title, "..."))
}

func TestSortByConfidence(t *testing.T) {
	candidates := []Candidate{
		{Title: "low", Confidence: 0.5},
		{Title: "high", Confidence: 0.95},
		{Title: "mid-a", Confidence: 0.7},
		{Title: "mid-b", Confidence: 0.7},
	}

	SortByConfidence(candidates)

	assert.Equal(t, "high", candidates[0].Title)
	// Stable: equal confidences keep their original order.
	assert.Equal(t, "mid-a", candidates[1].Title)
	assert.Equal(t, "mid-b", candidates[2].Title)
	assert.Equal(t, "low", candidates[3].Title)
}

func TestSenderAddress(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		expected string
	}{
		{
			name:     "display name with angle brackets",
			from:     "City Power <billing@citypower.com>",
			expected: "billing@citypower.com",
		},
		{
			name:     "bare address",
			from:     "billing@citypower.com",
			expected: "billing@citypower.com",
		},
		{
			name:     "unparseable header returned trimmed",
			from:     "  not an address  ",
			expected: "not an address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SenderAddress(tt.from))
		})
	}
}
