// Package detect implements the rule-based bill classifier that turns
// fetched emails into bill candidates. It is pure and deterministic:
// identical input text always yields the same candidate.
package detect

import (
	"net/mail"
	"sort"
	"strings"
	"time"
)

// billKeywords is the fixed filter list. An email whose combined
// subject+body contains none of these (case-insensitive) is discarded.
var billKeywords = []string{
	"invoice",
	"bill",
	"payment",
	"due",
	"statement",
	"balance",
	"utility",
	"subscription",
	"receipt",
	"charge",
	"amount",
}

const (
	baseConfidence     = 0.5
	amountBonus        = 0.2
	dueDateBonus       = 0.1
	categoryBonus      = 0.05
	maxConfidence      = 0.95
	maxTitleLen        = 50
	truncatedTitleLen  = 47
	defaultDueDateDays = 14
)

// Email is the provider-agnostic view of one fetched message. Body holds
// the concatenated text/plain parts only; an HTML-only email has an
// empty body.
type Email struct {
	ID      string
	Subject string
	From    string
	Body    string
}

// Candidate is one heuristically detected bill awaiting user approval.
type Candidate struct {
	Title      string
	Amount     float64
	DueDate    time.Time
	Category   string
	Confidence float64
	Source     string
}

// Keywords returns the bill keyword list, used to build the provider-side
// search query.
func Keywords() []string {
	keywords := make([]string, len(billKeywords))
	copy(keywords, billKeywords)
	return keywords
}

// ContainsBillKeyword reports whether text contains at least one bill
// keyword, case-insensitively.
func ContainsBillKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range billKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Scan runs the full heuristic over one email. The second return value
// is false when the combined text contains no bill keyword and the email
// must be discarded.
//
// Confidence starts at 0.5, gains 0.2 for a found amount, 0.1 for a
// parsed due date and 0.05 for every category that raised the running
// maximum during classification, capped at 0.95. The category bonus
// accumulates across raises on purpose: the stored behavior is part of
// the scoring contract even though a single final-winner bonus would
// look more intentional.
func Scan(email Email, now time.Time) (Candidate, bool) {
	combined := email.Subject + " " + email.Body
	if !ContainsBillKeyword(combined) {
		return Candidate{}, false
	}

	amount, amountFound := extractAmount(combined)
	dueDate, dateFound := extractDueDate(combined, now)
	if !dateFound {
		dueDate = now.AddDate(0, 0, defaultDueDateDays)
	}
	category, raises := classify(combined)

	confidence := baseConfidence
	if amountFound {
		confidence += amountBonus
	}
	if dateFound {
		confidence += dueDateBonus
	}
	confidence += categoryBonus * float64(raises)
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	source := SenderAddress(email.From)
	return Candidate{
		Title:      deriveTitle(email.Subject, source, category),
		Amount:     amount,
		DueDate:    dueDate,
		Category:   category,
		Confidence: confidence,
		Source:     source,
	}, true
}

// SortByConfidence orders candidates by confidence descending. The sort
// is stable so equally-confident candidates keep their fetch order.
func SortByConfidence(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}

// SenderAddress extracts the bare address from a From header like
// `Billing <billing@example.com>`. A header that does not parse is
// returned trimmed as-is.
func SenderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	return addr.Address
}

// deriveTitle builds the candidate title from the subject line: a
// leading "re:" is stripped, anything longer than 50 characters is cut
// to 47 plus an ellipsis, and an empty or bare-keyword subject is
// replaced by "<sender local-part> - <category>".
func deriveTitle(subject, source, category string) string {
	title := strings.TrimSpace(subject)
	if len(title) >= 3 && strings.EqualFold(title[:3], "re:") {
		title = strings.TrimSpace(title[3:])
	}

	if title == "" || isBareKeyword(title) {
		return localPart(source) + " - " + category
	}

	if len(title) > maxTitleLen {
		return title[:truncatedTitleLen] + "..."
	}
	return title
}

func isBareKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range billKeywords {
		if lower == keyword {
			return true
		}
	}
	return false
}

func localPart(address string) string {
	if at := strings.IndexByte(address, '@'); at > 0 {
		return address[:at]
	}
	return address
}
