// Package gmailx wraps the Gmail REST API and the Google OAuth endpoint
// behind the narrow interfaces the scan pipeline needs.
package gmailx

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"agent-api/internal/detect"
)

type Fetcher struct {
	logger zerolog.Logger
}

func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// FetchBillCandidates lists at most maxResults messages from the last
// daysBack days matching the bill keyword query and fetches each in
// full. Any provider error aborts the whole fetch so the caller never
// sees partial results.
func (f *Fetcher) FetchBillCandidates(ctx context.Context, accessToken string, daysBack int, maxResults int64) ([]detect.Email, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	const me = "me"
	list, err := service.Users.Messages.List(me).
		Q(buildQuery(daysBack)).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	f.logger.Debug().
		Int("count", len(list.Messages)).
		Msg("listed candidate messages")

	emails := make([]detect.Email, 0, len(list.Messages))
	for _, ref := range list.Messages {
		message, err := service.Users.Messages.Get(me, ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.Id, err)
		}
		emails = append(emails, messageToEmail(message))
	}
	return emails, nil
}

// buildQuery restricts the provider-side search to recent messages
// containing at least one bill keyword.
func buildQuery(daysBack int) string {
	return fmt.Sprintf("newer_than:%dd (%s)",
		daysBack, strings.Join(detect.Keywords(), " OR "))
}

func messageToEmail(message *gmail.Message) detect.Email {
	email := detect.Email{ID: message.Id}
	if message.Payload == nil {
		return email
	}

	for _, header := range message.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			email.Subject = header.Value
		case "from":
			email.From = header.Value
		}
	}
	email.Body = collectPlainText(message.Payload)
	return email
}

// collectPlainText concatenates the decoded text/plain parts of a
// payload tree. HTML-only messages yield an empty body.
func collectPlainText(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	var builder strings.Builder
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "="))
		if err == nil {
			builder.Write(data)
		}
	}
	for _, child := range part.Parts {
		builder.WriteString(collectPlainText(child))
	}
	return builder.String()
}
