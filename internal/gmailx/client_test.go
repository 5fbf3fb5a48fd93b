package gmailx

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func TestBuildQuery(t *testing.T) {
	query := buildQuery(30)

	assert.Equal(t, "newer_than:30d (invoice OR bill OR payment OR due OR "+
		"statement OR balance OR utility OR subscription OR receipt OR "+
		"charge OR amount)", query)
}

func TestMessageToEmail(t *testing.T) {
	encode := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name     string
		message  *gmail.Message
		expected string
	}{
		{
			name: "plain text body",
			message: &gmail.Message{
				Id: "m1",
				Payload: &gmail.MessagePart{
					MimeType: "text/plain",
					Headers: []*gmail.MessagePartHeader{
						{Name: "Subject", Value: "Electric bill"},
						{Name: "From", Value: "billing@power.example"},
					},
					Body: &gmail.MessagePartBody{Data: encode("Your bill is $89.99")},
				},
			},
			expected: "Your bill is $89.99",
		},
		{
			name: "multipart picks the text part",
			message: &gmail.Message{
				Id: "m2",
				Payload: &gmail.MessagePart{
					MimeType: "multipart/alternative",
					Headers: []*gmail.MessagePartHeader{
						{Name: "Subject", Value: "Electric bill"},
						{Name: "From", Value: "billing@power.example"},
					},
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: encode("plain version")},
						},
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: encode("<b>html version</b>")},
						},
					},
				},
			},
			expected: "plain version",
		},
		{
			name: "html only yields empty body",
			message: &gmail.Message{
				Id: "m3",
				Payload: &gmail.MessagePart{
					MimeType: "text/html",
					Headers: []*gmail.MessagePartHeader{
						{Name: "Subject", Value: "Electric bill"},
						{Name: "From", Value: "billing@power.example"},
					},
					Body: &gmail.MessagePartBody{Data: encode("<b>html only</b>")},
				},
			},
			expected: "",
		},
		{
			name: "nested multipart",
			message: &gmail.Message{
				Id: "m4",
				Payload: &gmail.MessagePart{
					MimeType: "multipart/mixed",
					Headers: []*gmail.MessagePartHeader{
						{Name: "Subject", Value: "Electric bill"},
						{Name: "From", Value: "billing@power.example"},
					},
					Parts: []*gmail.MessagePart{
						{
							MimeType: "multipart/alternative",
							Parts: []*gmail.MessagePart{
								{
									MimeType: "text/plain",
									Body:     &gmail.MessagePartBody{Data: encode("nested text")},
								},
							},
						},
					},
				},
			},
			expected: "nested text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := messageToEmail(tt.message)

			assert.Equal(t, tt.message.Id, email.ID)
			assert.Equal(t, "Electric bill", email.Subject)
			assert.Equal(t, "billing@power.example", email.From)
			assert.Equal(t, tt.expected, email.Body)
		})
	}
}

func TestMessageToEmail_NoPayload(t *testing.T) {
	email := messageToEmail(&gmail.Message{Id: "m5"})

	assert.Equal(t, "m5", email.ID)
	assert.Empty(t, email.Subject)
	assert.Empty(t, email.From)
	assert.Empty(t, email.Body)
}
