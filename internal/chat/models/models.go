// Package models holds the chat channel's webhook payloads and message types.
package models

import "strings"

// Intent is what an inbound chat message asks for.
type Intent string

const (
	IntentVerify  Intent = "verify"
	IntentReport  Intent = "report"
	IntentView    Intent = "view"
	IntentHelp    Intent = "help"
	IntentUnknown Intent = "unknown"
)

// ParseIntent maps a classifier answer to an Intent, defaulting to unknown.
func ParseIntent(s string) Intent {
	switch i := Intent(strings.ToLower(strings.Trim(strings.TrimSpace(s), ".\"'"))); i {
	case IntentVerify, IntentReport, IntentView, IntentHelp:
		return i
	}
	return IntentUnknown
}

// InboundMessage is one text message delivered by the webhook.
type InboundMessage struct {
	ID   string
	From string
	Text string
}

// WebhookPayload is the Graph API change notification body.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
}

type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// Messages flattens the payload into inbound messages, skipping status
// callbacks and non-message fields.
func (p WebhookPayload) Messages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				msg := InboundMessage{
					ID:   m.ID,
					From: strings.TrimPrefix(m.From, "whatsapp:"),
				}
				if m.Text != nil {
					msg.Text = m.Text.Body
				}
				out = append(out, msg)
			}
		}
	}
	return out
}

// OutboundText is the Graph API send-message body for a text reply.
type OutboundText struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             OutboundTextBody `json:"text"`
}

type OutboundTextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}
