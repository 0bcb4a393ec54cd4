// Package ports declares what the chat webhook depends on.
package ports

import (
	"context"

	"hostguard/internal/chat/models"
	verificationModels "hostguard/internal/verification/models"
)

// Verifier runs a verification for a chat requester.
type Verifier interface {
	Verify(ctx context.Context, req verificationModels.Request) *verificationModels.Result
}

// Classifier maps free text to an intent. It never fails; an unclassifiable
// message is IntentUnknown.
type Classifier interface {
	Classify(ctx context.Context, text string) models.Intent
}

// Sender delivers a text reply to a chat user.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Deduper reports whether a delivered message ID is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) (bool, error)
}
