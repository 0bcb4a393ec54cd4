package messages

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	incidentModels "hostguard/internal/incident/models"
	"hostguard/internal/platform/config"
	verificationModels "hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
)

func newRenderer() *Renderer {
	cfg := config.Default().Chat
	cfg.SiteURL = "https://hostguard.example/"
	return New(cfg)
}

func TestResult(t *testing.T) {
	r := newRenderer()
	clientID := id.ClientID(uuid.New())
	two := 2
	zero := 0

	t.Run("verified with incidents", func(t *testing.T) {
		msg := r.Result(&verificationModels.Result{
			Status:         verificationModels.StatusVerified,
			MatchedName:    "JOHN DOE",
			Identifier:     "12345678",
			ClientID:       &clientID,
			PriorIncidents: []*incidentModels.Incident{{Title: "Damaged furniture", Status: incidentModels.StatusOpen}},
			RemainingTrial: &two,
		})
		assert.Contains(t, msg, "*Name:* JOHN DOE")
		assert.Contains(t, msg, "*ID Number:* 12345678")
		assert.Contains(t, msg, "• Damaged furniture - open")
		assert.Contains(t, msg, "Free trial remaining: 2")
		assert.Contains(t, msg, "https://hostguard.example/incidents/new")
	})

	t.Run("verified known client without incidents", func(t *testing.T) {
		msg := r.Result(&verificationModels.Result{
			Status:         verificationModels.StatusVerified,
			ClientID:       &clientID,
			RemainingTrial: &zero,
		})
		assert.Contains(t, msg, "No previous incidents found")
		assert.Contains(t, msg, "Free trial remaining: 0")
	})

	t.Run("verified unknown client on a subscription", func(t *testing.T) {
		msg := r.Result(&verificationModels.Result{Status: verificationModels.StatusVerified, Unlimited: true})
		assert.Contains(t, msg, "doesn't have previous reported offences")
		assert.NotContains(t, msg, "Free trial remaining")
	})

	t.Run("rejected", func(t *testing.T) {
		msg := r.Result(&verificationModels.Result{
			Status:        verificationModels.StatusRejected,
			Identifier:    "A123456789X",
			FailureReason: "not registered",
		})
		assert.Contains(t, msg, "Verification Failed")
		assert.Contains(t, msg, "provided ID: A123456789X")
		assert.Contains(t, msg, "*Reason:* not registered")
	})

	t.Run("gating replies", func(t *testing.T) {
		assert.Contains(t, r.Result(&verificationModels.Result{Status: verificationModels.StatusRegistrationRequired}),
			"Register here: https://hostguard.example/register")
		trial := r.Result(&verificationModels.Result{Status: verificationModels.StatusQuotaExceeded})
		assert.Contains(t, trial, "https://hostguard.example/payments/subscribe")
		assert.Contains(t, trial, "KSh 100")
		assert.Contains(t, r.Result(&verificationModels.Result{Status: verificationModels.StatusInvalidIdentifier}),
			"verify A123456789X")
		assert.Contains(t, r.Result(&verificationModels.Result{Status: verificationModels.StatusUnavailable}),
			"No free trial was used")
		assert.Contains(t, r.Result(&verificationModels.Result{Status: verificationModels.StatusInternalError}),
			"Something went wrong")
	})
}

func TestStaticReplies(t *testing.T) {
	r := newRenderer()
	assert.Contains(t, r.Report(), "Report an Incident")
	assert.Contains(t, r.Help(), "verify A123456789X")
	assert.Contains(t, r.View(), "https://hostguard.example")
}

func TestRenderFailureFallsBack(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.Default().Chat
	r := New(cfg, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	msg := r.render("no_such_template", r.view())

	assert.Equal(t, fallbackReply, msg)
	assert.NotEmpty(t, msg)
	assert.Contains(t, logs.String(), "failed to render chat reply")
	assert.Contains(t, logs.String(), "no_such_template")
}
