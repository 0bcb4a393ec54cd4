// Package messages renders the chat channel's canned replies.
package messages

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
	"text/template"

	incidentModels "hostguard/internal/incident/models"
	"hostguard/internal/platform/config"
	verificationModels "hostguard/internal/verification/models"
)

var templates = template.Must(template.New("chat").Parse(`
{{define "registration"}}🔒 *Account Required*

You need to register an account to use our verification service.

📱 *How to get started:*
1. Visit our website: {{.SiteURL}}
2. Create your free account
3. Start verifying IDs instantly!

💡 *Why register?*
• Verify clients securely
• Get free trial for testing
• Track your verification history
• Get instant results

👉 Register here: {{.RegisterURL}}{{end}}

{{define "trial_ended"}}🚫 Your free trial has ended.

You've reached the limit of complimentary verifications. To keep protecting your property and guests, upgrade now to unlock unlimited checks and instant alerts.

✅ Fast, reliable verifications
🛡️ Reduce fraud and risky bookings
📊 Access incident insights

👉 Subscribe here: {{.PaymentURL}}

For KSh {{.MonthlyPrice}} only per month{{end}}

{{define "success"}}🔍 *Verification Result* 🔍

✅ *Verification Successful!*
📋 *Name:* {{.Result.MatchedName}}
🆔 *ID Number:* {{.Result.Identifier}}
{{if .Incidents}}
⚠️ *Previous Incidents Involving This Client:*
{{range .Incidents}}• {{.Title}} - {{.Status}}
{{end}}{{else if .Result.ClientID}}
✅ No previous incidents found for this client.
{{else}}
ℹ️ This client doesn't have previous reported offences.
{{end}}
_If this does not match the person you're verifying, please report this incident immediately._

⚠️ *Suspicious Activity?*
If the verification details don't match the person's identification or if you suspect fraudulent activity, please report this incident at:
{{.ReportURL}}

Your vigilance helps keep our community safe! 🛡️{{if .Remaining}}

🆓 Free trial remaining: {{.Remaining}}{{end}}{{end}}

{{define "failure"}}❌ *Verification Failed*

We couldn't verify the provided ID: {{.Result.Identifier}}

*Reason:* {{.Result.FailureReason}}

⚠️ *Next Steps:*
1. Double-check the ID number for any typos
2. If the ID is correct but verification fails, the person may be using invalid credentials

*For your safety, we recommend:*
• Do not proceed with any transactions
• Report this incident at: {{.ReportURL}}
• Contact support if you need assistance{{end}}

{{define "unavailable"}}⏳ *Verification Unavailable*

We couldn't reach the verification service for ID {{.Result.Identifier}}. No free trial was used.

Please try again in a few minutes.{{end}}

{{define "missing_id"}}⚠️ Please provide an ID number to verify.

Example: 'verify A123456789X'{{end}}

{{define "report"}}📝 *Report an Incident* 📝

To report a security incident, please visit our reporting portal and follow these steps:

1. *Access the Form*: Go to {{.ReportURL}}
2. *Provide Details*: Fill in all required information about the incident
3. *Upload Evidence*: Attach any relevant photos, documents, or screenshots
4. *Submit Report*: Review and submit your report

ℹ️ *What to include in your report:*
• Date and time of the incident
• Location or property address
• Description of what happened
• Any involved parties' information

Your report helps us maintain a safe community. Thank you for your cooperation!{{end}}

{{define "view"}}📂 Your verification history and reported incidents are available on your dashboard:
{{.SiteURL}}{{end}}

{{define "help"}}👋 *How can we help?*

• *Verify a guest:* send "verify" followed by their ID number or KRA PIN, e.g. 'verify A123456789X'
• *Report an incident:* send "report"
• *View your history:* visit {{.SiteURL}}{{end}}

{{define "error"}}⚠️ Something went wrong while processing your request. Please try again shortly.{{end}}
`))

// fallbackReply is sent when a template fails to render.
const fallbackReply = "Something went wrong while preparing your reply. Please try again shortly."

// Renderer fills the templates with the configured site links.
type Renderer struct {
	logger       *slog.Logger
	siteURL      string
	registerURL  string
	paymentURL   string
	reportURL    string
	monthlyPrice int
}

type Option func(*Renderer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func New(cfg config.Chat, opts ...Option) *Renderer {
	r := &Renderer{
		logger:       slog.Default(),
		siteURL:      strings.TrimRight(cfg.SiteURL, "/"),
		registerURL:  cfg.URL(cfg.RegisterPath),
		paymentURL:   cfg.URL(cfg.PaymentPath),
		reportURL:    cfg.URL(cfg.ReportPath),
		monthlyPrice: cfg.MonthlyPriceKES,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type view struct {
	SiteURL      string
	RegisterURL  string
	PaymentURL   string
	ReportURL    string
	MonthlyPrice int
	Result       *verificationModels.Result
	Incidents    []*incidentModels.Incident
	Remaining    string
}

func (r *Renderer) view() view {
	return view{
		SiteURL:      r.siteURL,
		RegisterURL:  r.registerURL,
		PaymentURL:   r.paymentURL,
		ReportURL:    r.reportURL,
		MonthlyPrice: r.monthlyPrice,
	}
}

func (r *Renderer) render(name string, v view) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, v); err != nil {
		r.logger.Error("failed to render chat reply",
			"template", name,
			"error", err,
		)
		return fallbackReply
	}
	return strings.TrimSpace(buf.String())
}

// Result renders the reply for a verification outcome.
func (r *Renderer) Result(res *verificationModels.Result) string {
	v := r.view()
	v.Result = res
	switch res.Status {
	case verificationModels.StatusVerified:
		v.Incidents = res.PriorIncidents
		if res.RemainingTrial != nil {
			v.Remaining = strconv.Itoa(*res.RemainingTrial)
		}
		return r.render("success", v)
	case verificationModels.StatusRejected:
		return r.render("failure", v)
	case verificationModels.StatusUnavailable:
		return r.render("unavailable", v)
	case verificationModels.StatusInvalidIdentifier:
		return r.MissingID()
	case verificationModels.StatusRegistrationRequired:
		return r.Registration()
	case verificationModels.StatusQuotaExceeded:
		return r.TrialEnded()
	default:
		return r.render("error", v)
	}
}

func (r *Renderer) Registration() string { return r.render("registration", r.view()) }
func (r *Renderer) TrialEnded() string   { return r.render("trial_ended", r.view()) }
func (r *Renderer) MissingID() string    { return r.render("missing_id", r.view()) }
func (r *Renderer) Report() string       { return r.render("report", r.view()) }
func (r *Renderer) View() string         { return r.render("view", r.view()) }
func (r *Renderer) Help() string         { return r.render("help", r.view()) }
