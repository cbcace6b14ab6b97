package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"github.com/ikkim/bizdirectory-backend/config"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
)

type Event string

const (
	EventVerifyEmail          Event = "verify_email"
	EventPasswordReset        Event = "password_reset"
	EventClaimApproved        Event = "claim_approved"
	EventRegistrationApproved Event = "registration_approved"
	EventAccountApproved      Event = "account_approved"
	EventIntakeDigest         Event = "intake_digest"
)

// Notifier delivers fire-and-forget notices. Callers log failures and carry on.
type Notifier interface {
	Send(ctx context.Context, event Event, recipient string, payload map[string]string) error
}

// New returns an SMTP notifier when SMTP credentials are configured and a
// logging notifier otherwise.
func New(cfg config.SMTPConfig) Notifier {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		logger.Warn("SMTP not configured, notifications will only be logged")
		return LogNotifier{}
	}
	return NewSMTPNotifier(cfg)
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPNotifier struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *SMTPNotifier) Send(ctx context.Context, event Event, recipient string, payload map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := Render(event, payload, n.cfg.AppBaseURL)
	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		n.cfg.From, recipient, subject, body,
	))

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := n.sendMail(n.cfg.Host+":"+n.cfg.Port, auth, n.cfg.From, []string{recipient}, message); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"event":     event,
			"recipient": recipient,
		})
		return fmt.Errorf("send %s email: %w", event, err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"event":     event,
		"recipient": recipient,
	})
	return nil
}

// LogNotifier writes notices to the log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, event Event, recipient string, payload map[string]string) error {
	fields := map[string]interface{}{
		"event":     event,
		"recipient": recipient,
	}
	for k, v := range payload {
		fields[k] = v
	}
	logger.Info("[DEV MODE] notification", fields)
	return nil
}

// Render builds the plain-text subject and body for an event.
func Render(event Event, payload map[string]string, baseURL string) (string, string) {
	switch event {
	case EventVerifyEmail:
		return "Verify your email address",
			fmt.Sprintf("Welcome! Confirm your account here:\n%s/verify-email?token=%s\n\nThe link expires in 24 hours.", baseURL, payload["token"])
	case EventPasswordReset:
		return "Reset your password",
			fmt.Sprintf("Use this link to choose a new password:\n%s/reset-password?token=%s\n\nThe link expires in 1 hour. Ignore this email if you did not ask for it.", baseURL, payload["token"])
	case EventClaimApproved:
		return "Your business claim was approved",
			fmt.Sprintf("You now manage %q.\n%s/businesses/%s", payload["business_name"], baseURL, payload["business_slug"])
	case EventRegistrationApproved:
		return "Your business registration was approved",
			fmt.Sprintf("%q has been added to the directory and is awaiting activation.\n%s/businesses/%s", payload["business_name"], baseURL, payload["business_slug"])
	case EventAccountApproved:
		return "Your account is ready",
			fmt.Sprintf("Your account %q has been approved. Sign in at %s/login", payload["username"], baseURL)
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, payload[k])
	}
	return strings.ReplaceAll(string(event), "_", " "), b.String()
}
