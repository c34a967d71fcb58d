// Package notify delivers invitation notifications. The resend notifier
// sends e-mail; the log notifier is used when no API key is configured.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
)

// Invitation describes a roster addition to announce.
type Invitation struct {
	ListTitle string
	ShareURL  string
	Inviter   domain.IdentityRef
	Invitee   *domain.User
}

// Notifier announces invitations.
type Notifier interface {
	NotifyInvited(ctx context.Context, inv Invitation) error
}

// LogNotifier writes invitations to the log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyInvited implements Notifier.
func (n *LogNotifier) NotifyInvited(_ context.Context, inv Invitation) error {
	n.logger.Info("invitation",
		"list_title", inv.ListTitle,
		"share_url", inv.ShareURL,
		"inviter_id", inv.Inviter.ID,
		"invitee_id", inv.Invitee.ID,
	)
	return nil
}

// emailSender is the part of the resend client used here.
type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendNotifier e-mails invitees through Resend.
type ResendNotifier struct {
	emails emailSender
	from   string
}

// NewResendNotifier creates a notifier sending from the given address.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{emails: resend.NewClient(apiKey).Emails, from: from}
}

// NotifyInvited implements Notifier.
func (n *ResendNotifier) NotifyInvited(ctx context.Context, inv Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inv.Invitee == nil || inv.Invitee.Email == "" {
		return fmt.Errorf("invitee has no e-mail address")
	}

	subject, text, htmlBody := renderInvitation(inv)
	_, err := n.emails.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      []string{inv.Invitee.Email},
		Subject: subject,
		Text:    text,
		Html:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("error sending invitation email: %w", err)
	}
	return nil
}

func renderInvitation(inv Invitation) (subject, text, htmlBody string) {
	inviter := inv.Inviter.DisplayName
	if inviter == "" {
		inviter = "Someone"
	}

	subject = fmt.Sprintf("%s shared %q with you", inviter, inv.ListTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "%s invited you to the list %q.\n\n", inviter, inv.ListTitle)
	fmt.Fprintf(&b, "Open it here: %s\n", inv.ShareURL)
	text = b.String()

	htmlBody = fmt.Sprintf(
		`<p>%s invited you to the list <strong>%s</strong>.</p><p><a href="%s">Open the list</a></p>`,
		html.EscapeString(inviter), html.EscapeString(inv.ListTitle), html.EscapeString(inv.ShareURL),
	)
	return subject, text, htmlBody
}
