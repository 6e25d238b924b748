package notify

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"form-intake/pkg/config"
	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
	"form-intake/pkg/utils"
)

// Notifier delivers one message about a stored record to the administrator.
type Notifier interface {
	Notify(ctx context.Context, rec models.UserRecord) error
	// Channel names the transport for logs and metrics.
	Channel() string
}

// ChatSender posts text to a chat, as the Telegram client does. Send must
// return once ctx is done.
type ChatSender interface {
	Send(ctx context.Context, chat, text string) error
}

// SMSSender sends an SMS, as the Twilio client does. SendSMS must return once
// ctx is done.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// PhoneMessenger sends a text to a phone number, as the TextMagic client does.
type PhoneMessenger interface {
	SendMessage(ctx context.Context, phone, message string) error
}

// FormatMessage renders the administrator message. Every field of the record
// is included.
func FormatMessage(rec models.UserRecord) string {
	consent := "no"
	if rec.Checkbox1 {
		consent = "yes"
	}

	var b strings.Builder
	b.WriteString("New user registered\n")
	fmt.Fprintf(&b, "ID: %s\n", rec.ID)
	fmt.Fprintf(&b, "Name: %s\n", rec.Name)
	fmt.Fprintf(&b, "Email: %s\n", rec.Email)
	fmt.Fprintf(&b, "Mobile: %s\n", rec.Mobile)
	fmt.Fprintf(&b, "Consent: %s", consent)
	return b.String()
}

type chatNotifier struct {
	sender ChatSender
	chat   string
}

// NewChatNotifier sends to a single bot chat.
func NewChatNotifier(sender ChatSender, chat string) Notifier {
	return &chatNotifier{sender: sender, chat: chat}
}

func (n *chatNotifier) Notify(ctx context.Context, rec models.UserRecord) error {
	if err := n.sender.Send(ctx, n.chat, FormatMessage(rec)); err != nil {
		return apperrors.NotifyError(n.Channel(), err)
	}
	return nil
}

func (n *chatNotifier) Channel() string { return config.ChannelTelegram }

type smsNotifier struct {
	sender SMSSender
	phone  string
}

// NewSMSNotifier sends an SMS to the administrator phone.
func NewSMSNotifier(sender SMSSender, phone string) Notifier {
	return &smsNotifier{sender: sender, phone: phone}
}

func (n *smsNotifier) Notify(ctx context.Context, rec models.UserRecord) error {
	if err := n.sender.SendSMS(ctx, n.phone, FormatMessage(rec)); err != nil {
		return apperrors.NotifyError(n.Channel(), err)
	}
	return nil
}

func (n *smsNotifier) Channel() string { return config.ChannelTwilio }

type phoneNotifier struct {
	messenger PhoneMessenger
	phone     string
}

// NewPhoneNotifier sends a text through a messaging API to the administrator phone.
func NewPhoneNotifier(messenger PhoneMessenger, phone string) Notifier {
	return &phoneNotifier{messenger: messenger, phone: phone}
}

func (n *phoneNotifier) Notify(ctx context.Context, rec models.UserRecord) error {
	if err := n.messenger.SendMessage(ctx, n.phone, FormatMessage(rec)); err != nil {
		return apperrors.NotifyError(n.Channel(), err)
	}
	return nil
}

func (n *phoneNotifier) Channel() string { return config.ChannelTextMagic }

type discard struct{}

// Discard drops every notification. Used when notifications are disabled.
func Discard() Notifier { return discard{} }

func (discard) Notify(_ context.Context, rec models.UserRecord) error {
	log.WithField("prefix", "notify").
		WithField("id", rec.ID).
		WithField("mobile_hash", utils.HashString(rec.Mobile)).
		Debug("notifications disabled, skipping")
	return nil
}

func (discard) Channel() string { return config.ChannelNone }
