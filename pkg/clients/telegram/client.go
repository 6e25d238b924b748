package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const (
	updateTimeout = 60

	// httpTimeout bounds every Bot API call. It must outlast the long poll.
	httpTimeout = 90 * time.Second
)

// Client defines the interface for talking to the Telegram Bot API
type Client interface {
	// Send posts text to chat, which is a numeric chat id or an @channel name.
	// It returns ctx.Err() as soon as ctx ends, even if the request is still
	// in flight.
	Send(ctx context.Context, chat, text string) error
	// Updates starts long polling and returns the incoming update stream.
	Updates() tgbotapi.UpdatesChannel
	// Stop ends long polling and closes the update stream.
	Stop()
	// Username returns the bot's own user name.
	Username() string
}

type clientImpl struct {
	bot *tgbotapi.BotAPI
}

// NewClient authenticates the bot token against the Bot API
func NewClient(token string) (Client, error) {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{Timeout: httpTimeout})
}

// NewClientWithEndpoint lets tests point the bot at a local server. endpoint
// is a format string with the token and method verbs, as tgbotapi.APIEndpoint.
func NewClientWithEndpoint(token, endpoint string, httpClient *http.Client) (Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("error authorizing bot: %w", err)
	}

	log.WithField("prefix", "telegram").WithField("bot", bot.Self.UserName).Info("authorized on bot account")
	return &clientImpl{bot: bot}, nil
}

func (c *clientImpl) Send(ctx context.Context, chat, text string) error {
	msg, err := newMessage(chat, text)
	if err != nil {
		return err
	}

	// tgbotapi builds its requests without a context; the http.Client
	// timeout ends the abandoned call.
	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("error sending message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error sending message: %w", ctx.Err())
	}
}

func (c *clientImpl) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	return c.bot.GetUpdatesChan(u)
}

func (c *clientImpl) Stop() {
	c.bot.StopReceivingUpdates()
}

func (c *clientImpl) Username() string {
	return c.bot.Self.UserName
}

func newMessage(chat, text string) (tgbotapi.MessageConfig, error) {
	chat = strings.TrimSpace(chat)
	if strings.HasPrefix(chat, "@") {
		return tgbotapi.NewMessageToChannel(chat, text), nil
	}

	id, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat id %q", chat)
	}
	return tgbotapi.NewMessage(id, text), nil
}
