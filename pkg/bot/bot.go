package bot

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"form-intake/pkg/services"
)

// CommandStats asks for the number of stored user records.
const CommandStats = "stats"

// Sender posts a reply into a chat.
type Sender interface {
	Send(ctx context.Context, chat, text string) error
}

// Options configures command handling.
type Options struct {
	// AdminChat is a numeric chat id or an @channel name.
	AdminChat string
	// RestrictStats limits the stats command to AdminChat.
	RestrictStats bool
	// Username is the bot's own user name. Commands addressed to another bot
	// with /cmd@name are ignored.
	Username string
}

// Bot dispatches chat commands. Each update is handled on its own goroutine.
type Bot struct {
	sender Sender
	stats  services.StatsService
	opts   Options
	wg     sync.WaitGroup
}

// New creates a command handler replying through sender
func New(sender Sender, stats services.StatsService, opts Options) *Bot {
	return &Bot{
		sender: sender,
		stats:  stats,
		opts:   opts,
	}
}

// Run consumes updates until ctx is done or the channel is closed, then
// waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate answers one update. Non-command messages and unknown commands
// are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	if !b.addressedToMe(msg.CommandWithAt()) {
		return
	}

	chat := strconv.FormatInt(msg.Chat.ID, 10)
	entry := log.WithField("prefix", "bot").WithField("chat", chat).WithField("command", msg.Command())

	switch msg.Command() {
	case CommandStats:
		if b.opts.RestrictStats && !b.isAdminChat(msg.Chat) {
			entry.Warn("stats command from non-admin chat ignored")
			return
		}
		b.reply(ctx, entry, chat, b.stats.Reply(ctx))
	default:
		entry.Debug("unknown command ignored")
	}
}

// addressedToMe reports whether a command without a mention, or one that
// mentions this bot, should be handled.
func (b *Bot) addressedToMe(command string) bool {
	i := strings.Index(command, "@")
	if i == -1 {
		return true
	}
	return b.opts.Username != "" && strings.EqualFold(command[i+1:], b.opts.Username)
}

func (b *Bot) isAdminChat(chat *tgbotapi.Chat) bool {
	admin := strings.TrimSpace(b.opts.AdminChat)
	if admin == "" {
		return false
	}
	if strings.HasPrefix(admin, "@") {
		return chat.UserName != "" && strings.EqualFold(admin[1:], chat.UserName)
	}
	return admin == strconv.FormatInt(chat.ID, 10)
}

func (b *Bot) reply(ctx context.Context, entry *log.Entry, chat, text string) {
	if err := b.sender.Send(ctx, chat, text); err != nil {
		entry.WithError(err).Error("error sending reply")
		return
	}
	entry.Debug("reply sent")
}
