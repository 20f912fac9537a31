package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/amirphl/signal-bot/internal/signal"
)

// discordSender is the slice of the Discord session the notifier uses.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord delivers signals to a Discord channel through the bot API.
type Discord struct {
	session   discordSender
	channelID string
}

// NewDiscord creates a Discord notifier from a bot token. The session
// is REST-only; no gateway connection is opened.
func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Name() string { return "discord" }

// SendSignal posts the formatted signal message to the configured
// channel.
func (d *Discord) SendSignal(ctx context.Context, c signal.Combined) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, FormatSignal(c), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending discord message: %w", err)
	}
	return nil
}
