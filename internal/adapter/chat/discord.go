package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/bot"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// Bot binds the command router to a Discord gateway session. It owns
// the websocket connection; the router itself never sees discordgo.
type Bot struct {
	session *discordgo.Session
	router  *bot.Router
	timeout time.Duration
	log     *slog.Logger
}

var _ usecase.Notifier = (*Bot)(nil)

func NewBot(token string, router *bot.Router, commandTimeout time.Duration, log *slog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	b := &Bot{session: s, router: router, timeout: commandTimeout, log: log}
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onMemberJoin)
	return b, nil
}

// Open connects to the gateway and starts dispatching events.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.log.Info("discord session open", "user", b.session.State.User.Username)
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	reply := b.router.Handle(ctx, bot.Inbound{
		AuthorID: m.Author.ID,
		Content:  m.Content,
		FromBot:  m.Author.Bot || m.Author.ID == s.State.User.ID,
	})
	if reply == "" {
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		b.log.Error("send reply failed", "channel", m.ChannelID, "err", err)
	}
}

func (b *Bot) onMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	guild, err := s.Guild(m.GuildID)
	if err != nil || guild.SystemChannelID == "" {
		return
	}
	welcome := fmt.Sprintf("Welcome <@%s>! %s", m.User.ID, bot.Greeting())
	if _, err := s.ChannelMessageSend(guild.SystemChannelID, welcome); err != nil {
		b.log.Error("send welcome failed", "guild", m.GuildID, "err", err)
	}
}

// DirectMessage opens (or reuses) the DM channel with the user and
// sends one message. Implements usecase.Notifier for fulfillment.
func (b *Bot) DirectMessage(ctx context.Context, userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := b.session.ChannelMessageSend(ch.ID, content); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}
