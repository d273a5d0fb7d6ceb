// Package bot adapts the command modules to the Discord gateway. The
// gateway session, event delivery, and REST plumbing come from discordgo;
// this package owns command dispatch and message rendering.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/config"
)

// Bot owns the gateway session and routes incoming messages to the
// registered command modules.
type Bot struct {
	session *discordgo.Session
	router  *Router
	cfg     config.DiscordConfig
	logger  *slog.Logger
}

// New creates a Bot over a fresh gateway session. The router's role check
// is wired to guild state here.
func New(cfg config.DiscordConfig, router *Router, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{
		session: session,
		router:  router,
		cfg:     cfg,
		logger:  logger,
	}
	router.HasRole = b.hasRole
	return b, nil
}

// Latency returns the gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration {
	return b.session.HeartbeatLatency()
}

// Run opens the gateway session and blocks until ctx is cancelled.
// Message handlers each run on their own goroutine (discordgo dispatches
// events asynchronously), so a lookup suspended in backoff never blocks
// other commands.
func (b *Bot) Run(ctx context.Context) error {
	start := time.Now()

	b.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		b.onReady(s, start)
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.router.Dispatch(ctx, s, m)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway session: %w", err)
	}
	defer b.session.Close()

	<-ctx.Done()
	b.logger.Info("gateway session closing")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, start time.Time) {
	elapsed := time.Since(start)
	user := s.State.User
	b.logger.Info("logged in", "user", user.Username, "elapsed", elapsed)

	if b.cfg.LogChannelID == "" {
		return
	}
	content := fmt.Sprintf("Bot is ready. Took %dms", elapsed.Milliseconds())
	if _, err := s.ChannelMessageSend(b.cfg.LogChannelID, content); err != nil {
		b.logger.Warn("log channel unavailable", "channel", b.cfg.LogChannelID, "error", err)
	}
}

// hasRole resolves the author's roles against the guild's role names,
// preferring cached state and falling back to the REST API.
func (b *Bot) hasRole(m *discordgo.MessageCreate, roleName string) bool {
	if m.Member == nil || m.GuildID == "" {
		return false
	}

	roles, err := b.guildRoles(m.GuildID)
	if err != nil {
		b.logger.Warn("resolving guild roles failed", "guild", m.GuildID, "error", err)
		return false
	}

	named := make(map[string]bool, len(m.Member.Roles))
	for _, id := range m.Member.Roles {
		named[id] = true
	}
	for _, role := range roles {
		if role.Name == roleName && named[role.ID] {
			return true
		}
	}
	return false
}

func (b *Bot) guildRoles(guildID string) ([]*discordgo.Role, error) {
	if guild, err := b.session.State.Guild(guildID); err == nil && len(guild.Roles) > 0 {
		return guild.Roles, nil
	}
	return b.session.GuildRoles(guildID)
}
