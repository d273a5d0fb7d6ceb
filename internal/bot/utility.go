package bot

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/storage"
)

// Utility bundles the status commands: ping, about, help.
type Utility struct {
	Version string
	Started time.Time
	Store   *storage.Store

	// Latency reports the gateway heartbeat round trip; wired to the
	// session by the bot.
	Latency func() time.Duration
}

func (u *Utility) Register(r *Router) {
	r.Register(&Command{
		Name:        "ping",
		Module:      "Utility",
		Description: "Get the bot's latency",
		Run:         u.runPing,
	})
	r.Register(&Command{
		Name:        "about",
		Module:      "Utility",
		Description: "Learn about Cronus",
		Run:         u.runAbout,
	})
	r.Register(&Command{
		Name:        "help",
		Module:      "Utility",
		Description: "Get a list of commands",
		Run: func(ctx context.Context, cc *Context) error {
			return u.runHelp(cc, r)
		},
	})
}

func (u *Utility) runPing(_ context.Context, cc *Context) error {
	latency := float64(0)
	if u.Latency != nil {
		latency = float64(u.Latency().Microseconds()) / 1000
	}
	return cc.ReplyEmbed(textEmbed(fmt.Sprintf("Pong: %.0fms", latency)))
}

func (u *Utility) runAbout(_ context.Context, cc *Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	closedTickets := 0
	if u.Store != nil {
		if n, err := u.Store.CountClosedTickets(); err == nil {
			closedTickets = n
		} else {
			cc.Logger.Warn("counting closed tickets failed", "error", err)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "About Cronus",
		Description: "Cronus is a Discord bot created by " +
			"[Noah](https://discord.com/users/459374864067723275) " +
			"to help with the management of the ERM Systems Discord server.",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: u.Version, Inline: true},
			{Name: "RAM Usage", Value: fmt.Sprintf("%.2f MB", float64(mem.Alloc)/(1024*1024)), Inline: true},
			{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "Uptime", Value: time.Since(u.Started).Truncate(time.Second).String(), Inline: true},
			{Name: "Closed Tickets", Value: fmt.Sprintf("%d", closedTickets), Inline: true},
		},
	}
	return cc.ReplyEmbed(embed)
}

func (u *Utility) runHelp(cc *Context, r *Router) error {
	embed := &discordgo.MessageEmbed{
		Title: "Command List",
		Color: embedColor,
	}

	var module string
	var lines []string
	flush := func() {
		if module != "" && len(lines) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  module,
				Value: strings.Join(lines, "\n"),
			})
		}
		lines = nil
	}

	for _, cmd := range r.Commands() {
		if cmd.Module != module {
			flush()
			module = cmd.Module
		}
		lines = append(lines, fmt.Sprintf("`%s%s`: %s", r.prefix, cmd.Name, cmd.Description))
	}
	flush()

	return cc.ReplyEmbed(embed)
}
