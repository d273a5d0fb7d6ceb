package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Command is one prefix command. Handlers receive a Context carrying the
// session subset, the triggering message, and parsed arguments.
type Command struct {
	Name        string
	Module      string // grouping shown by ?help
	Description string
	Usage       string // e.g. "sentry <error-id>"
	MinArgs     int
	RequireRole string // role name gating the command; empty means everyone
	Run         func(ctx context.Context, cc *Context) error
}

// Context is the per-invocation state handed to a command handler.
type Context struct {
	Session Messenger
	Message *discordgo.MessageCreate
	Args    []string
	Logger  *slog.Logger
}

// Reply sends content as a reply to the invoking message.
func (c *Context) Reply(content string) error {
	return reply(c.Session, c.Message.Message, content)
}

// ReplyEmbed sends an embed as a reply to the invoking message.
func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return replyEmbed(c.Session, c.Message.Message, embed)
}

// TagHandler resolves a tag-prefix invocation ("!faq") to a response. A
// miss stays silent so stray exclamations don't produce noise.
type TagHandler func(ctx context.Context, cc *Context, name string) error

// Router parses incoming messages and dispatches prefix commands. Every
// dispatch runs on the event's own goroutine; the router itself holds no
// per-invocation state.
type Router struct {
	prefix    string
	tagPrefix string
	commands  map[string]*Command
	tags      TagHandler
	logger    *slog.Logger

	// HasRole reports whether the message author carries the named role.
	// Wired to guild state by the bot; replaced by tests.
	HasRole func(m *discordgo.MessageCreate, role string) bool
}

// NewRouter creates a Router for the given command and tag prefixes.
func NewRouter(prefix, tagPrefix string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		prefix:    prefix,
		tagPrefix: tagPrefix,
		commands:  make(map[string]*Command),
		logger:    logger,
		HasRole:   func(*discordgo.MessageCreate, string) bool { return false },
	}
}

// Register adds a command. Registering a duplicate name panics: command
// sets are static and assembled at startup.
func (r *Router) Register(cmd *Command) {
	name := strings.ToLower(cmd.Name)
	if _, exists := r.commands[name]; exists {
		panic(fmt.Sprintf("duplicate command %q", name))
	}
	r.commands[name] = cmd
}

// SetTagHandler installs the tag-prefix fallback.
func (r *Router) SetTagHandler(h TagHandler) {
	r.tags = h
}

// Commands returns all registered commands sorted by module then name,
// for help rendering.
func (r *Router) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Dispatch routes one incoming message. Messages from bots, and messages
// matching neither prefix, are ignored.
func (r *Router) Dispatch(ctx context.Context, s Messenger, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	switch {
	case r.prefix != "" && strings.HasPrefix(m.Content, r.prefix):
		r.dispatchCommand(ctx, s, m, strings.TrimPrefix(m.Content, r.prefix))
	case r.tagPrefix != "" && strings.HasPrefix(m.Content, r.tagPrefix):
		r.dispatchTag(ctx, s, m, strings.TrimSpace(strings.TrimPrefix(m.Content, r.tagPrefix)))
	}
}

func (r *Router) dispatchCommand(ctx context.Context, s Messenger, m *discordgo.MessageCreate, invocation string) {
	fields := strings.Fields(invocation)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ok := r.commands[name]
	if !ok {
		r.logger.Warn("command not found", "command", name, "author", m.Author.ID)
		return
	}

	log := r.logger.With("command", name, "author", m.Author.ID, "channel", m.ChannelID)

	if cmd.RequireRole != "" && !r.HasRole(m, cmd.RequireRole) {
		log.Warn("missing required role", "role", cmd.RequireRole)
		if err := reply(s, m.Message, "You don't have permission to use this command."); err != nil {
			log.Warn("permission reply failed", "error", err)
		}
		return
	}

	if len(args) < cmd.MinArgs {
		msg := "You're missing some arguments."
		if cmd.Usage != "" {
			msg += " Usage: `" + r.prefix + cmd.Usage + "`"
		}
		if err := reply(s, m.Message, msg); err != nil {
			log.Warn("usage reply failed", "error", err)
		}
		return
	}

	cc := &Context{Session: s, Message: m, Args: args, Logger: log}
	r.invoke(ctx, cc, log, func(ctx context.Context) error { return cmd.Run(ctx, cc) })
}

func (r *Router) dispatchTag(ctx context.Context, s Messenger, m *discordgo.MessageCreate, name string) {
	if r.tags == nil || name == "" {
		return
	}
	log := r.logger.With("tag", name, "author", m.Author.ID, "channel", m.ChannelID)
	cc := &Context{Session: s, Message: m, Logger: log}
	r.invoke(ctx, cc, log, func(ctx context.Context) error { return r.tags(ctx, cc, name) })
}

// invoke runs a handler, turning errors and panics into a generic error
// reply so one bad command never takes the gateway loop down.
func (r *Router) invoke(ctx context.Context, cc *Context, log *slog.Logger, fn func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panicked", "panic", rec)
			r.replyError(cc, log, fmt.Errorf("internal error"))
		}
	}()

	if err := fn(ctx); err != nil {
		log.Error("handler failed", "error", err)
		r.replyError(cc, log, err)
	}
}

func (r *Router) replyError(cc *Context, log *slog.Logger, err error) {
	msg := fmt.Sprintf("Something went wrong. 👇\n* %v", err)
	if replyErr := cc.Reply(msg); replyErr != nil {
		log.Warn("error reply failed", "error", replyErr)
	}
}
