package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/NoahCxrest/ERMSupport/internal/sentry"
	"github.com/NoahCxrest/ERMSupport/internal/storage"
)

// Support bundles the support-workflow commands: the Sentry issue lookup,
// ticket closing, and tag-prefix lookups.
type Support struct {
	Lookup      *sentry.Lookup
	Store       *storage.Store
	SupportRole string
	Logger      *slog.Logger
}

// Register wires the support commands and the tag handler into the router.
func (sp *Support) Register(r *Router) {
	r.Register(&Command{
		Name:        "sentry",
		Module:      "Support",
		Description: "Get a Sentry issue by error ID",
		Usage:       "sentry <error-id>",
		MinArgs:     1,
		RequireRole: sp.SupportRole,
		Run:         sp.runSentry,
	})
	r.Register(&Command{
		Name:        "close",
		Module:      "Support",
		Description: "Mark this support thread as closed",
		RequireRole: sp.SupportRole,
		Run:         sp.runClose,
	})
	r.SetTagHandler(sp.runTag)
}

// runSentry drives the retry lookup; all progress lands in one edited
// message via the reporter. The lookup itself never returns fetch errors,
// only the context's when the invocation goes away.
func (sp *Support) runSentry(ctx context.Context, cc *Context) error {
	rep := newMessageReporter(cc.Session, cc.Message.Message, cc.Logger)
	_, err := sp.Lookup.Run(ctx, cc.Args[0], rep)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		cc.Logger.Warn("lookup cancelled", "error", err)
		return nil
	}
	return err
}

func (sp *Support) runClose(_ context.Context, cc *Context) error {
	threadID := cc.Message.ChannelID

	ticket, err := sp.Store.GetClosedTicket(threadID)
	if err == nil {
		return cc.Reply("This ticket is already closed by <@" + ticket.ClosedBy + ">.")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := sp.Store.CloseTicket(threadID, cc.Message.Author.ID); err != nil {
		return err
	}
	return cc.Reply("Ticket closed. Thanks for reaching out!")
}

// runTag answers a "!name" invocation with the stored tag content. When
// the invoking message is itself a reply, the tag answer targets the
// referenced message instead, and the invocation is deleted to keep the
// channel tidy (best effort; deletion needs manage-messages permission).
func (sp *Support) runTag(_ context.Context, cc *Context, name string) error {
	tag, err := sp.Store.GetTag(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	target := cc.Message.Message
	if ref := cc.Message.ReferencedMessage; ref != nil {
		target = ref
		if delErr := cc.Session.ChannelMessageDelete(cc.Message.ChannelID, cc.Message.ID); delErr != nil {
			cc.Logger.Warn("could not delete tag invocation", "error", delErr)
		}
	}

	return reply(cc.Session, target, tag.Content)
}
