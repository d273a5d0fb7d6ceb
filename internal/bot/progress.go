package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/sentry"
)

// messageReporter renders lookup progress into a single Discord message:
// the first event sends it as a reply, every later event edits it in
// place. One reporter serves exactly one lookup invocation and is never
// shared.
type messageReporter struct {
	session   Messenger
	origin    *discordgo.Message // the invoking message, replied to once
	logger    *slog.Logger
	messageID string
	channelID string
}

func newMessageReporter(session Messenger, origin *discordgo.Message, logger *slog.Logger) *messageReporter {
	return &messageReporter{
		session: session,
		origin:  origin,
		logger:  logger,
	}
}

// Report implements sentry.Reporter.
func (r *messageReporter) Report(_ context.Context, ev sentry.Event) error {
	content, embed := renderEvent(ev)

	if r.messageID == "" {
		msg, err := r.session.ChannelMessageSendComplex(r.origin.ChannelID, &discordgo.MessageSend{
			Content:   content,
			Reference: r.origin.Reference(),
		})
		if err != nil {
			return fmt.Errorf("sending progress message: %w", err)
		}
		r.messageID = msg.ID
		r.channelID = msg.ChannelID
		return nil
	}

	edit := discordgo.NewMessageEdit(r.channelID, r.messageID).SetContent(content)
	if embed != nil {
		edit.SetEmbed(embed)
	}
	if _, err := r.session.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("editing progress message: %w", err)
	}
	return nil
}

// renderEvent maps a progress event to message content and an optional
// embed. Resolved events clear the status text in favor of the panel.
func renderEvent(ev sentry.Event) (string, *discordgo.MessageEmbed) {
	switch ev.Kind {
	case sentry.KindFetching:
		return "Fetching...", nil
	case sentry.KindRetrying:
		return fmt.Sprintf(
			"No matching issues found for error ID: %s... **Retrying in %.1f seconds**.",
			ev.ErrorID, ev.Wait.Seconds(),
		), nil
	case sentry.KindResolved:
		return "", issueEmbed(ev.Issue)
	case sentry.KindExhausted:
		return fmt.Sprintf(
			"No matching issues found for error ID: %s after %d attempts.",
			ev.ErrorID, ev.Attempts,
		), nil
	}
	return "", nil
}
