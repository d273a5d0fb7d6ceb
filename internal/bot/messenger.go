package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Messenger is the subset of the Discord session used by command handlers
// and the progress reporter. *discordgo.Session satisfies it; tests use a
// fake.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// reply sends content as a reply to the given message.
func reply(s Messenger, to *discordgo.Message, content string) error {
	_, err := s.ChannelMessageSendComplex(to.ChannelID, &discordgo.MessageSend{
		Content:   content,
		Reference: to.Reference(),
	})
	return err
}

// replyEmbed sends an embed as a reply to the given message.
func replyEmbed(s Messenger, to *discordgo.Message, embed *discordgo.MessageEmbed) error {
	_, err := s.ChannelMessageSendComplex(to.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{embed},
		Reference: to.Reference(),
	})
	return err
}
