package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/sentry"
)

// embedColor is the dark panel color used across all bot embeds.
const embedColor = 0x2B2D31

func textEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       embedColor,
	}
}

func imageEmbed(title, imageURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: title,
		Color: embedColor,
		Image: &discordgo.MessageEmbedImage{URL: imageURL},
	}
}

// issueEmbed renders a resolved Sentry issue as a structured panel.
func issueEmbed(issue *sentry.Issue) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Sentry Issue: " + issue.Title,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Value", Value: issue.Description},
			{Name: "Unhandled", Value: issue.UnhandledDisplay()},
			{Name: "Last Seen", Value: issue.LastSeen},
		},
	}
	if issue.URL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Sentry URL", Value: issue.URL,
		})
	}
	return embed
}
