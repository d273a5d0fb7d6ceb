package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/NoahCxrest/ERMSupport/internal/funfact"
)

const fetchFailedReply = "Error fetching API. Please try again later."

// Fun bundles the one-shot entertainment lookups. Each handler is a
// single fetch and a single reply; failures degrade to a generic message
// with the cause in the log.
type Fun struct {
	Client *funfact.Client
}

func (f *Fun) Register(r *Router) {
	register := func(name, description string, run func(ctx context.Context, cc *Context) error) {
		r.Register(&Command{
			Name:        name,
			Module:      "Fun",
			Description: description,
			Run:         run,
		})
	}

	register("dog", "Get a random dog image", f.runDog)
	register("cat", "Get a random cat image", f.runCat)
	register("meme", "Get a random meme", f.runMeme)
	register("insult", "Get a random insult", f.runInsult)
	register("buzzword", "Get a random buzzword", f.runBuzzword)
	register("trump", "Get a random quote from Donald Trump", f.runTrump)

	r.Register(&Command{
		Name:        "age",
		Module:      "Fun",
		Description: "Get the age of a person",
		Usage:       "age <name>",
		MinArgs:     1,
		Run:         f.runAge,
	})
	r.Register(&Command{
		Name:        "country",
		Module:      "Fun",
		Description: "Get information about a country",
		Usage:       "country <name>",
		MinArgs:     1,
		Run:         f.runCountry,
	})
}

// degrade logs the lookup failure and replies with the generic message;
// the underlying error never reaches the channel.
func degrade(cc *Context, err error) error {
	cc.Logger.Error("lookup failed", "error", err)
	return cc.Reply(fetchFailedReply)
}

func (f *Fun) runDog(ctx context.Context, cc *Context) error {
	url, err := f.Client.Dog(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	return cc.ReplyEmbed(imageEmbed("", url))
}

func (f *Fun) runCat(ctx context.Context, cc *Context) error {
	url, err := f.Client.Cat(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	return cc.ReplyEmbed(imageEmbed("", url))
}

func (f *Fun) runMeme(ctx context.Context, cc *Context) error {
	meme, err := f.Client.Meme(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	return cc.ReplyEmbed(imageEmbed(meme.Title, meme.URL))
}

func (f *Fun) runInsult(ctx context.Context, cc *Context) error {
	insult, err := f.Client.Insult(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	return cc.ReplyEmbed(textEmbed(insult))
}

func (f *Fun) runBuzzword(ctx context.Context, cc *Context) error {
	phrase, err := f.Client.Buzzword(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	return cc.ReplyEmbed(textEmbed(phrase))
}

func (f *Fun) runTrump(ctx context.Context, cc *Context) error {
	quote, err := f.Client.Trump(ctx)
	if err != nil {
		return degrade(cc, err)
	}
	embed := textEmbed(quote)
	embed.Author = &discordgo.MessageEmbedAuthor{Name: "Donald Trump"}
	return cc.ReplyEmbed(embed)
}

func (f *Fun) runAge(ctx context.Context, cc *Context) error {
	name := cc.Args[0]

	// House rule: the bot's author has a well-established age on record.
	if strings.EqualFold(name, "noah") {
		embed := textEmbed("After consulting your mother, she says that Noah is **69420**.")
		embed.Title = "Noah"
		return cc.ReplyEmbed(embed)
	}

	capitalized := capitalize(name)
	age, err := f.Client.Age(ctx, capitalized)
	if err != nil {
		return degrade(cc, err)
	}
	embed := textEmbed(fmt.Sprintf("After consulting your mother, she says that %s is **%s**.", capitalized, age))
	embed.Title = capitalized
	return cc.ReplyEmbed(embed)
}

func (f *Fun) runCountry(ctx context.Context, cc *Context) error {
	name := strings.Join(cc.Args, " ")

	if strings.EqualFold(name, "africa") || strings.EqualFold(name, "african") {
		embed := textEmbed("Africa is not a country, it's a continent..")
		embed.Image = &discordgo.MessageEmbedImage{
			URL: "https://media3.giphy.com/media/3o85xnoIXebk3xYx4Q/giphy.gif",
		}
		return cc.ReplyEmbed(embed)
	}

	country, err := f.Client.Country(ctx, name)
	if err != nil {
		return degrade(cc, err)
	}
	embed := &discordgo.MessageEmbed{
		Title: "Information for " + country.Name,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Capital", Value: country.Capital, Inline: true},
			{Name: "Region", Value: country.Region, Inline: true},
			{Name: "Population", Value: fmt.Sprintf("%d", country.Population), Inline: true},
		},
	}
	return cc.ReplyEmbed(embed)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
