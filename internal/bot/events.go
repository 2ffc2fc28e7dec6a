package bot

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/commands"
	"github.com/susu3304/partybot/internal/conversation"
	"github.com/susu3304/partybot/internal/i18n"
)

const handleTimeout = 10 * time.Second

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("connected", zap.String("user", event.User.Username))

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			b.logger.Error("register commands", zap.String("guild_id", guild.ID), zap.Error(err))
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.logger.Debug("guild available", zap.String("guild", event.Name), zap.String("guild_id", event.ID))
	if err := b.registerGuildCommands(event.ID); err != nil {
		b.logger.Error("register commands", zap.String("guild_id", event.ID), zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	b.handleMessage(ctx, s, m.Message)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	b.handleInteraction(ctx, s, i.Interaction)
}

// messageText is what the conversation sees of a chat message. Mentions are
// turned into plain names so "@bob" can be added as a member.
func messageText(m *discordgo.Message) string {
	return strings.TrimSpace(m.ContentWithMentionsReplaced())
}

func (b *Bot) handleMessage(ctx context.Context, out messenger, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	text := messageText(m)
	if text == "" || !b.machine.Accepts(m.ChannelID, text) {
		return
	}

	userID, err := commands.ParseSnowflake(m.Author.ID)
	if err != nil {
		b.logger.Warn("ignoring message", zap.String("author_id", m.Author.ID), zap.Error(err))
		return
	}

	// persistence errors are already logged by the machine; the outcome
	// carries the notice for the chat
	res, _ := b.machine.Handle(ctx, conversation.Input{
		SessionID:   m.ChannelID,
		UserID:      userID,
		DisplayName: m.Author.Username,
		Text:        text,
	})
	if _, err := out.ChannelMessageSendComplex(m.ChannelID, commands.MessageSend(res)); err != nil {
		b.logger.Error("send reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) handleInteraction(ctx context.Context, out messenger, i *discordgo.Interaction) {
	var res conversation.Outcome

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name != commands.PartyCommand {
			return
		}
		res = b.machine.Start(ctx, i.ChannelID)
		if res.Key == i18n.MsgChooseLanguage {
			if lang, ok := i18n.FromLocale(string(i.Locale)); ok {
				res.Language = lang
			}
		}

	case discordgo.InteractionMessageComponent:
		user := interactionUser(i)
		if user == nil {
			return
		}
		text, ok := commands.ComponentText(b.store.Language(i.ChannelID), i.MessageComponentData())
		if !ok {
			return
		}
		userID, err := commands.ParseSnowflake(user.ID)
		if err != nil {
			b.logger.Warn("ignoring interaction", zap.String("user_id", user.ID), zap.Error(err))
			return
		}
		res, _ = b.machine.Handle(ctx, conversation.Input{
			SessionID:   i.ChannelID,
			UserID:      userID,
			DisplayName: user.Username,
			Text:        text,
		})

	default:
		return
	}

	if err := out.InteractionRespond(i, commands.InteractionResponse(res)); err != nil {
		b.logger.Error("respond to interaction", zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
}
