package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/commands"
	"github.com/susu3304/partybot/internal/conversation"
	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/ledger"
	"github.com/susu3304/partybot/internal/sessions"
)

type fakeMessenger struct {
	sent      []*discordgo.MessageSend
	responses []*discordgo.InteractionResponse
	err       error
}

func (f *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data)
	return &discordgo.Message{ChannelID: channelID}, f.err
}

func (f *fakeMessenger) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return f.err
}

func newTestBot(t *testing.T) (*Bot, *ledger.Store) {
	t.Helper()
	store := ledger.NewStore(ledger.NewMemoryPersister())
	machine := conversation.NewMachine(store, sessions.NewDirectory(), zap.NewNop())
	return &Bot{machine: machine, store: store, logger: zap.NewNop()}, store
}

func message(channel, authorID, username, content string) *discordgo.Message {
	return &discordgo.Message{
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: username},
	}
}

func TestHandleMessageIgnoresChatter(t *testing.T) {
	b, _ := newTestBot(t)
	f := &fakeMessenger{}

	b.handleMessage(context.Background(), f, message("c1", "1", "ann", "hello everyone"))
	b.handleMessage(context.Background(), f, &discordgo.Message{ChannelID: "c1", Content: "📊 Summary",
		Author: &discordgo.User{ID: "2", Username: "robot", Bot: true}})
	b.handleMessage(context.Background(), f, message("c1", "not-a-snowflake", "ann", "📊 Summary"))

	assert.Empty(t, f.sent)
}

func TestHandleMessageCreatesParty(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, store.SetLanguage(ctx, "c1", i18n.English))
	f := &fakeMessenger{}

	b.handleMessage(ctx, f, message("c1", "42", "ann", i18n.Literal(i18n.English, i18n.CmdCreateParty)))
	b.handleMessage(ctx, f, message("c1", "42", "ann", "  BBQ "))

	require.Len(t, f.sent, 2)
	assert.Nil(t, f.sent[0].Components)
	assert.NotEmpty(t, f.sent[1].Components)

	p, err := store.Party("c1", "BBQ")
	require.NoError(t, err)
	require.NotNil(t, p.CreatorID)
	assert.Equal(t, int64(42), *p.CreatorID)
	require.Len(t, p.Members, 1)
	assert.Equal(t, "ann", p.Members[0].Name)
}

func TestHandleMessageMentions(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()
	require.NoError(t, store.SetLanguage(ctx, "c1", i18n.English))
	_, _, err := store.CreateParty(ctx, "c1", "BBQ", 42, "ann")
	require.NoError(t, err)
	f := &fakeMessenger{}

	b.handleMessage(ctx, f, message("c1", "42", "ann", i18n.Literal(i18n.English, i18n.CmdEditMembers)))
	b.handleMessage(ctx, f, message("c1", "42", "ann", i18n.Literal(i18n.English, i18n.CmdAddMember)))
	m := message("c1", "42", "ann", "<@7>")
	m.Mentions = []*discordgo.User{{ID: "7", Username: "bob"}}
	b.handleMessage(ctx, f, m)

	members, err := store.Members("c1", "BBQ")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "bob", members[1].Name)
}

func TestHandleMessageSendError(t *testing.T) {
	b, _ := newTestBot(t)
	f := &fakeMessenger{err: errors.New("boom")}

	b.handleMessage(context.Background(), f, message("c1", "1", "ann", i18n.Literal(i18n.Ukrainian, i18n.CmdSummary)))
	assert.Len(t, f.sent, 1)
}

func TestPartyCommandPickerUsesLocale(t *testing.T) {
	b, _ := newTestBot(t)
	f := &fakeMessenger{}

	b.handleInteraction(context.Background(), f, &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		Locale:    discordgo.EnglishUS,
		Data:      discordgo.ApplicationCommandInteractionData{Name: commands.PartyCommand},
	})

	require.Len(t, f.responses, 1)
	assert.Equal(t, i18n.Text(i18n.English, i18n.MsgChooseLanguage), f.responses[0].Data.Content)
}

func TestPartyCommandShowsMenu(t *testing.T) {
	b, store := newTestBot(t)
	require.NoError(t, store.SetLanguage(context.Background(), "c1", i18n.Ukrainian))
	f := &fakeMessenger{}

	b.handleInteraction(context.Background(), f, &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		Locale:    discordgo.EnglishUS,
		Data:      discordgo.ApplicationCommandInteractionData{Name: commands.PartyCommand},
	})

	require.Len(t, f.responses, 1)
	assert.Equal(t, i18n.Text(i18n.Ukrainian, i18n.MsgMenu), f.responses[0].Data.Content)
	assert.Len(t, f.responses[0].Data.Components, 5)
}

func TestComponentClicks(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()
	f := &fakeMessenger{}

	click := func(data discordgo.MessageComponentInteractionData) {
		b.handleInteraction(ctx, f, &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			ChannelID: "c1",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "42", Username: "ann"}},
			Data:      data,
		})
	}

	click(discordgo.MessageComponentInteractionData{CustomID: commands.ButtonID(i18n.CmdPickEnglish)})
	assert.Equal(t, i18n.English, store.Language("c1"))

	_, _, err := store.CreateParty(ctx, "c1", "BBQ", 42, "ann")
	require.NoError(t, err)
	_, _, err = store.CreateParty(ctx, "c1", "Picnic", 42, "ann")
	require.NoError(t, err)

	click(discordgo.MessageComponentInteractionData{CustomID: commands.ButtonID(i18n.CmdSelectParty)})
	click(discordgo.MessageComponentInteractionData{CustomID: commands.ChoosePartyID, Values: []string{"BBQ"}})
	assert.Equal(t, "BBQ", store.CurrentParty("c1"))

	click(discordgo.MessageComponentInteractionData{CustomID: "unrelated"})
	assert.Len(t, f.responses, 3)
}

func TestComponentClickWithoutUser(t *testing.T) {
	b, _ := newTestBot(t)
	f := &fakeMessenger{}

	b.handleInteraction(context.Background(), f, &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c1",
		Data:      discordgo.MessageComponentInteractionData{CustomID: commands.ButtonID(i18n.CmdSummary)},
	})
	assert.Empty(t, f.responses)
}
