package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/susu3304/partybot/internal/conversation"
	"github.com/susu3304/partybot/internal/i18n"
)

const (
	buttonPrefix  = "party:cmd:"
	ChoosePartyID = "party:choose"

	// Discord limits
	maxContent       = 2000
	maxSelectOptions = 25
	maxOptionLength  = 100
)

var (
	mainMenu = [][]i18n.Command{
		{i18n.CmdCreateParty, i18n.CmdSelectParty},
		{i18n.CmdAddExpense, i18n.CmdMembers},
		{i18n.CmdEditMembers, i18n.CmdManageParties},
		{i18n.CmdSummary, i18n.CmdExport},
		{i18n.CmdLanguageMenu},
	}
	membersMenu = [][]i18n.Command{
		{i18n.CmdAddMember, i18n.CmdRemoveMember},
		{i18n.CmdBack},
	}
	languageMenu = [][]i18n.Command{
		{i18n.CmdPickUkrainian, i18n.CmdPickEnglish},
		{i18n.CmdBack},
	}
)

// ButtonID is the custom ID of the button that sends cmd.
func ButtonID(cmd i18n.Command) string {
	return buttonPrefix + cmd.String()
}

// ComponentText translates a button click or menu pick into the text the
// conversation would have received had the user typed it.
func ComponentText(lang i18n.Language, data discordgo.MessageComponentInteractionData) (string, bool) {
	if data.CustomID == ChoosePartyID {
		if len(data.Values) == 0 {
			return "", false
		}
		return data.Values[0], true
	}
	name, ok := strings.CutPrefix(data.CustomID, buttonPrefix)
	if !ok {
		return "", false
	}
	cmd, ok := i18n.ParseCommand(name)
	if !ok {
		return "", false
	}
	return i18n.Literal(lang, cmd), true
}

func buttonRows(lang i18n.Language, rows [][]i18n.Command) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, cmd := range row {
			style := discordgo.SecondaryButton
			if cmd.TopLevel() {
				style = discordgo.PrimaryButton
			}
			buttons = append(buttons, discordgo.Button{
				Label:    i18n.Literal(lang, cmd),
				Style:    style,
				CustomID: ButtonID(cmd),
			})
		}
		out = append(out, discordgo.ActionsRow{Components: buttons})
	}
	return out
}

func partyChoices(lang i18n.Language, parties []string) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(parties))
	for _, name := range parties {
		if len(options) == maxSelectOptions {
			break
		}
		if len(name) > maxOptionLength {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{Label: name, Value: name})
	}

	var out []discordgo.MessageComponent
	if len(options) > 0 {
		out = append(out, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType: discordgo.StringSelectMenu,
				CustomID: ChoosePartyID,
				Options:  options,
			},
		}})
	}
	return append(out, buttonRows(lang, [][]i18n.Command{{i18n.CmdBack}})...)
}

// Components builds the keyboard of an outcome.
func Components(out conversation.Outcome) []discordgo.MessageComponent {
	lang := out.Language.OrDefault()
	switch out.Keyboard {
	case conversation.KeyboardMain:
		return buttonRows(lang, mainMenu)
	case conversation.KeyboardMembers:
		return buttonRows(lang, membersMenu)
	case conversation.KeyboardLanguage:
		return buttonRows(lang, languageMenu)
	case conversation.KeyboardParties:
		return partyChoices(lang, out.Choices)
	}
	return nil
}

func content(out conversation.Outcome) string {
	text := out.Text()
	if r := []rune(text); len(r) > maxContent {
		text = string(r[:maxContent-1]) + "…"
	}
	return text
}

func files(out conversation.Outcome) []*discordgo.File {
	if out.Document == nil {
		return nil
	}
	return []*discordgo.File{{
		Name:        out.Document.Filename,
		ContentType: "text/plain; charset=utf-8",
		Reader:      strings.NewReader(out.Document.Body),
	}}
}

// MessageSend renders an outcome as a channel message.
func MessageSend(out conversation.Outcome) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    content(out),
		Components: Components(out),
		Files:      files(out),
	}
}

// InteractionResponse renders an outcome as a reply to an interaction.
func InteractionResponse(out conversation.Outcome) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content(out),
			Components: Components(out),
			Files:      files(out),
		},
	}
}
