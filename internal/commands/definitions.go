package commands

import "github.com/bwmarrin/discordgo"

// PartyCommand is the slash command that opens the party menu.
const PartyCommand = "party"

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        PartyCommand,
			Description: "Open the party expenses menu",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.Ukrainian: "Відкрити меню витрат на вечірці",
			},
			DMPermission: boolPtr(true),
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
