package i18n

import "strings"

// Command is a logical menu action, independent of the literal the user sees.
type Command int

const (
	CmdNone Command = iota
	CmdCreateParty
	CmdSelectParty
	CmdAddExpense
	CmdMembers
	CmdEditMembers
	CmdManageParties
	CmdSummary
	CmdExport
	CmdLanguageMenu
	CmdBack
	CmdAddMember
	CmdRemoveMember
	CmdPickUkrainian
	CmdPickEnglish
)

var commandNames = map[Command]string{
	CmdNone:          "none",
	CmdCreateParty:   "create_party",
	CmdSelectParty:   "select_party",
	CmdAddExpense:    "add_expense",
	CmdMembers:       "members",
	CmdEditMembers:   "edit_members",
	CmdManageParties: "manage_parties",
	CmdSummary:       "summary",
	CmdExport:        "export",
	CmdLanguageMenu:  "language",
	CmdBack:          "back",
	CmdAddMember:     "add_member",
	CmdRemoveMember:  "remove_member",
	CmdPickUkrainian: "pick_ua",
	CmdPickEnglish:   "pick_en",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseCommand is the inverse of String.
func ParseCommand(name string) (Command, bool) {
	for c, n := range commandNames {
		if n == name && c != CmdNone {
			return c, true
		}
	}
	return CmdNone, false
}

// TopLevel reports whether c is a main-menu action. These override any
// pending multi-step flow.
func (c Command) TopLevel() bool {
	switch c {
	case CmdCreateParty, CmdSelectParty, CmdAddExpense, CmdMembers,
		CmdEditMembers, CmdManageParties, CmdSummary, CmdExport:
		return true
	}
	return false
}

// LanguagePick returns the language a picker command selects.
func (c Command) LanguagePick() (Language, bool) {
	switch c {
	case CmdPickUkrainian:
		return Ukrainian, true
	case CmdPickEnglish:
		return English, true
	}
	return "", false
}

// literals maps (language, command) to the button text. The first entry is
// what gets rendered; the rest are older labels still accepted.
var literals = map[Language]map[Command][]string{
	Ukrainian: {
		CmdCreateParty:   {"🎉 Створити вечірку"},
		CmdSelectParty:   {"🎈 Обрати вечірку"},
		CmdAddExpense:    {"➕ Додати витрату"},
		CmdMembers:       {"👥 Учасники"},
		CmdEditMembers:   {"✏️ Редагувати учасників"},
		CmdManageParties: {"🗑️ Керування вечірками"},
		CmdSummary:       {"📊 Підсумок"},
		CmdExport:        {"📤 Експорт у TXT"},
		CmdLanguageMenu:  {"🌐 Мова"},
		CmdBack:          {"↩️ Назад", "↩️ Повертаємось у меню."},
		CmdAddMember:     {"➕ Додати учасника"},
		CmdRemoveMember:  {"🗑️ Видалити учасника"},
	},
	English: {
		CmdCreateParty:   {"🎉 Create party"},
		CmdSelectParty:   {"🎈 Select party"},
		CmdAddExpense:    {"➕ Add expense"},
		CmdMembers:       {"👥 Members"},
		CmdEditMembers:   {"✏️ Edit members"},
		CmdManageParties: {"🗑️ Manage parties"},
		CmdSummary:       {"📊 Summary"},
		CmdExport:        {"📤 Export to TXT"},
		CmdLanguageMenu:  {"🌐 Language"},
		CmdBack:          {"↩️ Back", "↩️ Returning to menu."},
		CmdAddMember:     {"➕ Add member"},
		CmdRemoveMember:  {"🗑️ Remove member"},
	},
}

// Language picker labels are the same in every language.
var pickerLiterals = map[Command]string{
	CmdPickUkrainian: "🇺🇦 Українська",
	CmdPickEnglish:   "🇬🇧 English",
}

// index is the inverted table: literal -> command per language.
var index = buildIndex()

func buildIndex() map[Language]map[string]Command {
	idx := make(map[Language]map[string]Command, len(literals))
	for lang, cmds := range literals {
		m := make(map[string]Command)
		for cmd, lits := range cmds {
			for _, lit := range lits {
				m[lit] = cmd
			}
		}
		for cmd, lit := range pickerLiterals {
			m[lit] = cmd
		}
		idx[lang] = m
	}
	return idx
}

// Literal returns the label rendered for cmd in lang.
func Literal(lang Language, cmd Command) string {
	if lit, ok := pickerLiterals[cmd]; ok {
		return lit
	}
	if lits := literals[lang.OrDefault()][cmd]; len(lits) > 0 {
		return lits[0]
	}
	return ""
}

// Resolve maps an inbound token to a command. The active language is tried
// first; the other languages are accepted as a fallback because a keyboard
// rendered before a language switch may still be on screen.
func Resolve(lang Language, text string) Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return CmdNone
	}
	lang = lang.OrDefault()
	if cmd, ok := index[lang][text]; ok {
		return cmd
	}
	for _, other := range Supported {
		if other == lang {
			continue
		}
		if cmd, ok := index[other][text]; ok {
			return cmd
		}
	}
	return CmdNone
}
