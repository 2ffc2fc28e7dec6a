package conversation

import (
	"strings"

	"github.com/susu3304/partybot/internal/export"
	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/ledger"
	"github.com/susu3304/partybot/internal/settle"
)

// Kind tells the transport how to present an Outcome.
type Kind int

const (
	Prompt Kind = iota
	Confirmation
	Listing
	Error
	Document
)

func (k Kind) String() string {
	switch k {
	case Prompt:
		return "prompt"
	case Confirmation:
		return "confirmation"
	case Listing:
		return "listing"
	case Error:
		return "error"
	case Document:
		return "document"
	}
	return "unknown"
}

// Keyboard is the set of actions offered alongside a reply.
type Keyboard int

const (
	KeyboardMain Keyboard = iota
	KeyboardNone
	KeyboardParties
	KeyboardMembers
	KeyboardLanguage
)

// Outcome is the result of handling one inbound message.
type Outcome struct {
	Kind     Kind
	Language i18n.Language
	Key      i18n.Key
	Args     []any
	Keyboard Keyboard

	// Choices are the party names offered by KeyboardParties.
	Choices []string

	Party    string
	Members  []ledger.Member
	Summary  *settle.Result
	Document *export.Document
}

// Text renders the outcome's message body in its language.
func (o Outcome) Text() string {
	lang := o.Language.OrDefault()
	head := i18n.Text(lang, o.Key, o.Args...)

	switch {
	case o.Summary != nil:
		return renderSummary(lang, head, o.Party, o.Members, o.Summary)
	case o.Kind == Listing:
		var b strings.Builder
		b.WriteString(head)
		b.WriteByte('\n')
		for _, m := range o.Members {
			b.WriteString("• ")
			b.WriteString(m.Name)
			b.WriteString(": ")
			b.WriteString(ledger.FormatAmount(m.Total))
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")
	}
	return head
}

func renderSummary(lang i18n.Language, head, party string, members []ledger.Member, res *settle.Result) string {
	lines := []string{head, i18n.Text(lang, i18n.MsgSummaryParty, party), ""}
	for _, m := range members {
		lines = append(lines, m.Name+": "+ledger.FormatAmount(m.Total))
	}
	lines = append(lines, "", i18n.Text(lang, i18n.MsgSummaryAverage, ledger.FormatAmount(res.Average)), "")
	if res.Settled() {
		lines = append(lines, i18n.Text(lang, i18n.MsgAllSettled))
	} else {
		lines = append(lines, i18n.Text(lang, i18n.MsgSummaryTransfers))
		for _, t := range res.Transfers {
			lines = append(lines, t.From+" -> "+t.To+" : "+ledger.FormatAmount(t.Amount))
		}
	}
	return strings.Join(lines, "\n")
}
