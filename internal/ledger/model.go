package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/settle"
)

// Chat is everything one chat session owns. The zero value is a valid empty
// chat with no language chosen.
type Chat struct {
	Language     i18n.Language
	Parties      []*Party
	CurrentParty string
}

// Party is a named shared-expense ledger.
//
// A member's Total is the sum of the expenses they paid since they last
// joined: removing a member drops the cached total but keeps their expenses,
// so re-adding the same name starts again from zero.
type Party struct {
	Name      string
	CreatorID *int64
	Members   []Member
	Expenses  []Expense
}

type Member struct {
	Name  string
	Total decimal.Decimal
}

// Expense is immutable once appended.
type Expense struct {
	ID          uuid.UUID
	Payer       string
	Amount      decimal.Decimal
	Description string
	Timestamp   time.Time
}

func (c *Chat) party(name string) (*Party, int) {
	for i, p := range c.Parties {
		if p.Name == name {
			return p, i
		}
	}
	return nil, -1
}

// PartyNames returns party names in creation order.
func (c *Chat) PartyNames() []string {
	names := make([]string, 0, len(c.Parties))
	for _, p := range c.Parties {
		names = append(names, p.Name)
	}
	return names
}

func (c *Chat) clone() *Chat {
	if c == nil {
		return &Chat{}
	}
	out := &Chat{
		Language:     c.Language,
		CurrentParty: c.CurrentParty,
		Parties:      make([]*Party, 0, len(c.Parties)),
	}
	for _, p := range c.Parties {
		out.Parties = append(out.Parties, p.clone())
	}
	return out
}

func (p *Party) clone() *Party {
	out := &Party{
		Name:     p.Name,
		Members:  append([]Member(nil), p.Members...),
		Expenses: append([]Expense(nil), p.Expenses...),
	}
	if p.CreatorID != nil {
		id := *p.CreatorID
		out.CreatorID = &id
	}
	return out
}

func (p *Party) member(name string) int {
	for i, m := range p.Members {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// HasMember reports whether name is a current member.
func (p *Party) HasMember(name string) bool {
	return p.member(name) >= 0
}

func (p *Party) addMember(name string) bool {
	if p.HasMember(name) {
		return false
	}
	p.Members = append(p.Members, Member{Name: name, Total: decimal.Zero})
	return true
}

func (p *Party) removeMember(name string) bool {
	i := p.member(name)
	if i < 0 {
		return false
	}
	p.Members = append(p.Members[:i], p.Members[i+1:]...)
	return true
}

// CanDelete reports whether userID may delete the party. Parties without a
// recorded creator can be deleted by anyone.
func (p *Party) CanDelete(userID int64) bool {
	return p.CreatorID == nil || *p.CreatorID == userID
}

// Total is the sum of current member totals.
func (p *Party) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range p.Members {
		sum = sum.Add(m.Total)
	}
	return settle.Round(sum)
}

// Totals returns current members in order, ready for settlement.
func (p *Party) Totals() []settle.Entry {
	out := make([]settle.Entry, 0, len(p.Members))
	for _, m := range p.Members {
		out = append(out, settle.Entry{Name: m.Name, Total: m.Total})
	}
	return out
}

// Settle runs the settlement engine over the current members.
func (p *Party) Settle() settle.Result {
	return settle.Compute(p.Totals())
}
