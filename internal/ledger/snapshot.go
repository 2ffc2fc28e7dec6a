package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/settle"
)

// ChatDoc is the storage layout of a Chat. Amounts are JSON numbers with
// exactly two fractional digits.
type ChatDoc struct {
	Language     *string    `json:"language"`
	Parties      []PartyDoc `json:"parties"`
	CurrentParty *string    `json:"current_party"`
}

type PartyDoc struct {
	Name      string       `json:"name"`
	CreatorID *int64       `json:"creator_id"`
	Members   []MemberDoc  `json:"members"`
	Expenses  []ExpenseDoc `json:"expenses"`
}

type MemberDoc struct {
	Name  string      `json:"name"`
	Total json.Number `json:"total"`
}

type ExpenseDoc struct {
	ID          string      `json:"id,omitempty"`
	Payer       string      `json:"payer"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Timestamp   time.Time   `json:"timestamp"`
}

// FormatAmount renders an amount the way it is stored and displayed.
func FormatAmount(d decimal.Decimal) string {
	return settle.Round(d).StringFixed(settle.Places)
}

// ParseAmount parses a stored amount and rounds it to two digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !exponentInRange(d) {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}
	return settle.Round(d), nil
}

// EncodeChat converts c to its storage layout.
func EncodeChat(c *Chat) ChatDoc {
	doc := ChatDoc{Parties: make([]PartyDoc, 0, len(c.Parties))}
	if c.Language != "" {
		lang := string(c.Language)
		doc.Language = &lang
	}
	if c.CurrentParty != "" {
		cur := c.CurrentParty
		doc.CurrentParty = &cur
	}
	for _, p := range c.Parties {
		pd := PartyDoc{
			Name:      p.Name,
			CreatorID: p.CreatorID,
			Members:   make([]MemberDoc, 0, len(p.Members)),
			Expenses:  make([]ExpenseDoc, 0, len(p.Expenses)),
		}
		for _, m := range p.Members {
			pd.Members = append(pd.Members, MemberDoc{Name: m.Name, Total: json.Number(FormatAmount(m.Total))})
		}
		for _, e := range p.Expenses {
			ed := ExpenseDoc{
				Payer:       e.Payer,
				Amount:      json.Number(FormatAmount(e.Amount)),
				Description: e.Description,
				Timestamp:   e.Timestamp.UTC(),
			}
			if e.ID != uuid.Nil {
				ed.ID = e.ID.String()
			}
			pd.Expenses = append(pd.Expenses, ed)
		}
		doc.Parties = append(doc.Parties, pd)
	}
	return doc
}

// DecodeChat converts a storage document back into a Chat.
func DecodeChat(doc ChatDoc) (*Chat, error) {
	c := &Chat{Parties: make([]*Party, 0, len(doc.Parties))}
	if doc.Language != nil {
		lang, ok := i18n.Parse(*doc.Language)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", *doc.Language)
		}
		c.Language = lang
	}
	if doc.CurrentParty != nil {
		c.CurrentParty = *doc.CurrentParty
	}
	for _, pd := range doc.Parties {
		p := &Party{Name: pd.Name}
		if pd.CreatorID != nil {
			id := *pd.CreatorID
			p.CreatorID = &id
		}
		for _, md := range pd.Members {
			total, err := ParseAmount(md.Total.String())
			if err != nil {
				return nil, fmt.Errorf("party %q member %q: %w", pd.Name, md.Name, err)
			}
			p.Members = append(p.Members, Member{Name: md.Name, Total: total})
		}
		for i, ed := range pd.Expenses {
			amount, err := ParseAmount(ed.Amount.String())
			if err != nil {
				return nil, fmt.Errorf("party %q expense %d: %w", pd.Name, i, err)
			}
			e := Expense{
				Payer:       ed.Payer,
				Amount:      amount,
				Description: ed.Description,
				Timestamp:   ed.Timestamp.UTC(),
			}
			if ed.ID != "" {
				id, err := uuid.Parse(ed.ID)
				if err != nil {
					return nil, fmt.Errorf("party %q expense %d: %w", pd.Name, i, err)
				}
				e.ID = id
			}
			p.Expenses = append(p.Expenses, e)
		}
		c.Parties = append(c.Parties, p)
	}
	if c.CurrentParty != "" {
		if p, _ := c.party(c.CurrentParty); p == nil {
			c.CurrentParty = ""
		}
	}
	return c, nil
}
