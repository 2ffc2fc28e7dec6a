package filestore

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/ledger"
)

// The first bot generation kept parties and members as JSON objects and
// relied on key order for display, so the legacy reader walks the token
// stream instead of unmarshalling into maps.

type legacyExpense struct {
	User   string      `json:"user"`
	Amount json.Number `json:"amount"`
	Desc   string      `json:"desc"`
	TS     string      `json:"ts"`
}

var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// ReadLegacy parses a data file written by the first bot generation. Every
// imported expense gets a fresh ID.
func ReadLegacy(r io.Reader) (map[string]*ledger.Chat, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	out := make(map[string]*ledger.Chat)
	err := readObject(dec, func(sessionID string) error {
		chat, err := readLegacyChat(dec)
		if err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}
		out[sessionID] = chat
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read legacy data: %w", err)
	}
	return out, nil
}

func readLegacyChat(dec *json.Decoder) (*ledger.Chat, error) {
	chat := &ledger.Chat{}
	err := readObject(dec, func(key string) error {
		switch key {
		case "lang":
			var s *string
			if err := dec.Decode(&s); err != nil {
				return err
			}
			if s != nil {
				if lang, ok := i18n.Parse(*s); ok {
					chat.Language = lang
				}
			}
		case "current":
			var s *string
			if err := dec.Decode(&s); err != nil {
				return err
			}
			if s != nil {
				chat.CurrentParty = *s
			}
		case "parties":
			return readObject(dec, func(name string) error {
				p, err := readLegacyParty(dec, name)
				if err != nil {
					return fmt.Errorf("party %q: %w", name, err)
				}
				chat.Parties = append(chat.Parties, p)
				return nil
			})
		default:
			return skipValue(dec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if chat.CurrentParty != "" && !hasParty(chat, chat.CurrentParty) {
		chat.CurrentParty = ""
	}
	return chat, nil
}

func hasParty(c *ledger.Chat, name string) bool {
	for _, p := range c.Parties {
		if p.Name == name {
			return true
		}
	}
	return false
}

func readLegacyParty(dec *json.Decoder, name string) (*ledger.Party, error) {
	p := &ledger.Party{Name: name}
	err := readObject(dec, func(key string) error {
		switch key {
		case "creator":
			var n *json.Number
			if err := dec.Decode(&n); err != nil {
				return err
			}
			if n != nil {
				id, err := strconv.ParseInt(n.String(), 10, 64)
				if err != nil {
					return fmt.Errorf("creator: %w", err)
				}
				p.CreatorID = &id
			}
		case "members":
			return readObject(dec, func(member string) error {
				var n json.Number
				if err := dec.Decode(&n); err != nil {
					return err
				}
				total, err := ledger.ParseAmount(n.String())
				if err != nil {
					return fmt.Errorf("member %q: %w", member, err)
				}
				p.Members = append(p.Members, ledger.Member{Name: member, Total: total})
				return nil
			})
		case "expenses":
			var raw []legacyExpense
			if err := dec.Decode(&raw); err != nil {
				return err
			}
			for i, le := range raw {
				amount, err := ledger.ParseAmount(le.Amount.String())
				if err != nil {
					return fmt.Errorf("expense %d: %w", i, err)
				}
				p.Expenses = append(p.Expenses, ledger.Expense{
					ID:          uuid.New(),
					Payer:       le.User,
					Amount:      amount,
					Description: le.Desc,
					Timestamp:   parseLegacyTime(le.TS),
				})
			}
		default:
			return skipValue(dec)
		}
		return nil
	})
	return p, err
}

func parseLegacyTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// readObject calls fn for every key of the next object in the stream, in
// document order. fn must consume the key's value. A null counts as an empty
// object.
func readObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}
