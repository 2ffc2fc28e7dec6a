package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/susu3304/partybot/internal/i18n"
)

// Store owns every chat's ledger. Published chats are never modified in
// place: a mutation works on a clone, persists it, then swaps it in. Readers
// therefore only need the map lock, and a failed Save leaves memory untouched.
type Store struct {
	persister Persister
	now       func() time.Time
	newID     func() uuid.UUID

	mu    sync.RWMutex
	chats map[string]*Chat
	locks map[string]*sync.Mutex
}

type Option func(*Store)

// WithClock overrides the time source used for expense timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     uuid.New,
		chats:     make(map[string]*Chat),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the persister holds.
func (s *Store) Load(ctx context.Context) error {
	chats, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = make(map[string]*Chat, len(chats))
	for id, c := range chats {
		s.chats[id] = c
	}
	return nil
}

func (s *Store) lockFor(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

func (s *Store) chat(sessionID string) *Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.chats[sessionID]; ok {
		return c
	}
	return &Chat{}
}

// mutate serializes writers per session. fn receives a private copy; nothing
// becomes visible unless both fn and Save succeed.
func (s *Store) mutate(ctx context.Context, sessionID string, fn func(c *Chat) error) error {
	l := s.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	next := s.chat(sessionID).clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persister.Save(ctx, sessionID, next); err != nil {
		return fmt.Errorf("persist session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	s.chats[sessionID] = next
	s.mu.Unlock()
	return nil
}

// Chat returns a copy of the session's ledger.
func (s *Store) Chat(sessionID string) *Chat {
	return s.chat(sessionID).clone()
}

func (s *Store) Language(sessionID string) i18n.Language {
	return s.chat(sessionID).Language
}

func (s *Store) SetLanguage(ctx context.Context, sessionID string, lang i18n.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return s.mutate(ctx, sessionID, func(c *Chat) error {
		c.Language = lang
		return nil
	})
}

// CurrentParty returns the selected party name, or "" when none is selected.
func (s *Store) CurrentParty(sessionID string) string {
	return s.chat(sessionID).CurrentParty
}

// Party returns a copy of the named party.
func (s *Store) Party(sessionID, name string) (*Party, error) {
	p, _ := s.chat(sessionID).party(name)
	if p == nil {
		return nil, ErrNotFound
	}
	return p.clone(), nil
}

// ListParties returns party names in creation order.
func (s *Store) ListParties(sessionID string) []string {
	return s.chat(sessionID).PartyNames()
}

// Members returns the party's current members and totals in join order.
func (s *Store) Members(sessionID, partyName string) ([]Member, error) {
	if partyName == "" {
		return nil, ErrNoCurrentParty
	}
	p, _ := s.chat(sessionID).party(partyName)
	if p == nil {
		return nil, ErrNotFound
	}
	return append([]Member(nil), p.Members...), nil
}

// CreateParty creates and selects a party, adding the creator as its first
// member. Re-creating an existing name selects it instead; created is false
// in that case.
func (s *Store) CreateParty(ctx context.Context, sessionID, name string, creatorID int64, creatorName string) (party *Party, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrEmptyInput
	}
	err = s.mutate(ctx, sessionID, func(c *Chat) error {
		p, _ := c.party(name)
		if p == nil {
			id := creatorID
			p = &Party{Name: name, CreatorID: &id}
			c.Parties = append(c.Parties, p)
			created = true
		}
		if creatorName != "" {
			p.addMember(creatorName)
		}
		c.CurrentParty = name
		party = p.clone()
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return party, created, nil
}

func (s *Store) SelectParty(ctx context.Context, sessionID, name string) (*Party, error) {
	var party *Party
	err := s.mutate(ctx, sessionID, func(c *Chat) error {
		p, _ := c.party(name)
		if p == nil {
			return ErrNotFound
		}
		c.CurrentParty = name
		party = p.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return party, nil
}

func (s *Store) DeleteParty(ctx context.Context, sessionID, name string, requesterID int64) error {
	return s.mutate(ctx, sessionID, func(c *Chat) error {
		p, i := c.party(name)
		if p == nil {
			return ErrNotFound
		}
		if !p.CanDelete(requesterID) {
			return ErrPermissionDenied
		}
		c.Parties = append(c.Parties[:i], c.Parties[i+1:]...)
		if c.CurrentParty == name {
			c.CurrentParty = ""
		}
		return nil
	})
}

// AddMember adds memberName with a zero total. Adding an existing member is
// a no-op and reports added == false.
func (s *Store) AddMember(ctx context.Context, sessionID, partyName, memberName string) (added bool, err error) {
	if partyName == "" {
		return false, ErrNoCurrentParty
	}
	memberName = strings.TrimSpace(memberName)
	if memberName == "" {
		return false, ErrEmptyInput
	}
	err = s.mutate(ctx, sessionID, func(c *Chat) error {
		p, _ := c.party(partyName)
		if p == nil {
			return ErrNotFound
		}
		added = p.addMember(memberName)
		return nil
	})
	return added, err
}

// RemoveMember drops the member and their cached total. Their expenses stay
// in the party history.
func (s *Store) RemoveMember(ctx context.Context, sessionID, partyName, memberName string) error {
	if partyName == "" {
		return ErrNoCurrentParty
	}
	memberName = strings.TrimSpace(memberName)
	if memberName == "" {
		return ErrEmptyInput
	}
	return s.mutate(ctx, sessionID, func(c *Chat) error {
		p, _ := c.party(partyName)
		if p == nil {
			return ErrNotFound
		}
		if !p.removeMember(memberName) {
			return ErrMemberNotFound
		}
		return nil
	})
}

// RecordExpense appends an expense paid by payerName, who becomes a member if
// needed, and adds the amount to their total. Amounts above MaxAmount, or
// that would push the payer's total above it, are ErrInvalidAmount.
func (s *Store) RecordExpense(ctx context.Context, sessionID, partyName, payerName string, amount decimal.Decimal, description string) (Expense, error) {
	amount, err := CheckAmount(amount)
	if err != nil {
		return Expense{}, err
	}
	if partyName == "" {
		return Expense{}, ErrNoCurrentParty
	}
	payerName = strings.TrimSpace(payerName)
	if payerName == "" {
		return Expense{}, ErrEmptyInput
	}

	var exp Expense
	err = s.mutate(ctx, sessionID, func(c *Chat) error {
		p, _ := c.party(partyName)
		if p == nil {
			return ErrNotFound
		}
		p.addMember(payerName)
		i := p.member(payerName)
		total, err := CheckAmount(p.Members[i].Total.Add(amount))
		if err != nil {
			return err
		}
		exp = Expense{
			ID:          s.newID(),
			Payer:       payerName,
			Amount:      amount,
			Description: description,
			Timestamp:   s.now().UTC(),
		}
		p.Expenses = append(p.Expenses, exp)
		p.Members[i].Total = total
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}

type PartyRef struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// PartiesByCreator lists parties created by userID across all sessions,
// ordered by session ID then creation order.
func (s *Store) PartiesByCreator(userID int64) []PartyRef {
	s.mu.RLock()
	ids := make([]string, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	chats := make(map[string]*Chat, len(s.chats))
	for id, c := range s.chats {
		chats[id] = c
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	var out []PartyRef
	for _, id := range ids {
		for _, p := range chats[id].Parties {
			if p.CreatorID != nil && *p.CreatorID == userID {
				out = append(out, PartyRef{SessionID: id, Name: p.Name})
			}
		}
	}
	return out
}

// Import replaces whole chats, persisting each one.
func (s *Store) Import(ctx context.Context, chats map[string]*Chat) error {
	ids := make([]string, 0, len(chats))
	for id := range chats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		src := chats[id]
		err := s.mutate(ctx, id, func(c *Chat) error {
			*c = *src.clone()
			return nil
		})
		if err != nil {
			return fmt.Errorf("import session %s: %w", id, err)
		}
	}
	return nil
}
