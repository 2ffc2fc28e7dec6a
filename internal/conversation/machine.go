package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/export"
	"github.com/susu3304/partybot/internal/i18n"
	"github.com/susu3304/partybot/internal/ledger"
	"github.com/susu3304/partybot/internal/sessions"
	"github.com/susu3304/partybot/internal/state"
)

// Input is one inbound chat message.
type Input struct {
	SessionID   string
	UserID      int64
	DisplayName string
	Text        string
}

// Machine drives the per-chat conversation. Each Handle call holds the chat's
// directory lock from reading the state until the new state is written, so
// ledger writes and transitions of one chat never interleave.
type Machine struct {
	store    *ledger.Store
	dir      *sessions.Directory
	logger   *zap.Logger
	now      func() time.Time
	fallback i18n.Language
}

type Option func(*Machine)

// WithDefaultLanguage sets the language used for chats that have not picked
// one yet.
func WithDefaultLanguage(lang i18n.Language) Option {
	return func(m *Machine) {
		if lang.Valid() {
			m.fallback = lang
		}
	}
}

func NewMachine(store *ledger.Store, dir *sessions.Directory, logger *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		dir:      dir,
		logger:   logger.With(zap.String("component", "conversation")),
		now:      time.Now,
		fallback: i18n.Default,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) lang(l i18n.Language) i18n.Language {
	if l.Valid() {
		return l
	}
	return m.fallback
}

// Accepts reports whether text means anything to the chat right now: a known
// command, or input for a pending step.
func (m *Machine) Accepts(sessionID, text string) bool {
	if i18n.Resolve(m.store.Language(sessionID), text) != i18n.CmdNone {
		return true
	}
	return m.dir.Peek(sessionID).Mode.ExpectsInput()
}

// Start resets the chat to Idle and greets it: the language picker when no
// language is chosen yet, the main menu otherwise.
func (m *Machine) Start(ctx context.Context, sessionID string) Outcome {
	var out Outcome
	_ = m.dir.With(sessionID, func(s *sessions.Session) error {
		s.Set(state.To(state.Idle))
		lang := m.store.Language(sessionID)
		if !lang.Valid() {
			out = Outcome{Kind: Prompt, Language: m.fallback, Key: i18n.MsgChooseLanguage, Keyboard: KeyboardLanguage}
			return nil
		}
		out = m.menu(lang, i18n.MsgMenu)
		return nil
	})
	return out
}

// Handle processes one message. A non-nil error means persistence failed;
// the ledger and the conversation state are then left as they were and the
// returned Outcome carries a generic failure notice.
//
// This is the one case where a description does not end the add-expense
// flow: the chat stays in AwaitingDescription with its pending amount, so
// the same description can be sent again.
func (m *Machine) Handle(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome
	err := m.dir.With(in.SessionID, func(s *sessions.Session) error {
		st := s.State()
		o, next, err := m.step(ctx, in, st)
		if err != nil {
			return err
		}
		s.Set(next)
		out = o
		return nil
	})
	if err != nil {
		m.logger.Error("handle message",
			zap.String("session_id", in.SessionID),
			zap.Int64("user_id", in.UserID),
			zap.Error(err),
		)
		lang := m.store.Language(in.SessionID)
		return Outcome{Kind: Error, Language: m.lang(lang), Key: i18n.MsgInternalError, Keyboard: KeyboardMain}, err
	}
	return out, nil
}

func (m *Machine) step(ctx context.Context, in Input, st state.State) (Outcome, state.State, error) {
	sid := in.SessionID
	lang := m.store.Language(sid)
	text := strings.TrimSpace(in.Text)
	cmd := i18n.Resolve(lang, text)

	// language changes never touch the conversation state
	if cmd == i18n.CmdLanguageMenu {
		return Outcome{Kind: Prompt, Language: m.lang(lang), Key: i18n.MsgChangeLanguage, Keyboard: KeyboardLanguage}, st, nil
	}
	if picked, ok := cmd.LanguagePick(); ok {
		if err := m.store.SetLanguage(ctx, sid, picked); err != nil {
			return Outcome{}, st, err
		}
		out := m.keyboardFor(sid, picked, st)
		out.Kind = Confirmation
		out.Key = i18n.MsgLanguageSet
		return out, st, nil
	}

	if cmd.TopLevel() {
		return m.dispatch(ctx, sid, lang, cmd)
	}

	switch st.Mode {
	case state.AwaitingPartyName:
		return m.createParty(ctx, in, lang, text, st)
	case state.ChoosingPartyToSelect:
		return m.selectParty(ctx, sid, lang, text, cmd, st)
	case state.AwaitingAmount:
		return m.acceptAmount(lang, text, st)
	case state.AwaitingDescription:
		return m.recordExpense(ctx, in, lang, text, st)
	case state.EditMembersMenu:
		return m.editMembers(lang, cmd)
	case state.AwaitingMemberNameAdd:
		return m.addMember(ctx, sid, lang, text, st)
	case state.AwaitingMemberNameRemove:
		return m.removeMember(ctx, sid, lang, text, st)
	case state.ChoosingPartyToDelete:
		return m.deleteParty(ctx, in, lang, text, cmd, st)
	}

	if cmd == i18n.CmdBack {
		return m.menu(lang, i18n.MsgBackToMenu), state.To(state.Idle), nil
	}
	return m.menu(lang, i18n.MsgMenu), state.To(state.Idle), nil
}

// dispatch handles a main-menu command. Any pending flow is discarded.
func (m *Machine) dispatch(ctx context.Context, sid string, lang i18n.Language, cmd i18n.Command) (Outcome, state.State, error) {
	idle := state.To(state.Idle)
	switch cmd {
	case i18n.CmdCreateParty:
		return m.prompt(lang, i18n.MsgAskPartyName), state.To(state.AwaitingPartyName), nil

	case i18n.CmdSelectParty:
		parties := m.store.ListParties(sid)
		if len(parties) == 0 {
			return m.menu(lang, i18n.MsgNoParties), idle, nil
		}
		return m.choices(lang, i18n.MsgChooseParty, parties), state.To(state.ChoosingPartyToSelect), nil

	case i18n.CmdAddExpense:
		if m.store.CurrentParty(sid) == "" {
			return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
		}
		return m.prompt(lang, i18n.MsgAskAmount), state.To(state.AwaitingAmount), nil

	case i18n.CmdMembers:
		p, err := m.currentParty(sid)
		if err != nil {
			return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
		}
		if len(p.Members) == 0 {
			return m.menu(lang, i18n.MsgMembersNone), idle, nil
		}
		out := m.menu(lang, i18n.MsgMembersList)
		out.Kind = Listing
		out.Party = p.Name
		out.Members = p.Members
		return out, idle, nil

	case i18n.CmdEditMembers:
		out := m.prompt(lang, i18n.MsgEditMembersMenu)
		out.Keyboard = KeyboardMembers
		return out, state.To(state.EditMembersMenu), nil

	case i18n.CmdManageParties:
		parties := m.store.ListParties(sid)
		if len(parties) == 0 {
			return m.menu(lang, i18n.MsgNoParties), idle, nil
		}
		return m.choices(lang, i18n.MsgChooseToDelete, parties), state.To(state.ChoosingPartyToDelete), nil

	case i18n.CmdSummary:
		p, err := m.currentParty(sid)
		if err != nil {
			return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
		}
		if len(p.Members) == 0 {
			return m.menu(lang, i18n.MsgMembersNone), idle, nil
		}
		res := p.Settle()
		out := m.menu(lang, i18n.MsgSummaryHeader)
		out.Kind = Listing
		out.Party = p.Name
		out.Members = p.Members
		out.Summary = &res
		return out, idle, nil

	case i18n.CmdExport:
		p, err := m.currentParty(sid)
		if err != nil {
			return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
		}
		doc := export.Render(p, m.now())
		out := m.menu(lang, i18n.MsgExportDone)
		out.Kind = Document
		out.Party = p.Name
		out.Document = &doc
		return out, idle, nil
	}
	return m.menu(lang, i18n.MsgMenu), idle, nil
}

func (m *Machine) createParty(ctx context.Context, in Input, lang i18n.Language, name string, st state.State) (Outcome, state.State, error) {
	if name == "" {
		return m.prompt(lang, i18n.MsgAskPartyName), st, nil
	}
	p, created, err := m.store.CreateParty(ctx, in.SessionID, name, in.UserID, in.DisplayName)
	if err != nil {
		if errors.Is(err, ledger.ErrEmptyInput) {
			return m.prompt(lang, i18n.MsgAskPartyName), st, nil
		}
		return Outcome{}, st, err
	}
	key := i18n.MsgPartyCreated
	if !created {
		key = i18n.MsgPartyReselected
	}
	return m.confirm(lang, key, p.Name), state.To(state.Idle), nil
}

func (m *Machine) selectParty(ctx context.Context, sid string, lang i18n.Language, name string, cmd i18n.Command, st state.State) (Outcome, state.State, error) {
	if cmd == i18n.CmdBack {
		return m.menu(lang, i18n.MsgBackToMenu), state.To(state.Idle), nil
	}
	p, err := m.store.SelectParty(ctx, sid, name)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		out := m.choices(lang, i18n.MsgPartyNotFound, m.store.ListParties(sid))
		out.Kind = Error
		return out, st, nil
	case err != nil:
		return Outcome{}, st, err
	}
	return m.confirm(lang, i18n.MsgPartySelected, p.Name), state.To(state.Idle), nil
}

// ParseAmount reads a user-typed amount. A comma works as the decimal
// separator; negative values and values above ledger.MaxAmount are rejected.
func ParseAmount(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	return ledger.CheckAmount(d)
}

func (m *Machine) acceptAmount(lang i18n.Language, text string, st state.State) (Outcome, state.State, error) {
	amount, err := ParseAmount(text)
	if err != nil {
		out := m.prompt(lang, i18n.MsgInvalidAmount)
		out.Kind = Error
		return out, st, nil
	}
	return m.prompt(lang, i18n.MsgAskDescription), state.Describing(amount), nil
}

func (m *Machine) recordExpense(ctx context.Context, in Input, lang i18n.Language, text string, st state.State) (Outcome, state.State, error) {
	desc := text
	if desc == "-" {
		desc = ""
	}
	idle := state.To(state.Idle)
	exp, err := m.store.RecordExpense(ctx, in.SessionID, m.store.CurrentParty(in.SessionID), in.DisplayName, st.PendingAmount, desc)
	switch {
	case errors.Is(err, ledger.ErrNoCurrentParty), errors.Is(err, ledger.ErrNotFound):
		return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
	case errors.Is(err, ledger.ErrInvalidAmount):
		return m.fail(lang, i18n.MsgInvalidAmount), idle, nil
	case errors.Is(err, ledger.ErrEmptyInput):
		return m.fail(lang, i18n.MsgMenu), idle, nil
	case err != nil:
		return Outcome{}, st, err
	}
	return m.confirm(lang, i18n.MsgExpenseAdded, ledger.FormatAmount(exp.Amount), exp.Payer), idle, nil
}

func (m *Machine) editMembers(lang i18n.Language, cmd i18n.Command) (Outcome, state.State, error) {
	switch cmd {
	case i18n.CmdAddMember:
		return m.prompt(lang, i18n.MsgAskMemberName), state.To(state.AwaitingMemberNameAdd), nil
	case i18n.CmdRemoveMember:
		return m.prompt(lang, i18n.MsgAskMemberName), state.To(state.AwaitingMemberNameRemove), nil
	case i18n.CmdBack:
		return m.menu(lang, i18n.MsgBackToMenu), state.To(state.Idle), nil
	}
	return m.menu(lang, i18n.MsgMenu), state.To(state.Idle), nil
}

func memberName(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "@"))
}

func (m *Machine) addMember(ctx context.Context, sid string, lang i18n.Language, text string, st state.State) (Outcome, state.State, error) {
	name := memberName(text)
	if name == "" {
		return m.prompt(lang, i18n.MsgAskMemberName), st, nil
	}
	idle := state.To(state.Idle)
	added, err := m.store.AddMember(ctx, sid, m.store.CurrentParty(sid), name)
	switch {
	case errors.Is(err, ledger.ErrNoCurrentParty), errors.Is(err, ledger.ErrNotFound):
		return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
	case err != nil:
		return Outcome{}, st, err
	}
	if !added {
		return m.confirm(lang, i18n.MsgMemberExists, name), idle, nil
	}
	return m.confirm(lang, i18n.MsgMemberAdded, name), idle, nil
}

func (m *Machine) removeMember(ctx context.Context, sid string, lang i18n.Language, text string, st state.State) (Outcome, state.State, error) {
	name := memberName(text)
	if name == "" {
		return m.prompt(lang, i18n.MsgAskMemberName), st, nil
	}
	idle := state.To(state.Idle)
	err := m.store.RemoveMember(ctx, sid, m.store.CurrentParty(sid), name)
	switch {
	case errors.Is(err, ledger.ErrNoCurrentParty), errors.Is(err, ledger.ErrNotFound):
		return m.fail(lang, i18n.MsgNoCurrentParty), idle, nil
	case errors.Is(err, ledger.ErrMemberNotFound):
		return m.fail(lang, i18n.MsgMemberNotFound), idle, nil
	case err != nil:
		return Outcome{}, st, err
	}
	return m.confirm(lang, i18n.MsgMemberRemoved, name), idle, nil
}

func (m *Machine) deleteParty(ctx context.Context, in Input, lang i18n.Language, name string, cmd i18n.Command, st state.State) (Outcome, state.State, error) {
	if cmd == i18n.CmdBack {
		return m.menu(lang, i18n.MsgBackToMenu), state.To(state.Idle), nil
	}
	idle := state.To(state.Idle)
	err := m.store.DeleteParty(ctx, in.SessionID, name, in.UserID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		out := m.choices(lang, i18n.MsgPartyNotFound, m.store.ListParties(in.SessionID))
		out.Kind = Error
		return out, st, nil
	case errors.Is(err, ledger.ErrPermissionDenied):
		return m.fail(lang, i18n.MsgNoPermission), idle, nil
	case err != nil:
		return Outcome{}, st, err
	}
	return m.confirm(lang, i18n.MsgPartyDeleted, name), idle, nil
}

func (m *Machine) currentParty(sid string) (*ledger.Party, error) {
	cur := m.store.CurrentParty(sid)
	if cur == "" {
		return nil, ledger.ErrNoCurrentParty
	}
	return m.store.Party(sid, cur)
}

// keyboardFor rebuilds the actions matching st, used after a language
// switch so the pending step keeps its keyboard.
func (m *Machine) keyboardFor(sid string, lang i18n.Language, st state.State) Outcome {
	out := Outcome{Language: m.lang(lang), Keyboard: KeyboardNone}
	switch st.Mode {
	case state.Idle:
		out.Keyboard = KeyboardMain
	case state.EditMembersMenu:
		out.Keyboard = KeyboardMembers
	case state.ChoosingPartyToSelect, state.ChoosingPartyToDelete:
		out.Keyboard = KeyboardParties
		out.Choices = m.store.ListParties(sid)
	}
	return out
}

func (m *Machine) menu(lang i18n.Language, key i18n.Key) Outcome {
	return Outcome{Kind: Prompt, Language: m.lang(lang), Key: key, Keyboard: KeyboardMain}
}

func (m *Machine) prompt(lang i18n.Language, key i18n.Key) Outcome {
	return Outcome{Kind: Prompt, Language: m.lang(lang), Key: key, Keyboard: KeyboardNone}
}

func (m *Machine) confirm(lang i18n.Language, key i18n.Key, args ...any) Outcome {
	return Outcome{Kind: Confirmation, Language: m.lang(lang), Key: key, Args: args, Keyboard: KeyboardMain}
}

func (m *Machine) fail(lang i18n.Language, key i18n.Key) Outcome {
	return Outcome{Kind: Error, Language: m.lang(lang), Key: key, Keyboard: KeyboardMain}
}

func (m *Machine) choices(lang i18n.Language, key i18n.Key, parties []string) Outcome {
	return Outcome{Kind: Prompt, Language: m.lang(lang), Key: key, Keyboard: KeyboardParties, Choices: parties}
}
