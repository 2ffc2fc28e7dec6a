package state

import "github.com/shopspring/decimal"

// Mode is the step a chat's conversation is at.
type Mode int

const (
	Idle Mode = iota
	AwaitingPartyName
	ChoosingPartyToSelect
	AwaitingAmount
	AwaitingDescription
	EditMembersMenu
	AwaitingMemberNameAdd
	AwaitingMemberNameRemove
	ChoosingPartyToDelete
)

var modeNames = [...]string{
	Idle:                     "idle",
	AwaitingPartyName:        "awaiting_party_name",
	ChoosingPartyToSelect:    "choosing_party_to_select",
	AwaitingAmount:           "awaiting_amount",
	AwaitingDescription:      "awaiting_description",
	EditMembersMenu:          "edit_members_menu",
	AwaitingMemberNameAdd:    "awaiting_member_name_add",
	AwaitingMemberNameRemove: "awaiting_member_name_remove",
	ChoosingPartyToDelete:    "choosing_party_to_delete",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// State is the active mode plus whatever the mode needs to resume.
// PendingAmount is only meaningful in AwaitingDescription; constructors below
// keep every other mode free of stale data.
type State struct {
	Mode          Mode
	PendingAmount decimal.Decimal
}

// Is reports whether s is in mode m.
func (s State) Is(m Mode) bool { return s.Mode == m }

// To returns a fresh state in mode m with no pending data.
func To(m Mode) State { return State{Mode: m} }

// Describing returns the state waiting for the description of amount.
func Describing(amount decimal.Decimal) State {
	return State{Mode: AwaitingDescription, PendingAmount: amount}
}

// ExpectsInput reports whether the mode consumes free text rather than only
// menu tokens.
func (m Mode) ExpectsInput() bool {
	return m != Idle
}
