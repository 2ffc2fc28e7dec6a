package ledger

import "errors"

var (
	ErrNotFound         = errors.New("party not found")
	// ErrDuplicateParty is never returned by Store: CreateParty with an
	// existing name reselects that party instead.
	ErrDuplicateParty   = errors.New("party already exists")
	ErrPermissionDenied = errors.New("only the party creator can do this")
	ErrInvalidAmount    = errors.New("amount must be a non-negative number")
	ErrNoCurrentParty   = errors.New("no party selected")
	ErrMemberNotFound   = errors.New("member not found")
	ErrEmptyInput       = errors.New("name must not be empty")
)
