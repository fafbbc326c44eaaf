package olc

import "errors"

var (
	// ErrUnknownState is returned by editors for a substate they do not
	// recognise. The router aborts the whole chain without saving.
	ErrUnknownState = errors.New("unknown editor state")
	// ErrNoBacking marks a commit for a kind the world does not store.
	ErrNoBacking = errors.New("kind has no store backing")
	// ErrNoIdentity marks a commit whose value carries an empty key.
	ErrNoIdentity = errors.New("value has no identity")
	// ErrUnknownKind is returned for kinds missing from the registry.
	ErrUnknownKind = errors.New("kind not registered")
	// ErrWrongType is returned when a value does not match its kind.
	ErrWrongType = errors.New("value has wrong type for kind")
	// ErrReservedKey is returned when an extension key is already a menu
	// field key.
	ErrReservedKey = errors.New("key is taken by a menu field")
	// ErrBusy is returned when a connection already has an open session.
	ErrBusy = errors.New("connection is already editing")
)
