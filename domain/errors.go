package domain

import "errors"

var (
	ErrNotLoggedIn     = errors.New("not-logged-in")
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrRoomNotJoinable = errors.New("room-not-joinable")
	ErrNotHost         = errors.New("not-host")
	ErrNoParticipants  = errors.New("no-participants")
	ErrRoomCompleted   = errors.New("room-completed")
	ErrRoomNotActive   = errors.New("room-not-active")
	ErrAlreadyFinished = errors.New("already-finished")
	ErrNotInRoom       = errors.New("not-in-room")
)

var StoreUnavailableError = errors.New("store-unavailable")

var (
	ErrPermissionUnavailable = errors.New("permission-unavailable")
)

var (
	TokenError               = errors.New("token-error")
	ErrInvalidSigningMethod  = errors.New("invalid-signing-method")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)
