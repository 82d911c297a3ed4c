package chat

import "errors"

var (
	// ErrSessionInactive is returned by SendResponses when the session has not
	// been started or has already ended.
	ErrSessionInactive = errors.New("chat: session is not active")

	// ErrSessionActive is returned by Start when the session is already running.
	ErrSessionActive = errors.New("chat: session is already active")

	// ErrChainLimit is returned when the model chains more embedded commands
	// in one exchange than the session allows. The session is ended.
	ErrChainLimit = errors.New("chat: command chain limit exceeded")
)
