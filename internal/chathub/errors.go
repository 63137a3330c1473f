package chathub

import "errors"

var (
	// ErrNoActiveRoom is returned when a message targets a room with no registered participants.
	ErrNoActiveRoom = errors.New("no active room")
	// ErrAlreadyInRoom is returned when a paired participant asks to join again.
	ErrAlreadyInRoom = errors.New("participant is already in a room")
	// ErrInvalidParticipant is returned for an empty or malformed participant id.
	ErrInvalidParticipant = errors.New("invalid participant id")
	// ErrEmptyMessage is returned when the message text is blank.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrMessageTooLong is returned when the text exceeds config.MaxMessageLength runes.
	ErrMessageTooLong = errors.New("message text is too long")
	// ErrHubStopped is returned once the hub loop has exited.
	ErrHubStopped = errors.New("chat hub is stopped")
)
