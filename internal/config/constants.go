package config

import "time"

const (
	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	// MaxFrameSize fits a full-length message even when every rune arrives
	// JSON-escaped as a surrogate pair (12 bytes), plus the frame envelope.
	MaxFrameSize   = MaxMessageLength*12 + 1024
	ClientSendSize = 64

	// Peer chat
	DefaultWaitTTL      = 10 * time.Minute
	DefaultSweepPeriod  = 15 * time.Second
	PersistTimeout      = 2 * time.Second
	MaxMessageLength    = 2000
	MaxParticipantIDLen = 128
	MaxTopicLength      = 64

	// Booking
	MaxBookingLength = 64

	// Session identity
	DefaultTokenTTL = 72 * time.Hour
	TokenIssuer     = "wellnesschat-service"
	TokenCookieName = "anon_token"
)

// RetentionPolicy decides what happens to a room transcript when the room ends.
type RetentionPolicy string

const (
	// RetentionArchive writes the transcript to the archive store before dropping it.
	RetentionArchive RetentionPolicy = "archive"
	// RetentionDiscard drops the transcript; only room metadata is archived.
	RetentionDiscard RetentionPolicy = "discard"
)

// ParseRetention maps a config value to a policy, defaulting to RetentionArchive.
func ParseRetention(v string) RetentionPolicy {
	if RetentionPolicy(v) == RetentionDiscard {
		return RetentionDiscard
	}
	return RetentionArchive
}
