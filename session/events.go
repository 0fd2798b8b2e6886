package session

import "time"

// Publisher fans an event out to the live subscribers of a session. The
// realtime hub implements it; tests plug in a recorder. PublishExcept skips
// the named participant's connections - used for events the caller already
// learned from the synchronous response.
type Publisher interface {
	Publish(sessionID, event string, payload any)
	PublishExcept(sessionID, event string, payload any, excludeParticipantID string)
}

// Presence reports connection liveness per participant. The tie-break
// completion rule only waits for members who are connected or only briefly
// gone.
type Presence interface {
	Connected(sessionID, participantID string) bool
	// DisconnectedSince returns when the participant's last connection went
	// away; ok is false when the participant never connected at all.
	DisconnectedSince(sessionID, participantID string) (time.Time, bool)
}

// Event names broadcast through the hub.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventVoteRecorded      = "vote_recorded"
	EventVoteRetracted     = "vote_retracted"
	EventStateChanged      = "state_changed"
	EventTieBreakStarted   = "tiebreak_started"
	EventFinalVoteRecorded = "final_vote_recorded"
	EventTieBreakResolved  = "tiebreak_resolved"
)

// Tie-break resolution methods.
const (
	TieBreakMethodPlurality = "plurality"
	TieBreakMethodDraw      = "draw"
)

type ParticipantJoinedEvent struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Guest         bool   `json:"guest"`
}

type ParticipantLeftEvent struct {
	ParticipantID string `json:"participantId"`
}

// VoteRecordedEvent deliberately omits the item and the value: votes stay
// secret until the queue resolves, only swipe progress is shared.
type VoteRecordedEvent struct {
	ParticipantID string `json:"participantId"`
	Progress      int    `json:"progress"`
	QueueSize     int    `json:"queueSize"`
	Changed       bool   `json:"changed"`
}

type VoteRetractedEvent struct {
	ParticipantID string `json:"participantId"`
	Progress      int    `json:"progress"`
	QueueSize     int    `json:"queueSize"`
}

type StateChangedEvent struct {
	Status         string  `json:"status"`
	WinnerID       *string `json:"winnerId,omitempty"`
	CandidateCount int     `json:"candidateCount,omitempty"`
}

type TieBreakStartedEvent struct {
	Round   int      `json:"round"`
	ItemIDs []string `json:"itemIds"`
	Ranking []Tally  `json:"ranking"`
}

type FinalVoteRecordedEvent struct {
	ParticipantID string `json:"participantId"`
	Round         int    `json:"round"`
	Voted         int    `json:"voted"`
	Expected      int    `json:"expected"`
}

// TieBreakResolvedEvent carries the seed material on a draw so clients can
// replay the exact pick for their reveal animation.
type TieBreakResolvedEvent struct {
	WinnerID    string   `json:"winnerId"`
	Method      string   `json:"method"`
	Round       int      `json:"round"`
	Seed        *int64   `json:"seed,omitempty"`
	Nonce       string   `json:"nonce,omitempty"`
	TiedItemIDs []string `json:"tiedItemIds,omitempty"`
}
