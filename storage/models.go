package storage

import (
	"fmt"
	"time"
)

// Session statuses as persisted. Transitions are guarded by conditional
// writes so two writers can never both move the same session.
const (
	SessionStatusWaiting   = "waiting"
	SessionStatusActive    = "active"
	SessionStatusMatched   = "matched"
	SessionStatusNoMatch   = "no_match"
	SessionStatusTieBreak  = "tie_break"
	SessionStatusCompleted = "completed"
)

type Session struct {
	ID           string         `dynamodbav:"PK"`
	JoinCode     string         `dynamodbav:"JoinCode"`
	Status       string         `dynamodbav:"Status"`
	HostID       string         `dynamodbav:"HostID"`
	MediaKind    string         `dynamodbav:"MediaKind"`
	Filters      CatalogFilters `dynamodbav:"Filters"`
	CandidateIDs []string       `dynamodbav:"CandidateIDs"`
	WinnerID     *string        `dynamodbav:"WinnerID"`
	TieBreak     *TieBreakRound `dynamodbav:"TieBreak"`
	CreatedAt    time.Time      `dynamodbav:"CreatedAt"`
	UpdatedAt    time.Time      `dynamodbav:"UpdatedAt"`
}

// CatalogFilters is the frozen copy of the filters the host picked when
// creating the session. Kept on the row so a reconnecting client can
// re-render the lobby without another catalog round trip.
type CatalogFilters struct {
	Genre         string `dynamodbav:"Genre" json:"genre,omitempty"`
	YearFrom      int    `dynamodbav:"YearFrom" json:"yearFrom,omitempty"`
	YearTo        int    `dynamodbav:"YearTo" json:"yearTo,omitempty"`
	MaxRuntimeMin int    `dynamodbav:"MaxRuntimeMin" json:"maxRuntimeMin,omitempty"`
	UnwatchedOnly bool   `dynamodbav:"UnwatchedOnly" json:"unwatchedOnly,omitempty"`
}

// TieBreakRound captures one final-vote round. Seed and Nonce are only
// set once the round resolved through a random draw.
type TieBreakRound struct {
	Round     int       `dynamodbav:"Round"`
	ItemIDs   []string  `dynamodbav:"ItemIDs"`
	StartedAt time.Time `dynamodbav:"StartedAt"`
	Seed      int64     `dynamodbav:"Seed"`
	Nonce     string    `dynamodbav:"Nonce"`
}

type Participant struct {
	SessionID   string    `dynamodbav:"PK"`
	ID          string    `dynamodbav:"SK"`
	DisplayName string    `dynamodbav:"DisplayName"`
	Host        bool      `dynamodbav:"Host"`
	Guest       bool      `dynamodbav:"Guest"`
	Left        bool      `dynamodbav:"Left"`
	JoinedAt    time.Time `dynamodbav:"JoinedAt"`
}

// Vote is one ledger entry: participant X says yes/no to item Y. The sort
// key is a composite of both so a re-vote lands on the same row.
type Vote struct {
	SessionID     string    `dynamodbav:"PK"`
	SortKey       string    `dynamodbav:"SK"`
	ParticipantID string    `dynamodbav:"ParticipantID"`
	ItemID        string    `dynamodbav:"ItemID"`
	Value         bool      `dynamodbav:"Value"`
	Timestamp     time.Time `dynamodbav:"Timestamp"`
}

func VoteSortKey(participantID, itemID string) string {
	return fmt.Sprintf("part#%s#item#%s", participantID, itemID)
}

// FinalVote is one tie-break ballot. One row per participant per session;
// a later round overwrites the earlier ballot.
type FinalVote struct {
	SessionID     string    `dynamodbav:"PK"`
	ParticipantID string    `dynamodbav:"SK"`
	ItemID        string    `dynamodbav:"ItemID"`
	Round         int       `dynamodbav:"Round"`
	Timestamp     time.Time `dynamodbav:"Timestamp"`
}

type JoinCode struct {
	Code      string    `dynamodbav:"PK"`
	SessionID string    `dynamodbav:"SessionID"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}
