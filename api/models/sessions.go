package models

import (
	"time"

	"github.com/netplexflix/what-to-watch/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type FiltersPayload struct {
	Genre         string `json:"genre,omitempty"`
	YearFrom      int    `json:"yearFrom,omitempty"`
	YearTo        int    `json:"yearTo,omitempty"`
	MaxRuntimeMin int    `json:"maxRuntimeMin,omitempty"`
	UnwatchedOnly bool   `json:"unwatchedOnly,omitempty"`
}

type CreateSessionRequest struct {
	MediaKind   string         `json:"mediaKind" binding:"required,oneof=movie show"`
	DisplayName string         `json:"displayName"`
	PlexToken   string         `json:"plexToken"`
	Filters     FiltersPayload `json:"filters"`
}

type JoinSessionRequest struct {
	Code        string `json:"code" binding:"required"`
	DisplayName string `json:"displayName"`
	PlexToken   string `json:"plexToken"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	JoinCode  string    `json:"joinCode"`
	Status    string    `json:"status"`
	MediaKind string    `json:"mediaKind"`
	QueueSize int       `json:"queueSize"`
	WinnerID  *string   `json:"winnerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ParticipantResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Host        bool   `json:"host"`
	Guest       bool   `json:"guest"`
	Left        bool   `json:"left,omitempty"`
}

// EnterSessionResponse is returned from both create and join: the session,
// the caller's membership and the bearer token for everything that follows.
type EnterSessionResponse struct {
	Session     SessionResponse     `json:"session"`
	Participant ParticipantResponse `json:"participant"`
	Token       string              `json:"token"`
}

func TransformSession(s *storage.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		JoinCode:  s.JoinCode,
		Status:    s.Status,
		MediaKind: s.MediaKind,
		QueueSize: len(s.CandidateIDs),
		WinnerID:  s.WinnerID,
		CreatedAt: s.CreatedAt,
	}
}

func TransformParticipant(p *storage.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Host:        p.Host,
		Guest:       p.Guest,
		Left:        p.Left,
	}
}

func (f FiltersPayload) ToStorage() storage.CatalogFilters {
	return storage.CatalogFilters{
		Genre:         f.Genre,
		YearFrom:      f.YearFrom,
		YearTo:        f.YearTo,
		MaxRuntimeMin: f.MaxRuntimeMin,
		UnwatchedOnly: f.UnwatchedOnly,
	}
}
