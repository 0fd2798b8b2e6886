package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory-backed implementations of the storage interfaces. Used by the
// tests and by the "memory" driver for running without AWS credentials.
// Reads and writes copy rows so callers never share map-backed structs,
// and reads come back in sort-key order like a DynamoDB query would.

type MemorySessionStorage struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{sessions: make(map[string]Session)}
}

func (s *MemorySessionStorage) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneSession(session)
	return &out, nil
}

func (s *MemorySessionStorage) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return ErrConflict
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt
	s.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (s *MemorySessionStorage) Put(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (s *MemorySessionStorage) PutIfStatus(_ context.Context, session *Session, expectStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.ID]
	if !ok || stored.Status != expectStatus {
		return ErrConflict
	}
	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = cloneSession(*session)
	return nil
}

func cloneSession(in Session) Session {
	out := in
	out.CandidateIDs = append([]string(nil), in.CandidateIDs...)
	if in.WinnerID != nil {
		winner := *in.WinnerID
		out.WinnerID = &winner
	}
	if in.TieBreak != nil {
		tb := *in.TieBreak
		tb.ItemIDs = append([]string(nil), in.TieBreak.ItemIDs...)
		out.TieBreak = &tb
	}
	return out
}

type MemoryParticipantStorage struct {
	mu           sync.RWMutex
	participants map[string]map[string]Participant
}

func NewMemoryParticipantStorage() *MemoryParticipantStorage {
	return &MemoryParticipantStorage{participants: make(map[string]map[string]Participant)}
}

func (s *MemoryParticipantStorage) Get(_ context.Context, sessionID, participantID string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participant, ok := s.participants[sessionID][participantID]
	if !ok {
		return nil, ErrNotFound
	}
	out := participant
	return &out, nil
}

func (s *MemoryParticipantStorage) GetBySession(_ context.Context, sessionID string) ([]*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.participants[sessionID]
	out := make([]*Participant, 0, len(rows))
	for _, participant := range rows {
		p := participant
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryParticipantStorage) Create(_ context.Context, participant *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[participant.SessionID][participant.ID]; ok {
		return ErrConflict
	}
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = time.Now().UTC()
	}
	if s.participants[participant.SessionID] == nil {
		s.participants[participant.SessionID] = make(map[string]Participant)
	}
	s.participants[participant.SessionID][participant.ID] = *participant
	return nil
}

func (s *MemoryParticipantStorage) Put(_ context.Context, participant *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.participants[participant.SessionID] == nil {
		s.participants[participant.SessionID] = make(map[string]Participant)
	}
	s.participants[participant.SessionID][participant.ID] = *participant
	return nil
}

type MemoryVoteStorage struct {
	mu    sync.RWMutex
	votes map[string]map[string]Vote
}

func NewMemoryVoteStorage() *MemoryVoteStorage {
	return &MemoryVoteStorage{votes: make(map[string]map[string]Vote)}
}

func (s *MemoryVoteStorage) Upsert(_ context.Context, vote *Vote) (*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote.SortKey = VoteSortKey(vote.ParticipantID, vote.ItemID)
	if vote.Timestamp.IsZero() {
		vote.Timestamp = time.Now().UTC()
	}
	if s.votes[vote.SessionID] == nil {
		s.votes[vote.SessionID] = make(map[string]Vote)
	}

	var replaced *Vote
	if prior, ok := s.votes[vote.SessionID][vote.SortKey]; ok {
		p := prior
		replaced = &p
	}
	s.votes[vote.SessionID][vote.SortKey] = *vote
	return replaced, nil
}

func (s *MemoryVoteStorage) Delete(_ context.Context, sessionID, participantID, itemID string) (*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sortKey := VoteSortKey(participantID, itemID)
	prior, ok := s.votes[sessionID][sortKey]
	if !ok {
		return nil, nil
	}
	delete(s.votes[sessionID], sortKey)
	out := prior
	return &out, nil
}

func (s *MemoryVoteStorage) GetBySession(_ context.Context, sessionID string) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.votes[sessionID]
	out := make([]*Vote, 0, len(rows))
	for _, vote := range rows {
		v := vote
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortKey < out[j].SortKey })
	return out, nil
}

type MemoryFinalVoteStorage struct {
	mu      sync.RWMutex
	ballots map[string]map[string]FinalVote
}

func NewMemoryFinalVoteStorage() *MemoryFinalVoteStorage {
	return &MemoryFinalVoteStorage{ballots: make(map[string]map[string]FinalVote)}
}

func (s *MemoryFinalVoteStorage) Upsert(_ context.Context, finalVote *FinalVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if finalVote.Timestamp.IsZero() {
		finalVote.Timestamp = time.Now().UTC()
	}
	if s.ballots[finalVote.SessionID] == nil {
		s.ballots[finalVote.SessionID] = make(map[string]FinalVote)
	}
	s.ballots[finalVote.SessionID][finalVote.ParticipantID] = *finalVote
	return nil
}

func (s *MemoryFinalVoteStorage) GetBySession(_ context.Context, sessionID string) ([]*FinalVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.ballots[sessionID]
	out := make([]*FinalVote, 0, len(rows))
	for _, ballot := range rows {
		b := ballot
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out, nil
}

type MemoryJoinCodeStorage struct {
	mu    sync.RWMutex
	codes map[string]JoinCode
}

func NewMemoryJoinCodeStorage() *MemoryJoinCodeStorage {
	return &MemoryJoinCodeStorage{codes: make(map[string]JoinCode)}
}

func (s *MemoryJoinCodeStorage) Get(_ context.Context, code string) (*JoinCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	joinCode, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	out := joinCode
	return &out, nil
}

func (s *MemoryJoinCodeStorage) Create(_ context.Context, joinCode *JoinCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[joinCode.Code]; ok {
		return ErrConflict
	}
	if joinCode.CreatedAt.IsZero() {
		joinCode.CreatedAt = time.Now().UTC()
	}
	s.codes[joinCode.Code] = *joinCode
	return nil
}

func (s *MemoryJoinCodeStorage) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, code)
	return nil
}
