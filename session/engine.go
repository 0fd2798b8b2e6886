package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/google/uuid"
	"github.com/netplexflix/what-to-watch/catalog"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/storage"
)

const joinCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const joinCodeAttempts = 5

type Config struct {
	// JoinCodeLength is the length of generated join codes.
	JoinCodeLength int
	// MaxRoundItems caps the tie-break round set when no first-place tie
	// exists.
	MaxRoundItems int
	// LivenessGrace is how long a disconnected member still blocks tie-break
	// completion.
	LivenessGrace time.Duration
	// WriteRetries bounds re-evaluation attempts after a conditional write
	// lost against a concurrent update.
	WriteRetries int
	// RetryBackoff is the pause between those attempts.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.JoinCodeLength <= 0 {
		c.JoinCodeLength = 6
	}
	if c.MaxRoundItems <= 0 {
		c.MaxRoundItems = 3
	}
	if c.LivenessGrace <= 0 {
		c.LivenessGrace = 30 * time.Second
	}
	if c.WriteRetries <= 0 {
		c.WriteRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 25 * time.Millisecond
	}
	return c
}

type Stores struct {
	Sessions     storage.SessionStorage
	Participants storage.ParticipantStorage
	Votes        storage.VoteStorage
	FinalVotes   storage.FinalVoteStorage
	JoinCodes    storage.JoinCodeStorage
}

// Engine owns the session lifecycle: every ledger write, match evaluation,
// state transition and broadcast for one session runs under that session's
// lock, so evaluation always sees a settled ledger. Different sessions do
// not contend.
type Engine struct {
	stores    Stores
	catalog   catalog.Provider
	publisher Publisher
	presence  Presence
	locks     *sessionLocks
	cfg       Config
}

func NewEngine(stores Stores, provider catalog.Provider, publisher Publisher, presence Presence, cfg Config) *Engine {
	return &Engine{
		stores:    stores,
		catalog:   provider,
		publisher: publisher,
		presence:  presence,
		locks:     newSessionLocks(),
		cfg:       cfg.withDefaults(),
	}
}

// pendingEvent is an event collected during an operation and published only
// after every storage write committed, still inside the session lock so
// per-session order holds.
type pendingEvent struct {
	event   string
	payload any
	exclude string
}

func (e *Engine) publishAll(sessionID string, events []pendingEvent) {
	if e.publisher == nil {
		return
	}
	for _, ev := range events {
		if ev.exclude != "" {
			e.publisher.PublishExcept(sessionID, ev.event, ev.payload, ev.exclude)
		} else {
			e.publisher.Publish(sessionID, ev.event, ev.payload)
		}
	}
}

// NormalizeJoinCode maps user input onto the stored code form.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type CreateSessionParams struct {
	MediaKind string
	Filters   storage.CatalogFilters
	HostName  string
	HostGuest bool
}

type CreateSessionResult struct {
	Session *storage.Session
	Host    *storage.Participant
}

// CreateSession reserves a join code, writes the session row in `waiting`
// and enrolls the creator as host.
func (e *Engine) CreateSession(ctx context.Context, params CreateSessionParams) (*CreateSessionResult, error) {
	sessionID := uuid.NewString()
	now := time.Now().UTC()

	code, err := e.reserveJoinCode(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session := &storage.Session{
		ID:        sessionID,
		JoinCode:  code,
		Status:    storage.SessionStatusWaiting,
		HostID:    uuid.NewString(),
		MediaKind: params.MediaKind,
		Filters:   params.Filters,
		CreatedAt: now,
	}
	if err := e.stores.Sessions.Create(ctx, session); err != nil {
		_ = e.stores.JoinCodes.Delete(ctx, code)
		return nil, err
	}

	host := &storage.Participant{
		SessionID:   sessionID,
		ID:          session.HostID,
		DisplayName: params.HostName,
		Host:        true,
		Guest:       params.HostGuest,
		JoinedAt:    now,
	}
	if err := e.stores.Participants.Create(ctx, host); err != nil {
		return nil, err
	}

	logging.Log.Infof("SESSION: created %s with code %s", sessionID, code)
	return &CreateSessionResult{Session: session, Host: host}, nil
}

func (e *Engine) reserveJoinCode(ctx context.Context, sessionID string) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := gonanoid.Generate(joinCodeAlphabet, e.cfg.JoinCodeLength)
		if err != nil {
			return "", err
		}
		err = e.stores.JoinCodes.Create(ctx, &storage.JoinCode{Code: code, SessionID: sessionID})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return "", err
		}
	}
	return "", ErrConflictRetry
}

type JoinSessionParams struct {
	Code        string
	DisplayName string
	Guest       bool
}

type JoinSessionResult struct {
	Session     *storage.Session
	Participant *storage.Participant
}

// JoinSession enrolls a new member by join code. Only `waiting` sessions
// accept joins; the roster is fixed once swiping starts.
func (e *Engine) JoinSession(ctx context.Context, params JoinSessionParams) (*JoinSessionResult, error) {
	joinCode, err := e.stores.JoinCodes.Get(ctx, NormalizeJoinCode(params.Code))
	if errors.Is(err, storage.ErrCodeNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	release := e.locks.acquire(joinCode.SessionID)
	defer release()

	session, err := e.getSession(ctx, joinCode.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == storage.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}
	if session.Status != storage.SessionStatusWaiting {
		return nil, ErrSessionStarted
	}

	participant := &storage.Participant{
		SessionID:   session.ID,
		ID:          uuid.NewString(),
		DisplayName: params.DisplayName,
		Guest:       params.Guest,
		JoinedAt:    time.Now().UTC(),
	}
	if err := e.stores.Participants.Create(ctx, participant); err != nil {
		return nil, err
	}

	e.publishAll(session.ID, []pendingEvent{{
		event: EventParticipantJoined,
		payload: ParticipantJoinedEvent{
			ParticipantID: participant.ID,
			DisplayName:   participant.DisplayName,
			Guest:         participant.Guest,
		},
	}})
	return &JoinSessionResult{Session: session, Participant: participant}, nil
}

// StartSession pins the candidate queue and moves `waiting -> active`. Host
// only. The catalog is consulted exactly once per session; the resulting id
// order is the canonical queue order for its whole lifetime.
func (e *Engine) StartSession(ctx context.Context, sessionID, participantID string) (*storage.Session, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == storage.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}
	if session.Status != storage.SessionStatusWaiting {
		return nil, ErrSessionNotActive
	}

	participant, err := e.liveParticipant(ctx, sessionID, participantID)
	if err != nil {
		return nil, err
	}
	if !participant.Host {
		return nil, ErrNotHost
	}

	items, err := e.catalog.ListCandidates(ctx, catalogFilters(session))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyQueue
	}

	candidateIDs := make([]string, len(items))
	for i, item := range items {
		candidateIDs[i] = item.ID
	}

	session.Status = storage.SessionStatusActive
	session.CandidateIDs = candidateIDs
	if err := e.putIfStatus(ctx, session, storage.SessionStatusWaiting); err != nil {
		return nil, err
	}

	logging.Log.Infof("SESSION: %s started with %d candidates", sessionID, len(candidateIDs))
	e.publishAll(sessionID, []pendingEvent{{
		event:   EventStateChanged,
		payload: StateChangedEvent{Status: session.Status, CandidateCount: len(candidateIDs)},
	}})
	return session, nil
}

type VoteResult struct {
	// Status the session landed in after evaluation.
	Status string
	// Progress is how many queue items the caller has voted on.
	Progress int
	// Prior is the replaced vote's value when the cast overwrote one.
	Prior *bool
}

// CastVote upserts one swipe vote and evaluates the session: unanimity ends
// it, queue exhaustion hands over to the tie-break or parks it in no_match.
// Lost conditional writes are retried a bounded number of times - the upsert
// is idempotent so a retry never double-counts.
func (e *Engine) CastVote(ctx context.Context, sessionID, participantID, itemID string, value bool) (*VoteResult, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	for attempt := 0; ; attempt++ {
		result, err := e.castVoteOnce(ctx, sessionID, participantID, itemID, value)
		if !errors.Is(err, storage.ErrConflict) {
			return result, err
		}
		if attempt >= e.cfg.WriteRetries {
			logging.Log.Warnf("SESSION: vote by %s on %s kept conflicting, giving up", participantID, sessionID)
			return nil, ErrConflictRetry
		}
		time.Sleep(e.cfg.RetryBackoff)
	}
}

func (e *Engine) castVoteOnce(ctx context.Context, sessionID, participantID, itemID string, value bool) (*VoteResult, error) {
	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case storage.SessionStatusActive:
	case storage.SessionStatusCompleted:
		return nil, ErrSessionClosed
	default:
		return nil, ErrSessionNotActive
	}

	if _, err := e.liveParticipant(ctx, sessionID, participantID); err != nil {
		return nil, err
	}
	if !slices.Contains(session.CandidateIDs, itemID) {
		return nil, ErrInvalidItem
	}

	prior, err := e.stores.Votes.Upsert(ctx, &storage.Vote{
		SessionID:     sessionID,
		ParticipantID: participantID,
		ItemID:        itemID,
		Value:         value,
	})
	if err != nil {
		return nil, err
	}

	participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	votes, err := e.stores.Votes.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	progress := voteProgress(votes, participantID)
	events := []pendingEvent{{
		event: EventVoteRecorded,
		payload: VoteRecordedEvent{
			ParticipantID: participantID,
			Progress:      progress,
			QueueSize:     len(session.CandidateIDs),
			Changed:       prior != nil,
		},
		exclude: participantID,
	}}

	out := detect(session.CandidateIDs, liveRoster(participants), votes)
	transitionEvents, err := e.applyOutcome(ctx, session, out)
	if err != nil {
		return nil, err
	}
	events = append(events, transitionEvents...)
	e.publishAll(sessionID, events)

	result := &VoteResult{Status: session.Status, Progress: progress}
	if prior != nil {
		priorValue := prior.Value
		result.Prior = &priorValue
	}
	return result, nil
}

// RetractVote removes a vote. Retracting a vote that does not exist is a
// no-op, but evaluation still runs.
func (e *Engine) RetractVote(ctx context.Context, sessionID, participantID, itemID string) (*VoteResult, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case storage.SessionStatusActive:
	case storage.SessionStatusCompleted:
		return nil, ErrSessionClosed
	default:
		return nil, ErrSessionNotActive
	}

	if _, err := e.liveParticipant(ctx, sessionID, participantID); err != nil {
		return nil, err
	}
	if !slices.Contains(session.CandidateIDs, itemID) {
		return nil, ErrInvalidItem
	}

	if _, err := e.stores.Votes.Delete(ctx, sessionID, participantID, itemID); err != nil {
		return nil, err
	}

	participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	votes, err := e.stores.Votes.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	progress := voteProgress(votes, participantID)
	events := []pendingEvent{{
		event: EventVoteRetracted,
		payload: VoteRetractedEvent{
			ParticipantID: participantID,
			Progress:      progress,
			QueueSize:     len(session.CandidateIDs),
		},
		exclude: participantID,
	}}

	out := detect(session.CandidateIDs, liveRoster(participants), votes)
	transitionEvents, err := e.applyOutcome(ctx, session, out)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrConflictRetry
		}
		return nil, err
	}
	events = append(events, transitionEvents...)
	e.publishAll(sessionID, events)

	return &VoteResult{Status: session.Status, Progress: progress}, nil
}

// applyOutcome commits the detection result. The conditional write from
// `active` is the second guard against a concurrent transition; callers see
// the raw storage.ErrConflict and decide whether to retry.
func (e *Engine) applyOutcome(ctx context.Context, session *storage.Session, out outcome) ([]pendingEvent, error) {
	switch out.kind {
	case outcomeMatched:
		winner := out.winner
		session.Status = storage.SessionStatusMatched
		session.WinnerID = &winner
		if err := e.stores.Sessions.PutIfStatus(ctx, session, storage.SessionStatusActive); err != nil {
			return nil, err
		}
		logging.Log.Infof("SESSION: %s matched on %s", session.ID, winner)
		return []pendingEvent{{
			event:   EventStateChanged,
			payload: StateChangedEvent{Status: session.Status, WinnerID: session.WinnerID},
		}}, nil

	case outcomeNoMatch:
		session.Status = storage.SessionStatusNoMatch
		if err := e.stores.Sessions.PutIfStatus(ctx, session, storage.SessionStatusActive); err != nil {
			return nil, err
		}
		logging.Log.Infof("SESSION: %s exhausted the queue without a single like", session.ID)
		return []pendingEvent{{
			event:   EventStateChanged,
			payload: StateChangedEvent{Status: session.Status},
		}}, nil

	case outcomeTieBreak:
		round := &storage.TieBreakRound{
			Round:     1,
			ItemIDs:   roundItems(out.ranking, e.cfg.MaxRoundItems),
			StartedAt: time.Now().UTC(),
		}
		session.Status = storage.SessionStatusTieBreak
		session.TieBreak = round
		if err := e.stores.Sessions.PutIfStatus(ctx, session, storage.SessionStatusActive); err != nil {
			return nil, err
		}
		logging.Log.Infof("SESSION: %s exhausted the queue, tie-break over %d items", session.ID, len(round.ItemIDs))
		return []pendingEvent{
			{event: EventTieBreakStarted, payload: TieBreakStartedEvent{Round: round.Round, ItemIDs: round.ItemIDs, Ranking: out.ranking}},
			{event: EventStateChanged, payload: StateChangedEvent{Status: session.Status}},
		}, nil
	}
	return nil, nil
}

type FinalVoteResult struct {
	Status   string
	Round    int
	Voted    int
	Expected int
}

// CastFinalVote records a tie-break ballot and resolves the round once every
// active member voted. Re-casting before resolution replaces the ballot.
func (e *Engine) CastFinalVote(ctx context.Context, sessionID, participantID, itemID string) (*FinalVoteResult, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case storage.SessionStatusTieBreak:
	case storage.SessionStatusCompleted:
		return nil, ErrSessionClosed
	default:
		return nil, ErrSessionNotActive
	}
	if _, err := e.liveParticipant(ctx, sessionID, participantID); err != nil {
		return nil, err
	}
	if session.TieBreak == nil || !slices.Contains(session.TieBreak.ItemIDs, itemID) {
		return nil, ErrInvalidItem
	}

	if err := e.stores.FinalVotes.Upsert(ctx, &storage.FinalVote{
		SessionID:     sessionID,
		ParticipantID: participantID,
		ItemID:        itemID,
		Round:         session.TieBreak.Round,
	}); err != nil {
		return nil, err
	}

	participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ballots, err := e.stores.FinalVotes.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	active := e.activeRoster(session, participants)
	voted := countActiveBallots(active, ballots, session.TieBreak.Round)
	events := []pendingEvent{{
		event: EventFinalVoteRecorded,
		payload: FinalVoteRecordedEvent{
			ParticipantID: participantID,
			Round:         session.TieBreak.Round,
			Voted:         voted,
			Expected:      len(active),
		},
		exclude: participantID,
	}}

	result := &FinalVoteResult{Status: session.Status, Round: session.TieBreak.Round, Voted: voted, Expected: len(active)}
	if tieBreakComplete(active, ballots, session.TieBreak.Round) {
		resolveEvents, err := e.resolveTieBreak(ctx, session, ballots)
		if err != nil {
			return nil, err
		}
		events = append(events, resolveEvents...)
		result.Status = session.Status
	}

	e.publishAll(sessionID, events)
	return result, nil
}

// resolveTieBreak settles the round: the plurality winner, or a seeded draw
// over the residual tie. Caller holds the session lock.
func (e *Engine) resolveTieBreak(ctx context.Context, session *storage.Session, ballots []*storage.FinalVote) ([]pendingEvent, error) {
	resolved := TieBreakResolvedEvent{Round: session.TieBreak.Round}

	winner, tied := resolveBallots(session.TieBreak.ItemIDs, ballots, session.TieBreak.Round)
	if winner == "" {
		nonce := uuid.NewString()
		seed := drawSeed(tied, nonce)
		winner = draw(tied, seed)

		session.TieBreak.Seed = seed
		session.TieBreak.Nonce = nonce
		resolved.Method = TieBreakMethodDraw
		resolved.Seed = &seed
		resolved.Nonce = nonce
		resolved.TiedItemIDs = tied
		logging.Log.Infof("SESSION: %s tie-break drawn between %d items, winner %s", session.ID, len(tied), winner)
	} else {
		resolved.Method = TieBreakMethodPlurality
		logging.Log.Infof("SESSION: %s tie-break resolved by plurality, winner %s", session.ID, winner)
	}
	resolved.WinnerID = winner

	session.Status = storage.SessionStatusMatched
	session.WinnerID = &winner
	if err := e.stores.Sessions.PutIfStatus(ctx, session, storage.SessionStatusTieBreak); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrConflictRetry
		}
		return nil, err
	}

	return []pendingEvent{
		{event: EventTieBreakResolved, payload: resolved},
		{event: EventStateChanged, payload: StateChangedEvent{Status: session.Status, WinnerID: session.WinnerID}},
	}, nil
}

// HandleDisconnect is wired to the hub's close path. The re-check runs once
// the liveness grace expired so a vanished member cannot stall a tie-break
// round forever.
func (e *Engine) HandleDisconnect(sessionID, participantID string) {
	logging.Log.Debugf("SESSION: participant %s disconnected from %s", participantID, sessionID)
	time.AfterFunc(e.cfg.LivenessGrace+50*time.Millisecond, func() {
		e.RecheckTieBreak(context.Background(), sessionID)
	})
}

// RecheckTieBreak re-evaluates round completion against the current active
// roster. Runs after disconnect grace expiry; safe to call any time.
func (e *Engine) RecheckTieBreak(ctx context.Context, sessionID string) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return
	}
	if session.Status != storage.SessionStatusTieBreak || session.TieBreak == nil {
		return
	}

	participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
	if err != nil {
		return
	}
	ballots, err := e.stores.FinalVotes.GetBySession(ctx, sessionID)
	if err != nil {
		return
	}

	active := e.activeRoster(session, participants)
	if !tieBreakComplete(active, ballots, session.TieBreak.Round) {
		return
	}

	events, err := e.resolveTieBreak(ctx, session, ballots)
	if err != nil {
		logging.Log.Errorf("SESSION: deferred tie-break resolution for %s failed: %v", sessionID, err)
		return
	}
	e.publishAll(sessionID, events)
}

// LeaveSession shrinks the roster. Under a smaller roster an item can become
// unanimous or the queue exhausted, so detection re-runs across all items.
func (e *Engine) LeaveSession(ctx context.Context, sessionID, participantID string) error {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == storage.SessionStatusCompleted {
		return ErrSessionClosed
	}

	participant, err := e.stores.Participants.Get(ctx, sessionID, participantID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidParticipant
	}
	if err != nil {
		return err
	}
	if participant.Left {
		return nil
	}

	participant.Left = true
	if err := e.stores.Participants.Put(ctx, participant); err != nil {
		return err
	}

	events := []pendingEvent{{
		event:   EventParticipantLeft,
		payload: ParticipantLeftEvent{ParticipantID: participantID},
	}}

	switch session.Status {
	case storage.SessionStatusActive:
		participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		votes, err := e.stores.Votes.GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		out := detect(session.CandidateIDs, liveRoster(participants), votes)
		transitionEvents, err := e.applyOutcome(ctx, session, out)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrConflictRetry
			}
			return err
		}
		events = append(events, transitionEvents...)

	case storage.SessionStatusTieBreak:
		participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		ballots, err := e.stores.FinalVotes.GetBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		active := e.activeRoster(session, participants)
		if tieBreakComplete(active, ballots, session.TieBreak.Round) {
			resolveEvents, err := e.resolveTieBreak(ctx, session, ballots)
			if err != nil {
				return err
			}
			events = append(events, resolveEvents...)
		}
	}

	e.publishAll(sessionID, events)
	return nil
}

// CompleteSession moves the session to its absorbing terminal status. Host
// only; every status can complete.
func (e *Engine) CompleteSession(ctx context.Context, sessionID, participantID string) (*storage.Session, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == storage.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}

	participant, err := e.stores.Participants.Get(ctx, sessionID, participantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidParticipant
	}
	if err != nil {
		return nil, err
	}
	if !participant.Host {
		return nil, ErrNotHost
	}

	prior := session.Status
	session.Status = storage.SessionStatusCompleted
	if err := e.putIfStatus(ctx, session, prior); err != nil {
		return nil, err
	}

	logging.Log.Infof("SESSION: %s completed by host", sessionID)
	e.publishAll(sessionID, []pendingEvent{{
		event:   EventStateChanged,
		payload: StateChangedEvent{Status: session.Status, WinnerID: session.WinnerID},
	}})
	return session, nil
}

// Snapshot is the authoritative state a (re)connecting client renders from.
// While swiping is open only per-member progress is exposed; the tally
// ranking becomes visible once the queue phase is over.
type Snapshot struct {
	Session        *storage.Session
	Participants   []*storage.Participant
	Progress       map[string]int
	OwnVotes       []*storage.Vote
	Ranking        []Tally
	RoundBallotIDs []string
}

func (e *Engine) Snapshot(ctx context.Context, sessionID, participantID string) (*Snapshot, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := e.stores.Participants.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !containsParticipant(participants, participantID) {
		return nil, ErrInvalidParticipant
	}

	votes, err := e.stores.Votes.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Session:      session,
		Participants: participants,
		Progress:     make(map[string]int),
	}
	for _, vote := range votes {
		snapshot.Progress[vote.ParticipantID]++
		if vote.ParticipantID == participantID {
			snapshot.OwnVotes = append(snapshot.OwnVotes, vote)
		}
	}

	switch session.Status {
	case storage.SessionStatusWaiting, storage.SessionStatusActive:
	default:
		tallies := make(map[string]*Tally, len(session.CandidateIDs))
		live := make(map[string]bool)
		for _, id := range liveRoster(participants) {
			live[id] = true
		}
		for _, vote := range votes {
			if !live[vote.ParticipantID] {
				continue
			}
			tally := tallies[vote.ItemID]
			if tally == nil {
				tally = &Tally{ItemID: vote.ItemID}
				tallies[vote.ItemID] = tally
			}
			if vote.Value {
				tally.Yes++
			} else {
				tally.No++
			}
		}
		snapshot.Ranking = rankTallies(session.CandidateIDs, tallies)
	}

	if session.Status == storage.SessionStatusTieBreak && session.TieBreak != nil {
		ballots, err := e.stores.FinalVotes.GetBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		snapshot.RoundBallotIDs = roundBallotIDs(ballots, session.TieBreak.Round)
	}
	return snapshot, nil
}

// Queue returns the candidate items in canonical order with their catalog
// payloads. Items meanwhile gone from the library come back id-only so the
// queue position math never shifts.
func (e *Engine) Queue(ctx context.Context, sessionID, participantID string) ([]catalog.Item, error) {
	session, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := e.stores.Participants.Get(ctx, sessionID, participantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidParticipant
		}
		return nil, err
	}
	if len(session.CandidateIDs) == 0 {
		return nil, ErrSessionNotActive
	}

	items, err := e.catalog.GetItems(ctx, session.CandidateIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]catalog.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]catalog.Item, 0, len(session.CandidateIDs))
	for _, id := range session.CandidateIDs {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		} else {
			ordered = append(ordered, catalog.Item{ID: id})
		}
	}
	return ordered, nil
}

// activeRoster filters the live roster down to members who count for round
// completion: connected, or disconnected for less than the grace period. A
// member who never connected gets the grace measured from the round start.
func (e *Engine) activeRoster(session *storage.Session, participants []*storage.Participant) []string {
	roster := liveRoster(participants)
	if e.presence == nil {
		return roster
	}

	now := time.Now().UTC()
	roundStart := now
	if session.TieBreak != nil {
		roundStart = session.TieBreak.StartedAt
	}

	var active []string
	for _, id := range roster {
		if e.presence.Connected(session.ID, id) {
			active = append(active, id)
			continue
		}
		if since, ok := e.presence.DisconnectedSince(session.ID, id); ok {
			if now.Sub(since) < e.cfg.LivenessGrace {
				active = append(active, id)
			}
			continue
		}
		if now.Sub(roundStart) < e.cfg.LivenessGrace {
			active = append(active, id)
		}
	}
	return active
}

func (e *Engine) getSession(ctx context.Context, sessionID string) (*storage.Session, error) {
	session, err := e.stores.Sessions.Get(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (e *Engine) liveParticipant(ctx context.Context, sessionID, participantID string) (*storage.Participant, error) {
	participant, err := e.stores.Participants.Get(ctx, sessionID, participantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidParticipant
	}
	if err != nil {
		return nil, err
	}
	if participant.Left {
		return nil, ErrInvalidParticipant
	}
	return participant, nil
}

func (e *Engine) putIfStatus(ctx context.Context, session *storage.Session, expect string) error {
	err := e.stores.Sessions.PutIfStatus(ctx, session, expect)
	if errors.Is(err, storage.ErrConflict) {
		return ErrConflictRetry
	}
	return err
}

func catalogFilters(session *storage.Session) catalog.Filters {
	return catalog.Filters{
		MediaKind:     session.MediaKind,
		Genre:         session.Filters.Genre,
		YearFrom:      session.Filters.YearFrom,
		YearTo:        session.Filters.YearTo,
		MaxRuntimeMin: session.Filters.MaxRuntimeMin,
		UnwatchedOnly: session.Filters.UnwatchedOnly,
	}
}

func voteProgress(votes []*storage.Vote, participantID string) int {
	progress := 0
	for _, vote := range votes {
		if vote.ParticipantID == participantID {
			progress++
		}
	}
	return progress
}

func countActiveBallots(active []string, ballots []*storage.FinalVote, round int) int {
	balloted := make(map[string]bool)
	for _, id := range roundBallotIDs(ballots, round) {
		balloted[id] = true
	}
	count := 0
	for _, id := range active {
		if balloted[id] {
			count++
		}
	}
	return count
}

func containsParticipant(participants []*storage.Participant, participantID string) bool {
	for _, participant := range participants {
		if participant.ID == participantID {
			return true
		}
	}
	return false
}
