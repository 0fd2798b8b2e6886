package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplexflix/what-to-watch/catalog"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/storage"
)

type recordedEvent struct {
	sessionID string
	event     string
	payload   any
	excluded  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(sessionID, event string, payload any) {
	p.record(sessionID, event, payload, "")
}

func (p *recordingPublisher) PublishExcept(sessionID, event string, payload any, exclude string) {
	p.record(sessionID, event, payload, exclude)
}

func (p *recordingPublisher) record(sessionID, event string, payload any, exclude string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{sessionID, event, payload, exclude})
}

func (p *recordingPublisher) names(sessionID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, ev := range p.events {
		if ev.sessionID == sessionID {
			names = append(names, ev.event)
		}
	}
	return names
}

func (p *recordingPublisher) count(sessionID, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, ev := range p.events {
		if ev.sessionID == sessionID && ev.event == event {
			count++
		}
	}
	return count
}

func (p *recordingPublisher) last(event string) (recordedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].event == event {
			return p.events[i], true
		}
	}
	return recordedEvent{}, false
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fakePresence struct {
	mu        sync.Mutex
	defaultOn bool
	connected map[string]bool
	seen      map[string]time.Time
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		defaultOn: true,
		connected: make(map[string]bool),
		seen:      make(map[string]time.Time),
	}
}

func (p *fakePresence) Connected(_, participantID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on, ok := p.connected[participantID]; ok {
		return on
	}
	return p.defaultOn
}

func (p *fakePresence) DisconnectedSince(_, participantID string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	since, ok := p.seen[participantID]
	return since, ok
}

func (p *fakePresence) setConnected(participantID string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected[participantID] = on
}

func (p *fakePresence) setSeen(participantID string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[participantID] = at
}

type stubCatalog struct {
	items   []catalog.Item
	err     error
	missing map[string]bool
}

func (c *stubCatalog) ListCandidates(context.Context, catalog.Filters) ([]catalog.Item, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.items, nil
}

func (c *stubCatalog) GetItems(_ context.Context, itemIDs []string) ([]catalog.Item, error) {
	byID := make(map[string]catalog.Item, len(c.items))
	for _, item := range c.items {
		byID[item.ID] = item
	}
	var out []catalog.Item
	for _, id := range itemIDs {
		if c.missing[id] {
			continue
		}
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type engineFixture struct {
	engine    *Engine
	stores    Stores
	publisher *recordingPublisher
	presence  *fakePresence
	catalog   *stubCatalog
}

func newEngineFixture(itemIDs []string, cfg Config) *engineFixture {
	logging.Log = logrus.New()

	items := make([]catalog.Item, len(itemIDs))
	for i, id := range itemIDs {
		items[i] = catalog.Item{ID: id, Payload: json.RawMessage(fmt.Sprintf(`{"ratingKey":%q,"title":"Item %s"}`, id, id))}
	}

	f := &engineFixture{
		publisher: &recordingPublisher{},
		presence:  newFakePresence(),
		catalog:   &stubCatalog{items: items, missing: make(map[string]bool)},
		stores: Stores{
			Sessions:     storage.NewMemorySessionStorage(),
			Participants: storage.NewMemoryParticipantStorage(),
			Votes:        storage.NewMemoryVoteStorage(),
			FinalVotes:   storage.NewMemoryFinalVoteStorage(),
			JoinCodes:    storage.NewMemoryJoinCodeStorage(),
		},
	}
	f.engine = NewEngine(f.stores, f.catalog, f.publisher, f.presence, cfg)
	return f
}

// startedSession creates a session, joins members until the roster holds
// memberCount participants (host included) and starts it. Returns the
// session id and the participant ids, host first.
func (f *engineFixture) startedSession(t *testing.T, memberCount int) (string, []string) {
	t.Helper()
	ctx := context.Background()

	created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Host", HostGuest: true})
	require.NoError(t, err)

	ids := []string{created.Host.ID}
	for i := 1; i < memberCount; i++ {
		joined, err := f.engine.JoinSession(ctx, JoinSessionParams{
			Code:        created.Session.JoinCode,
			DisplayName: fmt.Sprintf("Member %d", i),
			Guest:       true,
		})
		require.NoError(t, err)
		ids = append(ids, joined.Participant.ID)
	}

	_, err = f.engine.StartSession(ctx, created.Session.ID, created.Host.ID)
	require.NoError(t, err)

	// Setup noise (joins, the start transition) would skew event counting.
	f.publisher.reset()
	return created.Session.ID, ids
}

func (f *engineFixture) sessionStatus(t *testing.T, sessionID string) string {
	t.Helper()
	session, err := f.stores.Sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	return session.Status
}

func TestEngine_CreateSession(t *testing.T) {
	t.Run("Happy path - session starts waiting with a resolvable join code", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})

		created, err := f.engine.CreateSession(context.Background(), CreateSessionParams{
			MediaKind: catalog.KindMovie,
			HostName:  "Alex",
			HostGuest: true,
		})

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusWaiting, created.Session.Status)
		assert.Len(t, created.Session.JoinCode, 6)
		assert.True(t, created.Host.Host)
		assert.Equal(t, "Alex", created.Host.DisplayName)

		joined, err := f.engine.JoinSession(context.Background(), JoinSessionParams{
			Code:        created.Session.JoinCode,
			DisplayName: "Sam",
			Guest:       true,
		})
		require.NoError(t, err)
		assert.Equal(t, created.Session.ID, joined.Session.ID)
	})

	t.Run("Happy path - join codes are case-insensitive", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(context.Background(), CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		lower := " " + strings.ToLower(created.Session.JoinCode) + " "
		_, err = f.engine.JoinSession(context.Background(), JoinSessionParams{Code: lower, DisplayName: "Sam"})
		assert.NoError(t, err)
	})
}

func TestEngine_JoinSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - join is announced to the session", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		joined, err := f.engine.JoinSession(ctx, JoinSessionParams{Code: created.Session.JoinCode, DisplayName: "Sam", Guest: true})
		require.NoError(t, err)

		assert.Equal(t, 1, f.publisher.count(created.Session.ID, EventParticipantJoined))
		event, ok := f.publisher.last(EventParticipantJoined)
		require.True(t, ok)
		payload, ok := event.payload.(ParticipantJoinedEvent)
		require.True(t, ok)
		assert.Equal(t, joined.Participant.ID, payload.ParticipantID)
		assert.Equal(t, "Sam", payload.DisplayName)
	})

	t.Run("Unhappy path - unknown code", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})

		_, err := f.engine.JoinSession(ctx, JoinSessionParams{Code: "NOPE42", DisplayName: "Sam"})

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Unhappy path - joining after start is rejected", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, _ := f.startedSession(t, 1)
		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)

		_, err = f.engine.JoinSession(ctx, JoinSessionParams{Code: session.JoinCode, DisplayName: "Late"})

		assert.ErrorIs(t, err, ErrSessionStarted)
	})

	t.Run("Unhappy path - joining a completed session is rejected", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)
		_, err = f.engine.CompleteSession(ctx, created.Session.ID, created.Host.ID)
		require.NoError(t, err)

		_, err = f.engine.JoinSession(ctx, JoinSessionParams{Code: created.Session.JoinCode, DisplayName: "Late"})

		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestEngine_StartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - queue is pinned in catalog order", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2", "m3"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		session, err := f.engine.StartSession(ctx, created.Session.ID, created.Host.ID)

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusActive, session.Status)
		assert.Equal(t, []string{"m1", "m2", "m3"}, session.CandidateIDs)

		event, ok := f.publisher.last(EventStateChanged)
		require.True(t, ok)
		payload := event.payload.(StateChangedEvent)
		assert.Equal(t, storage.SessionStatusActive, payload.Status)
		assert.Equal(t, 3, payload.CandidateCount)
	})

	t.Run("Unhappy path - only the host can start", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)
		joined, err := f.engine.JoinSession(ctx, JoinSessionParams{Code: created.Session.JoinCode, DisplayName: "Sam"})
		require.NoError(t, err)

		_, err = f.engine.StartSession(ctx, created.Session.ID, joined.Participant.ID)

		assert.ErrorIs(t, err, ErrNotHost)
	})

	t.Run("Unhappy path - starting twice", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 1)

		_, err := f.engine.StartSession(ctx, sessionID, ids[0])

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("Unhappy path - empty catalog result", func(t *testing.T) {
		f := newEngineFixture(nil, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		_, err = f.engine.StartSession(ctx, created.Session.ID, created.Host.ID)

		assert.ErrorIs(t, err, ErrEmptyQueue)
	})
}

func TestEngine_CastVote_UnanimousMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - match fires exactly when every member liked the item", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		for _, id := range ids[:2] {
			result, err := f.engine.CastVote(ctx, sessionID, id, "m2", true)
			require.NoError(t, err)
			assert.Equal(t, storage.SessionStatusActive, result.Status)
		}
		assert.Zero(t, f.publisher.count(sessionID, EventStateChanged))

		result, err := f.engine.CastVote(ctx, sessionID, ids[2], "m2", true)
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, result.Status)

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, session.WinnerID)
		assert.Equal(t, "m2", *session.WinnerID)
		assert.Equal(t, 1, f.publisher.count(sessionID, EventStateChanged))
	})

	t.Run("Happy path - a solo session matches on the first like", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 1)

		result, err := f.engine.CastVote(ctx, sessionID, ids[0], "m2", true)

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, result.Status)
	})

	t.Run("Happy path - no votes count for members who left", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		_, err := f.engine.CastVote(ctx, sessionID, ids[2], "m1", true)
		require.NoError(t, err)
		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[2]))

		// Two yes votes from the two remaining members match despite the
		// leaver's third yes being stale.
		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m2", true)
		require.NoError(t, err)
		result, err := f.engine.CastVote(ctx, sessionID, ids[1], "m2", true)
		require.NoError(t, err)

		assert.Equal(t, storage.SessionStatusMatched, result.Status)
		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "m2", *session.WinnerID)
	})
}

func TestEngine_CastVote_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - re-voting replaces and reports the prior value", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		first, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", false)
		require.NoError(t, err)
		assert.Nil(t, first.Prior)
		assert.Equal(t, 1, first.Progress)

		second, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", false)
		require.NoError(t, err)
		require.NotNil(t, second.Prior)
		assert.False(t, *second.Prior)
		assert.Equal(t, 1, second.Progress, "re-vote must not inflate progress")

		votes, err := f.stores.Votes.GetBySession(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, votes, 1)
	})

	t.Run("Happy path - flipping no to yes can complete a match", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[1], "m1", true)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m1", false)
		require.NoError(t, err)

		result, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)
		require.NotNil(t, result.Prior)
		assert.False(t, *result.Prior)
		assert.Equal(t, storage.SessionStatusMatched, result.Status)
	})
}

func TestEngine_CastVote_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("Unhappy path - voting before start", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		_, err = f.engine.CastVote(ctx, created.Session.ID, created.Host.ID, "m1", true)

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("Unhappy path - strangers cannot vote", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, _ := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, uuid.NewString(), "m1", true)

		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("Unhappy path - members who left cannot vote", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[1]))

		_, err := f.engine.CastVote(ctx, sessionID, ids[1], "m1", true)

		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("Unhappy path - item outside the queue", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m99", true)

		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("Unhappy path - voting after completion", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		_, err := f.engine.CompleteSession(ctx, sessionID, ids[0])
		require.NoError(t, err)

		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)

		assert.ErrorIs(t, err, ErrSessionClosed)
	})

	t.Run("Unhappy path - swipe votes are rejected during a tie-break", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})
}

// exhaustedIntoTieBreak drives a two-member, two-item session into a
// tie-break: each member likes a different item.
func exhaustedIntoTieBreak(t *testing.T, f *engineFixture) (string, []string) {
	t.Helper()
	ctx := context.Background()
	sessionID, ids := f.startedSession(t, 2)

	_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m2", false)
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, sessionID, ids[1], "m1", false)
	require.NoError(t, err)
	result, err := f.engine.CastVote(ctx, sessionID, ids[1], "m2", true)
	require.NoError(t, err)
	require.Equal(t, storage.SessionStatusTieBreak, result.Status)
	return sessionID, ids
}

func TestEngine_RetractVote(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - retraction removes the ledger row", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)

		result, err := f.engine.RetractVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		assert.Zero(t, result.Progress)
		assert.Equal(t, storage.SessionStatusActive, result.Status)
		assert.Equal(t, 1, f.publisher.count(sessionID, EventVoteRetracted))

		votes, err := f.stores.Votes.GetBySession(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, votes)
	})

	t.Run("Happy path - retracting an absent vote is a quiet no-op", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		result, err := f.engine.RetractVote(ctx, sessionID, ids[0], "m1")

		require.NoError(t, err)
		assert.Zero(t, result.Progress)
		assert.Equal(t, storage.SessionStatusActive, f.sessionStatus(t, sessionID))
	})

	t.Run("Happy path - retraction can defuse a pending exhaustion", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", false)
		require.NoError(t, err)

		// Retract before the second member completes the coverage; their
		// vote alone must not exhaust the queue.
		_, err = f.engine.RetractVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		result, err := f.engine.CastVote(ctx, sessionID, ids[1], "m1", false)
		require.NoError(t, err)

		assert.Equal(t, storage.SessionStatusActive, result.Status)
	})

	t.Run("Unhappy path - retracting an unknown item", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.RetractVote(ctx, sessionID, ids[0], "m99")

		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("Unhappy path - retracting outside the swipe phase", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		_, err := f.engine.RetractVote(ctx, sessionID, ids[0], "m1")

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})
}

func TestEngine_Exhaustion(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - zero likes at exhaustion parks the session in no_match", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		var last *VoteResult
		for _, participantID := range ids {
			for _, itemID := range []string{"m1", "m2"} {
				result, err := f.engine.CastVote(ctx, sessionID, participantID, itemID, false)
				require.NoError(t, err)
				last = result
			}
		}

		assert.Equal(t, storage.SessionStatusNoMatch, last.Status)
		assert.Equal(t, 1, f.publisher.count(sessionID, EventStateChanged))
		assert.Zero(t, f.publisher.count(sessionID, EventTieBreakStarted))
	})

	t.Run("Happy path - a single like routes exhaustion into the tie-break", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m2", false)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[1], "m1", false)
		require.NoError(t, err)
		result, err := f.engine.CastVote(ctx, sessionID, ids[1], "m2", false)
		require.NoError(t, err)

		assert.Equal(t, storage.SessionStatusTieBreak, result.Status)
		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, session.TieBreak)
		assert.Equal(t, 1, session.TieBreak.Round)
		assert.Equal(t, []string{"m1"}, session.TieBreak.ItemIDs)
	})

	t.Run("Happy path - first-place ties form the round set", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, _ := exhaustedIntoTieBreak(t, f)

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, session.TieBreak)
		assert.ElementsMatch(t, []string{"m1", "m2"}, session.TieBreak.ItemIDs)

		event, ok := f.publisher.last(EventTieBreakStarted)
		require.True(t, ok)
		payload := event.payload.(TieBreakStartedEvent)
		assert.Equal(t, 1, payload.Round)
		assert.Len(t, payload.Ranking, 2)
	})

	t.Run("Happy path - a lone leader is not auto-picked, the group confirms", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2", "m3"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		votes := map[string]map[string]bool{
			ids[0]: {"m1": true, "m2": true, "m3": false},
			ids[1]: {"m1": true, "m2": false, "m3": false},
			ids[2]: {"m1": false, "m2": false, "m3": false},
		}
		for participantID, byItem := range votes {
			for _, itemID := range []string{"m1", "m2", "m3"} {
				_, err := f.engine.CastVote(ctx, sessionID, participantID, itemID, byItem[itemID])
				require.NoError(t, err)
			}
		}

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		require.Equal(t, storage.SessionStatusTieBreak, session.Status)
		assert.Equal(t, []string{"m1", "m2"}, session.TieBreak.ItemIDs)
	})
}

func TestEngine_FinalVote(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - plurality settles the round", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		votes := map[string]map[string]bool{
			ids[0]: {"m1": true, "m2": false},
			ids[1]: {"m1": true, "m2": false},
			ids[2]: {"m1": false, "m2": true},
		}
		for participantID, byItem := range votes {
			for _, itemID := range []string{"m1", "m2"} {
				_, err := f.engine.CastVote(ctx, sessionID, participantID, itemID, byItem[itemID])
				require.NoError(t, err)
			}
		}
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		first, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusTieBreak, first.Status)
		assert.Equal(t, 1, first.Voted)
		assert.Equal(t, 3, first.Expected)

		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[1], "m1")
		require.NoError(t, err)
		last, err := f.engine.CastFinalVote(ctx, sessionID, ids[2], "m2")
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, last.Status)

		event, ok := f.publisher.last(EventTieBreakResolved)
		require.True(t, ok)
		payload := event.payload.(TieBreakResolvedEvent)
		assert.Equal(t, TieBreakMethodPlurality, payload.Method)
		assert.Equal(t, "m1", payload.WinnerID)
		assert.Nil(t, payload.Seed)

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - re-casting replaces the ballot", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		votes := map[string]map[string]bool{
			ids[0]: {"m1": true, "m2": false},
			ids[1]: {"m1": false, "m2": true},
			ids[2]: {"m1": true, "m2": true},
		}
		for participantID, byItem := range votes {
			for _, itemID := range []string{"m1", "m2"} {
				_, err := f.engine.CastVote(ctx, sessionID, participantID, itemID, byItem[itemID])
				require.NoError(t, err)
			}
		}
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m2")
		require.NoError(t, err)
		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[2], "m2")
		require.NoError(t, err)
		// ids[2] reconsiders before the round closes.
		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[2], "m1")
		require.NoError(t, err)
		result, err := f.engine.CastFinalVote(ctx, sessionID, ids[1], "m1")
		require.NoError(t, err)

		assert.Equal(t, storage.SessionStatusMatched, result.Status)
		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - residual tie resolves by replayable draw", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		result, err := f.engine.CastFinalVote(ctx, sessionID, ids[1], "m2")
		require.NoError(t, err)
		require.Equal(t, storage.SessionStatusMatched, result.Status)

		event, ok := f.publisher.last(EventTieBreakResolved)
		require.True(t, ok)
		payload := event.payload.(TieBreakResolvedEvent)
		assert.Equal(t, TieBreakMethodDraw, payload.Method)
		require.NotNil(t, payload.Seed)
		assert.NotEmpty(t, payload.Nonce)
		assert.ElementsMatch(t, []string{"m1", "m2"}, payload.TiedItemIDs)
		assert.Contains(t, payload.TiedItemIDs, payload.WinnerID)

		// Any client replaying the draw from the published material must
		// land on the server's winner.
		assert.Equal(t, payload.WinnerID, draw(payload.TiedItemIDs, *payload.Seed))
		assert.Equal(t, drawSeed(payload.TiedItemIDs, payload.Nonce), *payload.Seed)

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, payload.WinnerID, *session.WinnerID)
		assert.Equal(t, *payload.Seed, session.TieBreak.Seed)
		assert.Equal(t, payload.Nonce, session.TieBreak.Nonce)
	})

	t.Run("Unhappy path - ballots outside the round set", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2", "m3"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		// Like only m1 and m2 so m3 never reaches the round.
		for _, participantID := range ids {
			_, err := f.engine.CastVote(ctx, sessionID, participantID, "m3", false)
			require.NoError(t, err)
		}
		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m2", false)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[1], "m1", false)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[1], "m2", true)
		require.NoError(t, err)
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[0], "m3")

		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	t.Run("Unhappy path - final votes only exist during a tie-break", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})
}

func TestEngine_TieBreakLiveness(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - a member gone past the grace does not block the round", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{LivenessGrace: 50 * time.Millisecond})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		f.presence.setConnected(ids[1], false)
		f.presence.setSeen(ids[1], time.Now().UTC().Add(-200*time.Millisecond))

		result, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, result.Status)
		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - a briefly-disconnected member still counts", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{LivenessGrace: time.Minute})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		f.presence.setConnected(ids[1], false)
		f.presence.setSeen(ids[1], time.Now().UTC())

		result, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusTieBreak, result.Status)
		assert.Equal(t, 2, result.Expected)
	})

	t.Run("Happy path - the deferred re-check resolves after the grace expires", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{LivenessGrace: 30 * time.Millisecond})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		f.presence.setConnected(ids[1], false)
		f.presence.setSeen(ids[1], time.Now().UTC())
		f.engine.HandleDisconnect(sessionID, ids[1])

		require.Eventually(t, func() bool {
			return f.sessionStatus(t, sessionID) == storage.SessionStatusMatched
		}, time.Second, 10*time.Millisecond)

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - a member who never connected stops blocking after the grace", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{LivenessGrace: 40 * time.Millisecond})
		f.presence.defaultOn = false
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		f.presence.setConnected(ids[0], true)
		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m2")
		require.NoError(t, err)
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		time.Sleep(60 * time.Millisecond)
		f.engine.RecheckTieBreak(ctx, sessionID)

		assert.Equal(t, storage.SessionStatusMatched, f.sessionStatus(t, sessionID))
	})
}

func TestEngine_LeaveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - a shrinking roster can create unanimity, queue order breaks ties", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[0], "m2", true)
		require.NoError(t, err)

		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[1]))

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, session.Status)
		// Both items became unanimous at once; the earliest queue position wins.
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - a shrinking roster can exhaust the queue into no_match", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", false)
		require.NoError(t, err)
		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[1]))

		assert.Equal(t, storage.SessionStatusNoMatch, f.sessionStatus(t, sessionID))
	})

	t.Run("Happy path - leaving mid tie-break lets the round close", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		votes := map[string]map[string]bool{
			ids[0]: {"m1": true, "m2": false},
			ids[1]: {"m1": false, "m2": true},
			ids[2]: {"m1": true, "m2": true},
		}
		for participantID, byItem := range votes {
			for _, itemID := range []string{"m1", "m2"} {
				_, err := f.engine.CastVote(ctx, sessionID, participantID, itemID, byItem[itemID])
				require.NoError(t, err)
			}
		}
		require.Equal(t, storage.SessionStatusTieBreak, f.sessionStatus(t, sessionID))

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)
		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[1], "m1")
		require.NoError(t, err)
		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[2]))

		session, err := f.stores.Sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, session.Status)
		assert.Equal(t, "m1", *session.WinnerID)
	})

	t.Run("Happy path - leaving twice is idempotent", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 3)

		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[2]))
		require.NoError(t, f.engine.LeaveSession(ctx, sessionID, ids[2]))

		assert.Equal(t, 1, f.publisher.count(sessionID, EventParticipantLeft))
	})

	t.Run("Unhappy path - strangers cannot leave", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, _ := f.startedSession(t, 2)

		err := f.engine.LeaveSession(ctx, sessionID, uuid.NewString())

		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("Unhappy path - leaving a completed session", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		_, err := f.engine.CompleteSession(ctx, sessionID, ids[0])
		require.NoError(t, err)

		err = f.engine.LeaveSession(ctx, sessionID, ids[1])

		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestEngine_CompleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - the host can close any phase, the winner survives", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		for _, participantID := range ids {
			_, err := f.engine.CastVote(ctx, sessionID, participantID, "m1", true)
			require.NoError(t, err)
		}
		require.Equal(t, storage.SessionStatusMatched, f.sessionStatus(t, sessionID))

		session, err := f.engine.CompleteSession(ctx, sessionID, ids[0])
		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusCompleted, session.Status)
		require.NotNil(t, session.WinnerID)
		assert.Equal(t, "m1", *session.WinnerID)

		event, ok := f.publisher.last(EventStateChanged)
		require.True(t, ok)
		payload := event.payload.(StateChangedEvent)
		assert.Equal(t, storage.SessionStatusCompleted, payload.Status)
	})

	t.Run("Unhappy path - non-hosts cannot complete", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CompleteSession(ctx, sessionID, ids[1])

		assert.ErrorIs(t, err, ErrNotHost)
	})

	t.Run("Unhappy path - completion is absorbing", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 2)
		_, err := f.engine.CompleteSession(ctx, sessionID, ids[0])
		require.NoError(t, err)

		_, err = f.engine.CompleteSession(ctx, sessionID, ids[0])
		assert.ErrorIs(t, err, ErrSessionClosed)

		_, err = f.engine.RetractVote(ctx, sessionID, ids[1], "m1")
		assert.ErrorIs(t, err, ErrSessionClosed)

		_, err = f.engine.CastFinalVote(ctx, sessionID, ids[1], "m1")
		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestEngine_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - progress is shared, vote values stay private", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 2)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)
		_, err = f.engine.CastVote(ctx, sessionID, ids[1], "m2", false)
		require.NoError(t, err)

		snapshot, err := f.engine.Snapshot(ctx, sessionID, ids[0])
		require.NoError(t, err)

		assert.Len(t, snapshot.Participants, 2)
		assert.Equal(t, 1, snapshot.Progress[ids[0]])
		assert.Equal(t, 1, snapshot.Progress[ids[1]])
		require.Len(t, snapshot.OwnVotes, 1)
		assert.Equal(t, "m1", snapshot.OwnVotes[0].ItemID)
		assert.Nil(t, snapshot.Ranking, "tallies stay hidden while swiping is open")
	})

	t.Run("Happy path - the tie-break snapshot carries ranking and ballot progress", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := exhaustedIntoTieBreak(t, f)

		_, err := f.engine.CastFinalVote(ctx, sessionID, ids[0], "m1")
		require.NoError(t, err)

		snapshot, err := f.engine.Snapshot(ctx, sessionID, ids[1])
		require.NoError(t, err)

		assert.Len(t, snapshot.Ranking, 2)
		assert.Equal(t, []string{ids[0]}, snapshot.RoundBallotIDs)
		require.NotNil(t, snapshot.Session.TieBreak)
		assert.ElementsMatch(t, []string{"m1", "m2"}, snapshot.Session.TieBreak.ItemIDs)
	})

	t.Run("Unhappy path - snapshots are members-only", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, _ := f.startedSession(t, 1)

		_, err := f.engine.Snapshot(ctx, sessionID, uuid.NewString())

		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("Unhappy path - unknown session", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})

		_, err := f.engine.Snapshot(ctx, uuid.NewString(), uuid.NewString())

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestEngine_Queue(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - items come back in canonical order with payloads", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2", "m3"}, Config{})
		sessionID, ids := f.startedSession(t, 1)

		items, err := f.engine.Queue(ctx, sessionID, ids[0])

		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "m1", items[0].ID)
		assert.Equal(t, "m3", items[2].ID)
		assert.Contains(t, string(items[0].Payload), "Item m1")
	})

	t.Run("Happy path - items gone from the library keep their queue slot", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, ids := f.startedSession(t, 1)
		f.catalog.missing["m1"] = true

		items, err := f.engine.Queue(ctx, sessionID, ids[0])

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "m1", items[0].ID)
		assert.Empty(t, items[0].Payload)
		assert.NotEmpty(t, items[1].Payload)
	})

	t.Run("Unhappy path - no queue before start", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		created, err := f.engine.CreateSession(ctx, CreateSessionParams{MediaKind: catalog.KindMovie, HostName: "Alex"})
		require.NoError(t, err)

		_, err = f.engine.Queue(ctx, created.Session.ID, created.Host.ID)

		assert.ErrorIs(t, err, ErrSessionNotActive)
	})
}

func TestEngine_EventOrdering(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - ledger events precede state transitions", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{})
		sessionID, ids := f.startedSession(t, 1)

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)
		require.NoError(t, err)

		names := f.publisher.names(sessionID)
		require.GreaterOrEqual(t, len(names), 2)
		assert.Equal(t, []string{EventVoteRecorded, EventStateChanged}, names[len(names)-2:])

		vote, ok := f.publisher.last(EventVoteRecorded)
		require.True(t, ok)
		assert.Equal(t, ids[0], vote.excluded, "the voter already holds the synchronous response")
		state, ok := f.publisher.last(EventStateChanged)
		require.True(t, ok)
		assert.Empty(t, state.excluded)
	})

	t.Run("Happy path - exhaustion emits tiebreak_started before state_changed", func(t *testing.T) {
		f := newEngineFixture([]string{"m1", "m2"}, Config{})
		sessionID, _ := exhaustedIntoTieBreak(t, f)

		names := f.publisher.names(sessionID)
		require.GreaterOrEqual(t, len(names), 3)
		assert.Equal(t, []string{EventVoteRecorded, EventTieBreakStarted, EventStateChanged}, names[len(names)-3:])
	})
}

type flakySessionStorage struct {
	storage.SessionStorage
	mu       sync.Mutex
	failures int
}

func (s *flakySessionStorage) PutIfStatus(ctx context.Context, session *storage.Session, expect string) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return storage.ErrConflict
	}
	s.mu.Unlock()
	return s.SessionStorage.PutIfStatus(ctx, session, expect)
}

func TestEngine_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - a lost conditional write is retried and succeeds", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{RetryBackoff: time.Millisecond})
		sessionID, ids := f.startedSession(t, 1)

		flaky := &flakySessionStorage{SessionStorage: f.stores.Sessions}
		f.engine.stores.Sessions = flaky
		flaky.mu.Lock()
		flaky.failures = 2
		flaky.mu.Unlock()

		result, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)

		require.NoError(t, err)
		assert.Equal(t, storage.SessionStatusMatched, result.Status)
	})

	t.Run("Unhappy path - conflicts beyond the retry limit surface as ConflictRetry", func(t *testing.T) {
		f := newEngineFixture([]string{"m1"}, Config{WriteRetries: 2, RetryBackoff: time.Millisecond})
		sessionID, ids := f.startedSession(t, 1)

		flaky := &flakySessionStorage{SessionStorage: f.stores.Sessions}
		f.engine.stores.Sessions = flaky
		flaky.mu.Lock()
		flaky.failures = 10
		flaky.mu.Unlock()

		_, err := f.engine.CastVote(ctx, sessionID, ids[0], "m1", true)

		assert.ErrorIs(t, err, ErrConflictRetry)
	})
}
