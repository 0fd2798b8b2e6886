package session

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplexflix/what-to-watch/storage"
)

func TestRoundItems(t *testing.T) {
	t.Run("Happy path - items tied for first form the round", func(t *testing.T) {
		ranking := []Tally{
			{ItemID: "m1", Yes: 3},
			{ItemID: "m2", Yes: 3},
			{ItemID: "m3", Yes: 3},
			{ItemID: "m4", Yes: 1},
		}

		assert.Equal(t, []string{"m1", "m2", "m3"}, roundItems(ranking, 3))
	})

	t.Run("Happy path - a lone leader is not auto-picked, the top of the ranking runs", func(t *testing.T) {
		ranking := []Tally{
			{ItemID: "m1", Yes: 4},
			{ItemID: "m2", Yes: 2},
			{ItemID: "m3", Yes: 1},
			{ItemID: "m4", Yes: 1},
		}

		assert.Equal(t, []string{"m1", "m2", "m3"}, roundItems(ranking, 3))
	})

	t.Run("Happy path - the cap never cuts a first-place tie", func(t *testing.T) {
		ranking := []Tally{
			{ItemID: "m1", Yes: 2},
			{ItemID: "m2", Yes: 2},
			{ItemID: "m3", Yes: 2},
			{ItemID: "m4", Yes: 2},
		}

		assert.Len(t, roundItems(ranking, 3), 4)
	})

	t.Run("Happy path - a single liked item runs alone", func(t *testing.T) {
		ranking := []Tally{{ItemID: "m1", Yes: 1}}

		assert.Equal(t, []string{"m1"}, roundItems(ranking, 3))
	})

	t.Run("Unhappy path - empty ranking yields no round", func(t *testing.T) {
		assert.Nil(t, roundItems(nil, 3))
	})
}

func TestResolveBallots(t *testing.T) {
	round := []string{"m1", "m2", "m3"}

	t.Run("Happy path - plurality winner", func(t *testing.T) {
		ballots := []*storage.FinalVote{
			{ParticipantID: "p1", ItemID: "m1", Round: 1},
			{ParticipantID: "p2", ItemID: "m1", Round: 1},
			{ParticipantID: "p3", ItemID: "m2", Round: 1},
		}

		winner, tied := resolveBallots(round, ballots, 1)

		assert.Equal(t, "m1", winner)
		assert.Nil(t, tied)
	})

	t.Run("Happy path - top tie is returned for the draw", func(t *testing.T) {
		ballots := []*storage.FinalVote{
			{ParticipantID: "p1", ItemID: "m1", Round: 1},
			{ParticipantID: "p2", ItemID: "m2", Round: 1},
		}

		winner, tied := resolveBallots(round, ballots, 1)

		assert.Empty(t, winner)
		assert.ElementsMatch(t, []string{"m1", "m2"}, tied)
	})

	t.Run("Happy path - stale-round ballots are ignored", func(t *testing.T) {
		ballots := []*storage.FinalVote{
			{ParticipantID: "p1", ItemID: "m3", Round: 1},
			{ParticipantID: "p2", ItemID: "m1", Round: 2},
		}

		winner, tied := resolveBallots(round, ballots, 2)

		assert.Equal(t, "m1", winner)
		assert.Nil(t, tied)
	})

	t.Run("Unhappy path - no ballots ties the whole round set", func(t *testing.T) {
		winner, tied := resolveBallots(round, nil, 1)

		assert.Empty(t, winner)
		assert.ElementsMatch(t, round, tied)
	})
}

func TestTieBreakComplete(t *testing.T) {
	t.Run("Happy path - complete once every active member balloted", func(t *testing.T) {
		ballots := []*storage.FinalVote{
			{ParticipantID: "p1", ItemID: "m1", Round: 1},
			{ParticipantID: "p2", ItemID: "m2", Round: 1},
		}

		assert.True(t, tieBreakComplete([]string{"p1", "p2"}, ballots, 1))
		assert.False(t, tieBreakComplete([]string{"p1", "p2", "p3"}, ballots, 1))
	})

	t.Run("Happy path - an abandoned round counts as complete", func(t *testing.T) {
		assert.True(t, tieBreakComplete(nil, nil, 1))
	})

	t.Run("Happy path - ballots from earlier rounds do not satisfy the current one", func(t *testing.T) {
		ballots := []*storage.FinalVote{{ParticipantID: "p1", ItemID: "m1", Round: 1}}

		assert.False(t, tieBreakComplete([]string{"p1"}, ballots, 2))
	})
}

func TestDraw_Determinism(t *testing.T) {
	t.Run("Happy path - same tied set and nonce always land on the same winner", func(t *testing.T) {
		tied := []string{"m3", "m1", "m2"}
		nonce := "4fa2c920-9df1-4d0e-a9b1-2f9f6bfae001"

		seed := drawSeed(tied, nonce)
		winner := draw(tied, seed)
		for i := 0; i < 10; i++ {
			assert.Equal(t, seed, drawSeed(tied, nonce))
			assert.Equal(t, winner, draw(tied, seed))
		}
	})

	t.Run("Happy path - id order does not change the seed", func(t *testing.T) {
		nonce := "nonce-1"

		assert.Equal(t,
			drawSeed([]string{"m1", "m2", "m3"}, nonce),
			drawSeed([]string{"m3", "m2", "m1"}, nonce),
		)
	})

	t.Run("Happy path - the winner is always a tied item", func(t *testing.T) {
		tied := []string{"m1", "m2"}
		for i := 0; i < 50; i++ {
			seed := drawSeed(tied, fmt.Sprintf("nonce-%d", i))
			assert.Contains(t, tied, draw(tied, seed))
		}
	})
}

func TestDraw_Uniformity(t *testing.T) {
	t.Run("Happy path - winners spread roughly evenly across nonces", func(t *testing.T) {
		tied := []string{"m1", "m2", "m3"}
		counts := make(map[string]int, len(tied))

		const rounds = 3000
		for i := 0; i < rounds; i++ {
			seed := drawSeed(tied, uuid.NewString())
			counts[draw(tied, seed)]++
		}

		require.Len(t, counts, len(tied))
		expected := rounds / len(tied)
		for itemID, count := range counts {
			assert.InDeltaf(t, expected, count, float64(expected)/4,
				"item %s drawn %d times, expected about %d", itemID, count, expected)
		}
	})
}
