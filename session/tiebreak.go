package session

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sort"
	"strings"

	"github.com/netplexflix/what-to-watch/storage"
)

// roundItems picks the candidate set for a final-vote round from the
// top-liked ranking. All items tied for first run when at least two are
// tied; a lone leader is never auto-picked, the round runs over the top of
// the ranking instead, capped at maxItems.
func roundItems(ranking []Tally, maxItems int) []string {
	if len(ranking) == 0 {
		return nil
	}

	tied := []string{ranking[0].ItemID}
	for _, tally := range ranking[1:] {
		if tally.Yes != ranking[0].Yes {
			break
		}
		tied = append(tied, tally.ItemID)
	}
	if len(tied) >= 2 {
		return tied
	}

	if maxItems < 2 {
		maxItems = 2
	}
	top := make([]string, 0, maxItems)
	for _, tally := range ranking {
		top = append(top, tally.ItemID)
		if len(top) == maxItems {
			break
		}
	}
	return top
}

// resolveBallots counts one round's ballots and returns either the plurality
// winner or the items tied at the top. With no ballots at all the whole
// round set counts as tied.
func resolveBallots(roundItemIDs []string, ballots []*storage.FinalVote, round int) (string, []string) {
	counts := make(map[string]int, len(roundItemIDs))
	for _, ballot := range ballots {
		if ballot.Round == round {
			counts[ballot.ItemID]++
		}
	}

	top := 0
	for _, count := range counts {
		if count > top {
			top = count
		}
	}

	var tied []string
	for _, itemID := range roundItemIDs {
		if counts[itemID] == top {
			tied = append(tied, itemID)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}
	return "", tied
}

// roundBallotIDs lists the participants holding a live ballot in the round.
func roundBallotIDs(ballots []*storage.FinalVote, round int) []string {
	var ids []string
	for _, ballot := range ballots {
		if ballot.Round == round {
			ids = append(ids, ballot.ParticipantID)
		}
	}
	return ids
}

// tieBreakComplete reports whether every active roster member has cast a
// ballot this round. An empty active roster counts as complete so a session
// abandoned mid-round still resolves.
func tieBreakComplete(active []string, ballots []*storage.FinalVote, round int) bool {
	balloted := make(map[string]bool)
	for _, id := range roundBallotIDs(ballots, round) {
		balloted[id] = true
	}
	for _, id := range active {
		if !balloted[id] {
			return false
		}
	}
	return true
}

// drawSeed derives the deterministic seed for a random draw: a hash over the
// sorted tied ids plus a fresh nonce, truncated to 64 bits. Publishing the
// seed and the tied set lets every client replay the exact draw.
func drawSeed(itemIDs []string, nonce string) int64 {
	sorted := append([]string(nil), itemIDs...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "|") + "|" + nonce))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// draw picks the winner among the tied items with a generator seeded by
// drawSeed. Same seed, same tied set, same winner - on the server and on
// every replaying client.
func draw(itemIDs []string, seed int64) string {
	sorted := append([]string(nil), itemIDs...)
	sort.Strings(sorted)
	rng := rand.New(rand.NewSource(seed))
	return sorted[rng.Intn(len(sorted))]
}
