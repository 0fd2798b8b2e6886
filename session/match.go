package session

import (
	"sort"

	"github.com/netplexflix/what-to-watch/storage"
)

// Tally is the live vote count for one candidate. Only votes from current
// roster members count; rows written by participants who later left stay in
// the ledger but no longer weigh in.
type Tally struct {
	ItemID string `json:"itemId"`
	Yes    int    `json:"yes"`
	No     int    `json:"no"`
}

type outcomeKind int

const (
	outcomeNone outcomeKind = iota
	outcomeMatched
	outcomeNoMatch
	outcomeTieBreak
)

// outcome is the result of one detection pass.
type outcome struct {
	kind    outcomeKind
	winner  string
	ranking []Tally
}

// detect classifies the session after any ledger or roster change. It runs
// inside the per-session exclusion scope.
//
// Unanimity first: the earliest candidate (queue order) with a yes from every
// roster member wins. Otherwise, once every roster member holds a live vote
// on every candidate, the queue is exhausted: zero yes votes anywhere parks
// the session in no_match, anything else hands the top-liked ranking to the
// tie-break.
func detect(candidates, roster []string, votes []*storage.Vote) outcome {
	if len(roster) == 0 || len(candidates) == 0 {
		return outcome{kind: outcomeNone}
	}

	live := make(map[string]bool, len(roster))
	for _, id := range roster {
		live[id] = true
	}

	tallies := make(map[string]*Tally, len(candidates))
	coverage := make(map[string]int, len(roster))
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
		coverage[vote.ParticipantID]++
	}

	for _, itemID := range candidates {
		if tally := tallies[itemID]; tally != nil && tally.Yes == len(roster) {
			return outcome{kind: outcomeMatched, winner: itemID}
		}
	}

	for _, id := range roster {
		if coverage[id] != len(candidates) {
			return outcome{kind: outcomeNone}
		}
	}

	ranking := rankTallies(candidates, tallies)
	if len(ranking) == 0 {
		return outcome{kind: outcomeNoMatch}
	}
	return outcome{kind: outcomeTieBreak, ranking: ranking}
}

// rankTallies orders the liked candidates by yes count, candidate-queue
// position breaking ties. Items nobody liked are dropped.
func rankTallies(candidates []string, tallies map[string]*Tally) []Tally {
	ranked := make([]Tally, 0, len(tallies))
	for _, itemID := range candidates {
		if tally := tallies[itemID]; tally != nil && tally.Yes > 0 {
			ranked = append(ranked, *tally)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Yes > ranked[j].Yes
	})
	return ranked
}

// liveRoster extracts the ids of members who joined and have not left.
func liveRoster(participants []*storage.Participant) []string {
	roster := make([]string, 0, len(participants))
	for _, participant := range participants {
		if !participant.Left {
			roster = append(roster, participant.ID)
		}
	}
	return roster
}
