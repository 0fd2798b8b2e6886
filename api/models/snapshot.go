package models

import (
	"encoding/json"

	"github.com/netplexflix/what-to-watch/catalog"
	"github.com/netplexflix/what-to-watch/session"
)

type OwnVoteEntry struct {
	ItemID string `json:"itemId"`
	Value  bool   `json:"value"`
}

type TallyEntry struct {
	ItemID string `json:"itemId"`
	Yes    int    `json:"yes"`
	No     int    `json:"no"`
}

type TieBreakResponse struct {
	Round   int      `json:"round"`
	ItemIDs []string `json:"itemIds"`
	// VotedIDs lists who already cast a ballot this round, not what they chose.
	VotedIDs []string `json:"votedIds"`
}

type SnapshotResponse struct {
	Session      SessionResponse       `json:"session"`
	Participants []ParticipantResponse `json:"participants"`
	Progress     map[string]int        `json:"progress"`
	OwnVotes     []OwnVoteEntry        `json:"ownVotes"`
	Ranking      []TallyEntry          `json:"ranking,omitempty"`
	TieBreak     *TieBreakResponse     `json:"tieBreak,omitempty"`
}

type QueueItemResponse struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func TransformSnapshot(snapshot *session.Snapshot) SnapshotResponse {
	response := SnapshotResponse{
		Session:      TransformSession(snapshot.Session),
		Participants: make([]ParticipantResponse, 0, len(snapshot.Participants)),
		Progress:     snapshot.Progress,
		OwnVotes:     make([]OwnVoteEntry, 0, len(snapshot.OwnVotes)),
	}
	for _, participant := range snapshot.Participants {
		response.Participants = append(response.Participants, TransformParticipant(participant))
	}
	for _, vote := range snapshot.OwnVotes {
		response.OwnVotes = append(response.OwnVotes, OwnVoteEntry{ItemID: vote.ItemID, Value: vote.Value})
	}
	for _, tally := range snapshot.Ranking {
		response.Ranking = append(response.Ranking, TallyEntry{ItemID: tally.ItemID, Yes: tally.Yes, No: tally.No})
	}
	if round := snapshot.Session.TieBreak; round != nil {
		response.TieBreak = &TieBreakResponse{
			Round:    round.Round,
			ItemIDs:  round.ItemIDs,
			VotedIDs: snapshot.RoundBallotIDs,
		}
	}
	return response
}

func TransformQueue(items []catalog.Item) []QueueItemResponse {
	out := make([]QueueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, QueueItemResponse{ID: item.ID, Payload: item.Payload})
	}
	return out
}
