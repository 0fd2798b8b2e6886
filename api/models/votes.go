package models

type CastVoteRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Value  *bool  `json:"value" binding:"required"`
}

type CastVoteResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	// Changed is true when the vote replaced an earlier one on the same item.
	Changed bool `json:"changed"`
}

type RetractVoteResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type FinalVoteRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

type FinalVoteResponse struct {
	Status   string `json:"status"`
	Round    int    `json:"round"`
	Voted    int    `json:"voted"`
	Expected int    `json:"expected"`
}
