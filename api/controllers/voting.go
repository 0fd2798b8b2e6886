package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netplexflix/what-to-watch/api/models"
	"github.com/netplexflix/what-to-watch/session"
)

type VotingController struct {
	engine *session.Engine
}

func NewVotingController(engine *session.Engine) *VotingController {
	return &VotingController{
		engine: engine,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine, auth gin.HandlerFunc) {
	group := engine.Group("/api/sessions/:id", auth)

	group.POST("/votes", c.castVote)
	group.DELETE("/votes/:itemId", c.retractVote)
	group.POST("/final-votes", c.castFinalVote)
}

// castVote godoc
// @Summary Cast a swipe vote
// @Description Records one yes/no vote on a queue item. Voting again on the same item replaces the earlier vote.
// @Tags voting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param vote body models.CastVoteRequest true "Vote"
// @Success 200 {object} models.CastVoteResponse
// @Failure 400 {object} models.ErrorResponse "Invalid vote data or unknown item"
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 409 {object} models.ErrorResponse "Session not open for swiping, or write conflict"
// @Failure 410 {object} models.ErrorResponse "Session completed"
// @Security ParticipantToken
// @Router /api/sessions/{id}/votes [post]
func (c *VotingController) castVote(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	result, err := c.engine.CastVote(g.Request.Context(), claims.SessionID, claims.ParticipantID, req.ItemID, *req.Value)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.CastVoteResponse{
		Status:   result.Status,
		Progress: result.Progress,
		Changed:  result.Prior != nil,
	})
}

// retractVote godoc
// @Summary Retract a swipe vote
// @Description Removes the caller's vote on one item; retracting an absent vote is a no-op
// @Tags voting
// @Produce json
// @Param id path string true "Session ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} models.RetractVoteResponse
// @Failure 400 {object} models.ErrorResponse "Unknown item"
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 409 {object} models.ErrorResponse "Session not open for swiping, or write conflict"
// @Failure 410 {object} models.ErrorResponse "Session completed"
// @Security ParticipantToken
// @Router /api/sessions/{id}/votes/{itemId} [delete]
func (c *VotingController) retractVote(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	itemID := g.Param("itemId")
	if itemID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "itemId is required"})
		return
	}

	result, err := c.engine.RetractVote(g.Request.Context(), claims.SessionID, claims.ParticipantID, itemID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.RetractVoteResponse{
		Status:   result.Status,
		Progress: result.Progress,
	})
}

// castFinalVote godoc
// @Summary Cast a tie-break ballot
// @Description Picks one item from the tie-break round set. The round resolves once every active member voted.
// @Tags voting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param vote body models.FinalVoteRequest true "Ballot"
// @Success 200 {object} models.FinalVoteResponse
// @Failure 400 {object} models.ErrorResponse "Item is not in the round set"
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 409 {object} models.ErrorResponse "No tie-break in progress"
// @Failure 410 {object} models.ErrorResponse "Session completed"
// @Security ParticipantToken
// @Router /api/sessions/{id}/final-votes [post]
func (c *VotingController) castFinalVote(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	var req models.FinalVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	result, err := c.engine.CastFinalVote(g.Request.Context(), claims.SessionID, claims.ParticipantID, req.ItemID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.FinalVoteResponse{
		Status:   result.Status,
		Round:    result.Round,
		Voted:    result.Voted,
		Expected: result.Expected,
	})
}
