package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netplexflix/what-to-watch/api/models"
	"github.com/netplexflix/what-to-watch/identity"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/session"
)

type SessionController struct {
	engine   *session.Engine
	resolver identity.Resolver
	tokens   *identity.Tokens
}

func NewSessionController(engine *session.Engine, resolver identity.Resolver, tokens *identity.Tokens) *SessionController {
	return &SessionController{
		engine:   engine,
		resolver: resolver,
		tokens:   tokens,
	}
}

func (c *SessionController) RegisterRoutes(engine *gin.Engine, auth gin.HandlerFunc) {
	group := engine.Group("/api")

	group.POST("/sessions", c.createSession)
	group.POST("/sessions/join", c.joinSession)

	authed := group.Group("/sessions/:id", auth)
	authed.GET("", c.getSnapshot)
	authed.GET("/queue", c.getQueue)
	authed.POST("/start", c.startSession)
	authed.POST("/leave", c.leaveSession)
	authed.POST("/complete", c.completeSession)
}

// displayName resolves who the caller is. A Plex token wins over the free
// text name; a caller with neither is rejected.
func (c *SessionController) displayName(g *gin.Context, name, plexToken string) (string, bool, error) {
	if plexToken == "" {
		return name, true, nil
	}
	profile, err := c.resolver.Resolve(g.Request.Context(), plexToken)
	if err != nil {
		return "", false, err
	}
	if name == "" {
		name = profile.DisplayName
	}
	return name, false, nil
}

// createSession godoc
// @Summary Create a picking session
// @Description Creates a session against the media library, enrolls the caller as host and returns their participant token
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body models.CreateSessionRequest true "Session setup"
// @Success 200 {object} models.EnterSessionResponse
// @Failure 400 {object} models.ErrorResponse "Invalid session data"
// @Failure 401 {object} models.ErrorResponse "Plex token rejected"
// @Failure 500 {object} models.ErrorResponse "Unexpected internal error"
// @Router /api/sessions [post]
func (c *SessionController) createSession(g *gin.Context) {
	var req models.CreateSessionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	name, guest, err := c.displayName(g, req.DisplayName, req.PlexToken)
	if err != nil {
		writeEngineError(g, err)
		return
	}
	if name == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "displayName or plexToken is required"})
		return
	}

	result, err := c.engine.CreateSession(g.Request.Context(), session.CreateSessionParams{
		MediaKind: req.MediaKind,
		Filters:   req.Filters.ToStorage(),
		HostName:  name,
		HostGuest: guest,
	})
	if err != nil {
		writeEngineError(g, err)
		return
	}

	token, err := c.tokens.Issue(result.Session.ID, result.Host.ID, true)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to issue host token: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not issue participant token"})
		return
	}

	g.JSON(http.StatusOK, &models.EnterSessionResponse{
		Session:     models.TransformSession(result.Session),
		Participant: models.TransformParticipant(result.Host),
		Token:       token,
	})
}

// joinSession godoc
// @Summary Join a session by code
// @Description Enrolls the caller into a waiting session and returns their participant token
// @Tags sessions
// @Accept json
// @Produce json
// @Param join body models.JoinSessionRequest true "Join request"
// @Success 200 {object} models.EnterSessionResponse
// @Failure 400 {object} models.ErrorResponse "Invalid join data"
// @Failure 404 {object} models.ErrorResponse "Unknown join code"
// @Failure 409 {object} models.ErrorResponse "Session already started"
// @Failure 410 {object} models.ErrorResponse "Session completed"
// @Router /api/sessions/join [post]
func (c *SessionController) joinSession(g *gin.Context) {
	var req models.JoinSessionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	name, guest, err := c.displayName(g, req.DisplayName, req.PlexToken)
	if err != nil {
		writeEngineError(g, err)
		return
	}
	if name == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "displayName or plexToken is required"})
		return
	}

	result, err := c.engine.JoinSession(g.Request.Context(), session.JoinSessionParams{
		Code:        req.Code,
		DisplayName: name,
		Guest:       guest,
	})
	if err != nil {
		writeEngineError(g, err)
		return
	}

	token, err := c.tokens.Issue(result.Session.ID, result.Participant.ID, false)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to issue participant token: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not issue participant token"})
		return
	}

	g.JSON(http.StatusOK, &models.EnterSessionResponse{
		Session:     models.TransformSession(result.Session),
		Participant: models.TransformParticipant(result.Participant),
		Token:       token,
	})
}

// startSession godoc
// @Summary Start swiping
// @Description Pins the candidate queue from the library and opens the session for votes
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 403 {object} models.ErrorResponse "Not the host"
// @Failure 409 {object} models.ErrorResponse "Already started or nothing matched the filters"
// @Security ParticipantToken
// @Router /api/sessions/{id}/start [post]
func (c *SessionController) startSession(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	started, err := c.engine.StartSession(g.Request.Context(), claims.SessionID, claims.ParticipantID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	response := models.TransformSession(started)
	g.JSON(http.StatusOK, &response)
}

// getSnapshot godoc
// @Summary Session snapshot
// @Description Returns the session, roster, per-member progress and the caller's own votes. Tallies appear once swiping closed.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SnapshotResponse
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 404 {object} models.ErrorResponse "Unknown session"
// @Security ParticipantToken
// @Router /api/sessions/{id} [get]
func (c *SessionController) getSnapshot(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	snapshot, err := c.engine.Snapshot(g.Request.Context(), claims.SessionID, claims.ParticipantID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	response := models.TransformSnapshot(snapshot)
	g.JSON(http.StatusOK, &response)
}

// getQueue godoc
// @Summary Candidate queue
// @Description Returns the pinned queue in canonical order with library payloads
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} models.QueueItemResponse
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 409 {object} models.ErrorResponse "Session not started yet"
// @Security ParticipantToken
// @Router /api/sessions/{id}/queue [get]
func (c *SessionController) getQueue(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	items, err := c.engine.Queue(g.Request.Context(), claims.SessionID, claims.ParticipantID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	g.JSON(http.StatusOK, models.TransformQueue(items))
}

// leaveSession godoc
// @Summary Leave a session
// @Description Removes the caller from the roster; the session re-evaluates without them
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 410 {object} models.ErrorResponse "Session completed"
// @Security ParticipantToken
// @Router /api/sessions/{id}/leave [post]
func (c *SessionController) leaveSession(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	if err := c.engine.LeaveSession(g.Request.Context(), claims.SessionID, claims.ParticipantID); err != nil {
		writeEngineError(g, err)
		return
	}

	snapshot, err := c.engine.Snapshot(g.Request.Context(), claims.SessionID, claims.ParticipantID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	response := models.TransformSession(snapshot.Session)
	g.JSON(http.StatusOK, &response)
}

// completeSession godoc
// @Summary Complete a session
// @Description Host-only: pins the session in its terminal state, no further writes are accepted
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 403 {object} models.ErrorResponse "Not the host"
// @Failure 410 {object} models.ErrorResponse "Already completed"
// @Security ParticipantToken
// @Router /api/sessions/{id}/complete [post]
func (c *SessionController) completeSession(g *gin.Context) {
	claims, ok := sessionClaims(g)
	if !ok {
		return
	}

	completed, err := c.engine.CompleteSession(g.Request.Context(), claims.SessionID, claims.ParticipantID)
	if err != nil {
		writeEngineError(g, err)
		return
	}

	response := models.TransformSession(completed)
	g.JSON(http.StatusOK, &response)
}
