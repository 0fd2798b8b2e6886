package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/netplexflix/what-to-watch/api/models"
	"github.com/netplexflix/what-to-watch/api/transport"
	"github.com/netplexflix/what-to-watch/identity"
	"github.com/netplexflix/what-to-watch/logging"
	"github.com/netplexflix/what-to-watch/session"
)

// writeEngineError maps the engine's sentinels onto HTTP. Conflicts are
// retryable by the client; gone means the session reached `completed`.
func writeEngineError(g *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "session not found"})
	case errors.Is(err, session.ErrInvalidParticipant):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "not a participant of this session"})
	case errors.Is(err, session.ErrNotHost):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "only the host can do that"})
	case errors.Is(err, session.ErrSessionClosed):
		g.JSON(http.StatusGone, &models.ErrorResponse{Error: "session is completed"})
	case errors.Is(err, session.ErrSessionStarted):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "session already started"})
	case errors.Is(err, session.ErrSessionNotActive):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "operation does not fit the session state"})
	case errors.Is(err, session.ErrEmptyQueue):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "no library items matched the filters"})
	case errors.Is(err, session.ErrInvalidItem):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "item is not part of this session"})
	case errors.Is(err, session.ErrConflictRetry):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "write conflict, retry the request"})
	case errors.Is(err, identity.ErrInvalidToken):
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "plex token was rejected"})
	default:
		logging.Log.Errorf("unhandled engine error: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "internal error"})
	}
}

// sessionClaims returns the validated claims when they belong to the session
// in the path. A token minted for another session is treated as a stranger.
func sessionClaims(g *gin.Context) (*identity.Claims, bool) {
	claims := transport.ClaimsFrom(g)
	if claims == nil || claims.SessionID != g.Param("id") {
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "token does not match session"})
		return nil, false
	}
	return claims, true
}
