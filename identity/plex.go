package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/netplexflix/what-to-watch/logging"
)

const plexClientIdentifier = "what-to-watch"

// PlexResolver validates Plex account tokens against plex.tv and maps them
// to display names.
type PlexResolver struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewPlexResolver() *PlexResolver {
	return &PlexResolver{
		BaseURL:    "https://plex.tv",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type plexUser struct {
	Username string `json:"username"`
	Title    string `json:"title"`
}

func (r *PlexResolver) Resolve(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/v2/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", token)
	req.Header.Set("X-Plex-Client-Identifier", plexClientIdentifier)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		logging.Log.Errorf("IDENTITY: plex.tv request failed: %v", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		logging.Log.Errorf("IDENTITY: plex.tv returned status %d", resp.StatusCode)
		return nil, fmt.Errorf("plex.tv: unexpected status %d", resp.StatusCode)
	}

	var user plexUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		logging.Log.Errorf("IDENTITY: failed to decode plex.tv response: %v", err)
		return nil, err
	}

	displayName := user.Title
	if displayName == "" {
		displayName = user.Username
	}
	if displayName == "" {
		return nil, ErrInvalidToken
	}
	return &Profile{DisplayName: displayName, Username: user.Username}, nil
}
