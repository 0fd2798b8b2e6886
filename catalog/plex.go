package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/netplexflix/what-to-watch/logging"
)

// Client lists candidates from a Plex Media Server. Response metadata is
// kept as raw JSON and passed through to clients untouched.
type Client struct {
	BaseURL        string
	Token          string
	MovieSectionID string
	ShowSectionID  string
	HTTPClient     *http.Client
}

func NewClient(baseURL, token, movieSectionID, showSectionID string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		Token:          token,
		MovieSectionID: movieSectionID,
		ShowSectionID:  showSectionID,
		HTTPClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

type plexEnvelope struct {
	MediaContainer struct {
		Size     int               `json:"size"`
		Metadata []json.RawMessage `json:"Metadata"`
	} `json:"MediaContainer"`
}

type plexItemKey struct {
	RatingKey string `json:"ratingKey"`
}

func (c *Client) ListCandidates(ctx context.Context, filters Filters) ([]Item, error) {
	sectionID, mediaType, err := c.section(filters.MediaKind)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("type", mediaType)
	if filters.Genre != "" {
		query.Set("genre", filters.Genre)
	}
	if filters.YearFrom > 0 {
		query.Set("year>>", strconv.Itoa(filters.YearFrom-1))
	}
	if filters.YearTo > 0 {
		query.Set("year<<", strconv.Itoa(filters.YearTo+1))
	}
	if filters.MaxRuntimeMin > 0 {
		query.Set("duration<<", strconv.Itoa(filters.MaxRuntimeMin*60*1000+1))
	}
	if filters.UnwatchedOnly {
		query.Set("unwatched", "1")
	}

	endpoint := fmt.Sprintf("%s/library/sections/%s/all?%s", c.BaseURL, sectionID, query.Encode())
	return c.fetchItems(ctx, endpoint)
}

func (c *Client) GetItems(ctx context.Context, itemIDs []string) ([]Item, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/library/metadata/%s", c.BaseURL, strings.Join(itemIDs, ","))
	return c.fetchItems(ctx, endpoint)
}

func (c *Client) fetchItems(ctx context.Context, endpoint string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.Log.Errorf("CATALOG: plex request failed: %v", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logging.Log.Errorf("CATALOG: plex returned status %d for %s", resp.StatusCode, endpoint)
		return nil, fmt.Errorf("plex: unexpected status %d", resp.StatusCode)
	}

	var envelope plexEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		logging.Log.Errorf("CATALOG: failed to decode plex response: %v", err)
		return nil, err
	}

	items := make([]Item, 0, len(envelope.MediaContainer.Metadata))
	for _, raw := range envelope.MediaContainer.Metadata {
		var key plexItemKey
		if err := json.Unmarshal(raw, &key); err != nil || key.RatingKey == "" {
			logging.Log.Warnf("CATALOG: skipping plex item without ratingKey")
			continue
		}
		items = append(items, Item{ID: key.RatingKey, Payload: raw})
	}
	return items, nil
}

func (c *Client) section(mediaKind string) (sectionID, mediaType string, err error) {
	switch mediaKind {
	case KindMovie:
		sectionID, mediaType = c.MovieSectionID, "1"
	case KindShow:
		sectionID, mediaType = c.ShowSectionID, "2"
	default:
		return "", "", fmt.Errorf("plex: unsupported media kind %q", mediaKind)
	}
	if sectionID == "" {
		return "", "", fmt.Errorf("plex: no library section configured for %s", mediaKind)
	}
	return sectionID, mediaType, nil
}
