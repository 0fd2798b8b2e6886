package catalog

import (
	"context"
	"encoding/json"
)

// Media kinds a session can be created for.
const (
	KindMovie = "movie"
	KindShow  = "show"
)

// Item is one candidate. The payload is the provider's raw metadata, passed
// through untouched - the picking flow only ever keys on the id.
type Item struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Filters narrows the candidate listing. Zero values mean "no constraint".
type Filters struct {
	MediaKind     string
	Genre         string
	YearFrom      int
	YearTo        int
	MaxRuntimeMin int
	UnwatchedOnly bool
}

// Provider lists pickable items from a media library. ListCandidates order
// is significant: it becomes the session's canonical queue order.
type Provider interface {
	ListCandidates(ctx context.Context, filters Filters) ([]Item, error)
	GetItems(ctx context.Context, itemIDs []string) ([]Item, error)
}
