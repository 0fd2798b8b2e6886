package session

import "errors"

// Error taxonomy surfaced by engine operations. Controllers map these onto
// HTTP status codes; everything else is an internal error.
var (
	// ErrSessionNotFound - no session with that id or join code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidParticipant - the caller is not a live member of the session.
	ErrInvalidParticipant = errors.New("participant is not a live member of this session")
	// ErrSessionClosed - the session is completed; all mutations are rejected.
	ErrSessionClosed = errors.New("session is completed")
	// ErrSessionNotActive - the operation needs a different lifecycle phase
	// (voting before start, starting twice, final-voting outside a tie-break).
	ErrSessionNotActive = errors.New("session is not in the right state for this operation")
	// ErrConflictRetry - a conditional write kept losing against concurrent
	// updates; the request is safe to retry.
	ErrConflictRetry = errors.New("conflicting concurrent update, retry")
	// ErrInvalidItem - the item is not part of the session's candidate queue
	// (or not part of the current tie-break round).
	ErrInvalidItem = errors.New("item is not in the candidate set")
	// ErrNotHost - the operation is reserved for the session host.
	ErrNotHost = errors.New("only the host can do this")
	// ErrSessionStarted - joining is only possible while the session waits.
	ErrSessionStarted = errors.New("session already started")
	// ErrEmptyQueue - the catalog returned nothing for the session filters.
	ErrEmptyQueue = errors.New("no candidates matched the session filters")
)
