package notification

import (
	"context"

	"github.com/google/uuid"
)

// DefaultMaxMessagesPerHour caps how many dunning messages one company may
// trigger inside a single window.
const DefaultMaxMessagesPerHour = 50

// SendLimiter gates dunning sends per company over a sliding one-hour
// window. The first recorded send opens the window; once it expires the
// entry is discarded and the next send opens a fresh one. RecordSend never
// extends an open window.
//
// Implementations must be safe for concurrent use. The in-memory variant
// suits a single scheduler instance; the Redis variant shares state across
// horizontally scaled schedulers.
type SendLimiter interface {
	CanSend(ctx context.Context, companyID uuid.UUID) (bool, error)
	RecordSend(ctx context.Context, companyID uuid.UUID) error
}
