package journal

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"vigil0/app/pkg/logger"
	"vigil0/app/pkg/types"
)

type appender interface {
	Append(ctx context.Context, ev Event) error
}

// Recorder is the write boundary for the host's request path. Log never
// returns or raises anything: the conversational flow must not notice
// journal failures.
type Recorder struct {
	store   appender
	timeout time.Duration
	nowFn   func() time.Time
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, timeout: 5 * time.Second, nowFn: time.Now}
}

// Log appends one record per completed exchange. Internal failures are
// recorded to the logger and discarded.
func (r *Recorder) Log(prompt, response string, durationMS int64, tools []string, state types.ContextState) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("journal: panic while logging interaction: %v", rec)
		}
	}()

	if r.store == nil {
		return
	}

	now := r.nowFn()
	if !state.Valid() {
		state = types.StateAway
	}
	ev := Event{
		ID:            ulid.Make().String(),
		Timestamp:     now,
		Weekday:       now.Weekday(),
		Hour:          now.Hour(),
		State:         state,
		RequestType:   ClassifyRequest(prompt),
		PromptChars:   len(prompt),
		ResponseChars: len(response),
		DurationMS:    durationMS,
		Tools:         tools,
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Append(ctx, ev); err != nil {
		logger.Error("journal: failed to log interaction: %v", err)
	}
}
