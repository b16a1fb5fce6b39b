package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vigil0/app/pkg/logger"
	"vigil0/app/pkg/types"
)

// Event is one recorded assistant exchange. Records are append-only: the
// store exposes no update or delete.
type Event struct {
	ID            string
	Timestamp     time.Time
	Weekday       time.Weekday
	Hour          int
	State         types.ContextState
	RequestType   string
	PromptChars   int
	ResponseChars int
	DurationMS    int64
	Tools         []string
}

type Store struct {
	conn *sql.DB
}

func Open(dataDir string) (*Store, error) {
	conn, err := openDB(dataDir)
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Append(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		return fmt.Errorf("journal: event id is required")
	}
	toolsJSON := "[]"
	if len(ev.Tools) > 0 {
		data, err := json.Marshal(ev.Tools)
		if err != nil {
			return fmt.Errorf("journal: encode tools: %w", err)
		}
		toolsJSON = string(data)
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO interactions (id, ts, weekday, hour, state, request_type, prompt_chars, response_chars, duration_ms, tools_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Timestamp.Unix(),
		int(ev.Weekday),
		ev.Hour,
		string(ev.State),
		ev.RequestType,
		ev.PromptChars,
		ev.ResponseChars,
		ev.DurationMS,
		toolsJSON,
	)
	return err
}

// Events returns completed records with from <= ts < to, oldest first.
// Malformed rows are skipped with a warning; they never fail the read.
func (s *Store) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, ts, weekday, hour, state, request_type, prompt_chars, response_chars, duration_ms, COALESCE(tools_json, '[]')
		 FROM interactions WHERE ts >= ? AND ts < ? ORDER BY ts ASC`,
		from.Unix(), to.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev        Event
			ts        int64
			weekday   int
			state     string
			toolsJSON string
		)
		if err := rows.Scan(&ev.ID, &ts, &weekday, &ev.Hour, &state, &ev.RequestType,
			&ev.PromptChars, &ev.ResponseChars, &ev.DurationMS, &toolsJSON); err != nil {
			logger.Warn("journal: skipping unreadable record: %v", err)
			continue
		}
		ev.Timestamp = time.Unix(ts, 0)
		ev.Weekday = time.Weekday(weekday)
		parsed, ok := types.Parse(state)
		if !ok {
			logger.Warn("journal: record %s has unknown state %q", ev.ID, state)
		}
		ev.State = parsed
		if err := json.Unmarshal([]byte(toolsJSON), &ev.Tools); err != nil {
			logger.Warn("journal: record %s has malformed tools, skipping: %v", ev.ID, err)
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count reports the total number of recorded interactions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n)
	return n, err
}
