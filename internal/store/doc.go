package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/cityclicker/internal/round"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

// DocStore keeps sessions as JSONB documents in the sessions table. The
// schema is owned by the migrations package.
type DocStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db, now: time.Now}
}

func (s *DocStore) Create(ctx context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, updated_at) VALUES (?, jsonb(?), ?)`,
		sessionKey(token), string(data), s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Load counts as activity: it refreshes updated_at so a player who is only
// watching a game is not purged.
func (s *DocStore) Load(ctx context.Context, token string) (round.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ? RETURNING json(data)`,
		s.stamp(), sessionKey(token),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return round.State{}, ErrNotFound
	}
	if err != nil {
		return round.State{}, err
	}

	var st round.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return round.State{}, fmt.Errorf("decoding session: %w", err)
	}
	return st, nil
}

func (s *DocStore) Save(ctx context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET data = jsonb(?), updated_at = ? WHERE id = ?`,
		string(data), s.stamp(), sessionKey(token),
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge deletes sessions not used since before and reports how many went.
func (s *DocStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`,
		before.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return result.RowsAffected()
}

func (s *DocStore) stamp() string {
	return s.now().UTC().Format(timeFormat)
}
