package diaryform

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"dreamSyncAPI/internal/diary"
)

// SQLiteDraftStore implements DraftStore on a local sqlite file so drafts
// survive a restart of the portal process, mirroring browser local storage.
type SQLiteDraftStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteDraftStore opens (creating if needed) the draft database at
// path. Use ":memory:" for a throwaway store.
func OpenSQLiteDraftStore(path string) (*SQLiteDraftStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS diary_drafts (
		client_id TEXT PRIMARY KEY,
		payload   TEXT NOT NULL,
		saved_at  TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init draft store schema: %w", err)
	}
	return &SQLiteDraftStore{db: db, now: time.Now}, nil
}

func (s *SQLiteDraftStore) Get(ctx context.Context, clientID string) (*diary.Draft, error) {
	var payload, savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM diary_drafts WHERE client_id = ?`, clientID).
		Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var d diary.Draft
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft payload: %w", err)
	}
	if s.now().Sub(d.Timestamp) > diary.DraftTTL {
		_ = s.Clear(ctx, clientID)
		return nil, nil
	}
	return &d, nil
}

func (s *SQLiteDraftStore) Put(ctx context.Context, clientID string, draft *diary.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diary_drafts (client_id, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(client_id) DO UPDATE SET payload=excluded.payload, saved_at=excluded.saved_at`,
		clientID, string(payload), draft.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *SQLiteDraftStore) Clear(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM diary_drafts WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

func (s *SQLiteDraftStore) Close() error {
	return s.db.Close()
}
