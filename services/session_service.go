package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/yuin/goldmark"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
)

// SessionService manages coaching session notes. Note bodies are markdown
// and can be rendered to HTML for display.
type SessionService struct {
	sessions *memstore.Table[portal.Session]
	markdown goldmark.Markdown
	now      func() time.Time
}

func NewSessionService(sessions *memstore.Table[portal.Session]) *SessionService {
	return &SessionService{
		sessions: sessions,
		markdown: goldmark.New(),
		now:      time.Now,
	}
}

func (s *SessionService) GetAll(ctx context.Context) ([]portal.Session, error) {
	return s.sessions.All(), nil
}

func (s *SessionService) GetByID(ctx context.Context, id int) (*portal.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperr.NotFound("session with Id %d not found", id)
	}
	return &sess, nil
}

func (s *SessionService) GetByCoach(ctx context.Context, coachID string) ([]portal.Session, error) {
	return s.sessions.Where(func(sess portal.Session) bool { return sess.CoachID == coachID }), nil
}

func (s *SessionService) GetByClient(ctx context.Context, clientID string) ([]portal.Session, error) {
	return s.sessions.Where(func(sess portal.Session) bool { return sess.ClientID == clientID }), nil
}

func (s *SessionService) Create(ctx context.Context, sess *portal.Session) (*portal.Session, error) {
	if sess.CoachID == "" || sess.ClientID == "" {
		return nil, apperr.Validation("coachId and clientId are required")
	}
	now := s.now()
	date := sess.Date
	if date.IsZero() {
		date = now
	}
	created := s.sessions.Insert(func(id int) portal.Session {
		return portal.Session{
			ID:              id,
			CoachID:         sess.CoachID,
			ClientID:        sess.ClientID,
			Date:            date,
			DurationMinutes: sess.DurationMinutes,
			Summary:         sess.Summary,
			Notes:           sess.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	})
	return &created, nil
}

func (s *SessionService) Update(ctx context.Context, id int, summary, notes *string, durationMinutes *int) (*portal.Session, error) {
	updated, ok := s.sessions.Update(id, func(sess portal.Session) portal.Session {
		if summary != nil {
			sess.Summary = *summary
		}
		if notes != nil {
			sess.Notes = *notes
		}
		if durationMinutes != nil {
			sess.DurationMinutes = *durationMinutes
		}
		sess.UpdatedAt = s.now()
		return sess
	})
	if !ok {
		return nil, apperr.NotFound("session with Id %d not found", id)
	}
	return &updated, nil
}

func (s *SessionService) Delete(ctx context.Context, id int) error {
	if _, ok := s.sessions.Delete(id); !ok {
		return apperr.NotFound("session with Id %d not found", id)
	}
	return nil
}

// RenderNotes converts a session's markdown notes to HTML.
func (s *SessionService) RenderNotes(ctx context.Context, id int) (string, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return "", apperr.NotFound("session with Id %d not found", id)
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(sess.Notes), &buf); err != nil {
		return "", fmt.Errorf("failed to render session notes: %w", err)
	}
	return buf.String(), nil
}
