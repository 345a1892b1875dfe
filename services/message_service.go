package services

import (
	"context"
	"sort"
	"time"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
)

type MessageService struct {
	messages *memstore.Table[portal.Message]
	now      func() time.Time
}

func NewMessageService(messages *memstore.Table[portal.Message]) *MessageService {
	return &MessageService{messages: messages, now: time.Now}
}

func (s *MessageService) GetAll(ctx context.Context) ([]portal.Message, error) {
	return s.messages.All(), nil
}

// GetConversation returns every message between two users ordered by send
// time.
func (s *MessageService) GetConversation(ctx context.Context, userA, userB string) ([]portal.Message, error) {
	msgs := s.messages.Where(func(m portal.Message) bool {
		return (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA)
	})
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	return msgs, nil
}

func (s *MessageService) Send(ctx context.Context, senderID, recipientID, content string) (*portal.Message, error) {
	if senderID == "" || recipientID == "" || content == "" {
		return nil, apperr.Validation("senderId, recipientId, and content are required")
	}
	created := s.messages.Insert(func(id int) portal.Message {
		return portal.Message{
			ID:          id,
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     content,
			SentAt:      s.now(),
		}
	})
	return &created, nil
}

func (s *MessageService) MarkAsRead(ctx context.Context, id int) (*portal.Message, error) {
	updated, ok := s.messages.Update(id, func(m portal.Message) portal.Message {
		m.Read = true
		return m
	})
	if !ok {
		return nil, apperr.NotFound("message with Id %d not found", id)
	}
	return &updated, nil
}

func (s *MessageService) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	return len(s.messages.Where(func(m portal.Message) bool {
		return m.RecipientID == recipientID && !m.Read
	})), nil
}
