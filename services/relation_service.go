package services

import (
	"context"
	"time"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
)

type RelationService struct {
	relations *memstore.Table[portal.Relation]
	now       func() time.Time
}

func NewRelationService(relations *memstore.Table[portal.Relation]) *RelationService {
	return &RelationService{relations: relations, now: time.Now}
}

func (s *RelationService) GetAll(ctx context.Context) ([]portal.Relation, error) {
	return s.relations.All(), nil
}

func (s *RelationService) GetByCoach(ctx context.Context, coachID string) ([]portal.Relation, error) {
	return s.relations.Where(func(r portal.Relation) bool { return r.CoachID == coachID }), nil
}

func (s *RelationService) GetByClient(ctx context.Context, clientID string) ([]portal.Relation, error) {
	return s.relations.Where(func(r portal.Relation) bool { return r.ClientID == clientID }), nil
}

func (s *RelationService) Create(ctx context.Context, coachID, clientID string) (*portal.Relation, error) {
	if coachID == "" || clientID == "" {
		return nil, apperr.Validation("coachId and clientId are required")
	}
	exists := s.relations.Any(func(r portal.Relation) bool {
		return r.CoachID == coachID && r.ClientID == clientID && r.Status == portal.RelationActive
	})
	if exists {
		return nil, apperr.Conflict("client is already linked to this coach")
	}
	created := s.relations.Insert(func(id int) portal.Relation {
		return portal.Relation{
			ID:        id,
			CoachID:   coachID,
			ClientID:  clientID,
			StartDate: s.now(),
			Status:    portal.RelationActive,
		}
	})
	return &created, nil
}

func (s *RelationService) End(ctx context.Context, id int) (*portal.Relation, error) {
	updated, ok := s.relations.Update(id, func(r portal.Relation) portal.Relation {
		r.Status = portal.RelationEnded
		return r
	})
	if !ok {
		return nil, apperr.NotFound("relation with Id %d not found", id)
	}
	return &updated, nil
}
