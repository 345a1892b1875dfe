package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/question"
)

// QuestionService manages the coach-editable diary questionnaire. The
// entries table backs the delete guard: a core question whose field already
// appears in logged diary entries can only be archived, never deleted.
type QuestionService struct {
	questions *memstore.Table[question.Question]
	entries   *memstore.Table[diary.SleepEntry]
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewQuestionService(questions *memstore.Table[question.Question], entries *memstore.Table[diary.SleepEntry], log *zap.SugaredLogger) *QuestionService {
	return &QuestionService{
		questions: questions,
		entries:   entries,
		log:       log,
		now:       time.Now,
	}
}

func (s *QuestionService) GetAll(ctx context.Context) ([]question.Question, error) {
	return sortByDisplayOrder(s.questions.All()), nil
}

func (s *QuestionService) GetByID(ctx context.Context, id int) (*question.Question, error) {
	q, ok := s.questions.Get(id)
	if !ok {
		return nil, apperr.NotFound("question with Id %d not found", id)
	}
	return &q, nil
}

// GetActive returns the questions the diary form renders, in display order.
func (s *QuestionService) GetActive(ctx context.Context) ([]question.Question, error) {
	return sortByDisplayOrder(s.questions.Where(func(q question.Question) bool { return q.IsActive })), nil
}

func (s *QuestionService) GetArchived(ctx context.Context) ([]question.Question, error) {
	return sortByDisplayOrder(s.questions.Where(func(q question.Question) bool { return !q.IsActive })), nil
}

// Create appends a question to the catalog. New questions land at the end
// of the display order and start active unless the request says otherwise.
func (s *QuestionService) Create(ctx context.Context, req *question.CreateRequest) (*question.Question, error) {
	if err := validateQuestion(req.Label, req.Type, req.Options); err != nil {
		return nil, err
	}

	displayOrder := s.questions.Len() + 1
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.now()
	created := s.questions.Insert(func(id int) question.Question {
		return question.Question{
			ID:           id,
			Label:        req.Label,
			Type:         req.Type,
			Options:      append([]string{}, req.Options...),
			DisplayOrder: displayOrder,
			IsActive:     active,
			LogicJSON:    req.LogicJSON,
			FieldKey:     req.FieldKey,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	})
	s.log.Infow("question created", "id", created.ID, "type", created.Type)
	return &created, nil
}

// Update merges the patch onto the stored question and revalidates the
// resulting label, type, and options together. Id and fieldKey never change.
func (s *QuestionService) Update(ctx context.Context, id int, patch *question.Patch) (*question.Question, error) {
	current, ok := s.questions.Get(id)
	if !ok {
		return nil, apperr.NotFound("question with Id %d not found", id)
	}

	label := current.Label
	if patch.Label != nil {
		label = *patch.Label
	}
	qType := current.Type
	if patch.Type != nil {
		qType = *patch.Type
	}
	options := current.Options
	if patch.Options != nil {
		options = *patch.Options
	}
	if err := validateQuestion(label, qType, options); err != nil {
		return nil, err
	}

	updated, _ := s.questions.Update(id, func(q question.Question) question.Question {
		q.Label = label
		q.Type = qType
		q.Options = append([]string{}, options...)
		if patch.DisplayOrder != nil {
			q.DisplayOrder = *patch.DisplayOrder
		}
		if patch.IsActive != nil {
			q.IsActive = *patch.IsActive
		}
		if patch.LogicJSON != nil {
			if string(patch.LogicJSON) == "null" {
				q.LogicJSON = nil
			} else {
				q.LogicJSON = patch.LogicJSON
			}
		}
		q.UpdatedAt = s.now()
		return q
	})
	return &updated, nil
}

// Delete removes a question that has no recorded answers. Core questions
// with logged diary entries must be archived instead.
func (s *QuestionService) Delete(ctx context.Context, id int) error {
	q, ok := s.questions.Get(id)
	if !ok {
		return apperr.NotFound("question with Id %d not found", id)
	}
	if q.FieldKey != "" && s.entries.Len() > 0 {
		return apperr.Conflict("question %d has existing answers; archive it instead", id)
	}
	s.questions.Delete(id)
	s.log.Infow("question deleted", "id", id)
	return nil
}

// Archive hides a question from the diary form without touching its
// recorded answers.
func (s *QuestionService) Archive(ctx context.Context, id int) (*question.Question, error) {
	return s.setActive(id, false)
}

func (s *QuestionService) Activate(ctx context.Context, id int) (*question.Question, error) {
	return s.setActive(id, true)
}

func (s *QuestionService) setActive(id int, active bool) (*question.Question, error) {
	updated, ok := s.questions.Update(id, func(q question.Question) question.Question {
		q.IsActive = active
		q.UpdatedAt = s.now()
		return q
	})
	if !ok {
		return nil, apperr.NotFound("question with Id %d not found", id)
	}
	return &updated, nil
}

// Reorder applies the requested display positions and returns the full
// catalog in its new order. Unknown ids fail the whole request before any
// position changes.
func (s *QuestionService) Reorder(ctx context.Context, items []question.ReorderItem) ([]question.Question, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("at least one reorder item is required")
	}
	for _, item := range items {
		if _, ok := s.questions.Get(item.ID); !ok {
			return nil, apperr.NotFound("question with Id %d not found", item.ID)
		}
	}
	now := s.now()
	for _, item := range items {
		s.questions.Update(item.ID, func(q question.Question) question.Question {
			q.DisplayOrder = item.DisplayOrder
			q.UpdatedAt = now
			return q
		})
	}
	return sortByDisplayOrder(s.questions.All()), nil
}

func validateQuestion(label string, qType question.Type, options []string) error {
	if label == "" {
		return apperr.Validation("label is required")
	}
	valid := false
	for _, t := range question.ValidTypes {
		if qType == t {
			valid = true
			break
		}
	}
	if !valid {
		return apperr.Validation("type must be one of radio, scale, text, time, number, multi")
	}
	if (qType == question.TypeRadio || qType == question.TypeMulti) && len(options) == 0 {
		return apperr.Validation("%s questions require at least one option", qType)
	}
	return nil
}

func sortByDisplayOrder(qs []question.Question) []question.Question {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].DisplayOrder < qs[j].DisplayOrder })
	return qs
}
