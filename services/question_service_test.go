package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/question"
)

func newTestQuestionService() (*QuestionService, *memstore.Table[diary.SleepEntry]) {
	questions := memstore.NewTable(func(q question.Question) int { return q.ID })
	entries := memstore.NewTable(func(e diary.SleepEntry) int { return e.ID })
	return NewQuestionService(questions, entries, zap.NewNop().Sugar()), entries
}

func mustCreateQuestion(t *testing.T, svc *QuestionService, label string, qType question.Type, options []string) *question.Question {
	t.Helper()
	q, err := svc.Create(context.Background(), &question.CreateRequest{
		Label:   label,
		Type:    qType,
		Options: options,
	})
	require.NoError(t, err)
	return q
}

func TestCreateQuestionDefaults(t *testing.T) {
	svc, _ := newTestQuestionService()

	q := mustCreateQuestion(t, svc, "How rested do you feel?", question.TypeScale, nil)

	assert.Equal(t, 1, q.ID)
	assert.True(t, q.IsActive)
	assert.Equal(t, 1, q.DisplayOrder)

	second := mustCreateQuestion(t, svc, "Anything unusual?", question.TypeText, nil)
	assert.Equal(t, 2, second.DisplayOrder, "new questions land at the end")
}

func TestCreateQuestionValidation(t *testing.T) {
	svc, _ := newTestQuestionService()

	tests := []struct {
		name    string
		req     question.CreateRequest
		wantErr bool
	}{
		{"missing label", question.CreateRequest{Type: question.TypeText}, true},
		{"unknown type", question.CreateRequest{Label: "x", Type: "dropdown"}, true},
		{"radio without options", question.CreateRequest{Label: "Nap today?", Type: question.TypeRadio}, true},
		{"multi without options", question.CreateRequest{Label: "Evening habits?", Type: question.TypeMulti}, true},
		{"radio with options", question.CreateRequest{Label: "Nap today?", Type: question.TypeRadio, Options: []string{"Yes", "No"}}, false},
		{"scale needs no options", question.CreateRequest{Label: "Sleep quality?", Type: question.TypeScale}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			if tt.wantErr {
				var validationErr *apperr.ValidationError
				require.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateQuestionRevalidates(t *testing.T) {
	svc, _ := newTestQuestionService()
	q := mustCreateQuestion(t, svc, "Sleep quality?", question.TypeScale, nil)

	// Switching to radio without supplying options must fail.
	radio := question.TypeRadio
	_, err := svc.Update(context.Background(), q.ID, &question.Patch{Type: &radio})
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// With options it goes through.
	updated, err := svc.Update(context.Background(), q.ID, &question.Patch{
		Type:    &radio,
		Options: &[]string{"Good", "Bad"},
	})
	require.NoError(t, err)
	assert.Equal(t, question.TypeRadio, updated.Type)
	assert.Equal(t, []string{"Good", "Bad"}, updated.Options)
}

func TestUpdateQuestionLogicJSON(t *testing.T) {
	svc, _ := newTestQuestionService()
	q, err := svc.Create(context.Background(), &question.CreateRequest{
		Label:     "Wakeups?",
		Type:      question.TypeNumber,
		LogicJSON: json.RawMessage(`{"showIf":{"fieldKey":"minutesToFallAsleep","gte":0}}`),
	})
	require.NoError(t, err)
	require.NotNil(t, q.LogicJSON)

	// An absent logicJson leaves the rules alone.
	newLabel := "Night wakeups?"
	updated, err := svc.Update(context.Background(), q.ID, &question.Patch{Label: &newLabel})
	require.NoError(t, err)
	assert.NotNil(t, updated.LogicJSON)

	// A literal null clears them.
	updated, err = svc.Update(context.Background(), q.ID, &question.Patch{LogicJSON: json.RawMessage("null")})
	require.NoError(t, err)
	assert.Nil(t, updated.LogicJSON)
}

func TestDeleteQuestionWithAnswersRejected(t *testing.T) {
	svc, entries := newTestQuestionService()
	core, err := svc.Create(context.Background(), &question.CreateRequest{
		Label:    "Sleep quality?",
		Type:     question.TypeScale,
		FieldKey: "sleepQuality",
	})
	require.NoError(t, err)
	custom := mustCreateQuestion(t, svc, "Nap today?", question.TypeRadio, []string{"Yes", "No"})

	entries.Insert(func(id int) diary.SleepEntry {
		return diary.SleepEntry{ID: id, ClientID: "2", Date: "2024-03-10", SleepQuality: 7}
	})

	err = svc.Delete(context.Background(), core.ID)
	var conflictErr *apperr.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	_, err = svc.GetByID(context.Background(), core.ID)
	assert.NoError(t, err, "question survives the rejected delete")

	// Archiving is the sanctioned way out.
	archived, err := svc.Archive(context.Background(), core.ID)
	require.NoError(t, err)
	assert.False(t, archived.IsActive)

	// A custom question has no recorded answers and may go.
	assert.NoError(t, svc.Delete(context.Background(), custom.ID))
}

func TestArchiveAndActivate(t *testing.T) {
	svc, _ := newTestQuestionService()
	q := mustCreateQuestion(t, svc, "Out of bed time?", question.TypeTime, nil)

	archived, err := svc.Archive(context.Background(), q.ID)
	require.NoError(t, err)
	assert.False(t, archived.IsActive)

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	list, err := svc.GetArchived(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)

	restored, err := svc.Activate(context.Background(), q.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
}

func TestReorderQuestions(t *testing.T) {
	svc, _ := newTestQuestionService()
	first := mustCreateQuestion(t, svc, "Bed time?", question.TypeTime, nil)
	second := mustCreateQuestion(t, svc, "Wake time?", question.TypeTime, nil)
	third := mustCreateQuestion(t, svc, "Quality?", question.TypeScale, nil)

	reordered, err := svc.Reorder(context.Background(), []question.ReorderItem{
		{ID: third.ID, DisplayOrder: 1},
		{ID: first.ID, DisplayOrder: 2},
		{ID: second.ID, DisplayOrder: 3},
	})
	require.NoError(t, err)
	require.Len(t, reordered, 3)
	assert.Equal(t, third.ID, reordered[0].ID)
	assert.Equal(t, first.ID, reordered[1].ID)
	assert.Equal(t, second.ID, reordered[2].ID)
}

func TestReorderUnknownIDFailsWholeRequest(t *testing.T) {
	svc, _ := newTestQuestionService()
	q := mustCreateQuestion(t, svc, "Bed time?", question.TypeTime, nil)

	_, err := svc.Reorder(context.Background(), []question.ReorderItem{
		{ID: q.ID, DisplayOrder: 5},
		{ID: 99, DisplayOrder: 1},
	})
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	stored, err := svc.GetByID(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.DisplayOrder, "no position changes on failure")
}

func TestQuestionUpdateNotFound(t *testing.T) {
	svc, _ := newTestQuestionService()

	label := "x"
	_, err := svc.Update(context.Background(), 42, &question.Patch{Label: &label})

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}
