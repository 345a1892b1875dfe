package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/memstore"
)

func newTestGoalService(now time.Time) *GoalService {
	goals := memstore.NewTable(func(g goal.Goal) int { return g.ID })
	assignments := memstore.NewTable(func(a goal.Assignment) int { return a.ID })
	progress := memstore.NewTable(func(p goal.Progress) int { return p.ID })
	svc := NewGoalService(goals, assignments, progress, zap.NewNop().Sugar())
	svc.now = func() time.Time { return now }
	return svc
}

func mustCreateGoal(t *testing.T, svc *GoalService, title string) *goal.Goal {
	t.Helper()
	g, err := svc.Create(context.Background(), &goal.CreateGoalRequest{
		Title:       title,
		Description: "desc",
		Category:    goal.CategorySleepHygiene,
	})
	require.NoError(t, err)
	return g
}

func TestCreateGoalDefaults(t *testing.T) {
	svc := newTestGoalService(time.Now())

	g := mustCreateGoal(t, svc, "No screens after 10pm")

	assert.Equal(t, 1, g.ID)
	assert.True(t, g.Active)
	assert.Equal(t, goal.TypeTemplate, g.GoalType)
	assert.NotNil(t, g.Dependencies)
	assert.Empty(t, g.Dependencies)
	assert.NotNil(t, g.CelebrationMilestones)
}

func TestCreateGoalRequiresFields(t *testing.T) {
	svc := newTestGoalService(time.Now())

	_, err := svc.Create(context.Background(), &goal.CreateGoalRequest{Title: "only a title"})

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateGoalMergesPatch(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Original title")

	newTitle := "Updated title"
	inactive := false
	updated, err := svc.Update(context.Background(), g.ID, &goal.Patch{
		Title:  &newTitle,
		Active: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, g.ID, updated.ID)
	assert.Equal(t, "Updated title", updated.Title)
	assert.False(t, updated.Active)
	assert.Equal(t, "desc", updated.Description, "untouched fields survive the patch")
	assert.Equal(t, g.CreatedAt, updated.CreatedAt)
}

func TestUpdateGoalNotFound(t *testing.T) {
	svc := newTestGoalService(time.Now())

	title := "x"
	_, err := svc.Update(context.Background(), 99, &goal.Patch{Title: &title})

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestAssignToClientRejectsDuplicate(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Consistent wake time")

	_, err := svc.AssignToClient(context.Background(), "2", g.ID)
	require.NoError(t, err)

	_, err = svc.AssignToClient(context.Background(), "2", g.ID)
	var conflictErr *apperr.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// A different client is fine.
	_, err = svc.AssignToClient(context.Background(), "3", g.ID)
	assert.NoError(t, err)
}

func TestDeleteAssignedGoalRejected(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Keep the bedroom cool")
	_, err := svc.AssignToClient(context.Background(), "2", g.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), g.ID)

	var conflictErr *apperr.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	_, err = svc.GetByID(context.Background(), g.ID)
	assert.NoError(t, err, "goal survives the rejected delete")
}

func TestDeleteUnassignedGoal(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Short afternoon walk")

	require.NoError(t, svc.Delete(context.Background(), g.ID))

	_, err := svc.GetByID(context.Background(), g.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestRecordProgressUpsertsSameDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestGoalService(now)
	g := mustCreateGoal(t, svc, "No caffeine after noon")

	first, err := svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: false})
	require.NoError(t, err)

	// Later the same day the client corrects the check-in.
	svc.now = func() time.Time { return now.Add(8 * time.Hour) }
	second, err := svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true, Notes: "did it after all"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same-day check-in overwrites, never duplicates")
	assert.True(t, second.Completed)

	history, err := svc.GetProgressByClientAndGoal(context.Background(), "2", g.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, first.CreatedAt, history[0].CreatedAt)
}

func TestRecordProgressNewDayAppends(t *testing.T) {
	day1 := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	svc := newTestGoalService(day1)
	g := mustCreateGoal(t, svc, "Wind-down routine")

	_, err := svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true})
	require.NoError(t, err)

	svc.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	_, err = svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true})
	require.NoError(t, err)

	history, err := svc.GetProgressByClientAndGoal(context.Background(), "2", g.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRecordProgressUnknownGoal(t *testing.T) {
	svc := newTestGoalService(time.Now())

	_, err := svc.RecordProgress(context.Background(), "2", 42, &goal.ProgressUpdate{Completed: true})

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestBulkCheckInPartialFailure(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g1 := mustCreateGoal(t, svc, "Goal one")
	g2 := mustCreateGoal(t, svc, "Goal two")

	results, err := svc.BulkCheckIn(context.Background(), "2", []goal.CheckInUpdate{
		{GoalID: g1.ID, Completed: true},
		{GoalID: 999, Completed: true},
		{GoalID: g2.ID, Completed: false},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.NotNil(t, results[0].Progress)

	assert.False(t, results[1].Success)
	assert.Equal(t, 999, results[1].GoalID)
	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].Progress)

	assert.True(t, results[2].Success, "a failed item never blocks the rest")
	assert.False(t, results[2].Progress.Completed)
}

func TestCheckDependencies(t *testing.T) {
	svc := newTestGoalService(time.Now())
	base := mustCreateGoal(t, svc, "Base goal")

	dependent, err := svc.Create(context.Background(), &goal.CreateGoalRequest{
		Title:        "Advanced goal",
		Description:  "desc",
		Category:     goal.CategoryMindset,
		Dependencies: []int{base.ID},
	})
	require.NoError(t, err)

	// No assignment for the dependency yet.
	status, err := svc.CheckDependencies(context.Background(), "2", dependent.ID)
	require.NoError(t, err)
	assert.False(t, status.Unlocked)
	require.Len(t, status.BlockedBy, 1)
	assert.Equal(t, base.ID, status.BlockedBy[0].ID)
	assert.Equal(t, "Base goal", status.BlockedBy[0].Title)

	// An active assignment is not enough.
	a, err := svc.AssignToClient(context.Background(), "2", base.ID)
	require.NoError(t, err)
	status, err = svc.CheckDependencies(context.Background(), "2", dependent.ID)
	require.NoError(t, err)
	assert.False(t, status.Unlocked)

	// A completed assignment unlocks.
	_, ok := svc.assignments.Update(a.ID, func(a goal.Assignment) goal.Assignment {
		a.Status = goal.StatusCompleted
		return a
	})
	require.True(t, ok)
	status, err = svc.CheckDependencies(context.Background(), "2", dependent.ID)
	require.NoError(t, err)
	assert.True(t, status.Unlocked)
	assert.Empty(t, status.BlockedBy)
}

func TestCheckDependenciesNoDeps(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Standalone goal")

	status, err := svc.CheckDependencies(context.Background(), "2", g.ID)
	require.NoError(t, err)
	assert.True(t, status.Unlocked)
	assert.Empty(t, status.BlockedBy)
}

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int, completed bool) goal.Progress {
		return goal.Progress{Date: now.AddDate(0, 0, offset), Completed: completed}
	}

	tests := []struct {
		name    string
		history []goal.Progress
		want    int
	}{
		{"empty history", nil, 0},
		{"three consecutive days ending today", []goal.Progress{day(0, true), day(-1, true), day(-2, true)}, 3},
		{"no check-in today zeroes the streak", []goal.Progress{day(-1, true), day(-2, true), day(-3, true)}, 0},
		{"incomplete today zeroes the streak", []goal.Progress{day(0, false), day(-1, true), day(-2, true)}, 0},
		{"gap stops the walk", []goal.Progress{day(0, true), day(-1, true), day(-3, true)}, 2},
		{"incomplete day stops the walk", []goal.Progress{day(0, true), day(-1, false), day(-2, true)}, 1},
		{"only today", []goal.Progress{day(0, true)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(tt.history, now))
		})
	}
}

func TestGetClientGoalStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestGoalService(now)
	g := mustCreateGoal(t, svc, "Nightly journaling")
	_, err := svc.AssignToClient(context.Background(), "2", g.ID)
	require.NoError(t, err)

	// Three consecutive completed days ending today.
	for offset := -2; offset <= 0; offset++ {
		day := now.AddDate(0, 0, offset)
		svc.now = func() time.Time { return day }
		_, err := svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true})
		require.NoError(t, err)
	}
	svc.now = func() time.Time { return now }

	stats, err := svc.GetClientGoalStats(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalGoals)
	assert.Equal(t, 3, stats.TotalCompletions)
	assert.Equal(t, 3, stats.CurrentStreaks[g.ID])
	assert.Equal(t, 3, stats.LongestStreak)
	// Three completions over a seven-day floor.
	assert.InDelta(t, 3.0/7.0*100, stats.CompletionRate, 0.01)
}

func TestGetGoalStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestGoalService(now)
	g := mustCreateGoal(t, svc, "Screen curfew")
	_, err := svc.AssignToClient(context.Background(), "2", g.ID)
	require.NoError(t, err)
	_, err = svc.AssignToClient(context.Background(), "3", g.ID)
	require.NoError(t, err)

	rating := 4
	_, err = svc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true, Rating: &rating})
	require.NoError(t, err)
	_, err = svc.RecordProgress(context.Background(), "3", g.ID, &goal.ProgressUpdate{Completed: false})
	require.NoError(t, err)

	stats, err := svc.GetGoalStats(context.Background(), g.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalAssignments)
	assert.Equal(t, 1, stats.TotalCompletions)
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.01)
	assert.InDelta(t, 2.0, stats.AverageRating, 0.01)
}

func TestGetByClientJoinsAssignments(t *testing.T) {
	svc := newTestGoalService(time.Now())
	g := mustCreateGoal(t, svc, "Morning light exposure")
	a, err := svc.AssignToClient(context.Background(), "2", g.ID)
	require.NoError(t, err)

	clientGoals, err := svc.GetByClient(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, clientGoals, 1)

	assert.Equal(t, g.ID, clientGoals[0].ID)
	assert.Equal(t, g.Title, clientGoals[0].Title)
	assert.Equal(t, a.ID, clientGoals[0].AssignmentID)
	assert.Equal(t, goal.StatusActive, clientGoals[0].Status)
}

func TestUpdateGoalTargetDate(t *testing.T) {
	svc := newTestGoalService(time.Now())
	td := "2024-06-01"
	g, err := svc.Create(context.Background(), &goal.CreateGoalRequest{
		Title:       "Dated goal",
		Description: "desc",
		Category:    goal.CategorySleepHygiene,
		TargetDate:  &td,
	})
	require.NoError(t, err)
	require.NotNil(t, g.TargetDate)

	// An absent targetDate leaves the stored value alone.
	var patch goal.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Renamed"}`), &patch))
	updated, err := svc.Update(context.Background(), g.ID, &patch)
	require.NoError(t, err)
	require.NotNil(t, updated.TargetDate)
	assert.Equal(t, "2024-06-01", *updated.TargetDate)

	// An explicit null clears it.
	patch = goal.Patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"targetDate":null}`), &patch))
	updated, err = svc.Update(context.Background(), g.ID, &patch)
	require.NoError(t, err)
	assert.Nil(t, updated.TargetDate)

	// And a value sets it again.
	patch = goal.Patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"targetDate":"2024-07-15"}`), &patch))
	updated, err = svc.Update(context.Background(), g.ID, &patch)
	require.NoError(t, err)
	require.NotNil(t, updated.TargetDate)
	assert.Equal(t, "2024-07-15", *updated.TargetDate)
}

func TestCurrentStreakAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// March 10 2024 is a 23-hour day in New York. Checking in on the 8th,
	// 9th, and 10th must still count as three consecutive days.
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	history := []goal.Progress{
		{Date: time.Date(2024, 3, 10, 8, 0, 0, 0, loc), Completed: true},
		{Date: time.Date(2024, 3, 9, 8, 0, 0, 0, loc), Completed: true},
		{Date: time.Date(2024, 3, 8, 8, 0, 0, 0, loc), Completed: true},
	}

	assert.Equal(t, 3, CurrentStreak(history, now))
}

func TestReturnedGoalsAreCopies(t *testing.T) {
	svc := newTestGoalService(time.Now())
	created, err := svc.Create(context.Background(), &goal.CreateGoalRequest{
		Title:        "Guarded goal",
		Description:  "desc",
		Category:     goal.CategoryCustom,
		Dependencies: []int{1, 2},
	})
	require.NoError(t, err)

	created.Dependencies[0] = 99

	stored, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Dependencies[0])
}

func TestReturnedTargetDateIsACopy(t *testing.T) {
	svc := newTestGoalService(time.Now())
	td := "2024-06-01"
	created, err := svc.Create(context.Background(), &goal.CreateGoalRequest{
		Title:       "Guarded date",
		Description: "desc",
		Category:    goal.CategoryCustom,
		TargetDate:  &td,
	})
	require.NoError(t, err)
	require.NotNil(t, created.TargetDate)

	*created.TargetDate = "9999-01-01"
	td = "9999-12-31"

	stored, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TargetDate)
	assert.Equal(t, "2024-06-01", *stored.TargetDate)
}
