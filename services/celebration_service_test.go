package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamSyncAPI/internal/celebration"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/memstore"
)

func newTestCelebrationService(now time.Time) (*CelebrationService, *GoalService) {
	goalSvc := newTestGoalService(now)
	celebrations := memstore.NewTable(func(c celebration.Celebration) int { return c.ID })
	svc := NewCelebrationService(celebrations, goalSvc, zap.NewNop().Sugar())
	svc.now = func() time.Time { return now }
	return svc, goalSvc
}

// driveStreak records a completed check-in per day for days consecutive days
// ending at now, running the achievement check after each one.
func driveStreak(t *testing.T, svc *CelebrationService, goalSvc *GoalService, clientID string, goalID, days int, now time.Time) [][]celebration.Result {
	t.Helper()
	var all [][]celebration.Result
	for offset := -(days - 1); offset <= 0; offset++ {
		day := now.AddDate(0, 0, offset)
		goalSvc.now = func() time.Time { return day }
		svc.now = func() time.Time { return day }
		update := &goal.ProgressUpdate{Completed: true}
		_, err := goalSvc.RecordProgress(context.Background(), clientID, goalID, update)
		require.NoError(t, err)
		results, err := svc.CheckForNewAchievements(context.Background(), clientID, goalID, update)
		require.NoError(t, err)
		all = append(all, results)
	}
	return all
}

func milestonesOf(results [][]celebration.Result) []celebration.MilestoneType {
	var types []celebration.MilestoneType
	for _, day := range results {
		for _, r := range day {
			types = append(types, r.MilestoneType)
		}
	}
	return types
}

func TestFirstCompletionAwardedOnce(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	svc, goalSvc := newTestCelebrationService(now)
	g := mustCreateGoal(t, goalSvc, "Evening stretch")

	update := &goal.ProgressUpdate{Completed: true}
	_, err := goalSvc.RecordProgress(context.Background(), "2", g.ID, update)
	require.NoError(t, err)

	results, err := svc.CheckForNewAchievements(context.Background(), "2", g.ID, update)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, celebration.MilestoneFirstCompletion, results[0].MilestoneType)
	assert.True(t, results[0].Success)
	require.NotNil(t, results[0].Celebration)
	assert.Equal(t, celebration.DisplayToast, results[0].Celebration.DisplayType)
	assert.False(t, results[0].Celebration.Viewed)

	// Re-running the check for the same state awards nothing new.
	results, err = svc.CheckForNewAchievements(context.Background(), "2", g.ID, update)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIncompleteCheckInNoFirstCompletion(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	svc, goalSvc := newTestCelebrationService(now)
	g := mustCreateGoal(t, goalSvc, "Evening stretch")

	update := &goal.ProgressUpdate{Completed: false}
	_, err := goalSvc.RecordProgress(context.Background(), "2", g.ID, update)
	require.NoError(t, err)

	results, err := svc.CheckForNewAchievements(context.Background(), "2", g.ID, update)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWeekStreakAwardedExactlyOnce(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	svc, goalSvc := newTestCelebrationService(now)
	g := mustCreateGoal(t, goalSvc, "Fixed wake time")

	all := driveStreak(t, svc, goalSvc, "2", g.ID, 7, now)
	types := milestonesOf(all)

	assert.Contains(t, types, celebration.MilestoneFirstCompletion)
	assert.Contains(t, types, celebration.MilestoneThreeDayStreak)
	assert.Contains(t, types, celebration.MilestoneWeekStreak)

	counts := map[celebration.MilestoneType]int{}
	for _, typ := range types {
		counts[typ]++
	}
	assert.Equal(t, 1, counts[celebration.MilestoneWeekStreak], "week streak fires on day 7 only")
	assert.Equal(t, 1, counts[celebration.MilestoneThreeDayStreak])
	assert.Equal(t, 1, counts[celebration.MilestoneFirstCompletion])

	celebrations, err := svc.GetByClient(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, celebrations, 3)
}

func TestStreakPastThresholdDoesNotRefire(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	svc, goalSvc := newTestCelebrationService(now)
	g := mustCreateGoal(t, goalSvc, "Fixed wake time")

	all := driveStreak(t, svc, goalSvc, "2", g.ID, 9, now)
	types := milestonesOf(all)

	counts := map[celebration.MilestoneType]int{}
	for _, typ := range types {
		counts[typ]++
	}
	assert.Equal(t, 1, counts[celebration.MilestoneThreeDayStreak], "day 4 and beyond are past the exact threshold")
	assert.Equal(t, 1, counts[celebration.MilestoneWeekStreak])
}

func TestHighConsistencyMilestone(t *testing.T) {
	now := time.Date(2024, 3, 20, 21, 0, 0, 0, time.UTC)
	svc, goalSvc := newTestCelebrationService(now)
	g := mustCreateGoal(t, goalSvc, "Wind-down hour")

	// Fourteen days of history, all completed, checked only at the end.
	for offset := -13; offset < 0; offset++ {
		day := now.AddDate(0, 0, offset)
		goalSvc.now = func() time.Time { return day }
		_, err := goalSvc.RecordProgress(context.Background(), "2", g.ID, &goal.ProgressUpdate{Completed: true})
		require.NoError(t, err)
	}
	goalSvc.now = func() time.Time { return now }
	update := &goal.ProgressUpdate{Completed: true}
	_, err := goalSvc.RecordProgress(context.Background(), "2", g.ID, update)
	require.NoError(t, err)

	results, err := svc.CheckForNewAchievements(context.Background(), "2", g.ID, update)
	require.NoError(t, err)

	var types []celebration.MilestoneType
	for _, r := range results {
		types = append(types, r.MilestoneType)
	}
	assert.Contains(t, types, celebration.MilestoneHighConsistency)
}

func TestHasAchievementScopedToTriple(t *testing.T) {
	now := time.Now()
	svc, goalSvc := newTestCelebrationService(now)
	g1 := mustCreateGoal(t, goalSvc, "Goal one")
	g2 := mustCreateGoal(t, goalSvc, "Goal two")

	_, err := svc.Create(context.Background(), &celebration.Candidate{
		ClientID:      "2",
		GoalID:        g1.ID,
		MilestoneType: celebration.MilestoneFirstCompletion,
		Message:       "first!",
	})
	require.NoError(t, err)

	assert.True(t, svc.HasAchievement("2", g1.ID, celebration.MilestoneFirstCompletion))
	assert.False(t, svc.HasAchievement("2", g2.ID, celebration.MilestoneFirstCompletion))
	assert.False(t, svc.HasAchievement("3", g1.ID, celebration.MilestoneFirstCompletion))
	assert.False(t, svc.HasAchievement("2", g1.ID, celebration.MilestoneWeekStreak))
}

func TestMarkAsViewed(t *testing.T) {
	now := time.Now()
	svc, _ := newTestCelebrationService(now)

	created, err := svc.Create(context.Background(), &celebration.Candidate{
		ClientID:      "2",
		GoalID:        1,
		MilestoneType: celebration.MilestoneFirstCompletion,
		Message:       "first!",
	})
	require.NoError(t, err)
	require.False(t, created.Viewed)

	unviewed, err := svc.GetUnviewedByClient(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, unviewed, 1)

	updated, err := svc.MarkAsViewed(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, updated.Viewed)

	unviewed, err = svc.GetUnviewedByClient(context.Background(), "2")
	require.NoError(t, err)
	assert.Empty(t, unviewed)
}

func TestBulkMarkAsViewedSkipsMissing(t *testing.T) {
	now := time.Now()
	svc, _ := newTestCelebrationService(now)

	c1, err := svc.Create(context.Background(), &celebration.Candidate{
		ClientID: "2", GoalID: 1, MilestoneType: celebration.MilestoneFirstCompletion,
	})
	require.NoError(t, err)
	c2, err := svc.Create(context.Background(), &celebration.Candidate{
		ClientID: "2", GoalID: 2, MilestoneType: celebration.MilestoneFirstCompletion,
	})
	require.NoError(t, err)

	updated, err := svc.BulkMarkAsViewed(context.Background(), []int{c1.ID, 999, c2.ID})
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	for _, c := range updated {
		assert.True(t, c.Viewed)
	}
}

func TestGetAchievementStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestCelebrationService(now)

	seedAt := func(offsetDays int, typ celebration.MilestoneType) {
		svc.now = func() time.Time { return now.AddDate(0, 0, offsetDays) }
		_, err := svc.Create(context.Background(), &celebration.Candidate{
			ClientID: "2", GoalID: 1, MilestoneType: typ,
		})
		require.NoError(t, err)
	}
	seedAt(-30, celebration.MilestoneFirstCompletion)
	seedAt(-10, celebration.MilestoneThreeDayStreak)
	seedAt(-2, celebration.MilestoneWeekStreak)
	seedAt(-1, celebration.MilestoneHighConsistency)
	svc.now = func() time.Time { return now }

	stats, err := svc.GetAchievementStats(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalAchievements)
	assert.Equal(t, 1, stats.FirstCompletions)
	assert.Equal(t, 2, stats.StreakAchievements)
	assert.Equal(t, 1, stats.ConsistencyAchievements)
	assert.Equal(t, 2, stats.RecentAchievements)
}
