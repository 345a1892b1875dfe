package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/celebration"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/memstore"
)

// consistency milestone thresholds
const (
	consistencyMinRecords = 14
	consistencyMinRate    = 80.0
)

type CelebrationService struct {
	celebrations *memstore.Table[celebration.Celebration]
	goalService  *GoalService
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewCelebrationService(
	celebrations *memstore.Table[celebration.Celebration],
	goalService *GoalService,
	log *zap.SugaredLogger,
) *CelebrationService {
	return &CelebrationService{
		celebrations: celebrations,
		goalService:  goalService,
		log:          log,
		now:          time.Now,
	}
}

func (s *CelebrationService) GetAll(ctx context.Context) ([]celebration.Celebration, error) {
	return s.celebrations.All(), nil
}

func (s *CelebrationService) GetByClient(ctx context.Context, clientID string) ([]celebration.Celebration, error) {
	return s.celebrations.Where(func(c celebration.Celebration) bool { return c.ClientID == clientID }), nil
}

func (s *CelebrationService) GetUnviewedByClient(ctx context.Context, clientID string) ([]celebration.Celebration, error) {
	return s.celebrations.Where(func(c celebration.Celebration) bool {
		return c.ClientID == clientID && !c.Viewed
	}), nil
}

func (s *CelebrationService) Create(ctx context.Context, cand *celebration.Candidate) (*celebration.Celebration, error) {
	displayType := cand.DisplayType
	if displayType == "" {
		displayType = celebration.DisplayToast
	}
	created := s.celebrations.Insert(func(id int) celebration.Celebration {
		return celebration.Celebration{
			ID:            id,
			ClientID:      cand.ClientID,
			GoalID:        cand.GoalID,
			MilestoneType: cand.MilestoneType,
			Message:       cand.Message,
			AchievedAt:    s.now(),
			DisplayType:   displayType,
			Viewed:        false,
		}
	})
	return &created, nil
}

func (s *CelebrationService) MarkAsViewed(ctx context.Context, id int) (*celebration.Celebration, error) {
	updated, ok := s.celebrations.Update(id, func(c celebration.Celebration) celebration.Celebration {
		c.Viewed = true
		return c
	})
	if !ok {
		return nil, apperr.NotFound("celebration with Id %d not found", id)
	}
	return &updated, nil
}

func (s *CelebrationService) BulkMarkAsViewed(ctx context.Context, ids []int) ([]celebration.Celebration, error) {
	updated := []celebration.Celebration{}
	for _, id := range ids {
		c, ok := s.celebrations.Update(id, func(c celebration.Celebration) celebration.Celebration {
			c.Viewed = true
			return c
		})
		if ok {
			updated = append(updated, c)
		}
	}
	return updated, nil
}

// HasAchievement reports whether a milestone was already awarded for the
// (client, goal, type) triple. It is the dedup guard keeping every milestone
// one-shot.
func (s *CelebrationService) HasAchievement(clientID string, goalID int, milestoneType celebration.MilestoneType) bool {
	return s.celebrations.Any(func(c celebration.Celebration) bool {
		return c.ClientID == clientID && c.GoalID == goalID && c.MilestoneType == milestoneType
	})
}

// CheckForNewAchievements inspects the full progress history for the
// (client, goal) pair after a progress write and records every milestone the
// write crossed. Recording is best-effort: a failed insert is logged and the
// remaining candidates still attempt to persist, so the triggering progress
// write is never blocked.
func (s *CelebrationService) CheckForNewAchievements(ctx context.Context, clientID string, goalID int, update *goal.ProgressUpdate) ([]celebration.Result, error) {
	history, err := s.goalService.GetProgressByClientAndGoal(ctx, clientID, goalID)
	if err != nil {
		return nil, err
	}

	candidates := s.detectMilestones(clientID, goalID, update, history)

	results := make([]celebration.Result, 0, len(candidates))
	for i := range candidates {
		cand := &candidates[i]
		created, err := s.Create(ctx, cand)
		if err != nil {
			s.log.Errorw("failed to record achievement",
				"clientId", clientID, "goalId", goalID, "milestone", cand.MilestoneType, "error", err)
			results = append(results, celebration.Result{
				Success:       false,
				MilestoneType: cand.MilestoneType,
				Error:         err.Error(),
			})
			continue
		}
		results = append(results, celebration.Result{
			Success:       true,
			MilestoneType: cand.MilestoneType,
			Celebration:   created,
		})
	}
	return results, nil
}

func (s *CelebrationService) detectMilestones(clientID string, goalID int, update *goal.ProgressUpdate, history []goal.Progress) []celebration.Candidate {
	var candidates []celebration.Candidate
	add := func(t celebration.MilestoneType, message string, display celebration.DisplayType) {
		candidates = append(candidates, celebration.Candidate{
			ClientID:      clientID,
			GoalID:        goalID,
			MilestoneType: t,
			Message:       message,
			DisplayType:   display,
		})
	}

	completedDays := 0
	for _, p := range history {
		if p.Completed {
			completedDays++
		}
	}

	if completedDays == 1 && update.Completed && !s.HasAchievement(clientID, goalID, celebration.MilestoneFirstCompletion) {
		add(celebration.MilestoneFirstCompletion,
			"Congratulations! You completed this goal for the first time!",
			celebration.DisplayToast)
	}

	streak := CurrentStreak(history, s.now())
	streakMilestones := []struct {
		days    int
		t       celebration.MilestoneType
		message string
		display celebration.DisplayType
	}{
		{3, celebration.MilestoneThreeDayStreak, "Amazing! 3 days in a row - you're building a great habit!", celebration.DisplayModal},
		{7, celebration.MilestoneWeekStreak, "Incredible! A full week of consistency - you're a sleep champion!", celebration.DisplayModal},
		{30, celebration.MilestoneMonthStreak, "Outstanding! 30 days of dedication - this is now a strong habit!", celebration.DisplayCelebration},
	}
	for _, m := range streakMilestones {
		if streak == m.days && !s.HasAchievement(clientID, goalID, m.t) {
			add(m.t, m.message, m.display)
		}
	}

	if len(history) >= consistencyMinRecords {
		rate := float64(completedDays) / float64(len(history)) * 100
		if rate >= consistencyMinRate && !s.HasAchievement(clientID, goalID, celebration.MilestoneHighConsistency) {
			add(celebration.MilestoneHighConsistency,
				"Exceptional consistency! You've maintained 80%+ completion rate!",
				celebration.DisplayToast)
		}
	}

	return candidates
}

// GetAchievementStats aggregates a client's achievements by kind plus a
// rolling 7-day recent count. Pure read.
func (s *CelebrationService) GetAchievementStats(ctx context.Context, clientID string) (*celebration.Stats, error) {
	achievements := s.celebrations.Where(func(c celebration.Celebration) bool { return c.ClientID == clientID })
	weekAgo := s.now().AddDate(0, 0, -7)

	stats := &celebration.Stats{TotalAchievements: len(achievements)}
	for _, c := range achievements {
		switch {
		case c.MilestoneType == celebration.MilestoneFirstCompletion:
			stats.FirstCompletions++
		case strings.Contains(string(c.MilestoneType), "streak"):
			stats.StreakAchievements++
		case c.MilestoneType == celebration.MilestoneHighConsistency:
			stats.ConsistencyAchievements++
		}
		if !c.AchievedAt.Before(weekAgo) {
			stats.RecentAchievements++
		}
	}
	return stats, nil
}
