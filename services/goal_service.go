package services

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/memstore"
)

// completionWindowDays is the trailing window for client completion rates.
// The denominator never drops below the window size, so early-period rates
// are depressed rather than inflated past 100%.
const completionWindowDays = 7

type GoalService struct {
	goals       *memstore.Table[goal.Goal]
	assignments *memstore.Table[goal.Assignment]
	progress    *memstore.Table[goal.Progress]
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewGoalService(
	goals *memstore.Table[goal.Goal],
	assignments *memstore.Table[goal.Assignment],
	progress *memstore.Table[goal.Progress],
	log *zap.SugaredLogger,
) *GoalService {
	return &GoalService{
		goals:       goals,
		assignments: assignments,
		progress:    progress,
		log:         log,
		now:         time.Now,
	}
}

func (s *GoalService) GetAll(ctx context.Context) ([]goal.Goal, error) {
	return copyGoals(s.goals.All()), nil
}

func (s *GoalService) GetByID(ctx context.Context, id int) (*goal.Goal, error) {
	g, ok := s.goals.Get(id)
	if !ok {
		return nil, apperr.NotFound("goal with Id %d not found", id)
	}
	g = copyGoal(g)
	return &g, nil
}

func (s *GoalService) Create(ctx context.Context, req *goal.CreateGoalRequest) (*goal.Goal, error) {
	if req.Title == "" || req.Description == "" || req.Category == "" {
		return nil, apperr.Validation("title, description, and category are required")
	}

	goalType := req.GoalType
	if goalType == "" {
		goalType = goal.TypeTemplate
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	deps := append([]int{}, req.Dependencies...)
	milestones := append([]goal.Milestone{}, req.CelebrationMilestones...)
	targetDate := req.TargetDate
	if targetDate != nil {
		td := *targetDate
		targetDate = &td
	}

	now := s.now()
	created := s.goals.Insert(func(id int) goal.Goal {
		return goal.Goal{
			ID:                    id,
			Title:                 req.Title,
			Description:           req.Description,
			CoachExplanation:      req.CoachExplanation,
			Category:              req.Category,
			GoalType:              goalType,
			TargetDate:            targetDate,
			Dependencies:          deps,
			Active:                active,
			CelebrationMilestones: milestones,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
	})
	created = copyGoal(created)
	return &created, nil
}

// Update merges the patch onto the stored goal. Id and createdAt never
// change.
func (s *GoalService) Update(ctx context.Context, id int, patch *goal.Patch) (*goal.Goal, error) {
	updated, ok := s.goals.Update(id, func(g goal.Goal) goal.Goal {
		if patch.Title != nil {
			g.Title = *patch.Title
		}
		if patch.Description != nil {
			g.Description = *patch.Description
		}
		if patch.CoachExplanation != nil {
			g.CoachExplanation = *patch.CoachExplanation
		}
		if patch.Category != nil {
			g.Category = *patch.Category
		}
		if patch.GoalType != nil {
			g.GoalType = *patch.GoalType
		}
		if patch.TargetDate.Set {
			g.TargetDate = patch.TargetDate.Value
		}
		if patch.Dependencies != nil {
			g.Dependencies = append([]int{}, (*patch.Dependencies)...)
		}
		if patch.Active != nil {
			g.Active = *patch.Active
		}
		if patch.CelebrationMilestones != nil {
			g.CelebrationMilestones = append([]goal.Milestone{}, (*patch.CelebrationMilestones)...)
		}
		g.UpdatedAt = s.now()
		return g
	})
	if !ok {
		return nil, apperr.NotFound("goal with Id %d not found", id)
	}
	updated = copyGoal(updated)
	return &updated, nil
}

// Delete removes a goal that no assignment references. Assigned goals must
// be deactivated instead.
func (s *GoalService) Delete(ctx context.Context, id int) error {
	if _, ok := s.goals.Get(id); !ok {
		return apperr.NotFound("goal with Id %d not found", id)
	}
	assigned := s.assignments.Any(func(a goal.Assignment) bool { return a.GoalID == id })
	if assigned {
		return apperr.Conflict("cannot delete goal that is assigned to clients; deactivate it instead")
	}
	s.goals.Delete(id)
	return nil
}

func (s *GoalService) GetActiveGoals(ctx context.Context) ([]goal.Goal, error) {
	return copyGoals(s.goals.Where(func(g goal.Goal) bool { return g.Active })), nil
}

func (s *GoalService) GetGoalsByCategory(ctx context.Context, category goal.Category) ([]goal.Goal, error) {
	return copyGoals(s.goals.Where(func(g goal.Goal) bool { return g.Category == category })), nil
}

// AssignToClient links a client to a goal. At most one assignment may exist
// per (client, goal) pair.
func (s *GoalService) AssignToClient(ctx context.Context, clientID string, goalID int) (*goal.Assignment, error) {
	if _, ok := s.goals.Get(goalID); !ok {
		return nil, apperr.NotFound("goal with Id %d not found", goalID)
	}
	exists := s.assignments.Any(func(a goal.Assignment) bool {
		return a.ClientID == clientID && a.GoalID == goalID
	})
	if exists {
		return nil, apperr.Conflict("goal is already assigned to this client")
	}

	now := s.now()
	created := s.assignments.Insert(func(id int) goal.Assignment {
		return goal.Assignment{
			ID:           id,
			ClientID:     clientID,
			GoalID:       goalID,
			AssignedDate: now,
			Status:       goal.StatusActive,
			StartDate:    now,
		}
	})
	return &created, nil
}

func (s *GoalService) GetAssignments(ctx context.Context) ([]goal.Assignment, error) {
	return s.assignments.All(), nil
}

// GetByClient returns the client's goals joined with their assignments.
func (s *GoalService) GetByClient(ctx context.Context, clientID string) ([]goal.ClientGoal, error) {
	assignments := s.assignments.Where(func(a goal.Assignment) bool { return a.ClientID == clientID })
	out := make([]goal.ClientGoal, 0, len(assignments))
	for _, a := range assignments {
		g, ok := s.goals.Get(a.GoalID)
		if !ok {
			continue
		}
		out = append(out, goal.ClientGoal{
			Goal:          copyGoal(g),
			AssignmentID:  a.ID,
			AssignedDate:  a.AssignedDate,
			Status:        a.Status,
			StartDate:     a.StartDate,
			CompletedDate: a.CompletedDate,
		})
	}
	return out, nil
}

// RecordProgress upserts today's check-in for the (client, goal) pair.
// Repeating a check-in on the same day overwrites rather than duplicates.
func (s *GoalService) RecordProgress(ctx context.Context, clientID string, goalID int, update *goal.ProgressUpdate) (*goal.Progress, error) {
	if _, ok := s.goals.Get(goalID); !ok {
		return nil, apperr.NotFound("goal with Id %d not found", goalID)
	}

	now := s.now()
	existing, found := s.progress.Find(func(p goal.Progress) bool {
		return p.ClientID == clientID && p.GoalID == goalID && sameDay(p.Date, now)
	})
	if found {
		updated, _ := s.progress.Update(existing.ID, func(p goal.Progress) goal.Progress {
			p.Completed = update.Completed
			p.Rating = update.Rating
			p.Notes = update.Notes
			p.UpdatedAt = now
			return p
		})
		return &updated, nil
	}

	created := s.progress.Insert(func(id int) goal.Progress {
		return goal.Progress{
			ID:        id,
			ClientID:  clientID,
			GoalID:    goalID,
			Date:      now,
			Completed: update.Completed,
			Rating:    update.Rating,
			Notes:     update.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
	return &created, nil
}

// BulkCheckIn records progress for several goals independently. One bad goal
// id never blocks the others; each item carries its own outcome.
func (s *GoalService) BulkCheckIn(ctx context.Context, clientID string, updates []goal.CheckInUpdate) ([]goal.CheckInResult, error) {
	results := make([]goal.CheckInResult, 0, len(updates))
	for _, u := range updates {
		p, err := s.RecordProgress(ctx, clientID, u.GoalID, &goal.ProgressUpdate{
			Completed: u.Completed,
			Rating:    u.Rating,
			Notes:     u.Notes,
		})
		if err != nil {
			s.log.Warnw("bulk check-in item failed", "clientId", clientID, "goalId", u.GoalID, "error", err)
			results = append(results, goal.CheckInResult{Success: false, GoalID: u.GoalID, Error: err.Error()})
			continue
		}
		results = append(results, goal.CheckInResult{Success: true, GoalID: u.GoalID, Progress: p})
	}
	return results, nil
}

func (s *GoalService) GetProgressByClient(ctx context.Context, clientID string) ([]goal.Progress, error) {
	return s.progress.Where(func(p goal.Progress) bool { return p.ClientID == clientID }), nil
}

func (s *GoalService) GetProgressByGoal(ctx context.Context, goalID int) ([]goal.Progress, error) {
	return s.progress.Where(func(p goal.Progress) bool { return p.GoalID == goalID }), nil
}

func (s *GoalService) GetProgressByClientAndGoal(ctx context.Context, clientID string, goalID int) ([]goal.Progress, error) {
	return s.progress.Where(func(p goal.Progress) bool {
		return p.ClientID == clientID && p.GoalID == goalID
	}), nil
}

// CheckDependencies reports whether every dependency of the goal has a
// completed assignment for the client. It gates availability only; nothing
// is assigned or unlocked automatically.
func (s *GoalService) CheckDependencies(ctx context.Context, clientID string, goalID int) (*goal.DependencyStatus, error) {
	g, ok := s.goals.Get(goalID)
	if !ok || len(g.Dependencies) == 0 {
		return &goal.DependencyStatus{Unlocked: true, BlockedBy: []goal.BlockedGoal{}}, nil
	}

	blockedBy := []goal.BlockedGoal{}
	for _, depID := range g.Dependencies {
		depAssignment, found := s.assignments.Find(func(a goal.Assignment) bool {
			return a.ClientID == clientID && a.GoalID == depID
		})
		if found && depAssignment.Status == goal.StatusCompleted {
			continue
		}
		title := ""
		if dep, ok := s.goals.Get(depID); ok {
			title = dep.Title
		}
		blockedBy = append(blockedBy, goal.BlockedGoal{ID: depID, Title: title, Completed: false})
	}

	return &goal.DependencyStatus{Unlocked: len(blockedBy) == 0, BlockedBy: blockedBy}, nil
}

// GetGoalStats aggregates progress across every client assigned to a goal.
func (s *GoalService) GetGoalStats(ctx context.Context, goalID int) (*goal.Stats, error) {
	progress := s.progress.Where(func(p goal.Progress) bool { return p.GoalID == goalID })
	completions := 0
	ratingSum := 0
	for _, p := range progress {
		if p.Completed {
			completions++
		}
		if p.Rating != nil {
			ratingSum += *p.Rating
		}
	}

	stats := &goal.Stats{
		TotalAssignments: len(s.assignments.Where(func(a goal.Assignment) bool { return a.GoalID == goalID })),
		TotalCompletions: completions,
	}
	if len(progress) > 0 {
		stats.CompletionRate = float64(completions) / float64(len(progress)) * 100
		stats.AverageRating = float64(ratingSum) / float64(len(progress))
	}
	return stats, nil
}

// GetClientGoalStats computes per-goal current streaks and the trailing
// 7-day completion rate for one client.
func (s *GoalService) GetClientGoalStats(ctx context.Context, clientID string) (*goal.ClientStats, error) {
	now := s.now()
	clientProgress := s.progress.Where(func(p goal.Progress) bool { return p.ClientID == clientID })
	assignments := s.assignments.Where(func(a goal.Assignment) bool { return a.ClientID == clientID })

	completions := 0
	for _, p := range clientProgress {
		if p.Completed {
			completions++
		}
	}

	streaks := make(map[int]int, len(assignments))
	longest := 0
	for _, a := range assignments {
		var history []goal.Progress
		for _, p := range clientProgress {
			if p.GoalID == a.GoalID {
				history = append(history, p)
			}
		}
		streak := CurrentStreak(history, now)
		streaks[a.GoalID] = streak
		if streak > longest {
			longest = streak
		}
	}

	windowStart := now.AddDate(0, 0, -(completionWindowDays - 1))
	inWindow, completedInWindow := 0, 0
	for _, p := range clientProgress {
		if p.Date.Before(startOfDay(windowStart)) {
			continue
		}
		inWindow++
		if p.Completed {
			completedInWindow++
		}
	}
	denominator := inWindow
	if denominator < completionWindowDays {
		denominator = completionWindowDays
	}

	return &goal.ClientStats{
		TotalGoals:       len(assignments),
		TotalCompletions: completions,
		CompletionRate:   float64(completedInWindow) / float64(denominator) * 100,
		CurrentStreaks:   streaks,
		LongestStreak:    longest,
	}, nil
}

// CurrentStreak counts the contiguous run of completed days ending today.
// The walk stops at the first gap or non-completed day; a missing check-in
// for today zeroes the streak regardless of what came before.
func CurrentStreak(history []goal.Progress, now time.Time) int {
	if len(history) == 0 {
		return 0
	}
	sorted := append([]goal.Progress{}, history...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	streak := 0
	for i, p := range sorted {
		if daysApart(now, p.Date) == i && p.Completed {
			streak++
		} else {
			break
		}
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	return startOfDay(a).Equal(startOfDay(b))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysApart returns how many calendar days earlier is before later. The
// difference is rounded rather than truncated so that 23- and 25-hour days
// around a DST transition still count as exactly one day.
func daysApart(later, earlier time.Time) int {
	diff := startOfDay(later).Sub(startOfDay(earlier.In(later.Location())))
	return int(math.Round(diff.Hours() / 24))
}

func copyGoal(g goal.Goal) goal.Goal {
	g.Dependencies = append([]int{}, g.Dependencies...)
	g.CelebrationMilestones = append([]goal.Milestone{}, g.CelebrationMilestones...)
	if g.TargetDate != nil {
		td := *g.TargetDate
		g.TargetDate = &td
	}
	return g
}

func copyGoals(goals []goal.Goal) []goal.Goal {
	out := make([]goal.Goal, len(goals))
	for i, g := range goals {
		out[i] = copyGoal(g)
	}
	return out
}
