package celebration

import "time"

type MilestoneType string

const (
	MilestoneFirstCompletion MilestoneType = "first_completion"
	MilestoneThreeDayStreak  MilestoneType = "3_day_streak"
	MilestoneWeekStreak      MilestoneType = "week_streak"
	MilestoneMonthStreak     MilestoneType = "month_streak"
	MilestoneHighConsistency MilestoneType = "high_consistency"
)

type DisplayType string

const (
	DisplayToast       DisplayType = "toast"
	DisplayModal       DisplayType = "modal"
	DisplayCelebration DisplayType = "celebration"
)

type Celebration struct {
	ID            int           `json:"Id"`
	ClientID      string        `json:"clientId"`
	GoalID        int           `json:"goalId"`
	MilestoneType MilestoneType `json:"milestoneType"`
	Message       string        `json:"message"`
	AchievedAt    time.Time     `json:"achievedAt"`
	DisplayType   DisplayType   `json:"displayType"`
	Viewed        bool          `json:"viewed"`
}

// Candidate is a milestone detected from progress history that has not yet
// been persisted.
type Candidate struct {
	ClientID      string        `json:"clientId"`
	GoalID        int           `json:"goalId"`
	MilestoneType MilestoneType `json:"milestoneType"`
	Message       string        `json:"message"`
	DisplayType   DisplayType   `json:"displayType"`
}

// Result tags one candidate's persistence outcome. Recording is best-effort;
// a failure never blocks sibling candidates.
type Result struct {
	Success       bool          `json:"success"`
	MilestoneType MilestoneType `json:"milestoneType"`
	Celebration   *Celebration  `json:"celebration,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type Stats struct {
	TotalAchievements       int `json:"totalAchievements"`
	FirstCompletions        int `json:"firstCompletions"`
	StreakAchievements      int `json:"streakAchievements"`
	ConsistencyAchievements int `json:"consistencyAchievements"`
	RecentAchievements      int `json:"recentAchievements"`
}
