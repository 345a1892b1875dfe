package goal

import (
	"encoding/json"
	"time"
)

type Category string

const (
	CategorySleepHygiene   Category = "Sleep Hygiene"
	CategoryBedtimeRoutine Category = "Bedtime Routine"
	CategoryEnvironment    Category = "Environment"
	CategoryMindset        Category = "Mindset"
	CategoryCustom         Category = "Custom"
)

type Type string

const (
	TypeTemplate Type = "template"
	TypeCustom   Type = "custom"
)

type AssignmentStatus string

const (
	StatusActive    AssignmentStatus = "active"
	StatusCompleted AssignmentStatus = "completed"
	StatusPaused    AssignmentStatus = "paused"
)

// Milestone is a coach-authored celebration definition attached to a goal.
type Milestone struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Goal struct {
	ID                    int         `json:"Id"`
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	CoachExplanation      string      `json:"coachExplanation"`
	Category              Category    `json:"category"`
	GoalType              Type        `json:"goalType"`
	TargetDate            *string     `json:"targetDate"`
	Dependencies          []int       `json:"dependencies"`
	Active                bool        `json:"active"`
	CelebrationMilestones []Milestone `json:"celebrationMilestones"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

type CreateGoalRequest struct {
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	CoachExplanation      string      `json:"coachExplanation"`
	Category              Category    `json:"category"`
	GoalType              Type        `json:"goalType"`
	TargetDate            *string     `json:"targetDate"`
	Dependencies          []int       `json:"dependencies"`
	Active                *bool       `json:"active"`
	CelebrationMilestones []Milestone `json:"celebrationMilestones"`
}

// Patch enumerates the fields a goal update may touch. ID and CreatedAt are
// not patchable.
type Patch struct {
	Title                 *string        `json:"title"`
	Description           *string        `json:"description"`
	CoachExplanation      *string        `json:"coachExplanation"`
	Category              *Category      `json:"category"`
	GoalType              *Type          `json:"goalType"`
	TargetDate            NullableString `json:"targetDate"`
	Dependencies          *[]int         `json:"dependencies"`
	Active                *bool          `json:"active"`
	CelebrationMilestones *[]Milestone   `json:"celebrationMilestones"`
}

// NullableString tells an absent patch field apart from one set to an
// explicit null, so a patch can clear targetDate.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

type Assignment struct {
	ID            int              `json:"Id"`
	ClientID      string           `json:"clientId"`
	GoalID        int              `json:"goalId"`
	AssignedDate  time.Time        `json:"assignedDate"`
	Status        AssignmentStatus `json:"status"`
	StartDate     time.Time        `json:"startDate"`
	CompletedDate *time.Time       `json:"completedDate"`
}

// ClientGoal is a goal joined with the client's assignment record.
type ClientGoal struct {
	Goal
	AssignmentID  int              `json:"assignmentId"`
	AssignedDate  time.Time        `json:"assignedDate"`
	Status        AssignmentStatus `json:"status"`
	StartDate     time.Time        `json:"startDate"`
	CompletedDate *time.Time       `json:"completedDate"`
}

type Progress struct {
	ID        int       `json:"Id"`
	ClientID  string    `json:"clientId"`
	GoalID    int       `json:"goalId"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Rating    *int      `json:"rating"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressUpdate is one day's check-in payload for a single goal.
type ProgressUpdate struct {
	Completed bool   `json:"completed"`
	Rating    *int   `json:"rating"`
	Notes     string `json:"notes"`
}

type CheckInUpdate struct {
	GoalID    int    `json:"goalId"`
	Completed bool   `json:"completed"`
	Rating    *int   `json:"rating"`
	Notes     string `json:"notes"`
}

// CheckInResult reports the outcome for one goal in a bulk check-in. A failed
// item never aborts its siblings.
type CheckInResult struct {
	Success  bool      `json:"success"`
	GoalID   int       `json:"goalId"`
	Progress *Progress `json:"progress,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type BlockedGoal struct {
	ID        int    `json:"Id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type DependencyStatus struct {
	Unlocked  bool          `json:"unlocked"`
	BlockedBy []BlockedGoal `json:"blockedBy"`
}

type Stats struct {
	TotalAssignments int     `json:"totalAssignments"`
	TotalCompletions int     `json:"totalCompletions"`
	CompletionRate   float64 `json:"completionRate"`
	AverageRating    float64 `json:"averageRating"`
}

type ClientStats struct {
	TotalGoals       int         `json:"totalGoals"`
	TotalCompletions int         `json:"totalCompletions"`
	CompletionRate   float64     `json:"completionRate"`
	CurrentStreaks   map[int]int `json:"currentStreaks"`
	LongestStreak    int         `json:"longestStreak"`
}
