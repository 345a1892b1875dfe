// Package seed embeds the static JSON collections every table is loaded
// from at process start. There is no durability: mutations live only as
// long as the process.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"dreamSyncAPI/internal/celebration"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/goal"
	"dreamSyncAPI/internal/portal"
	"dreamSyncAPI/internal/question"
)

//go:embed data/*.json
var dataFS embed.FS

// Data is the full startup dataset.
type Data struct {
	Goals        []goal.Goal
	Assignments  []goal.Assignment
	Progress     []goal.Progress
	Celebrations []celebration.Celebration
	SleepEntries []diary.SleepEntry
	Questions    []question.Question
	Users        []portal.User
	Relations    []portal.Relation
	Sessions     []portal.Session
	Messages     []portal.Message
	Appointments []portal.Appointment
}

// Load parses every embedded collection.
func Load() (*Data, error) {
	d := &Data{}
	files := []struct {
		name string
		dst  any
	}{
		{"goals.json", &d.Goals},
		{"goalAssignments.json", &d.Assignments},
		{"goalProgress.json", &d.Progress},
		{"celebrations.json", &d.Celebrations},
		{"sleepEntries.json", &d.SleepEntries},
		{"questions.json", &d.Questions},
		{"users.json", &d.Users},
		{"clientCoachRelations.json", &d.Relations},
		{"sessions.json", &d.Sessions},
		{"messages.json", &d.Messages},
		{"appointments.json", &d.Appointments},
	}
	for _, f := range files {
		raw, err := dataFS.ReadFile("data/" + f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse seed %s: %w", f.name, err)
		}
	}
	return d, nil
}
