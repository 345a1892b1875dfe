// Package portal holds the supporting entities around the coaching core:
// user identities, coach-client relations, session notes, messages, and
// appointments.
package portal

import "time"

type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

type User struct {
	ID        int       `json:"Id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type RelationStatus string

const (
	RelationActive RelationStatus = "active"
	RelationEnded  RelationStatus = "ended"
)

// Relation links one coach to one client.
type Relation struct {
	ID        int            `json:"Id"`
	CoachID   string         `json:"coachId"`
	ClientID  string         `json:"clientId"`
	StartDate time.Time      `json:"startDate"`
	Status    RelationStatus `json:"status"`
}

// Session is a coaching session's note record. Notes is markdown.
type Session struct {
	ID              int       `json:"Id"`
	CoachID         string    `json:"coachId"`
	ClientID        string    `json:"clientId"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"durationMinutes"`
	Summary         string    `json:"summary"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Message struct {
	ID          int       `json:"Id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
	Read        bool      `json:"read"`
}

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID              int               `json:"Id"`
	CoachID         string            `json:"coachId"`
	ClientID        string            `json:"clientId"`
	Date            time.Time         `json:"date"`
	DurationMinutes int               `json:"durationMinutes"`
	Type            string            `json:"type"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"createdAt"`
}
