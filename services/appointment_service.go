package services

import (
	"context"
	"time"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
)

type AppointmentService struct {
	appointments *memstore.Table[portal.Appointment]
	now          func() time.Time
}

func NewAppointmentService(appointments *memstore.Table[portal.Appointment]) *AppointmentService {
	return &AppointmentService{appointments: appointments, now: time.Now}
}

func (s *AppointmentService) GetAll(ctx context.Context) ([]portal.Appointment, error) {
	return s.appointments.All(), nil
}

func (s *AppointmentService) GetByID(ctx context.Context, id int) (*portal.Appointment, error) {
	a, ok := s.appointments.Get(id)
	if !ok {
		return nil, apperr.NotFound("appointment with Id %d not found", id)
	}
	return &a, nil
}

func (s *AppointmentService) GetByCoach(ctx context.Context, coachID string) ([]portal.Appointment, error) {
	return s.appointments.Where(func(a portal.Appointment) bool { return a.CoachID == coachID }), nil
}

func (s *AppointmentService) GetByClient(ctx context.Context, clientID string) ([]portal.Appointment, error) {
	return s.appointments.Where(func(a portal.Appointment) bool { return a.ClientID == clientID }), nil
}

// GetUpcoming returns appointments still scheduled for the future.
func (s *AppointmentService) GetUpcoming(ctx context.Context) ([]portal.Appointment, error) {
	now := s.now()
	return s.appointments.Where(func(a portal.Appointment) bool {
		return a.Status == portal.AppointmentScheduled && a.Date.After(now)
	}), nil
}

func (s *AppointmentService) Create(ctx context.Context, appt *portal.Appointment) (*portal.Appointment, error) {
	if appt.CoachID == "" || appt.ClientID == "" || appt.Date.IsZero() {
		return nil, apperr.Validation("coachId, clientId, and date are required")
	}
	created := s.appointments.Insert(func(id int) portal.Appointment {
		return portal.Appointment{
			ID:              id,
			CoachID:         appt.CoachID,
			ClientID:        appt.ClientID,
			Date:            appt.Date,
			DurationMinutes: appt.DurationMinutes,
			Type:            appt.Type,
			Status:          portal.AppointmentScheduled,
			Notes:           appt.Notes,
			CreatedAt:       s.now(),
		}
	})
	return &created, nil
}

// SetStatus moves an appointment through scheduled -> completed|cancelled.
func (s *AppointmentService) SetStatus(ctx context.Context, id int, status portal.AppointmentStatus) (*portal.Appointment, error) {
	if status != portal.AppointmentScheduled && status != portal.AppointmentCompleted && status != portal.AppointmentCancelled {
		return nil, apperr.Validation("status must be scheduled, completed, or cancelled")
	}
	updated, ok := s.appointments.Update(id, func(a portal.Appointment) portal.Appointment {
		a.Status = status
		return a
	})
	if !ok {
		return nil, apperr.NotFound("appointment with Id %d not found", id)
	}
	return &updated, nil
}

func (s *AppointmentService) Delete(ctx context.Context, id int) error {
	if _, ok := s.appointments.Delete(id); !ok {
		return apperr.NotFound("appointment with Id %d not found", id)
	}
	return nil
}
