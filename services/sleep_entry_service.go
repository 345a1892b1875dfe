package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/memstore"
)

// maxBedToSleepGapMinutes flags implausible bedtime-to-try-to-sleep spans.
const maxBedToSleepGapMinutes = 12 * 60

type SleepEntryService struct {
	entries  *memstore.Table[diary.SleepEntry]
	validate *validator.Validate
	now      func() time.Time
}

func NewSleepEntryService(entries *memstore.Table[diary.SleepEntry]) *SleepEntryService {
	return &SleepEntryService{
		entries:  entries,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *SleepEntryService) GetAll(ctx context.Context) ([]diary.SleepEntry, error) {
	return s.entries.All(), nil
}

func (s *SleepEntryService) GetByID(ctx context.Context, id int) (*diary.SleepEntry, error) {
	e, ok := s.entries.Get(id)
	if !ok {
		return nil, apperr.NotFound("sleep entry with Id %d not found", id)
	}
	return &e, nil
}

// Create stores a new diary entry. At most one entry may exist per
// (client, date); efficiency is derived from the clock answers when the
// caller does not supply it.
func (s *SleepEntryService) Create(ctx context.Context, req *diary.EntryRequest) (*diary.SleepEntry, error) {
	if err := s.requireFields(req); err != nil {
		return nil, err
	}
	if s.dateTaken(req.ClientID, req.Date, 0) {
		return nil, apperr.Conflict("an entry for %s already exists for this client", req.Date)
	}

	now := s.now()
	created := s.entries.Insert(func(id int) diary.SleepEntry {
		e := entryFromRequest(req)
		e.ID = id
		e.CreatedAt = now
		e.UpdatedAt = now
		return e
	})
	return &created, nil
}

// Update rewrites an entry under the same duplicate-date rule, excluding the
// entry's own id from the check. Efficiency is recomputed whenever the
// contributing times change.
func (s *SleepEntryService) Update(ctx context.Context, id int, req *diary.EntryRequest) (*diary.SleepEntry, error) {
	if _, ok := s.entries.Get(id); !ok {
		return nil, apperr.NotFound("sleep entry with Id %d not found", id)
	}
	if err := s.requireFields(req); err != nil {
		return nil, err
	}
	if s.dateTaken(req.ClientID, req.Date, id) {
		return nil, apperr.Conflict("an entry for %s already exists for this client", req.Date)
	}

	updated, _ := s.entries.Update(id, func(e diary.SleepEntry) diary.SleepEntry {
		next := entryFromRequest(req)
		next.ID = e.ID
		next.CreatedAt = e.CreatedAt
		next.UpdatedAt = s.now()
		return next
	})
	return &updated, nil
}

func (s *SleepEntryService) Delete(ctx context.Context, id int) (*diary.SleepEntry, error) {
	deleted, ok := s.entries.Delete(id)
	if !ok {
		return nil, apperr.NotFound("sleep entry with Id %d not found", id)
	}
	return &deleted, nil
}

func (s *SleepEntryService) GetByClient(ctx context.Context, clientID string) ([]diary.SleepEntry, error) {
	return s.entries.Where(func(e diary.SleepEntry) bool { return e.ClientID == clientID }), nil
}

// GetByDateRange returns the client's entries with startDate <= date <=
// endDate. Dates compare lexically in the yyyy-mm-dd layout.
func (s *SleepEntryService) GetByDateRange(ctx context.Context, clientID, startDate, endDate string) ([]diary.SleepEntry, error) {
	return s.entries.Where(func(e diary.SleepEntry) bool {
		return e.ClientID == clientID && e.Date >= startDate && e.Date <= endDate
	}), nil
}

// HasEntryForDate reports whether a client already logged the given date,
// ignoring excludeID (0 for none). The diary form's duplicate check.
func (s *SleepEntryService) HasEntryForDate(ctx context.Context, clientID, date string, excludeID int) (bool, error) {
	return s.dateTaken(clientID, date, excludeID), nil
}

// ValidateEntry is advisory: it reports every implausible answer without
// persisting anything, separate from the hard duplicate-date rejection.
func (s *SleepEntryService) ValidateEntry(req *diary.EntryRequest) *diary.ValidationResult {
	result := &diary.ValidationResult{Errors: []string{}}

	if err := s.validate.Struct(req); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			result.Errors = append(result.Errors, "entry could not be validated")
		} else {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				result.Errors = append(result.Errors, describeFieldError(fieldErr))
			}
		}
	}

	if _, err := time.Parse(diary.DateLayout, req.Date); req.Date != "" && err != nil {
		result.Errors = append(result.Errors, "date must use the yyyy-mm-dd format")
	}

	if req.BedTime != "" && req.TryToSleepTime != "" {
		gap, err := diary.MinutesBetween(req.BedTime, req.TryToSleepTime)
		if err != nil {
			result.Errors = append(result.Errors, "bedTime and tryToSleepTime must be valid HH:MM times")
		} else if gap > maxBedToSleepGapMinutes {
			result.Errors = append(result.Errors, "more than 12 hours between bedtime and trying to sleep looks implausible")
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func (s *SleepEntryService) requireFields(req *diary.EntryRequest) error {
	if req.ClientID == "" || req.Date == "" || req.BedTime == "" || req.TryToSleepTime == "" ||
		req.FinalWakeTime == "" || req.OutOfBedTime == "" {
		return apperr.Validation("clientId, date, and all clock times are required")
	}
	if _, err := time.Parse(diary.DateLayout, req.Date); err != nil {
		return apperr.Validation("date must use the yyyy-mm-dd format")
	}
	return nil
}

func (s *SleepEntryService) dateTaken(clientID, date string, excludeID int) bool {
	return s.entries.Any(func(e diary.SleepEntry) bool {
		return e.ClientID == clientID && e.Date == date && e.ID != excludeID
	})
}

func entryFromRequest(req *diary.EntryRequest) diary.SleepEntry {
	efficiency := req.SleepEfficiency
	if efficiency == nil {
		efficiency = diary.Efficiency(req.TryToSleepTime, req.FinalWakeTime, req.MinutesToFallAsleep, req.NightWakeups)
	}
	return diary.SleepEntry{
		ClientID:            req.ClientID,
		Date:                req.Date,
		BedTime:             req.BedTime,
		TryToSleepTime:      req.TryToSleepTime,
		MinutesToFallAsleep: req.MinutesToFallAsleep,
		NightWakeups:        req.NightWakeups,
		FinalWakeTime:       req.FinalWakeTime,
		OutOfBedTime:        req.OutOfBedTime,
		SleepQuality:        req.SleepQuality,
		SleepEfficiency:     efficiency,
		Notes:               req.Notes,
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
