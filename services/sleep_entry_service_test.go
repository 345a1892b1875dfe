package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/diary"
	"dreamSyncAPI/internal/memstore"
)

func newTestSleepEntryService() *SleepEntryService {
	entries := memstore.NewTable(func(e diary.SleepEntry) int { return e.ID })
	return NewSleepEntryService(entries)
}

func validEntryRequest() *diary.EntryRequest {
	return &diary.EntryRequest{
		ClientID:            "2",
		Date:                "2024-03-01",
		BedTime:             "22:00",
		TryToSleepTime:      "22:15",
		MinutesToFallAsleep: 15,
		NightWakeups:        1,
		FinalWakeTime:       "06:15",
		OutOfBedTime:        "06:30",
		SleepQuality:        7,
		Notes:               "slept okay",
	}
}

func TestCreateEntryDerivesEfficiency(t *testing.T) {
	svc := newTestSleepEntryService()

	entry, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)

	// 22:15 to 06:15 is 480 minutes in bed; 15 to fall asleep plus one
	// waking at 15 minutes leaves 450 asleep, 94% rounded.
	require.NotNil(t, entry.SleepEfficiency)
	assert.Equal(t, 94, *entry.SleepEfficiency)
	assert.Equal(t, 1, entry.ID)
}

func TestCreateEntryKeepsSuppliedEfficiency(t *testing.T) {
	svc := newTestSleepEntryService()

	req := validEntryRequest()
	supplied := 80
	req.SleepEfficiency = &supplied

	entry, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, entry.SleepEfficiency)
	assert.Equal(t, 80, *entry.SleepEfficiency)
}

func TestCreateEntryDuplicateDate(t *testing.T) {
	svc := newTestSleepEntryService()

	_, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validEntryRequest())
	var conflictErr *apperr.ConflictError
	require.ErrorAs(t, err, &conflictErr)

	// Same date for another client is fine.
	other := validEntryRequest()
	other.ClientID = "3"
	_, err = svc.Create(context.Background(), other)
	assert.NoError(t, err)
}

func TestCreateEntryMissingFields(t *testing.T) {
	svc := newTestSleepEntryService()

	req := validEntryRequest()
	req.BedTime = ""

	_, err := svc.Create(context.Background(), req)
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateEntryBadDateFormat(t *testing.T) {
	svc := newTestSleepEntryService()

	req := validEntryRequest()
	req.Date = "03/01/2024"

	_, err := svc.Create(context.Background(), req)
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateEntryExcludesOwnDate(t *testing.T) {
	svc := newTestSleepEntryService()

	created, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)

	// Same date, same entry: allowed.
	req := validEntryRequest()
	req.SleepQuality = 9
	updated, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.SleepQuality)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	// Moving onto another entry's date: rejected.
	second := validEntryRequest()
	second.Date = "2024-03-02"
	_, err = svc.Create(context.Background(), second)
	require.NoError(t, err)

	req.Date = "2024-03-02"
	_, err = svc.Update(context.Background(), created.ID, req)
	var conflictErr *apperr.ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestUpdateEntryRecomputesEfficiency(t *testing.T) {
	svc := newTestSleepEntryService()

	created, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)
	require.Equal(t, 94, *created.SleepEfficiency)

	req := validEntryRequest()
	req.NightWakeups = 4
	updated, err := svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)

	// 480 in bed, 15 + 4*15 = 75 awake, 405 asleep, 84%.
	require.NotNil(t, updated.SleepEfficiency)
	assert.Equal(t, 84, *updated.SleepEfficiency)
}

func TestDeleteEntry(t *testing.T) {
	svc := newTestSleepEntryService()

	created, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Delete(context.Background(), created.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestGetByDateRange(t *testing.T) {
	svc := newTestSleepEntryService()

	for _, date := range []string{"2024-03-01", "2024-03-05", "2024-03-10"} {
		req := validEntryRequest()
		req.Date = date
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	entries, err := svc.GetByDateRange(context.Background(), "2", "2024-03-02", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-03-05", entries[0].Date)
	assert.Equal(t, "2024-03-10", entries[1].Date)
}

func TestHasEntryForDate(t *testing.T) {
	svc := newTestSleepEntryService()

	created, err := svc.Create(context.Background(), validEntryRequest())
	require.NoError(t, err)

	taken, err := svc.HasEntryForDate(context.Background(), "2", "2024-03-01", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = svc.HasEntryForDate(context.Background(), "2", "2024-03-01", created.ID)
	require.NoError(t, err)
	assert.False(t, taken, "the entry's own id is excluded when editing")

	taken, err = svc.HasEntryForDate(context.Background(), "2", "2024-03-09", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestValidateEntryRanges(t *testing.T) {
	svc := newTestSleepEntryService()

	result := svc.ValidateEntry(validEntryRequest())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)

	req := validEntryRequest()
	req.MinutesToFallAsleep = 400
	req.NightWakeups = 25
	req.SleepQuality = 11
	result = svc.ValidateEntry(req)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 3)
}

func TestValidateEntryImplausibleGap(t *testing.T) {
	svc := newTestSleepEntryService()

	req := validEntryRequest()
	req.BedTime = "08:00"
	req.TryToSleepTime = "23:00"

	result := svc.ValidateEntry(req)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "12 hours")
}

func TestValidateEntryBadDate(t *testing.T) {
	svc := newTestSleepEntryService()

	req := validEntryRequest()
	req.Date = "not-a-date"

	result := svc.ValidateEntry(req)
	assert.False(t, result.IsValid)
}
