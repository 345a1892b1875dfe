package diary

import "time"

// DateLayout is the calendar-day format used by sleep entries and drafts.
const DateLayout = "2006-01-02"

type SleepEntry struct {
	ID                  int       `json:"Id"`
	ClientID            string    `json:"clientId"`
	Date                string    `json:"date"`
	BedTime             string    `json:"bedTime"`
	TryToSleepTime      string    `json:"tryToSleepTime"`
	MinutesToFallAsleep int       `json:"minutesToFallAsleep"`
	NightWakeups        int       `json:"nightWakeups"`
	FinalWakeTime       string    `json:"finalWakeTime"`
	OutOfBedTime        string    `json:"outOfBedTime"`
	SleepQuality        int       `json:"sleepQuality"`
	SleepEfficiency     *int      `json:"sleepEfficiency"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// EntryRequest carries the raw diary answers for create/update. Range rules
// mirror the diary questionnaire; presence of the clock fields is checked
// separately so validation can report every problem at once.
type EntryRequest struct {
	ClientID            string `json:"clientId" validate:"required"`
	Date                string `json:"date" validate:"required"`
	BedTime             string `json:"bedTime" validate:"required"`
	TryToSleepTime      string `json:"tryToSleepTime" validate:"required"`
	MinutesToFallAsleep int    `json:"minutesToFallAsleep" validate:"gte=0,lte=300"`
	NightWakeups        int    `json:"nightWakeups" validate:"gte=0,lte=20"`
	FinalWakeTime       string `json:"finalWakeTime" validate:"required"`
	OutOfBedTime        string `json:"outOfBedTime" validate:"required"`
	SleepQuality        int    `json:"sleepQuality" validate:"gte=1,lte=10"`
	SleepEfficiency     *int   `json:"sleepEfficiency"`
	Notes               string `json:"notes"`
}

// ValidationResult is advisory: it lists everything implausible about an
// entry without blocking the hard duplicate-date check in create/update.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Draft is a partially filled entry snapshotted by the diary form's
// auto-save. Values stay raw strings because any answer, numeric ones
// included, may still be unset. Expires 24 hours after Timestamp.
type Draft struct {
	Date                string    `json:"date"`
	BedTime             string    `json:"bedTime"`
	TryToSleepTime      string    `json:"tryToSleepTime"`
	MinutesToFallAsleep string    `json:"minutesToFallAsleep"`
	NightWakeups        string    `json:"nightWakeups"`
	FinalWakeTime       string    `json:"finalWakeTime"`
	OutOfBedTime        string    `json:"outOfBedTime"`
	SleepQuality        string    `json:"sleepQuality"`
	Notes               string    `json:"notes"`
	Timestamp           time.Time `json:"timestamp"`
}

// DraftTTL bounds how long an auto-saved draft stays restorable.
const DraftTTL = 24 * time.Hour
