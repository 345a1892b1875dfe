// Package diaryform models the multi-step sleep-diary entry form as an
// explicit state machine: one step per question, guarded forward
// transitions, and a debounced draft auto-save. The step order and
// validation rules here are the contract the diary page renders.
package diaryform

import (
	"context"
	"strconv"
	"sync"
	"time"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/diary"
)

type Field string

const (
	FieldDate                Field = "date"
	FieldBedTime             Field = "bedTime"
	FieldTryToSleepTime      Field = "tryToSleepTime"
	FieldMinutesToFallAsleep Field = "minutesToFallAsleep"
	FieldNightWakeups        Field = "nightWakeups"
	FieldFinalWakeTime       Field = "finalWakeTime"
	FieldOutOfBedTime        Field = "outOfBedTime"
	FieldSleepQuality        Field = "sleepQuality"
	FieldNotes               Field = "notes"
)

// Step describes one question of the form.
type Step struct {
	Field    Field
	Title    string
	Required bool
}

// Steps is the fixed question order. Notes is collected alongside the final
// step and is never required.
var Steps = []Step{
	{FieldDate, "Today's Date", true},
	{FieldBedTime, "Bedtime", true},
	{FieldTryToSleepTime, "When you tried to sleep", true},
	{FieldMinutesToFallAsleep, "Time to fall asleep", true},
	{FieldNightWakeups, "Night wakings", true},
	{FieldFinalWakeTime, "Final wake time", true},
	{FieldOutOfBedTime, "Out of bed time", true},
	{FieldSleepQuality, "Sleep quality rating", true},
}

// TotalSteps is the number of questions in step mode.
const TotalSteps = 8

// AutoSaveDelay is the debounce window between the last field mutation and
// the draft snapshot.
const AutoSaveDelay = 30 * time.Second

// EntryService is the slice of the sleep diary engine the form needs.
type EntryService interface {
	HasEntryForDate(ctx context.Context, clientID, date string, excludeID int) (bool, error)
	Create(ctx context.Context, req *diary.EntryRequest) (*diary.SleepEntry, error)
	Update(ctx context.Context, id int, req *diary.EntryRequest) (*diary.SleepEntry, error)
}

// Controller drives one client's pass through the diary form.
type Controller struct {
	mu       sync.Mutex
	clientID string
	entries  EntryService
	drafts   DraftStore

	step      int
	stepMode  bool
	values    map[Field]string
	editingID int

	saveDelay time.Duration
	timer     *time.Timer
	now       func() time.Time
}

type Option func(*Controller)

// WithAutoSaveDelay overrides the debounce window (tests use a short one).
func WithAutoSaveDelay(d time.Duration) Option {
	return func(c *Controller) { c.saveDelay = d }
}

// WithClock overrides the controller's clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(clientID string, entries EntryService, drafts DraftStore, opts ...Option) *Controller {
	c := &Controller{
		clientID:  clientID,
		entries:   entries,
		drafts:    drafts,
		step:      1,
		stepMode:  true,
		values:    map[Field]string{},
		saveDelay: AutoSaveDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetValuesLocked()
	return c
}

// Open prepares the form for a fresh entry. A draft younger than the TTL is
// restored; reports whether that happened.
func (c *Controller) Open(ctx context.Context) (restored bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.editingID = 0
	c.step = 1
	c.resetValuesLocked()

	draft, err := c.drafts.Get(ctx, c.clientID)
	if err != nil || draft == nil {
		return false, err
	}
	c.values[FieldDate] = draft.Date
	c.values[FieldBedTime] = draft.BedTime
	c.values[FieldTryToSleepTime] = draft.TryToSleepTime
	c.values[FieldMinutesToFallAsleep] = draft.MinutesToFallAsleep
	c.values[FieldNightWakeups] = draft.NightWakeups
	c.values[FieldFinalWakeTime] = draft.FinalWakeTime
	c.values[FieldOutOfBedTime] = draft.OutOfBedTime
	if draft.SleepQuality != "" {
		c.values[FieldSleepQuality] = draft.SleepQuality
	}
	c.values[FieldNotes] = draft.Notes
	return true, nil
}

// Edit loads an existing entry. Edit mode never restores a draft.
func (c *Controller) Edit(entry *diary.SleepEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.editingID = entry.ID
	c.step = 1
	c.values = map[Field]string{
		FieldDate:                entry.Date,
		FieldBedTime:             entry.BedTime,
		FieldTryToSleepTime:      entry.TryToSleepTime,
		FieldMinutesToFallAsleep: strconv.Itoa(entry.MinutesToFallAsleep),
		FieldNightWakeups:        strconv.Itoa(entry.NightWakeups),
		FieldFinalWakeTime:       entry.FinalWakeTime,
		FieldOutOfBedTime:        entry.OutOfBedTime,
		FieldSleepQuality:        strconv.Itoa(entry.SleepQuality),
		FieldNotes:               entry.Notes,
	}
}

func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// StepMode reports whether the form is in step-by-step presentation; the
// alternative shows all questions at once over the same field set.
func (c *Controller) StepMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepMode
}

func (c *Controller) SetStepMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepMode = on
}

func (c *Controller) Value(f Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[f]
}

// SetField records an answer and restarts the auto-save debounce.
func (c *Controller) SetField(f Field, value string) {
	c.mu.Lock()
	c.values[f] = value
	c.mu.Unlock()
	c.scheduleAutoSave()
}

// Next advances to the following step. Rejected when the current step's
// required answer is still empty, and at the final step (use Submit).
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stepMode {
		step := Steps[c.step-1]
		if step.Required && c.values[step.Field] == "" {
			return apperr.Validation("please complete: %s", step.Title)
		}
	}
	if c.step >= TotalSteps {
		return apperr.Validation("already at the final step")
	}
	c.step++
	return nil
}

// Previous steps back. Always allowed except from step 1.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step <= 1 {
		return apperr.Validation("already at the first step")
	}
	c.step--
	return nil
}

// Submit revalidates every required answer, rejects a same-date duplicate,
// persists through the diary engine, and clears the draft.
func (c *Controller) Submit(ctx context.Context) (*diary.SleepEntry, error) {
	c.mu.Lock()
	for _, step := range Steps {
		if step.Required && c.values[step.Field] == "" {
			c.mu.Unlock()
			return nil, apperr.Validation("please complete: %s", step.Title)
		}
	}
	req := c.requestLocked()
	editingID := c.editingID
	c.mu.Unlock()

	duplicate, err := c.entries.HasEntryForDate(ctx, c.clientID, req.Date, editingID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperr.Conflict("an entry for this date already exists; edit the existing entry instead")
	}

	var entry *diary.SleepEntry
	if editingID != 0 {
		entry, err = c.entries.Update(ctx, editingID, req)
	} else {
		entry, err = c.entries.Create(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if err := c.drafts.Clear(ctx, c.clientID); err != nil {
		return entry, err
	}
	c.reset()
	return entry, nil
}

// Cancel abandons the form and clears any saved draft.
func (c *Controller) Cancel(ctx context.Context) error {
	err := c.drafts.Clear(ctx, c.clientID)
	c.reset()
	return err
}

// Close stops the auto-save timer without touching the draft.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = 1
	c.editingID = 0
	c.resetValuesLocked()
	c.stopTimerLocked()
}

func (c *Controller) resetValuesLocked() {
	c.values = map[Field]string{
		FieldDate:         c.now().Format(diary.DateLayout),
		FieldSleepQuality: "5",
	}
}

func (c *Controller) scheduleAutoSave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.saveDelay, c.autoSave)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// autoSave fires on the debounce timer. The snapshot is taken only once the
// minimum viable fields are present; failures are silently dropped, the
// draft is advisory.
func (c *Controller) autoSave() {
	c.mu.Lock()
	if c.values[FieldDate] == "" || c.values[FieldBedTime] == "" || c.values[FieldFinalWakeTime] == "" {
		c.mu.Unlock()
		return
	}
	draft := &diary.Draft{
		Date:                c.values[FieldDate],
		BedTime:             c.values[FieldBedTime],
		TryToSleepTime:      c.values[FieldTryToSleepTime],
		MinutesToFallAsleep: c.values[FieldMinutesToFallAsleep],
		NightWakeups:        c.values[FieldNightWakeups],
		FinalWakeTime:       c.values[FieldFinalWakeTime],
		OutOfBedTime:        c.values[FieldOutOfBedTime],
		SleepQuality:        c.values[FieldSleepQuality],
		Notes:               c.values[FieldNotes],
		Timestamp:           c.now(),
	}
	clientID := c.clientID
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.drafts.Put(ctx, clientID, draft)
}

func (c *Controller) requestLocked() *diary.EntryRequest {
	atoi := func(f Field) int {
		n, _ := strconv.Atoi(c.values[f])
		return n
	}
	return &diary.EntryRequest{
		ClientID:            c.clientID,
		Date:                c.values[FieldDate],
		BedTime:             c.values[FieldBedTime],
		TryToSleepTime:      c.values[FieldTryToSleepTime],
		MinutesToFallAsleep: atoi(FieldMinutesToFallAsleep),
		NightWakeups:        atoi(FieldNightWakeups),
		FinalWakeTime:       c.values[FieldFinalWakeTime],
		OutOfBedTime:        c.values[FieldOutOfBedTime],
		SleepQuality:        atoi(FieldSleepQuality),
		Notes:               c.values[FieldNotes],
	}
}
