// Package capacity keeps per-person capacity settings and answers how many
// hours a person can spend on OKR work on a given day.
package capacity

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/event"
	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/validation"
)

// Event reasons attached to capacity.updated.
const (
	ReasonSettings        = "settings"
	ReasonExceptionAdded  = "exception.added"
	ReasonExceptionRemove = "exception.removed"
	ReasonReset           = "reset"
)

// Defaults seeds settings for users that have never been configured.
type Defaults struct {
	WeeklyCapacity float64 `json:"weekly_capacity" mapstructure:"weekly_capacity" validate:"gte=0"`
	DailyLimit     float64 `json:"daily_limit" mapstructure:"daily_limit" validate:"gte=0"`
	OKRAllocation  float64 `json:"okr_allocation" mapstructure:"okr_allocation" validate:"gte=0,lte=100"`
}

// DefaultDefaults is 40 h/week, 8 h/day, 20% OKR allocation.
func DefaultDefaults() Defaults {
	return Defaults{WeeklyCapacity: 40, DailyLimit: 8, OKRAllocation: 20}
}

// Validate checks the defaults with the same bounds as a settings update.
func (d Defaults) Validate() error {
	return validation.Struct(d)
}

func (d Defaults) settings(userID string) models.CapacitySettings {
	return models.CapacitySettings{
		UserID:         userID,
		WeeklyCapacity: d.WeeklyCapacity,
		DailyLimit:     d.DailyLimit,
		OKRAllocation:  d.OKRAllocation,
		Exceptions:     []models.CapacityException{},
	}
}

// SettingsPatch merges into stored settings; nil fields are kept.
type SettingsPatch struct {
	WeeklyCapacity *float64 `json:"weekly_capacity" validate:"omitnil,gte=0"`
	DailyLimit     *float64 `json:"daily_limit" validate:"omitnil,gte=0"`
	OKRAllocation  *float64 `json:"okr_allocation" validate:"omitnil,gte=0,lte=100"`
}

// ExceptionInput describes a dated override of daily availability.
type ExceptionInput struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Hours  float64 `json:"hours" validate:"gte=0"`
	Reason string  `json:"reason" validate:"max=500"`
}

// DayAvailability is one day of AvailableRange.
type DayAvailability struct {
	Date      time.Time
	Hours     float64
	Exception bool
}

// Model owns capacity settings for every known user.
type Model struct {
	mu       sync.RWMutex
	settings map[string]*models.CapacitySettings
	defaults Defaults

	now   func() time.Time
	newID func() string
	bus   *event.Bus
	log   *logging.Logger
}

// Option configures a Model.
type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(m *Model) { m.newID = gen }
}

func WithEventBus(bus *event.Bus) Option {
	return func(m *Model) { m.bus = bus }
}

func WithLogger(l *logging.Logger) Option {
	return func(m *Model) { m.log = l.WithComponent("capacity") }
}

func NewModel(defaults Defaults, opts ...Option) *Model {
	m := &Model{
		settings: make(map[string]*models.CapacitySettings),
		defaults: defaults,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Defaults returns the settings template used for unconfigured users.
func (m *Model) Defaults() Defaults { return m.defaults }

// GetSettings returns a copy of the stored settings, or the defaults for a
// user that has never been configured. Defaults are not stored.
func (m *Model) GetSettings(userID string) models.CapacitySettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(userID)
}

func (m *Model) lookup(userID string) models.CapacitySettings {
	if s, ok := m.settings[userID]; ok {
		return s.Clone()
	}
	return m.defaults.settings(userID)
}

// IsStored reports whether userID has explicit settings.
func (m *Model) IsStored(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.settings[userID]
	return ok
}

// UpdateSettings merges patch into the user's settings and stores the result.
func (m *Model) UpdateSettings(userID string, patch SettingsPatch) (models.CapacitySettings, error) {
	if err := requireUser(userID); err != nil {
		return models.CapacitySettings{}, err
	}
	if err := validation.Struct(patch); err != nil {
		return models.CapacitySettings{}, err
	}
	if err := patch.checkFinite(); err != nil {
		return models.CapacitySettings{}, err
	}

	m.mu.Lock()
	s := m.materialize(userID)
	if patch.WeeklyCapacity != nil {
		s.WeeklyCapacity = *patch.WeeklyCapacity
	}
	if patch.DailyLimit != nil {
		s.DailyLimit = *patch.DailyLimit
	}
	if patch.OKRAllocation != nil {
		s.OKRAllocation = *patch.OKRAllocation
	}
	s.UpdatedAt = m.now()
	out := s.Clone()
	m.mu.Unlock()

	m.log.WithUser(userID).Debug("capacity updated", "weekly", out.WeeklyCapacity, "daily", out.DailyLimit, "allocation", out.OKRAllocation)
	m.bus.Publish(event.NewCapacityUpdatedEvent(out, ReasonSettings))
	return out, nil
}

func (p SettingsPatch) checkFinite() error {
	for _, f := range []struct {
		field string
		value *float64
	}{
		{"weekly_capacity", p.WeeklyCapacity},
		{"daily_limit", p.DailyLimit},
		{"okr_allocation", p.OKRAllocation},
	} {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return okrerrors.NewValidationError(f.field, "must be finite", *f.value)
		}
	}
	return nil
}

// AddException records an override for in.Date. An existing exception on the
// same date is replaced and keeps its id. Exceptions stay sorted by date.
func (m *Model) AddException(userID string, in ExceptionInput) (models.CapacityException, error) {
	if err := requireUser(userID); err != nil {
		return models.CapacityException{}, err
	}
	in.Date = strings.TrimSpace(in.Date)
	if err := validation.Struct(in); err != nil {
		return models.CapacityException{}, err
	}
	if math.IsNaN(in.Hours) || math.IsInf(in.Hours, 0) {
		return models.CapacityException{}, okrerrors.NewValidationError("hours", "must be finite", in.Hours)
	}

	m.mu.Lock()
	s := m.materialize(userID)
	var ex models.CapacityException
	replaced := false
	for i := range s.Exceptions {
		if s.Exceptions[i].Date == in.Date {
			s.Exceptions[i].Hours = in.Hours
			s.Exceptions[i].Reason = in.Reason
			ex = s.Exceptions[i]
			replaced = true
			break
		}
	}
	if !replaced {
		ex = models.CapacityException{ID: m.newID(), Date: in.Date, Hours: in.Hours, Reason: in.Reason}
		s.Exceptions = append(s.Exceptions, ex)
		sortExceptions(s.Exceptions)
	}
	s.UpdatedAt = m.now()
	out := s.Clone()
	m.mu.Unlock()

	m.log.WithUser(userID).Debug("capacity exception added", "date", ex.Date, "hours", ex.Hours, "replaced", replaced)
	m.bus.Publish(event.NewCapacityUpdatedEvent(out, ReasonExceptionAdded))
	return ex, nil
}

// RemoveException deletes the exception with id. Removing an unknown id is a
// no-op; the bool reports whether anything was removed.
func (m *Model) RemoveException(userID, id string) (models.CapacitySettings, bool) {
	m.mu.Lock()
	s, ok := m.settings[userID]
	if !ok {
		out := m.defaults.settings(userID)
		m.mu.Unlock()
		return out, false
	}
	idx := -1
	for i, ex := range s.Exceptions {
		if ex.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		out := s.Clone()
		m.mu.Unlock()
		return out, false
	}
	s.Exceptions = append(s.Exceptions[:idx], s.Exceptions[idx+1:]...)
	s.UpdatedAt = m.now()
	out := s.Clone()
	m.mu.Unlock()

	m.log.WithUser(userID).Debug("capacity exception removed", "exception_id", id)
	m.bus.Publish(event.NewCapacityUpdatedEvent(out, ReasonExceptionRemove))
	return out, true
}

// ResetSettings restores the defaults and drops every exception. The user
// stays stored so the reset is persisted.
func (m *Model) ResetSettings(userID string) (models.CapacitySettings, error) {
	if err := requireUser(userID); err != nil {
		return models.CapacitySettings{}, err
	}
	m.mu.Lock()
	s := m.defaults.settings(userID)
	s.UpdatedAt = m.now()
	m.settings[userID] = &s
	out := s.Clone()
	m.mu.Unlock()

	m.log.WithUser(userID).Debug("capacity reset")
	m.bus.Publish(event.NewCapacityUpdatedEvent(out, ReasonReset))
	return out, nil
}

// AvailableHours is the number of OKR hours userID has on date.
func (m *Model) AvailableHours(userID string, date time.Time) float64 {
	return Available(m.GetSettings(userID), date)
}

// AvailableRange lists availability for every day from start to end
// inclusive. An inverted range yields nil.
func (m *Model) AvailableRange(userID string, start, end time.Time) []DayAvailability {
	s := m.GetSettings(userID)
	first, last := models.Day(start), models.Day(end)
	if last.Before(first) {
		return nil
	}
	var out []DayAvailability
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		_, isException := exceptionFor(s, d)
		out = append(out, DayAvailability{Date: d, Hours: Available(s, d), Exception: isException})
	}
	return out
}

// Load replaces the stored settings for each given user. Every entry is
// validated before any of them is applied.
func (m *Model) Load(settings ...models.CapacitySettings) error {
	staged := make([]models.CapacitySettings, 0, len(settings))
	for _, s := range settings {
		if err := validateSettings(s); err != nil {
			return err
		}
		c := s.Clone()
		sortExceptions(c.Exceptions)
		staged = append(staged, c)
	}

	m.mu.Lock()
	for i := range staged {
		m.settings[staged[i].UserID] = &staged[i]
	}
	m.mu.Unlock()
	m.log.Debug("capacity loaded", "users", len(staged))
	return nil
}

// All returns every stored user's settings ordered by user id.
func (m *Model) All() []models.CapacitySettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CapacitySettings, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// materialize returns the stored settings for userID, creating them from the
// defaults if needed. Callers hold the write lock.
func (m *Model) materialize(userID string) *models.CapacitySettings {
	if s, ok := m.settings[userID]; ok {
		return s
	}
	s := m.defaults.settings(userID)
	m.settings[userID] = &s
	return &s
}

// Available applies the availability rule to s: the exception hours when
// one exists for date's calendar day, otherwise
// min(DailyLimit, WeeklyCapacity/7) scaled by OKRAllocation.
func Available(s models.CapacitySettings, date time.Time) float64 {
	if ex, ok := exceptionFor(s, date); ok {
		return ex.Hours
	}
	return math.Min(s.DailyLimit, s.WeeklyCapacity/7) * s.OKRAllocation / 100
}

func exceptionFor(s models.CapacitySettings, date time.Time) (models.CapacityException, bool) {
	key := models.DateKey(date)
	for _, ex := range s.Exceptions {
		if ex.Date == key {
			return ex, true
		}
	}
	return models.CapacityException{}, false
}

func sortExceptions(exs []models.CapacityException) {
	sort.SliceStable(exs, func(i, j int) bool { return exs[i].Date < exs[j].Date })
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return okrerrors.NewValidationError("user_id", "is required", nil)
	}
	return nil
}

func validateSettings(s models.CapacitySettings) error {
	if err := requireUser(s.UserID); err != nil {
		return err
	}
	d := Defaults{WeeklyCapacity: s.WeeklyCapacity, DailyLimit: s.DailyLimit, OKRAllocation: s.OKRAllocation}
	if err := d.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Exceptions))
	for _, ex := range s.Exceptions {
		if err := validation.Var("date", ex.Date, "required,datetime=2006-01-02"); err != nil {
			return err
		}
		if ex.Hours < 0 {
			return okrerrors.NewValidationError("hours", "must be >= 0", ex.Hours)
		}
		if seen[ex.Date] {
			return okrerrors.NewValidationError("exceptions", "duplicate date", ex.Date)
		}
		seen[ex.Date] = true
	}
	return nil
}
