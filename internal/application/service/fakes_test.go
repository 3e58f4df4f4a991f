package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
)

// Monday.
var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryReminderRepo struct {
	mu      sync.Mutex
	stored  []*entity.Reminder
	saves   int
	saveErr error
}

func (m *memoryReminderRepo) Load(ctx context.Context) ([]*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Reminder, len(m.stored))
	for i, r := range m.stored {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *memoryReminderRepo) Save(ctx context.Context, reminders []*entity.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = reminders
	return nil
}

func (m *memoryReminderRepo) snapshot() []*entity.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored
}

type memorySettingsRepo struct {
	mu       sync.Mutex
	settings entity.Settings
	saveErr  error
	getErr   error
	gets     int
}

func (m *memorySettingsRepo) Get(ctx context.Context) (entity.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return entity.Settings{}, m.getErr
	}
	return m.settings, nil
}

func (m *memorySettingsRepo) Save(ctx context.Context, s entity.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = s
	return nil
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []dto.TriggeredReminder
	err       error
}

func (d *recordingDeliverer) Deliver(t dto.TriggeredReminder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.delivered = append(d.delivered, t)
	return nil
}

func (d *recordingDeliverer) subjects() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.delivered))
	for i, t := range d.delivered {
		out[i] = t.Reminder.EventSubject
	}
	return out
}

type recordingPresenter struct {
	mu        sync.Mutex
	presented []dto.TriggeredReminder
	fail      bool
}

func (p *recordingPresenter) Present(ctx context.Context, t dto.TriggeredReminder) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("screen unavailable")
	}
	p.presented = append(p.presented, t)
	return nil
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.presented)
}

type countingObserver struct {
	NopObserver
	mu             sync.Mutex
	created        int
	displayed      map[string]int
	actions        map[constant.Action]int
	deliveryFailed int
	persistFailed  int
	removed        int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{displayed: map[string]int{}, actions: map[constant.Action]int{}}
}

func (o *countingObserver) RemindersCreated(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created += n
}

func (o *countingObserver) RemindersDisplayed(path string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.displayed[path] += n
}

func (o *countingObserver) ActionApplied(a constant.Action) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions[a]++
}

func (o *countingObserver) DeliveryFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deliveryFailed++
}

func (o *countingObserver) PersistFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persistFailed++
}

func (o *countingObserver) RemindersRemoved(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed += n
}

type staticSource struct {
	mu    sync.Mutex
	byDay map[string][]entity.Event
	err   error
	calls int
}

func (s *staticSource) Events(ctx context.Context, date time.Time) ([]entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byDay[date.Format("2006-01-02")], nil
}

func meeting(subject string, start time.Time, length time.Duration) entity.Event {
	return entity.Event{
		Subject: subject,
		Start:   start,
		End:     start.Add(length),
	}
}

func pendingReminder(id string, scheduled, eventStart time.Time) *entity.Reminder {
	return &entity.Reminder{
		ID:                        id,
		EventID:                   "event-" + id,
		EventSubject:              "subject " + id,
		EventStartTime:            eventStart,
		EventEndTime:              eventStart.Add(time.Hour),
		OriginalNotificationTime:  scheduled,
		ScheduledNotificationTime: scheduled,
		Status:                    constant.StatusPending,
		CreatedAt:                 scheduled.Add(-time.Hour),
	}
}
