package messaging

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// fakeScheduler records tasks and runs them when the test advances its clock
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock forward, firing due tasks in time order
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool { return s.tasks[i].at < s.tasks[j].at })
		var next *fakeTimer
		for _, t := range s.tasks {
			if !t.stopped && !t.fired && t.at <= target {
				next = t
				break
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

func (s *fakeScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type statusCall struct {
	messageID string
	from, to  models.DeliveryStatus
}

// fakeRepo keeps conversations per viewer in memory
type fakeRepo struct {
	mu        sync.Mutex
	convs     map[string][]models.Conversation
	saved     []models.Message
	statuses  []statusCall
	resets    map[string]int
	increased map[string]int
	unreadLog []string
	stalled   []models.Message
	saveErr   error
	loadErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		convs:     make(map[string][]models.Conversation),
		resets:    make(map[string]int),
		increased: make(map[string]int),
	}
}

func (r *fakeRepo) LoadConversations(_ context.Context, viewer models.Viewer) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.convs[viewer.ID], nil
}

func (r *fakeRepo) SaveMessage(_ context.Context, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, msg)
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, messageID string, from, to models.DeliveryStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, statusCall{messageID, from, to})
	return true, nil
}

func (r *fakeRepo) ResetUnread(_ context.Context, conversationID string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[conversationID+"/"+string(role)]++
	r.unreadLog = append(r.unreadLog, "reset "+conversationID+"/"+string(role))
	return nil
}

func (r *fakeRepo) IncrementUnread(_ context.Context, conversationID string, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increased[conversationID+"/"+string(role)]++
	r.unreadLog = append(r.unreadLog, "inc "+conversationID+"/"+string(role))
	return nil
}

func (r *fakeRepo) StalledMessages(_ context.Context, before time.Time) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.stalled {
		if m.SentAt.Before(before) {
			out = append(out, m)
		}
	}
	return out, nil
}

// UnreadLog lists the unread writes in the order they reached storage
func (r *fakeRepo) UnreadLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.unreadLog...)
}

func (r *fakeRepo) Saved() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.saved...)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]models.Event
}

func (p *recordingPublisher) Publish(viewerID string, evt models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]models.Event)
	}
	p.events[viewerID] = append(p.events[viewerID], evt)
}

func (p *recordingPublisher) Names(viewerID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events[viewerID] {
		out = append(out, e.Event)
	}
	return out
}

func syncRunner(f func()) { f() }

// queueRunner holds background work until the test runs it
type queueRunner struct {
	mu    sync.Mutex
	funcs []func()
}

func (q *queueRunner) Go(f func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.funcs = append(q.funcs, f)
}

func (q *queueRunner) Drain() {
	q.mu.Lock()
	funcs := q.funcs
	q.funcs = nil
	q.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

var base = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func msgAt(id string, sender models.Role, text string, at time.Time, seq int64) models.Message {
	return models.Message{ID: id, SenderRole: sender, Text: text, SentAt: at, Seq: seq, Status: models.StatusRead}
}

// clinicianFixtures are the conversations of a clinician viewer: A ends at
// 10:00, B ends at 09:00 with one unread.
func clinicianFixtures() []models.Conversation {
	a := models.Conversation{
		ID:          "conv-a",
		Counterpart: models.Counterpart{ID: "pat-1", Name: "Jane Cooper", Role: models.RolePatient, Condition: "Hypertension"},
		Messages: []models.Message{
			msgAt("a1", models.RolePatient, "Morning doctor", base.Add(-10*time.Minute), 1),
			msgAt("a2", models.RoleClinician, "Good morning", base, 2),
		},
		Secure: true,
	}
	b := models.Conversation{
		ID:          "conv-b",
		Counterpart: models.Counterpart{ID: "pat-2", Name: "Robert Fox", Role: models.RolePatient, Condition: "Type 2 diabetes"},
		Messages: []models.Message{
			msgAt("b1", models.RolePatient, "Is my lab result in?", base.Add(-time.Hour), 1),
		},
		UnreadCount: 1,
		Secure:      true,
	}
	for i := range a.Messages {
		a.Messages[i].ConversationID = a.ID
	}
	b.Messages[0].ConversationID = b.ID
	b.Messages[0].Status = models.StatusDelivered
	return []models.Conversation{b, a}
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
