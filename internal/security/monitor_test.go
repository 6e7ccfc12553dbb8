package security

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/shared/cache"
)

type fakeInterviews struct {
	mu    sync.Mutex
	info  map[int64]InterviewInfo
	notes map[int64]string
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{
		info: map[int64]InterviewInfo{
			7: {ID: 7, JobID: 1, OwnerID: "owner-1", Status: "in_progress"},
		},
		notes: map[int64]string{},
	}
}

func (f *fakeInterviews) InterviewInfo(ctx context.Context, id int64) (InterviewInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.info[id]
	if !ok {
		return InterviewInfo{}, ErrInterviewNotFound
	}
	return info, nil
}

func (f *fakeInterviews) AppendNote(ctx context.Context, id int64, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[id] += note
	return nil
}

func (f *fakeInterviews) note(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes[id]
}

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("cache down")
}
func (failingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Delete(ctx context.Context, key string) error { return errors.New("cache down") }
func (failingCache) DeletePrefix(ctx context.Context, prefix string) error {
	return errors.New("cache down")
}
func (failingCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errors.New("cache down")
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	monitor    *Monitor
	repo       *MemoryRepo
	cache      *cache.MemoryCache
	interviews *fakeInterviews
}

func newTestEnv() testEnv {
	now := func() time.Time { return fixedNow }
	repo := NewMemoryRepo()
	c := cache.NewMemoryCache(100, now)
	interviews := newFakeInterviews()
	return testEnv{
		monitor:    &Monitor{Repo: repo, Cache: c, Interviews: interviews, Now: now},
		repo:       repo,
		cache:      c,
		interviews: interviews,
	}
}

func TestLogActivityDevtoolsFlagsSessionAndAppendsNote(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	e, err := env.monitor.LogActivity(ctx, Activity{
		InterviewID: 7,
		EventType:   EventDevtoolsOpened,
		Timestamp:   "2026-03-01T09:30:00Z",
		Metadata:    map[string]any{"violations": float64(2)},
		IPAddress:   "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if e.ID == 0 || e.EventType != EventDevtoolsOpened {
		t.Fatalf("unexpected event %+v", e)
	}

	flag, ok, err := env.cache.Get(ctx, FlagKey(7))
	if err != nil || !ok || flag != EventDevtoolsOpened {
		t.Fatalf("expected flag marker, got %q ok=%v err=%v", flag, ok, err)
	}
	want := "\n[SECURITY ALERT] devtools_opened at 2026-03-01T09:30:00Z"
	if got := env.interviews.note(7); got != want {
		t.Fatalf("expected note %q, got %q", want, got)
	}
	violations, ok, _ := env.cache.Get(ctx, ViolationKey(7))
	if !ok || violations != "2" {
		t.Fatalf("expected violations gauge 2, got %q", violations)
	}
}

func TestLogActivityNonCriticalDoesNotFlag(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	e, err := env.monitor.LogActivity(ctx, Activity{InterviewID: 7, EventType: "tab_switch", IPAddress: "10.0.0.1"}, 0)
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if !e.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected server time, got %v", e.Timestamp)
	}
	if _, ok, _ := env.cache.Get(ctx, FlagKey(7)); ok {
		t.Fatalf("did not expect flag marker")
	}
	if note := env.interviews.note(7); note != "" {
		t.Fatalf("did not expect note, got %q", note)
	}
}

func TestLogActivityDefaultsAndTimestampFallback(t *testing.T) {
	env := newTestEnv()

	e, err := env.monitor.LogActivity(context.Background(), Activity{InterviewID: 7, Timestamp: "yesterday", IPAddress: "10.0.0.1"}, 0)
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if e.EventType != EventUnknown {
		t.Fatalf("expected unknown event type, got %q", e.EventType)
	}
	if !e.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected fallback to server time, got %v", e.Timestamp)
	}
}

func TestLogActivityRetagsIPChange(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if err := SaveSession(ctx, env.cache, 7, SessionRecord{Email: "jane@example.com", IPAddress: "10.0.0.1"}, 0); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	e, err := env.monitor.LogActivity(ctx, Activity{
		InterviewID: 7,
		EventType:   "heartbeat",
		Metadata:    map[string]any{"violations": float64(1)},
		IPAddress:   "10.0.0.2",
	})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if e.EventType != EventIPAddressChanged {
		t.Fatalf("expected ip_address_changed, got %q", e.EventType)
	}
	if e.Metadata["original_ip"] != "10.0.0.1" || e.Metadata["new_ip"] != "10.0.0.2" {
		t.Fatalf("unexpected metadata %v", e.Metadata)
	}
	if !strings.Contains(env.interviews.note(7), "ip_address_changed") {
		t.Fatalf("expected security note, got %q", env.interviews.note(7))
	}

	session, ok, err := LoadSession(ctx, env.cache, 7)
	if err != nil || !ok {
		t.Fatalf("LoadSession ok=%v err=%v", ok, err)
	}
	if session.LastEvent != "heartbeat" || session.Violations != 1 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestLogActivityAutoSubmitted(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		eventType string
		want      bool
	}{
		{EventAutoSubmitTimeout, true},
		{EventAutoSubmitIdle, true},
		{"auto_submit_custom", true},
		{"manual_submit", false},
	}
	for _, tt := range tests {
		e, err := env.monitor.LogActivity(context.Background(), Activity{InterviewID: 7, EventType: tt.eventType})
		if err != nil {
			t.Fatalf("%s: %v", tt.eventType, err)
		}
		if e.AutoSubmitted != tt.want {
			t.Fatalf("%s: expected auto_submitted=%v", tt.eventType, tt.want)
		}
	}
}

func TestLogActivityStoresFingerprint(t *testing.T) {
	env := newTestEnv()

	e, err := env.monitor.LogActivity(context.Background(), Activity{
		InterviewID: 7,
		EventType:   "focus_lost",
		Metadata:    map[string]any{"deviceFingerprint": map[string]any{"screen": "1920x1080"}},
	})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if e.DeviceFingerprint != `{"screen":"1920x1080"}` {
		t.Fatalf("unexpected fingerprint %q", e.DeviceFingerprint)
	}
}

func TestLogActivityUnknownInterview(t *testing.T) {
	env := newTestEnv()
	_, err := env.monitor.LogActivity(context.Background(), Activity{InterviewID: 99, EventType: EventDevtoolsOpened})
	if !errors.Is(err, ErrInterviewNotFound) {
		t.Fatalf("expected ErrInterviewNotFound, got %v", err)
	}
}

func TestLogActivitySurvivesCacheOutage(t *testing.T) {
	env := newTestEnv()
	env.monitor.Cache = failingCache{}

	e, err := env.monitor.LogActivity(context.Background(), Activity{InterviewID: 7, EventType: EventDevtoolsOpened})
	if err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if e.ID == 0 {
		t.Fatalf("expected durable event")
	}
	if env.interviews.note(7) == "" {
		t.Fatalf("expected note even without cache")
	}
}

func TestGetSecurityStatusMergesCacheAndLog(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_ = SaveSession(ctx, env.cache, 7, SessionRecord{Email: "jane@example.com", IPAddress: "10.0.0.1"}, 0)
	_ = env.cache.Set(ctx, DeviceKey(7), "10.0.0.1", SessionTTL)

	events := []Activity{
		{InterviewID: 7, EventType: "tab_switch", Timestamp: "2026-03-01T09:00:00Z", IPAddress: "10.0.0.1", Metadata: map[string]any{"violations": float64(1)}},
		{InterviewID: 7, EventType: EventDevtoolsOpened, Timestamp: "2026-03-01T09:05:00Z", IPAddress: "10.0.0.1", Metadata: map[string]any{"violations": float64(2)}},
		{InterviewID: 7, EventType: EventAutoSubmitIdle, Timestamp: "2026-03-01T09:10:00Z", IPAddress: "10.0.0.1", Metadata: map[string]any{"violations": float64(3)}},
	}
	for _, a := range events {
		if _, err := env.monitor.LogActivity(ctx, a); err != nil {
			t.Fatalf("LogActivity: %v", err)
		}
	}

	status, err := env.monitor.GetSecurityStatus(ctx, "owner-1", 7)
	if err != nil {
		t.Fatalf("GetSecurityStatus: %v", err)
	}
	if status.Violations != 3 || !status.IsFlagged || status.FlagReason != EventAutoSubmitIdle {
		t.Fatalf("unexpected live state %+v", status)
	}
	if !status.ActiveSession || status.DeviceIP == nil || *status.DeviceIP != "10.0.0.1" {
		t.Fatalf("unexpected session state %+v", status)
	}
	if status.LastEvent != EventAutoSubmitIdle || status.LastActivity == nil {
		t.Fatalf("unexpected last activity %+v", status)
	}
	if status.TotalSecurityEvents != 3 {
		t.Fatalf("expected 3 events, got %d", status.TotalSecurityEvents)
	}
	if len(status.CriticalEvents) != 2 || status.CriticalEvents[0].EventType != EventAutoSubmitIdle {
		t.Fatalf("unexpected critical events %+v", status.CriticalEvents)
	}
}

func TestGetSecurityStatusDegradesWithoutCache(t *testing.T) {
	env := newTestEnv()
	env.monitor.Cache = failingCache{}

	status, err := env.monitor.GetSecurityStatus(context.Background(), "owner-1", 7)
	if err != nil {
		t.Fatalf("GetSecurityStatus: %v", err)
	}
	if status.Violations != 0 || status.IsFlagged || status.ActiveSession || status.DeviceIP != nil || status.LastActivity != nil {
		t.Fatalf("expected zeroed live state, got %+v", status)
	}
	if status.CriticalEvents == nil {
		t.Fatalf("expected empty critical events slice")
	}
}

func TestGetSecurityStatusOwnership(t *testing.T) {
	env := newTestEnv()
	if _, err := env.monitor.GetSecurityStatus(context.Background(), "someone-else", 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.monitor.GetSecurityStatus(context.Background(), "owner-1", 42); !errors.Is(err, ErrInterviewNotFound) {
		t.Fatalf("expected ErrInterviewNotFound, got %v", err)
	}
}

func TestRecentCriticalLimitsToFive(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, _ = repo.Append(ctx, Event{InterviewID: 7, EventType: EventDevtoolsOpened, Timestamp: fixedNow.Add(time.Duration(i) * time.Minute)})
	}
	_, _ = repo.Append(ctx, Event{InterviewID: 7, EventType: "tab_switch", Timestamp: fixedNow.Add(time.Hour)})

	events, err := repo.RecentCritical(ctx, 7, 5)
	if err != nil {
		t.Fatalf("RecentCritical: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	if !events[0].Timestamp.Equal(fixedNow.Add(6 * time.Minute)) {
		t.Fatalf("expected newest first, got %v", events[0].Timestamp)
	}
}

type recordingNotifier struct {
	sent chan notify.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	r.sent <- n
	return nil
}

func TestRecordCriticalNotifiesOwner(t *testing.T) {
	env := newTestEnv()
	notifier := &recordingNotifier{sent: make(chan notify.Notification, 1)}
	env.monitor.Notifier = notifier

	_, err := env.monitor.Record(context.Background(), Event{
		InterviewID: 7,
		EventType:   EventMultiDevice,
		IPAddress:   "10.0.0.2",
		Metadata:    map[string]any{"original_ip": "10.0.0.1", "new_ip": "10.0.0.2"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	select {
	case n := <-notifier.sent:
		if n.UserID != "owner-1" || n.Type != notify.TypeInterviewFlagged {
			t.Fatalf("unexpected notification %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected flagged notification")
	}
	if flag, ok, _ := env.cache.Get(context.Background(), FlagKey(7)); !ok || flag != EventMultiDevice {
		t.Fatalf("expected flag marker, got %q", flag)
	}
}
