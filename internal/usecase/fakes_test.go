package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func floatPtr(v float64) *float64 { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics("test", prometheus.NewRegistry())
}

// recorder collects an ordered log of collaborator calls
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard entity.Keyboard
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	answered []string
	sendErr  error
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, keyboard entity.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return m.sendErr
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID+":"+text)
	return nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *fakeMessenger) last() sentMessage {
	msgs := m.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

type fakeAlertRepo struct {
	mu           sync.Mutex
	alerts       map[string]*entity.PriceAlert
	order        []string
	findActiveFn func()
	findCalls    int
	brokenIDs    map[string]bool
}

func newFakeAlertRepo(alerts ...*entity.PriceAlert) *fakeAlertRepo {
	r := &fakeAlertRepo{alerts: make(map[string]*entity.PriceAlert)}
	for _, a := range alerts {
		r.alerts[a.ID] = a
		r.order = append(r.order, a.ID)
	}
	return r
}

func (r *fakeAlertRepo) Create(_ context.Context, alert *entity.PriceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = alert
	r.order = append(r.order, alert.ID)
	return nil
}

func (r *fakeAlertRepo) FindByID(_ context.Context, id string) (*entity.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.brokenIDs[id] {
		return nil, fmt.Errorf("corrupt document %s", id)
	}
	a, ok := r.alerts[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAlertRepo) FindActiveByUser(_ context.Context, userID int64) ([]*entity.PriceAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PriceAlert
	for _, id := range r.order {
		if a := r.alerts[id]; a.UserID == userID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) FindActiveOrderedByLastChecked(_ context.Context) ([]*entity.PriceAlert, error) {
	r.mu.Lock()
	r.findCalls++
	hook := r.findActiveFn
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PriceAlert
	for _, id := range r.order {
		if a := r.alerts[id]; a.IsActive() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastCheckedAt, out[j].LastCheckedAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return out, nil
}

func (r *fakeAlertRepo) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	alerts, _ := r.FindActiveByUser(ctx, userID)
	return int64(len(alerts)), nil
}

func (r *fakeAlertRepo) UpdatePrice(_ context.Context, id string, update entity.PriceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return entity.ErrNotFound
	}
	a.CurrentPrice = floatPtr(update.Current)
	a.LowestPrice = floatPtr(update.Lowest)
	a.Currency = update.Currency
	a.BookingURL = update.BookingURL
	at := update.CheckedAt
	a.LastCheckedAt = &at
	return nil
}

func (r *fakeAlertRepo) MarkChecked(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return entity.ErrNotFound
	}
	a.LastCheckedAt = &at
	return nil
}

func (r *fakeAlertRepo) UpdateStatus(_ context.Context, id string, status entity.WatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return entity.ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeAlertRepo) ExpireDepartedBefore(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.alerts {
		if a.IsActive() && a.DepartureDate < date {
			a.Status = entity.WatchExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeAlertRepo) get(id string) *entity.PriceAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.alerts[id]
	return &cp
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.PriceHistoryEntry
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *entity.PriceHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) FindByAlert(_ context.Context, alertID string, limit int) ([]*entity.PriceHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PriceHistoryEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].AlertID == alertID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) StatsByAlert(_ context.Context, alertID string) (*entity.PriceStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entity.PriceStats{}
	var sum float64
	for _, e := range r.entries {
		if e.AlertID != alertID {
			continue
		}
		if stats.Count == 0 || e.Price < stats.Min {
			stats.Min = e.Price
		}
		if e.Price > stats.Max {
			stats.Max = e.Price
		}
		sum += e.Price
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Average = sum / float64(stats.Count)
	}
	return stats, nil
}

func (r *fakeHistoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type fakeTrackRepo struct {
	mu     sync.Mutex
	tracks map[string]*entity.FlightTrack
	order  []string
	rec    *recorder
}

func newFakeTrackRepo(tracks ...*entity.FlightTrack) *fakeTrackRepo {
	r := &fakeTrackRepo{tracks: make(map[string]*entity.FlightTrack)}
	for _, t := range tracks {
		r.tracks[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	return r
}

func (r *fakeTrackRepo) Create(_ context.Context, track *entity.FlightTrack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.add("create:%d", track.SegmentIndex)
	cp := *track
	r.tracks[track.ID] = &cp
	r.order = append(r.order, track.ID)
	return nil
}

func (r *fakeTrackRepo) FindByID(_ context.Context, id string) (*entity.FlightTrack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTrackRepo) FindByIDForUser(ctx context.Context, id string, userID int64) (*entity.FlightTrack, error) {
	t, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, entity.ErrNotFound
	}
	return t, nil
}

func (r *fakeTrackRepo) filter(keep func(*entity.FlightTrack) bool) []*entity.FlightTrack {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FlightTrack
	for _, id := range r.order {
		if t := r.tracks[id]; keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeTrackRepo) FindActive(_ context.Context) ([]*entity.FlightTrack, error) {
	return r.filter(func(t *entity.FlightTrack) bool { return t.IsActive() }), nil
}

func (r *fakeTrackRepo) FindActiveByUser(_ context.Context, userID int64) ([]*entity.FlightTrack, error) {
	return r.filter(func(t *entity.FlightTrack) bool { return t.IsActive() && t.UserID == userID }), nil
}

func (r *fakeTrackRepo) FindByParentRouteKey(_ context.Context, key string) ([]*entity.FlightTrack, error) {
	return r.filter(func(t *entity.FlightTrack) bool { return t.ParentRouteKey == key }), nil
}

func (r *fakeTrackRepo) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	tracks, _ := r.FindActiveByUser(ctx, userID)
	return int64(len(tracks)), nil
}

func (r *fakeTrackRepo) UpdateStatusSnapshot(_ context.Context, id string, snapshot entity.StatusSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return entity.ErrNotFound
	}
	t.LastStatus = &snapshot
	at := snapshot.CheckedAt
	t.LastCheckedAt = &at
	return nil
}

func (r *fakeTrackRepo) MarkChecked(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return entity.ErrNotFound
	}
	t.LastCheckedAt = &at
	return nil
}

func (r *fakeTrackRepo) Cancel(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tracks[id]
	if !ok {
		return entity.ErrNotFound
	}
	t.Status = entity.WatchCancelled
	t.CancelledAt = &at
	return nil
}

func (r *fakeTrackRepo) ExpireDepartedBefore(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tracks {
		if t.IsActive() && t.Date < date {
			t.Status = entity.WatchExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeTrackRepo) get(id string) *entity.FlightTrack {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.tracks[id]
	return &cp
}

type fakeFlightData struct {
	mu         sync.Mutex
	offers     []entity.Offer
	searchErr  error
	statuses   map[string]*entity.FlightStatus
	statusErr  error
	airports   map[string][]entity.Airport
	searches   int
	statusHits int
	rec        *recorder
}

func (f *fakeFlightData) SearchOffers(_ context.Context, _ entity.SearchQuery) ([]entity.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]entity.Offer(nil), f.offers...), nil
}

func (f *fakeFlightData) FetchStatus(_ context.Context, carrier, number, date string) (*entity.FlightStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusHits++
	f.rec.add("fetch:%s%s", carrier, number)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status, ok := f.statuses[carrier+number+"@"+date]
	if !ok {
		return nil, nil
	}
	cp := *status
	return &cp, nil
}

func (f *fakeFlightData) ResolveAirport(_ context.Context, keyword string) ([]entity.Airport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.airports[keyword], nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*entity.User)}
}

func (r *fakeUserRepo) Touch(_ context.Context, user *entity.User, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		cp := *user
		cp.CreatedAt = at
		cp.LastActiveAt = at
		r.users[user.ID] = &cp
		return nil
	}
	existing.LastActiveAt = at
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateSubscription(_ context.Context, id int64, tier entity.SubscriptionTier, expiry *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		u = &entity.User{ID: id}
		r.users[id] = u
	}
	u.Tier = tier
	u.SubscriptionExpiry = expiry
	return nil
}

type fakeSessions struct {
	mu     sync.Mutex
	states map[int64]*entity.ConversationState
	setErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{states: make(map[int64]*entity.ConversationState)}
}

func (s *fakeSessions) Get(_ context.Context, userID int64) (*entity.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return state.Clone(), nil
}

func (s *fakeSessions) Set(_ context.Context, userID int64, state *entity.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.states[userID] = state.Clone()
	return nil
}

func (s *fakeSessions) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

func (s *fakeSessions) peek(userID int64) *entity.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID].Clone()
}

// harness wires every usecase over in-memory fakes
type harness struct {
	now        time.Time
	messenger  *fakeMessenger
	alerts     *fakeAlertRepo
	history    *fakeHistoryRepo
	tracks     *fakeTrackRepo
	users      *fakeUserRepo
	sessions   *fakeSessions
	flightData *fakeFlightData
	metrics    *metrics.Metrics

	notifier     *Notifier
	monitor      *PriceMonitor
	tracker      *FlightTracker
	accounts     *AccountService
	alertService *AlertService
	conversation *Conversation
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		now:        time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		messenger:  &fakeMessenger{},
		alerts:     newFakeAlertRepo(),
		history:    &fakeHistoryRepo{},
		tracks:     newFakeTrackRepo(),
		users:      newFakeUserRepo(),
		sessions:   newFakeSessions(),
		flightData: &fakeFlightData{statuses: map[string]*entity.FlightStatus{}, airports: map[string][]entity.Airport{}},
		metrics:    newTestMetrics(),
	}
	log := logger.NewNopLogger()
	clock := func() time.Time { return h.now }

	h.notifier = NewNotifier(h.messenger, h.metrics, log)
	h.monitor = NewPriceMonitor(h.alerts, h.history, h.flightData, h.notifier, h.metrics, log,
		PriceMonitorOptions{Policy: DefaultDropPolicy(), Now: clock})
	h.tracker = NewFlightTracker(h.tracks, h.flightData, h.notifier, h.metrics, log,
		FlightTrackerOptions{Policy: DefaultTrackerPolicy(), Now: clock})
	h.accounts = NewAccountService(h.users, h.alerts, h.tracks, Quota{MaxAlerts: 3, MaxTracks: 5}, log)
	h.accounts.now = clock
	h.alertService = NewAlertService(h.alerts, h.history, h.accounts, log)
	h.alertService.now = clock
	h.conversation = NewConversation(h.sessions,
		NewAirportResolver(nil, h.flightData, log),
		NewAirlineResolver(),
		h.flightData, h.alertService, h.tracker, h.accounts, h.notifier, log,
		ConversationOptions{HorizonDays: 330, MaxOffers: 5, Now: clock})
	return h
}

func nopLogger() logger.Logger {
	return logger.NewNopLogger()
}
