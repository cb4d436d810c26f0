package goals

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// --- goal store ---

type fakeGoalStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]Goal

	upsertErr        error
	deleteDefaultErr error
	ops              []string
}

func newFakeGoalStore() *fakeGoalStore {
	return &fakeGoalStore{rows: make(map[uuid.UUID]map[string]Goal)}
}

func (s *fakeGoalStore) userRows(userID uuid.UUID) map[string]Goal {
	if s.rows[userID] == nil {
		s.rows[userID] = make(map[string]Goal)
	}
	return s.rows[userID]
}

func (s *fakeGoalStore) FindByDate(_ context.Context, userID uuid.UUID, date Date) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.userRows(userID)[date.String()]
	if !ok || g.GoalDate == nil {
		return nil, nil
	}
	return &g, nil
}

func (s *fakeGoalStore) FindMostRecentBefore(_ context.Context, userID uuid.UUID, date Date) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *Goal
	var def *Goal
	for _, g := range s.userRows(userID) {
		g := g
		if g.GoalDate == nil {
			def = &g
			continue
		}
		if g.GoalDate.Before(date) && (best == nil || g.GoalDate.After(*best.GoalDate)) {
			best = &g
		}
	}
	if best != nil {
		return best, nil
	}
	return def, nil
}

func (s *fakeGoalStore) Upsert(_ context.Context, g *Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "upsert")
	if s.upsertErr != nil {
		return s.upsertErr
	}
	g.DateKey = dateKeyFor(g.GoalDate)
	rows := s.userRows(g.UserID)
	now := time.Now()
	if existing, ok := rows[g.DateKey.String()]; ok {
		g.ID = existing.ID
		g.CreatedAt = existing.CreatedAt
	} else {
		g.ID = uuid.New()
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	stored := *g
	stored.Targets = g.Targets.Clone()
	rows[g.DateKey.String()] = stored
	return nil
}

func (s *fakeGoalStore) DeleteRange(_ context.Context, userID uuid.UUID, from, to Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "delete_range")
	var n int64
	rows := s.userRows(userID)
	for k, g := range rows {
		if g.GoalDate != nil && !g.GoalDate.Before(from) && g.GoalDate.Before(to) {
			delete(rows, k)
			n++
		}
	}
	return n, nil
}

func (s *fakeGoalStore) DeleteDefault(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "delete_default")
	if s.deleteDefaultErr != nil {
		return 0, s.deleteDefaultErr
	}
	rows := s.userRows(userID)
	key := Date{defaultDateKey}.String()
	if _, ok := rows[key]; !ok {
		return 0, nil
	}
	delete(rows, key)
	return 1, nil
}

// InTx restores the previous rows when fn fails.
func (s *fakeGoalStore) InTx(_ context.Context, fn func(tx GoalStore) error) error {
	s.mu.Lock()
	snapshot := make(map[uuid.UUID]map[string]Goal, len(s.rows))
	for u, rows := range s.rows {
		cp := make(map[string]Goal, len(rows))
		for k, g := range rows {
			cp[k] = g
		}
		snapshot[u] = cp
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.rows = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeGoalStore) count(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userRows(userID))
}

func (s *fakeGoalStore) hasDefault(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.userRows(userID)[Date{defaultDateKey}.String()]
	return ok
}

func (s *fakeGoalStore) put(userID uuid.UUID, date *Date, t Targets) {
	_ = s.Upsert(context.Background(), &Goal{UserID: userID, GoalDate: date, Targets: t})
}

// --- preset store ---

type fakePresetStore struct {
	mu      sync.Mutex
	presets map[uuid.UUID]GoalPreset
}

func newFakePresetStore() *fakePresetStore {
	return &fakePresetStore{presets: make(map[uuid.UUID]GoalPreset)}
}

func (s *fakePresetStore) Create(_ context.Context, p *GoalPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.presets[p.ID] = *p
	return nil
}

func (s *fakePresetStore) ListByUser(_ context.Context, userID uuid.UUID) ([]GoalPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GoalPreset, 0)
	for _, p := range s.presets {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PresetName < out[j].PresetName })
	return out, nil
}

func (s *fakePresetStore) Get(_ context.Context, userID, id uuid.UUID) (*GoalPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presets[id]
	if !ok || p.UserID != userID {
		return nil, ErrPresetNotFound
	}
	return &p, nil
}

func (s *fakePresetStore) Update(_ context.Context, p *GoalPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.presets[p.ID]
	if !ok || existing.UserID != p.UserID {
		return ErrPresetNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.presets[p.ID] = *p
	return nil
}

func (s *fakePresetStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presets[id]
	if !ok || p.UserID != userID {
		return ErrPresetNotFound
	}
	delete(s.presets, id)
	return nil
}

// --- weekly plan store ---

type fakePlanStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]WeeklyPlan
	err   error
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: make(map[uuid.UUID]WeeklyPlan)}
}

func (s *fakePlanStore) deactivateOthers(p *WeeklyPlan) {
	if !p.IsActive {
		return
	}
	for id, other := range s.plans {
		if other.UserID == p.UserID && id != p.ID && other.IsActive {
			other.IsActive = false
			s.plans[id] = other
		}
	}
}

func (s *fakePlanStore) Create(_ context.Context, p *WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.deactivateOthers(p)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.plans[p.ID] = *p
	return nil
}

// insertRaw stores p without touching other plans.
func (s *fakePlanStore) insertRaw(p WeeklyPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.plans[p.ID] = p
}

func (s *fakePlanStore) ListByUser(_ context.Context, userID uuid.UUID) ([]WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WeeklyPlan, 0)
	for _, p := range s.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (s *fakePlanStore) Get(_ context.Context, userID, id uuid.UUID) (*WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok || p.UserID != userID {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (s *fakePlanStore) Update(_ context.Context, p *WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	existing, ok := s.plans[p.ID]
	if !ok || existing.UserID != p.UserID {
		return ErrPlanNotFound
	}
	s.deactivateOthers(p)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.plans[p.ID] = *p
	return nil
}

func (s *fakePlanStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok || p.UserID != userID {
		return ErrPlanNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *fakePlanStore) ActiveCovering(_ context.Context, userID uuid.UUID, date Date) ([]WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WeeklyPlan, 0)
	for _, p := range s.plans {
		p := p
		if p.UserID == userID && p.IsActive && p.Covers(date) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePlanStore) activeCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.plans {
		if p.UserID == userID && p.IsActive {
			n++
		}
	}
	return n
}

// --- cache and publisher ---

type fakeKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	gets   int
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (kv *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.gets++
	if kv.getErr != nil {
		return nil, false, kv.getErr
	}
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *fakeKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

func (kv *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	n, _ := strconv.ParseInt(string(kv.data[key]), 10, 64)
	n++
	kv.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

type publishedEvent struct {
	Type    string
	Key     string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Type: eventType, Key: key, Payload: payload})
	return nil
}

var errBoom = errors.New("boom")

// --- helpers ---

func mustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtrOf(s string) *Date {
	d := mustDate(s)
	return &d
}

func fixedClock(s string) func() time.Time {
	d := mustDate(s)
	return func() time.Time { return d.Add(12 * time.Hour) }
}

type fixture struct {
	goals     *fakeGoalStore
	presets   *fakePresetStore
	plans     *fakePlanStore
	kv        *fakeKV
	publisher *recordingPublisher
	cache     *ResolutionCache
	resolver  *Resolver
	timeline  *TimelineManager
}

// newFixture wires fakes together with "today" pinned to today.
func newFixture(today string, withCache bool) *fixture {
	f := &fixture{
		goals:     newFakeGoalStore(),
		presets:   newFakePresetStore(),
		plans:     newFakePlanStore(),
		kv:        newFakeKV(),
		publisher: &recordingPublisher{},
	}
	if withCache {
		f.cache = NewResolutionCache(f.kv, time.Minute)
	}
	f.resolver = NewResolver(f.goals, f.presets, f.plans, DefaultTargets(), f.cache)
	f.timeline = NewTimelineManager(f.goals, f.cache, f.publisher, time.UTC)
	f.timeline.now = fixedClock(today)
	return f
}
