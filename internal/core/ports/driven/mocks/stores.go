package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

var (
	_ driven.SearchIndexStore = (*MockSearchIndexStore)(nil)
	_ driven.ScheduleStore    = (*MockScheduleStore)(nil)
	_ driven.JobStore         = (*MockJobStore)(nil)
)

// MockSearchIndexStore is an in-memory SearchIndexStore for testing
type MockSearchIndexStore struct {
	mu      sync.RWMutex
	indexes map[string]*domain.SearchIndex

	ListEnabledFn func() ([]*domain.SearchIndex, error)
}

// NewMockSearchIndexStore creates a store seeded with the given definitions
func NewMockSearchIndexStore(indexes ...*domain.SearchIndex) *MockSearchIndexStore {
	m := &MockSearchIndexStore{indexes: make(map[string]*domain.SearchIndex)}
	for _, idx := range indexes {
		m.indexes[idx.ID] = idx
	}
	return m
}

func (m *MockSearchIndexStore) List(ctx context.Context) ([]*domain.SearchIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SearchIndex, 0, len(m.indexes))
	for _, idx := range m.indexes {
		c := *idx
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockSearchIndexStore) ListEnabled(ctx context.Context) ([]*domain.SearchIndex, error) {
	if m.ListEnabledFn != nil {
		return m.ListEnabledFn()
	}
	all, _ := m.List(ctx)
	out := all[:0]
	for _, idx := range all {
		if idx.Enabled {
			out = append(out, idx)
		}
	}
	return out, nil
}

func (m *MockSearchIndexStore) Get(ctx context.Context, id string) (*domain.SearchIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *idx
	return &c, nil
}

func (m *MockSearchIndexStore) GetByName(ctx context.Context, name string) (*domain.SearchIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, idx := range m.indexes {
		if idx.Name == name {
			c := *idx
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSearchIndexStore) Save(ctx context.Context, idx *domain.SearchIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *idx
	m.indexes[idx.ID] = &c
	return nil
}

func (m *MockSearchIndexStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.indexes, id)
	return nil
}

func (m *MockSearchIndexStore) TouchLastIndexed(ctx context.Context, names []string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, idx := range m.indexes {
		for _, n := range names {
			if idx.Name == n {
				t := at
				idx.LastIndexed = &t
			}
		}
	}
	return nil
}

// MockScheduleStore is an in-memory ScheduleStore for testing
type MockScheduleStore struct {
	mu        sync.RWMutex
	schedules map[string]*domain.Schedule

	ListEnabledFn func() ([]*domain.Schedule, error)
}

// NewMockScheduleStore creates a store seeded with the given schedules
func NewMockScheduleStore(schedules ...*domain.Schedule) *MockScheduleStore {
	m := &MockScheduleStore{schedules: make(map[string]*domain.Schedule)}
	for _, s := range schedules {
		m.schedules[s.ID] = s
	}
	return m
}

func (m *MockScheduleStore) List(ctx context.Context) ([]*domain.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockScheduleStore) ListEnabled(ctx context.Context) ([]*domain.Schedule, error) {
	if m.ListEnabledFn != nil {
		return m.ListEnabledFn()
	}
	all, _ := m.List(ctx)
	out := all[:0]
	for _, s := range all {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockScheduleStore) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *MockScheduleStore) GetByName(ctx context.Context, name string) (*domain.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedules {
		if s.Name == name {
			c := *s
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockScheduleStore) Save(ctx context.Context, s *domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	c.NextRun = nil
	m.schedules[s.ID] = &c
	return nil
}

func (m *MockScheduleStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *MockScheduleStore) UpdateLastRun(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	s.LastRun = &t
	return nil
}

// MockJobStore is an in-memory JobStore for testing
type MockJobStore struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.IndexJob
	order     []string
	schedules driven.ScheduleStore

	// ProgressUpdates records every processed counter written per job
	ProgressUpdates map[string][]int

	CreateFn func(job *domain.IndexJob) error
}

// NewMockJobStore creates a new MockJobStore. Schedules are joined from
// the given store when non-nil.
func NewMockJobStore(schedules driven.ScheduleStore) *MockJobStore {
	return &MockJobStore{
		jobs:            make(map[string]*domain.IndexJob),
		schedules:       schedules,
		ProgressUpdates: make(map[string][]int),
	}
}

func (m *MockJobStore) Create(ctx context.Context, job *domain.IndexJob) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *job
	m.jobs[job.ID] = &c
	m.order = append(m.order, job.ID)
	return nil
}

func (m *MockJobStore) Get(ctx context.Context, id string) (*domain.IndexJob, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	var c domain.IndexJob
	if ok {
		c = *job
	}
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.join(ctx, &c)
	return &c, nil
}

func (m *MockJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.IndexJob, error) {
	m.mu.RLock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	m.mu.RUnlock()

	var out []*domain.IndexJob
	for i := len(ids) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		job, err := m.Get(ctx, ids[i])
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (m *MockJobStore) LastForSchedule(ctx context.Context, scheduleID string) (*domain.IndexJob, error) {
	m.mu.RLock()
	var id string
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.jobs[m.order[i]].ScheduleID == scheduleID {
			id = m.order[i]
			break
		}
	}
	m.mu.RUnlock()
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MockJobStore) SetTotal(ctx context.Context, id string, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.SetTotal(total)
	return nil
}

func (m *MockJobStore) UpdateProgress(ctx context.Context, id string, processed int, progress float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return nil
	}
	p := processed
	pr := progress
	job.Processed = &p
	job.Progress = &pr
	m.ProgressUpdates[id] = append(m.ProgressUpdates[id], processed)
	return nil
}

func (m *MockJobStore) Finish(ctx context.Context, id string, status domain.JobStatus, errMsg string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if job.Status != domain.JobStatusRunning {
		return false, nil
	}
	if err := job.Finish(status, errMsg, at); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockJobStore) FailStale(ctx context.Context, reason string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusRunning {
			_ = job.Finish(domain.JobStatusFailed, reason, at)
			n++
		}
	}
	return n, nil
}

func (m *MockJobStore) join(ctx context.Context, job *domain.IndexJob) {
	if m.schedules == nil || job.IsManual() {
		return
	}
	if s, err := m.schedules.Get(ctx, job.ScheduleID); err == nil {
		job.Schedule = s
	}
}
