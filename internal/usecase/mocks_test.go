//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// In-memory repositories
// =============================

// memPlanRepo is a small in-memory TravelPlanRepository.
type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.TravelPlan
}

var _ repository.TravelPlanRepository = (*memPlanRepo)(nil)

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.TravelPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.TravelPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TravelPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.TravelPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.TravelPlan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPlanRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.PlanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// memSpotRepo keys spots by plan then name.
type memSpotRepo struct {
	mu    sync.RWMutex
	store map[string]map[string]*model.Spot
}

var _ repository.SpotRepository = (*memSpotRepo)(nil)

func newMemSpotRepo() *memSpotRepo {
	return &memSpotRepo{store: make(map[string]map[string]*model.Spot)}
}

func (m *memSpotRepo) SaveBatch(ctx context.Context, tx repository.Tx, spots []*model.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range spots {
		if m.store[s.PlanID] == nil {
			m.store[s.PlanID] = make(map[string]*model.Spot)
		}
		if prev, ok := m.store[s.PlanID][s.Name]; ok {
			// Upsert semantics: image columns survive a regenerate.
			cp := *s
			cp.ImageState = prev.ImageState
			cp.ImageURL = prev.ImageURL
			m.store[s.PlanID][s.Name] = &cp
			continue
		}
		cp := *s
		m.store[s.PlanID][s.Name] = &cp
	}
	return nil
}

func (m *memSpotRepo) FindByPlanAndName(ctx context.Context, tx repository.Tx, planID, name string) (*model.Spot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[planID][name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSpotRepo) ListByPlan(ctx context.Context, tx repository.Tx, planID string) ([]*model.Spot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Spot, 0, len(m.store[planID]))
	for _, s := range m.store[planID] {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memSpotRepo) SetImage(ctx context.Context, tx repository.Tx, planID, name, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[planID][name]
	if !ok {
		return domain.ErrNotFound
	}
	s.ImageState = model.SpotImageReady
	s.ImageURL = imageURL
	return nil
}

func (m *memSpotRepo) SetImageState(ctx context.Context, tx repository.Tx, planID, name string, state model.SpotImageState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[planID][name]
	if !ok {
		return domain.ErrNotFound
	}
	s.ImageState = state
	return nil
}

// memJobRepo mirrors the Postgres job store's state machine, including
// lease staleness, so use case tests can run whole job lifecycles.
type memJobRepo struct {
	mu    sync.Mutex
	store map[string]*model.ImageJob
	seq   int

	createErr  error
	markErr    error // forced failure of MarkSucceeded/MarkFailed
	requeueErr error
}

var _ repository.ImageJobRepository = (*memJobRepo)(nil)

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.ImageJob)}
}

func (m *memJobRepo) CreateBatch(ctx context.Context, tx repository.Tx, planID string, spotNames []string, maxAttempts int) ([]*model.ImageJob, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if planID == "" || len(spotNames) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	var out []*model.ImageJob
	for _, name := range spotNames {
		if name == "" {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if m.findByKeyLocked(planID, name) != nil {
			continue
		}
		m.seq++
		j := &model.ImageJob{
			ID:          fmt.Sprintf("job-%d", m.seq),
			PlanID:      planID,
			SpotName:    name,
			Status:      model.ImageJobStatusQueued,
			MaxAttempts: maxAttempts,
			CreatedAt:   time.Now().Add(time.Duration(m.seq) * time.Microsecond),
			UpdatedAt:   time.Now(),
		}
		m.store[j.ID] = j
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memJobRepo) findByKeyLocked(planID, name string) *model.ImageJob {
	for _, j := range m.store {
		if j.PlanID == planID && j.SpotName == name {
			return j
		}
	}
	return nil
}

func claimable(j *model.ImageJob, staleAfter time.Duration, now time.Time) bool {
	if j.Status == model.ImageJobStatusQueued {
		return true
	}
	if j.Status != model.ImageJobStatusProcessing {
		return false
	}
	// A processing row with no lease timestamp is treated as already
	// stale, same as the store's defensive branch.
	return j.LockedAt == nil || now.Sub(*j.LockedAt) > staleAfter
}

func (m *memJobRepo) FetchAndLock(ctx context.Context, limit int, workerID string, staleAfter time.Duration) ([]*model.ImageJob, error) {
	if limit <= 0 || workerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*model.ImageJob, 0, len(m.store))
	for _, j := range m.store {
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.Before(all[k].CreatedAt) })

	now := time.Now()
	var out []*model.ImageJob
	for _, j := range all {
		if len(out) >= limit {
			break
		}
		if !claimable(j, staleAfter, now) {
			continue
		}
		j.Status = model.ImageJobStatusProcessing
		j.LockedBy = workerID
		t := now
		j.LockedAt = &t
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memJobRepo) Claim(ctx context.Context, planID, spotName, workerID string, staleAfter time.Duration) (*model.ImageJob, error) {
	if planID == "" || spotName == "" || workerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	j := m.findByKeyLocked(planID, spotName)
	if j == nil || !claimable(j, staleAfter, time.Now()) {
		return nil, domain.ErrNotFound
	}
	j.Status = model.ImageJobStatusProcessing
	j.LockedBy = workerID
	t := time.Now()
	j.LockedAt = &t
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) MarkSucceeded(ctx context.Context, tx repository.Tx, jobID string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = model.ImageJobStatusSucceeded
	j.LockedAt = nil
	j.LockedBy = ""
	return nil
}

func (m *memJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, errMsg string) (*model.ImageJob, error) {
	if m.markErr != nil {
		return nil, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j.Attempts++
	j.LastError = errMsg
	j.LockedAt = nil
	j.LockedBy = ""
	if j.Attempts < j.MaxAttempts {
		j.Status = model.ImageJobStatusQueued
	} else {
		j.Status = model.ImageJobStatusFailed
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID string) (*model.ImageJob, error) {
	if m.requeueErr != nil {
		return nil, m.requeueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if j.Status != model.ImageJobStatusFailed {
		return nil, domain.ErrJobNotRequeueable
	}
	j.Status = model.ImageJobStatusQueued
	j.LockedAt = nil
	j.LockedBy = ""
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, jobID string) (*model.ImageJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ImageJob
	for _, j := range m.store {
		if j.Status == status {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.ImageJobStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.ImageJobStatus]int)
	for _, j := range m.store {
		counts[j.Status]++
	}
	return counts, nil
}

// =============================
// Adapters and plumbing
// =============================

// mockTxManager runs the callback outside any real transaction.
type mockTxManager struct{}

var _ repository.TransactionManager = (*mockTxManager)(nil)

func (m *mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockGuideWriter struct {
	ComposeGuideFunc func(ctx context.Context, destination string, days int, interests []string) ([]adapter.SpotDraft, error)
}

var _ adapter.GuideWriter = (*mockGuideWriter)(nil)

func (m *mockGuideWriter) ComposeGuide(ctx context.Context, destination string, days int, interests []string) ([]adapter.SpotDraft, error) {
	return m.ComposeGuideFunc(ctx, destination, days, interests)
}

// mockDispatcher records every dispatch it receives.
type mockDispatcher struct {
	mu          sync.Mutex
	Dispatched  []adapter.JobDispatch
	EnqueueFunc func(ctx context.Context, d adapter.JobDispatch) error
}

var _ adapter.JobDispatcher = (*mockDispatcher)(nil)

func (m *mockDispatcher) Enqueue(ctx context.Context, d adapter.JobDispatch) error {
	m.mu.Lock()
	m.Dispatched = append(m.Dispatched, d)
	m.mu.Unlock()
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, d)
	}
	return nil
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Dispatched)
}

type mockImageModel struct {
	GenerateFunc func(ctx context.Context, prompt string) (*adapter.Image, error)
}

var _ adapter.ImageModel = (*mockImageModel)(nil)

func (m *mockImageModel) Provider() string { return "mock" }

func (m *mockImageModel) Generate(ctx context.Context, prompt string) (*adapter.Image, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return &adapter.Image{Data: []byte{0x1}, MIMEType: "image/png"}, nil
}

type mockMediaStore struct {
	PutFunc func(ctx context.Context, object string, data []byte, mimeType string) (string, error)
}

var _ adapter.MediaStore = (*mockMediaStore)(nil)

func (m *mockMediaStore) Put(ctx context.Context, object string, data []byte, mimeType string) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, object, data, mimeType)
	}
	return "https://media.test/" + object, nil
}

type stubPromptBuilder struct{}

var _ adapter.PromptBuilder = (*stubPromptBuilder)(nil)

func (stubPromptBuilder) BuildSpotPrompt(destination, spotName, description string) (string, int) {
	p := "photo of " + spotName + " in " + destination
	return p, len(p)
}

// mockRedisClient backs the rate limiter in guide tests.
type mockRedisClient struct {
	mu     sync.Mutex
	counts map[string]int64

	IncrFunc func(ctx context.Context, key string) (int64, error)
}

func newMockRedisClient() *mockRedisClient {
	return &mockRedisClient{counts: make(map[string]int64)}
}

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return "", domain.ErrNotFound
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFunc != nil {
		return m.IncrFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error { return nil }
func (m *mockRedisClient) Close() error                                  { return nil }

// mockGenerator stands in for the whole execution boundary when testing
// the job bookkeeping on its own.
type mockGenerator struct {
	GenerateForSpotFunc func(ctx context.Context, planID, spotName string) (string, error)
}

func (m *mockGenerator) GenerateForSpot(ctx context.Context, planID, spotName string) (string, error) {
	return m.GenerateForSpotFunc(ctx, planID, spotName)
}
