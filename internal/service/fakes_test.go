package service

import (
	"context"
	"sync"
	"time"

	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/generator"
	"alcyxob/fitplan/internal/llm"
	"alcyxob/fitplan/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProfileRepo struct {
	profiles map[primitive.ObjectID]*domain.UserProfile
	err      error
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeSessionRepo struct {
	sessions  []domain.WorkoutSession
	err       error
	lastLimit int
}

func (f *fakeSessionRepo) ListRecent(_ context.Context, _ primitive.ObjectID, limit int) ([]domain.WorkoutSession, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sessions) > limit {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

type fakeProgressRepo struct {
	records   []domain.ProgressRecord
	err       error
	lastLimit int
}

func (f *fakeProgressRepo) ListRecent(_ context.Context, _ primitive.ObjectID, limit int) ([]domain.ProgressRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*domain.PlanRecord
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]*domain.PlanRecord{}}
}

func (f *fakePlanRepo) Create(_ context.Context, plan *domain.PlanRecord) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	cp := *plan
	f.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (f *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlanRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plans)
}

// memRateLimitRepo serializes updates per store, like the transaction does.
type memRateLimitRepo struct {
	mu      sync.Mutex
	records map[string]domain.RateLimitRecord
}

func newMemRateLimitRepo() *memRateLimitRepo {
	return &memRateLimitRepo{records: map[string]domain.RateLimitRecord{}}
}

func (m *memRateLimitRepo) Update(_ context.Context, userID primitive.ObjectID, operation string, mutate repository.RateLimitMutator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID.Hex() + "/" + operation
	rec, ok := m.records[key]
	if !ok {
		rec = domain.RateLimitRecord{UserID: userID, Operation: operation}
	}
	if err := mutate(&rec); err != nil {
		return err
	}
	m.records[key] = rec
	return nil
}

type fakeModel struct {
	mu      sync.Mutex
	text    string
	err     error
	block   bool
	prompts []generator.Prompt
}

func (f *fakeModel) Invoke(ctx context.Context, prompt generator.Prompt) (*llm.Completion, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, Usage: &domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil
}

type fakeArchive struct {
	mu       sync.Mutex
	archived []string
}

func (f *fakeArchive) ArchiveRejected(_ context.Context, userID primitive.ObjectID, operation, raw string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, raw)
	return "rejected/" + userID.Hex() + "/" + operation + ".txt", nil
}

func (f *fakeArchive) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://archive.example/" + key, nil
}

func (f *fakeArchive) Enabled() bool { return true }

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

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
