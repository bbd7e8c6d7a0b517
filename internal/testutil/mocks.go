package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/cofreforte/cofre-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) UpdateName(ctx context.Context, auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.AddUser(user)
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
	GetByUserIDFn func(userID uuid.UUID) (*domain.Workspace, error)
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

func (m *MockWorkspaceRepository) GetByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Workspace, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(userID)
	}
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	workspace.ID = m.NextID
	m.NextID++
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	return workspace, nil
}

// AddWorkspace adds a workspace to the mock repository (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace, auth0ID string) {
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	if auth0ID != "" {
		m.ByUserAuth0ID[auth0ID] = workspace
	}
}

// MockSubscriptionRepository is a mock implementation of domain.SubscriptionRepository.
// Reads return copies so callers cannot mutate stored rows without calling Update.
type MockSubscriptionRepository struct {
	Subscriptions map[uuid.UUID]*domain.Subscription
	order         []uuid.UUID
	CreateErr     error
	ListErr       error
	UpdateErr     error
	UpdateCalls   int
	AdvanceErr    error

	// BeforeAdvanceFn runs at the start of AdvanceBillingDate, e.g. to simulate a concurrent edit
	BeforeAdvanceFn func(id uuid.UUID)
}

// NewMockSubscriptionRepository creates a new MockSubscriptionRepository
func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		Subscriptions: make(map[uuid.UUID]*domain.Subscription),
	}
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := *sub
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.AddSubscription(&stored)
	out := stored
	return &out, nil
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, workspaceID int32, id uuid.UUID) (*domain.Subscription, error) {
	sub, ok := m.Subscriptions[id]
	if !ok || sub.WorkspaceID != workspaceID {
		return nil, domain.ErrSubscriptionNotFound
	}
	out := *sub
	return &out, nil
}

// ListByWorkspace returns subscriptions in insertion order
func (m *MockSubscriptionRepository) ListByWorkspace(ctx context.Context, workspaceID int32, filter domain.SubscriptionFilter) ([]*domain.Subscription, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Subscription, 0)
	for _, id := range m.order {
		sub, ok := m.Subscriptions[id]
		if !ok || sub.WorkspaceID != workspaceID {
			continue
		}
		if filter.Active != nil && sub.IsActive != *filter.Active {
			continue
		}
		if filter.Ghost != nil && sub.IsGhost != *filter.Ghost {
			continue
		}
		out := *sub
		result = append(result, &out)
	}
	return result, nil
}

func (m *MockSubscriptionRepository) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Subscription, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Subscription, 0)
	for _, id := range m.order {
		sub, ok := m.Subscriptions[id]
		if !ok || !sub.IsCommitted() || !sub.BillingDate.Before(cutoff) {
			continue
		}
		out := *sub
		result = append(result, &out)
	}
	return result, nil
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	existing, ok := m.Subscriptions[sub.ID]
	if !ok || existing.WorkspaceID != sub.WorkspaceID {
		return nil, domain.ErrSubscriptionNotFound
	}
	stored := *sub
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	m.Subscriptions[sub.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MockSubscriptionRepository) AdvanceBillingDate(ctx context.Context, workspaceID int32, id uuid.UUID, from, to time.Time) (*domain.Subscription, error) {
	if m.BeforeAdvanceFn != nil {
		m.BeforeAdvanceFn(id)
	}
	if m.AdvanceErr != nil {
		return nil, m.AdvanceErr
	}
	existing, ok := m.Subscriptions[id]
	if !ok || existing.WorkspaceID != workspaceID || !existing.IsCommitted() || !existing.BillingDate.Equal(from) {
		return nil, domain.ErrSubscriptionChanged
	}
	stored := *existing
	stored.BillingDate = to
	stored.UpdatedAt = time.Now()
	m.Subscriptions[id] = &stored
	out := stored
	return &out, nil
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	sub, ok := m.Subscriptions[id]
	if !ok || sub.WorkspaceID != workspaceID {
		return domain.ErrSubscriptionNotFound
	}
	delete(m.Subscriptions, id)
	return nil
}

// AddSubscription stores sub as is (helper for tests). A nil ID gets a fresh one.
func (m *MockSubscriptionRepository) AddSubscription(sub *domain.Subscription) *domain.Subscription {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if _, exists := m.Subscriptions[sub.ID]; !exists {
		m.order = append(m.order, sub.ID)
	}
	m.Subscriptions[sub.ID] = sub
	return sub
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments  []*domain.PaymentRecord
	RecordErr error
	seen      map[string]bool
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{seen: make(map[string]bool)}
}

// Record is idempotent on subscription and PaidAt like the real table
func (m *MockPaymentRepository) Record(ctx context.Context, p *domain.PaymentRecord) (bool, error) {
	if m.RecordErr != nil {
		return false, m.RecordErr
	}
	key := fmt.Sprintf("%s|%d", p.SubscriptionID, p.PaidAt.UnixNano())
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	m.Payments = append(m.Payments, &stored)
	return true, nil
}

func (m *MockPaymentRepository) ListByWorkspace(ctx context.Context, workspaceID int32, from, to *time.Time) ([]*domain.PaymentRecord, error) {
	result := make([]*domain.PaymentRecord, 0)
	for _, p := range m.Payments {
		if p.WorkspaceID != workspaceID {
			continue
		}
		if from != nil && p.PaidAt.Before(*from) {
			continue
		}
		if to != nil && !p.PaidAt.Before(*to) {
			continue
		}
		result = append(result, p)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].PaidAt.Before(result[j].PaidAt) })
	return result, nil
}

// MockAchievementRepository is a mock implementation of domain.AchievementRepository
type MockAchievementRepository struct {
	Unlocks   map[int32][]*domain.AchievementUnlock
	UnlockErr error
}

// NewMockAchievementRepository creates a new MockAchievementRepository
func NewMockAchievementRepository() *MockAchievementRepository {
	return &MockAchievementRepository{Unlocks: make(map[int32][]*domain.AchievementUnlock)}
}

func (m *MockAchievementRepository) Unlock(ctx context.Context, workspaceID int32, id domain.AchievementID, at time.Time) (bool, error) {
	if m.UnlockErr != nil {
		return false, m.UnlockErr
	}
	for _, u := range m.Unlocks[workspaceID] {
		if u.AchievementID == id {
			return false, nil
		}
	}
	m.Unlocks[workspaceID] = append(m.Unlocks[workspaceID], &domain.AchievementUnlock{
		WorkspaceID:   workspaceID,
		AchievementID: id,
		UnlockedAt:    at,
	})
	return true, nil
}

func (m *MockAchievementRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.AchievementUnlock, error) {
	out := make([]*domain.AchievementUnlock, 0, len(m.Unlocks[workspaceID]))
	return append(out, m.Unlocks[workspaceID]...), nil
}

// IDs returns the unlocked achievement ids of a workspace in unlock order
func (m *MockAchievementRepository) IDs(workspaceID int32) []domain.AchievementID {
	var ids []domain.AchievementID
	for _, u := range m.Unlocks[workspaceID] {
		ids = append(ids, u.AchievementID)
	}
	return ids
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Types returns the type of every captured event in publish order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}

// MockObjectStore is an in-memory storage.ObjectStore
type MockObjectStore struct {
	Objects map[string][]byte
	PutErr  error
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Objects: make(map[string][]byte)}
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Objects[key] = data
	return nil
}

func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	delete(m.Objects, key)
	return nil
}

func (m *MockObjectStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}
