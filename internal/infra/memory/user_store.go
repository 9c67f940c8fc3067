package memory

import (
	"context"
	"sync"

	"vocab-progress-service/internal/domain"
)

// UserStore is an in-memory app.UserStore. ListUsers returns users in
// registration order.
type UserStore struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[user.ID]; exists {
		return domain.New(domain.KindConflict, "user id already exists")
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return domain.New(domain.KindConflict, "email already registered")
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	s.order = append(s.order, user.ID)
	return nil
}

func (s *UserStore) GetUser(_ context.Context, userID string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[userID]
	return user, ok, nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return s.byID[id], true, nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.byID[id])
	}
	return users, nil
}
