package credstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	authority "github.com/halcyonlabs/authority"
)

// Memory is an in-process CredentialStore keyed by user id with an email
// index. It is safe for concurrent use and is intended for tests and
// single-process examples.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]authority.UserRecord
	byEmail map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]authority.UserRecord),
		byEmail: make(map[string]string),
	}
}

// Create inserts a record with a fresh v7 UUID. The uniqueness check and
// the insert happen under one lock.
func (m *Memory) Create(_ context.Context, input authority.CreateUserInput) (authority.UserRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return authority.UserRecord{}, fmt.Errorf("generate user id: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[input.Email]; exists {
		return authority.UserRecord{}, authority.ErrDuplicateEmail
	}

	user := authority.UserRecord{
		ID:         id.String(),
		Name:       input.Name,
		Email:      input.Email,
		SecretHash: input.SecretHash,
		Role:       input.Role,
		CreatedAt:  time.Now().UTC(),
	}

	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID

	return user, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (authority.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return authority.UserRecord{}, authority.ErrUserNotFound
	}

	return m.byID[id], nil
}

func (m *Memory) GetByID(_ context.Context, id string) (authority.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return authority.UserRecord{}, authority.ErrUserNotFound
	}

	return user, nil
}
