package users

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/huntlog/internal/common"
)

type Repository interface {
	// Create stores user and assigns its ID. A taken email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, user *User) error
}

type TokenRepository interface {
	Create(ctx context.Context, token string, t Token) error
	Find(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteForUser drops every token of the given kind owned by userID.
	DeleteForUser(ctx context.Context, userID int64, kind TokenKind) error
}

// MemoryRepository keeps users in a map. Emails are matched
// case-insensitively.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]int64),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(u *User) *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, ok := r.byEmail[key]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.nextID++
	u := cloneUser(user)
	u.ID = r.nextID
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return cloneUser(u), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return common.ErrorNotFound
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

type MemoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]Token
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]Token)}
}

func (r *MemoryTokenRepository) Create(ctx context.Context, token string, t Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token]; ok {
		return common.ErrorAlreadyExists
	}
	r.tokens[token] = t
	return nil
}

func (r *MemoryTokenRepository) Find(ctx context.Context, token string) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *MemoryTokenRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *MemoryTokenRepository) DeleteForUser(ctx context.Context, userID int64, kind TokenKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.UserID == userID && t.Kind == kind {
			delete(r.tokens, k)
		}
	}
	return nil
}
