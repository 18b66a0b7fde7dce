package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/huntlog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/huntlog/internal/common"
	"github.com/dmitrijs2005/huntlog/internal/logging"
)

// Store owns the Session. All methods are safe for concurrent use.
type Store struct {
	repo   metadata.Repository
	logger logging.Logger

	// writeMu serializes mutations of the persisted fields; mu guards state.
	// Lock order is writeMu then mu.
	writeMu sync.Mutex
	mu      sync.RWMutex

	state          Session
	authenticating bool
	refreshing     int

	subsMu  sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// NewStore returns an empty, anonymous store backed by repo. Call Load to
// rehydrate a previously persisted session.
func NewStore(repo metadata.Repository, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{repo: repo, logger: logger, subs: make(map[int]func(Session))}
}

// Load rehydrates the session from durable storage. The standalone token
// entries take precedence over the tokens inside the snapshot blob.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var snap Snapshot
	raw, err := s.repo.Get(ctx, common.SessionStorageKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &snap); err != nil {
			s.logger.Warn(ctx, "discarding unreadable session snapshot", "error", err)
			snap = Snapshot{}
		}
	}

	access, err := s.repo.Get(ctx, common.AccessTokenStorageKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(access) > 0 {
		snap.AccessToken = string(access)
	}
	refresh, err := s.repo.Get(ctx, common.RefreshTokenStorageKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(refresh) > 0 {
		snap.RefreshToken = string(refresh)
	}

	if snap.IsAuthenticated && snap.AccessToken == "" {
		snap = Snapshot{}
	}

	s.apply(snap)
	s.notify()
	return nil
}

// Get returns a copy of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// Phase reports the lifecycle state derived from the session and any
// in-flight login or refresh.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.state.IsAuthenticated && s.refreshing > 0:
		return PhaseRefreshingSilently
	case s.state.IsAuthenticated:
		return PhaseAuthenticated
	case s.authenticating:
		return PhaseAuthenticating
	default:
		return PhaseAnonymous
	}
}

// SetAuth installs a freshly logged-in session.
func (s *Store) SetAuth(ctx context.Context, user *User, accessToken, refreshToken string) error {
	if accessToken == "" {
		return ErrEmptyAccessToken
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := Snapshot{
		User:            user.Clone(),
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		IsAuthenticated: true,
	}
	blob, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	values := map[string][]byte{
		common.AccessTokenStorageKey: []byte(accessToken),
		common.SessionStorageKey:     blob,
	}
	var stale []string
	if refreshToken != "" {
		values[common.RefreshTokenStorageKey] = []byte(refreshToken)
	} else {
		stale = append(stale, common.RefreshTokenStorageKey)
	}
	if err := s.repo.Update(ctx, values, stale...); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.authenticating = false
	s.mu.Unlock()

	s.apply(next)
	s.notify()
	return nil
}

// SetUser replaces the user record without touching the tokens. Like
// SetAccessToken it refuses a session that has been cleared.
func (s *Store) SetUser(ctx context.Context, user *User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	if !next.IsAuthenticated {
		return ErrNotAuthenticated
	}
	next.User = user.Clone()
	if err := s.persistBlob(ctx, next, nil); err != nil {
		return err
	}
	s.apply(next)
	s.notify()
	return nil
}

// SetAccessToken swaps in a refreshed access token. The refresh token and
// user are left unchanged. It refuses to act on a session that has been
// cleared meanwhile, so a late refresh cannot resurrect a logged-out session.
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyAccessToken
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot()
	if !next.IsAuthenticated {
		return ErrNotAuthenticated
	}
	next.AccessToken = token
	if err := s.persistBlob(ctx, next, map[string][]byte{common.AccessTokenStorageKey: []byte(token)}); err != nil {
		return err
	}
	s.apply(next)
	s.notify()
	return nil
}

// Clear drops the whole session. Memory is always cleared; a storage
// failure is still reported to the caller.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.repo.DeleteMany(ctx,
		common.AccessTokenStorageKey,
		common.RefreshTokenStorageKey,
		common.SessionStorageKey,
	)

	s.mu.Lock()
	s.authenticating = false
	s.mu.Unlock()

	s.apply(Snapshot{})
	s.notify()

	if err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	return nil
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	changed := s.state.IsLoading != loading
	s.state.IsLoading = loading
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// BeginAuthentication marks a login attempt as in flight.
func (s *Store) BeginAuthentication() {
	s.mu.Lock()
	s.authenticating = true
	s.mu.Unlock()
	s.notify()
}

// AbortAuthentication ends a failed login attempt; the session is untouched.
func (s *Store) AbortAuthentication() {
	s.mu.Lock()
	s.authenticating = false
	s.mu.Unlock()
	s.notify()
}

// BeginRefresh and EndRefresh bracket a silent token refresh. They nest, so
// concurrent refreshes keep the phase until the last one finishes.
func (s *Store) BeginRefresh() {
	s.mu.Lock()
	s.refreshing++
	s.mu.Unlock()
	s.notify()
}

func (s *Store) EndRefresh() {
	s.mu.Lock()
	if s.refreshing > 0 {
		s.refreshing--
	}
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn to receive a copy of the session after every
// change. fn runs synchronously on the mutating goroutine and must not call
// the Store's mutating methods. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.state)
}

// apply installs the persisted fields of snap, keeping the loading flag.
func (s *Store) apply(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = snap.User
	s.state.AccessToken = snap.AccessToken
	s.state.RefreshToken = snap.RefreshToken
	s.state.IsAuthenticated = snap.IsAuthenticated
}

func (s *Store) persistBlob(ctx context.Context, snap Snapshot, extra map[string][]byte) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	values := map[string][]byte{common.SessionStorageKey: blob}
	for k, v := range extra {
		values[k] = v
	}
	if err := s.repo.SetMany(ctx, values); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Store) notify() {
	current := s.Get()

	s.subsMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(current.clone())
	}
}
