package session

import "errors"

var (
	ErrEmptyAccessToken = errors.New("access token must not be empty")
	ErrNotAuthenticated = errors.New("session is not authenticated")
)

// User is the identity record returned by the backend. Only the fields the
// client displays are modelled; anything else in the payload is ignored.
type User struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
}

// Clone returns a deep copy of u (nil stays nil).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Roles != nil {
		c.Roles = append([]string(nil), u.Roles...)
	}
	return &c
}

// Session is the in-memory authentication state.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}

// Snapshot is the persisted form of a Session. It deliberately has no
// loading flag.
type Snapshot struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"accessToken,omitempty"`
	RefreshToken    string `json:"refreshToken,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

func snapshotOf(s Session) Snapshot {
	return Snapshot{
		User:            s.User.Clone(),
		AccessToken:     s.AccessToken,
		RefreshToken:    s.RefreshToken,
		IsAuthenticated: s.IsAuthenticated,
	}
}

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseAnonymous          Phase = "anonymous"
	PhaseAuthenticating     Phase = "authenticating"
	PhaseAuthenticated      Phase = "authenticated"
	PhaseRefreshingSilently Phase = "refreshing"
)
