package client

import (
	"sync"

	"github.com/coursehub/course-online-server/internal/model"
)

// User is what the client knows about the signed-in account.
type User struct {
	ID   int        `json:"id"`
	Role model.Role `json:"role"`
}

// Snapshot is the auth state at one point in time.
type Snapshot struct {
	User  *User
	Token string
}

// LoggedIn reports whether a credential is held.
func (s Snapshot) LoggedIn() bool { return s.Token != "" }

// Action is a state transition applied by State.Dispatch.
type Action interface{ apply(Snapshot) Snapshot }

// LoginSuccess replaces the state with a fresh login.
type LoginSuccess struct {
	User  User
	Token string
}

// RegisterSuccess behaves like LoginSuccess; registration signs the user in.
type RegisterSuccess struct {
	User  User
	Token string
}

// Restored loads a persisted credential. User may be nil when the token's
// claims could not be decoded.
type Restored struct {
	User  *User
	Token string
}

// Logout clears user and token.
type Logout struct{}

func (a LoginSuccess) apply(Snapshot) Snapshot {
	u := a.User
	return Snapshot{User: &u, Token: a.Token}
}

func (a RegisterSuccess) apply(Snapshot) Snapshot {
	u := a.User
	return Snapshot{User: &u, Token: a.Token}
}

func (a Restored) apply(Snapshot) Snapshot {
	return Snapshot{User: a.User, Token: a.Token}
}

func (Logout) apply(Snapshot) Snapshot { return Snapshot{} }

// State is the in-memory auth state. It is safe for concurrent use; readers
// always see a complete snapshot.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewState() *State { return &State{} }

// Dispatch applies a and returns the new snapshot.
func (s *State) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = a.apply(s.snap)
	return s.snap
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Token returns the current credential, or "".
func (s *State) Token() string {
	return s.Snapshot().Token
}
