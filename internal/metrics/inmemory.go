package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginSuccesses uint64
	LoginFailures  uint64
	TokensRevoked  uint64
	AuthRejected   uint64
	UsersCreated   uint64
	UsersUpdated   uint64
	UsersDeleted   uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	loginSuccesses uint64
	loginFailures  uint64
	tokensRevoked  uint64
	authRejected   uint64
	usersCreated   uint64
	usersUpdated   uint64
	usersDeleted   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		LoginSuccesses: atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:  atomic.LoadUint64(&m.loginFailures),
		TokensRevoked:  atomic.LoadUint64(&m.tokensRevoked),
		AuthRejected:   atomic.LoadUint64(&m.authRejected),
		UsersCreated:   atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:   atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:   atomic.LoadUint64(&m.usersDeleted),
	}
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncTokenRevoked increments the revoked token counter.
func (m *InMemoryRecorder) IncTokenRevoked() {
	atomic.AddUint64(&m.tokensRevoked, 1)
}

// IncAuthRejected increments the rejected request counter.
func (m *InMemoryRecorder) IncAuthRejected() {
	atomic.AddUint64(&m.authRejected, 1)
}

// IncUserCreated increments the user created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments the user updated counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments the user deleted counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}
