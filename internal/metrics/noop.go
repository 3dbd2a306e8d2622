package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure() {}

// IncTokenRevoked is a no-op.
func (n *NoopRecorder) IncTokenRevoked() {}

// IncAuthRejected is a no-op.
func (n *NoopRecorder) IncAuthRejected() {}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated() {}

// IncUserUpdated is a no-op.
func (n *NoopRecorder) IncUserUpdated() {}

// IncUserDeleted is a no-op.
func (n *NoopRecorder) IncUserDeleted() {}
