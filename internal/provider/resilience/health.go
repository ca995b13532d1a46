package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is a snapshot of a client's recent behavior, surfaced on the
// ops status endpoint.
type Health struct {
	Name         string           `json:"name"`
	CircuitState string           `json:"circuit_state"`
	Requests     uint32           `json:"requests"`
	Failures     uint32           `json:"failures"`
	LastSuccess  *time.Time       `json:"last_success,omitempty"`
	LastFailure  *time.Time       `json:"last_failure,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
	state        gobreaker.State
}

// Healthy reports whether the circuit is closed.
func (h Health) Healthy() bool {
	return h.state == gobreaker.StateClosed
}

// Health returns the client's current health snapshot.
func (c *Client) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := c.breaker.Counts()
	state := c.breaker.State()

	h := Health{
		Name:         c.name,
		CircuitState: state.String(),
		Requests:     counts.Requests,
		Failures:     counts.TotalFailures,
		LastError:    c.lastError,
		state:        state,
	}
	if !c.lastSuccess.IsZero() {
		t := c.lastSuccess
		h.LastSuccess = &t
	}
	if !c.lastFailure.IsZero() {
		t := c.lastFailure
		h.LastFailure = &t
	}
	return h
}
