package reset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"meal-attendance-backend/internal/store"
)

// State tracks a reset request through its confirmation flow. The
// destructive call never runs off a blocking prompt: the dashboard first
// requests a token, then confirms it in a second call.
type State string

const (
	StateRequested State = "requested"
	StateExecuting State = "executing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

var (
	// ErrUnknownToken is returned when the token was never issued or has
	// already reached a terminal state and been discarded.
	ErrUnknownToken = errors.New("unknown reset token")
	// ErrTokenExpired is returned when the confirmation arrived too late.
	ErrTokenExpired = errors.New("reset token expired")
	// ErrInFlight is returned when a confirmed reset is already executing.
	ErrInFlight = errors.New("a reset is already executing")
)

type request struct {
	state   State
	expires time.Time
}

// Controller drives the full-cycle wipe: an opaque remote operation invoked
// with a bearer credential, answering ok or not-ok.
type Controller struct {
	client *http.Client
	url    string
	token  string
	ttl    time.Duration
	store  store.Store

	mu       sync.Mutex
	requests map[string]*request
	running  bool
}

// NewController creates a reset controller. url and token identify the
// remote reset operation; ttl bounds how long a confirmation token is valid.
func NewController(url, token string, ttl time.Duration, s store.Store) *Controller {
	return &Controller{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      url,
		token:    token,
		ttl:      ttl,
		store:    s,
		requests: make(map[string]*request),
	}
}

// Request issues a confirmation token. The reset does not run until the
// same token is confirmed before it expires.
func (c *Controller) Request() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := uuid.NewString()
	expires := time.Now().Add(c.ttl)
	c.requests[token] = &request{state: StateRequested, expires: expires}
	return token, expires
}

// Status returns the state of a previously issued token.
func (c *Controller) Status(token string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.requests[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return req.state, nil
}

// Confirm executes the remote reset for a previously requested token. On
// success every consumer of the change feed drops its rows and starts the
// new cycle empty.
func (c *Controller) Confirm(ctx context.Context, token string) error {
	c.mu.Lock()
	req, ok := c.requests[token]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownToken
	}
	if req.state != StateRequested {
		c.mu.Unlock()
		return ErrUnknownToken
	}
	if time.Now().After(req.expires) {
		delete(c.requests, token)
		c.mu.Unlock()
		return ErrTokenExpired
	}
	if c.running {
		c.mu.Unlock()
		return ErrInFlight
	}
	req.state = StateExecuting
	c.running = true
	c.mu.Unlock()

	err := c.execute(ctx)

	c.mu.Lock()
	c.running = false
	if err != nil {
		req.state = StateFailed
	} else {
		req.state = StateDone
	}
	c.mu.Unlock()

	return err
}

func (c *Controller) execute(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reset operation returned status %d", resp.StatusCode)
	}

	log.Println("Daily reset completed, starting new cycle.")
	c.store.Broadcast(store.ChangeEvent{Kind: store.ChangeReset})
	return nil
}
