package signalhub_test

import (
	"encoding/json"
	"sync"

	"screencast/backend/internal/models"
)

// MockClient is a test double for the signalhub.Client interface.
type MockClient struct {
	addr string

	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func newMockClient(addr string) *MockClient {
	return &MockClient{addr: addr}
}

func (c *MockClient) RemoteAddr() string { return c.addr }

func (c *MockClient) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.received = append(c.received, msg)
	return true
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// DrainMessages returns and forgets everything received so far.
func (c *MockClient) DrainMessages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.received
	c.received = nil
	return out
}

// DrainTypes returns the "type" of every message received so far.
func (c *MockClient) DrainTypes() []models.SignalType {
	var types []models.SignalType
	for _, raw := range c.DrainMessages() {
		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			types = append(types, env.Type)
		}
	}
	return types
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
