package client_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"screencast/backend/internal/client"

	"github.com/gorilla/websocket"
)

// fakeScheduler is a manual clock. Due callbacks run synchronously inside
// Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
	delays []time.Duration
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) client.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, delay: d, f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// Advance moves the clock forward, firing due timers in order. Timers
// scheduled by a callback fire too if they fall due within the window.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > end {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			s.now = end
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

// Pending returns the delays of timers that have neither fired nor stopped.
func (s *fakeScheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.delay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *fakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type fakeConn struct {
	incoming chan []byte
	closedCh chan int

	mu         sync.Mutex
	writes     [][]byte
	closeCode  int
	closedOnce sync.Once
	writeErr   error
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 16), closedCh: make(chan int, 1)}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case code := <-c.closedCh:
		return nil, &websocket.CloseError{Code: code}
	}
}

// Close is the local side closing.
func (c *fakeConn) Close(code int) error {
	c.mu.Lock()
	c.closeCode = code
	c.mu.Unlock()
	c.drop(code)
	return nil
}

// drop simulates the socket going away with code.
func (c *fakeConn) drop(code int) {
	c.closedOnce.Do(func() { c.closedCh <- code })
}

func (c *fakeConn) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	for i, w := range c.writes {
		out[i] = string(w)
	}
	return out
}

func (c *fakeConn) CloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

var errDialRefused = errors.New("connection refused")

type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
	fail  bool
}

func (t *fakeTransport) Dial(ctx context.Context, _ string) (client.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.fail {
		return nil, errDialRefused
	}
	c := newFakeConn()
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) SetFail(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = fail
}

func (t *fakeTransport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) Last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}
